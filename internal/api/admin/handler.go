package admin

import (
	"net/http"
	"time"

	"freelancer-hub/database"
	"freelancer-hub/internal/app/http/respond"
	"freelancer-hub/internal/app/services"
	"freelancer-hub/internal/domain/billing"
	"freelancer-hub/internal/domain/clients"
	"freelancer-hub/internal/domain/invoices"
	"freelancer-hub/internal/domain/users"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type AdminUser struct {
	ID           uint      `json:"id"`
	Name         string    `json:"name"`
	BusinessName string    `json:"business_name,omitempty"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	AuthProvider string    `json:"auth_provider"`
	Clients      int64     `json:"clients"`
	Invoices     int64     `json:"invoices"`
	CreatedAt    time.Time `json:"created_at"`
}

type AdminStats struct {
	TotalUsers        int64            `json:"total_users"`
	TotalInvoiced     decimal.Decimal  `json:"total_invoiced"`
	TotalCollected    decimal.Decimal  `json:"total_collected"`
	RecentCollected   decimal.Decimal  `json:"recent_collected"`
	InvoicesPerStatus map[string]int64 `json:"invoices_per_status"`
}

type countRow struct {
	UserID uint
	N      int64
}

func countsBy(model interface{}) (map[uint]int64, error) {
	var rows []countRow
	err := database.DB.Model(model).
		Select("user_id, COUNT(*) AS n").
		Group("user_id").
		Scan(&rows).Error
	out := make(map[uint]int64, len(rows))
	for _, r := range rows {
		out[r.UserID] = r.N
	}
	return out, err
}

func ListAllUsers(c *gin.Context) {
	var all []users.User
	if err := database.DB.Order("created_at DESC").Find(&all).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load users"})
		return
	}
	clientCounts, err := countsBy(&clients.Client{})
	if err != nil {
		respond.Error(c, err)
		return
	}
	invoiceCounts, err := countsBy(&invoices.Invoice{})
	if err != nil {
		respond.Error(c, err)
		return
	}

	adminUsers := make([]AdminUser, 0, len(all))
	for _, u := range all {
		adminUsers = append(adminUsers, AdminUser{
			ID:           u.ID,
			Name:         u.Name,
			BusinessName: u.BusinessName,
			Email:        u.Email,
			Role:         u.Role,
			AuthProvider: u.AuthProvider,
			Clients:      clientCounts[u.ID],
			Invoices:     invoiceCounts[u.ID],
			CreatedAt:    u.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, adminUsers)
}

func sumPayments(since *time.Time) (decimal.Decimal, error) {
	q := database.DB.Model(&billing.Payment{}).Where("status = ?", billing.PaymentCompleted)
	if since != nil {
		q = q.Where("paid_at >= ?", *since)
	}
	var amounts []decimal.Decimal
	err := q.Pluck("amount", &amounts).Error
	return decimal.Sum(decimal.Zero, amounts...), err
}

func GetAdminStats(c *gin.Context) {
	stats := AdminStats{InvoicesPerStatus: map[string]int64{}}

	if err := database.DB.Model(&users.User{}).Count(&stats.TotalUsers).Error; err != nil {
		respond.Error(c, err)
		return
	}

	var totals []decimal.Decimal
	err := database.DB.Model(&invoices.Invoice{}).
		Where("status NOT IN ?", []invoices.Status{invoices.StatusDraft, invoices.StatusCancelled}).
		Pluck("total", &totals).Error
	if err != nil {
		respond.Error(c, err)
		return
	}
	stats.TotalInvoiced = decimal.Sum(decimal.Zero, totals...)

	if stats.TotalCollected, err = sumPayments(nil); err != nil {
		respond.Error(c, err)
		return
	}
	thirtyDaysAgo := services.Now().AddDate(0, 0, -30)
	if stats.RecentCollected, err = sumPayments(&thirtyDaysAgo); err != nil {
		respond.Error(c, err)
		return
	}

	var counts []struct {
		Status string
		Count  int64
	}
	err = database.DB.Model(&invoices.Invoice{}).
		Select("status, COUNT(id) AS count").
		Group("status").
		Scan(&counts).Error
	if err != nil {
		respond.Error(c, err)
		return
	}
	for _, row := range counts {
		stats.InvoicesPerStatus[row.Status] = row.Count
	}

	c.JSON(http.StatusOK, stats)
}

func GetUserDetails(c *gin.Context) {
	id, ok := respond.ParamID(c, "id")
	if !ok {
		return
	}

	var user users.User
	if err := database.DB.First(&user, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var payments []billing.Payment
	err := database.DB.Where("user_id = ?", id).Order("paid_at DESC").Limit(50).Find(&payments).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch payments"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":     user,
		"payments": payments,
	})
}
