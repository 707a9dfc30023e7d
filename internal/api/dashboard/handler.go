package dashboard

import (
	"errors"
	"net/http"
	"time"

	"freelancer-hub/database"
	"freelancer-hub/internal/app/http/respond"
	"freelancer-hub/internal/app/services"
	"freelancer-hub/internal/domain/billing"
	"freelancer-hub/internal/domain/invoices"
	"freelancer-hub/internal/domain/portal"
	"freelancer-hub/internal/domain/projects"
	"freelancer-hub/internal/domain/timeentries"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Summary struct {
	Outstanding    decimal.Decimal        `json:"outstanding"`
	OverdueCount   int64                  `json:"overdue_count"`
	PaidThisMonth  decimal.Decimal        `json:"paid_this_month"`
	ActiveProjects int64                  `json:"active_projects"`
	UnbilledHours  decimal.Decimal        `json:"unbilled_hours"`
	UnreadMessages int64                  `json:"unread_messages"`
	RefundsDue     int64                  `json:"refunds_due"`
	RunningTimer   *timeentries.TimeEntry `json:"running_timer"`
	RecentInvoices []invoices.Invoice     `json:"recent_invoices"`
}

var openStatuses = []invoices.Status{invoices.StatusSent, invoices.StatusViewed, invoices.StatusOverdue}

// Build gathers the figures shown on a freelancer's home screen.
func Build(db *gorm.DB, userID uint, now time.Time) (Summary, error) {
	var s Summary

	var open []invoices.Invoice
	err := invoices.Owned(db, userID).
		Select("id", "status", "total", "amount_paid").
		Where("status IN ?", openStatuses).
		Find(&open).Error
	if err != nil {
		return s, err
	}
	for _, inv := range open {
		s.Outstanding = s.Outstanding.Add(inv.BalanceDue())
		if inv.Status == invoices.StatusOverdue {
			s.OverdueCount++
		}
	}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	var amounts []decimal.Decimal
	err = db.Model(&billing.Payment{}).
		Where("user_id = ? AND status = ? AND paid_at >= ?", userID, billing.PaymentCompleted, monthStart).
		Pluck("amount", &amounts).Error
	if err != nil {
		return s, err
	}
	s.PaidThisMonth = decimal.Sum(decimal.Zero, amounts...)

	err = db.Model(&billing.Payment{}).
		Where("user_id = ? AND status = ?", userID, billing.PaymentNeedsRefund).
		Count(&s.RefundsDue).Error
	if err != nil {
		return s, err
	}

	err = projects.Owned(db, userID).Where("status = ?", projects.ProjectActive).Count(&s.ActiveProjects).Error
	if err != nil {
		return s, err
	}

	var minutes []int
	err = timeentries.Owned(db, userID).
		Where("billable = ? AND invoice_id IS NULL AND ended_at IS NOT NULL", true).
		Pluck("duration_minutes", &minutes).Error
	if err != nil {
		return s, err
	}
	total := 0
	for _, m := range minutes {
		total += m
	}
	s.UnbilledHours = decimal.NewFromInt(int64(total)).Div(decimal.NewFromInt(60)).Round(2)

	var running timeentries.TimeEntry
	err = db.Where("user_id = ? AND ended_at IS NULL", userID).First(&running).Error
	switch {
	case err == nil:
		s.RunningTimer = &running
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return s, err
	}

	if s.UnreadMessages, err = portal.Unread(db, userID); err != nil {
		return s, err
	}

	err = invoices.Owned(db, userID).Order("created_at DESC, id DESC").Limit(5).Find(&s.RecentInvoices).Error
	return s, err
}

func GetDashboard(c *gin.Context) {
	s, err := Build(database.DB, c.GetUint("user_id"), services.Now())
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}
