package billing

import (
	"net/http"
	"time"

	"freelancer-hub/database"
	"freelancer-hub/internal/app/http/respond"
	"freelancer-hub/internal/domain/billing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type paymentHistory struct {
	Payments []billing.Payment `json:"payments"`
	Total    decimal.Decimal   `json:"total"`
}

// GetPaymentHistory lists the freelancer's payments across invoices,
// newest first. Optional filters: method, from and to (YYYY-MM-DD).
func GetPaymentHistory(c *gin.Context) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	q := database.DB.Where("user_id = ?", userID)
	if m := c.Query("method"); m != "" {
		q = q.Where("method = ?", m)
	}
	for param, cond := range map[string]string{"from": "paid_at >= ?", "to": "paid_at < ?"} {
		v := c.Query(param)
		if v == "" {
			continue
		}
		day, err := time.Parse("2006-01-02", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + param + " date"})
			return
		}
		if param == "to" {
			day = day.AddDate(0, 0, 1)
		}
		q = q.Where(cond, day)
	}

	var out paymentHistory
	if err := q.Order("paid_at DESC, id DESC").Find(&out.Payments).Error; err != nil {
		respond.Error(c, err)
		return
	}
	out.Total = decimal.Zero
	for _, p := range out.Payments {
		if p.Status == billing.PaymentCompleted {
			out.Total = out.Total.Add(p.Amount)
		}
	}
	c.JSON(http.StatusOK, out)
}
