package reminders

import (
	"net/http"
	"strconv"

	"freelancer-hub/database"
	"freelancer-hub/internal/app/http/respond"
	"freelancer-hub/internal/app/services"
	"freelancer-hub/internal/domain/reminders"

	"github.com/gin-gonic/gin"
)

// ListReminders returns the latest reminder rows, optionally for one invoice.
func ListReminders(c *gin.Context) {
	var invoiceID uint
	if c.Query("invoice_id") != "" {
		id, ok := respond.QueryID(c, "invoice_id")
		if !ok {
			return
		}
		invoiceID = id
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	out, err := reminders.List(database.DB, c.GetUint("user_id"), invoiceID, limit)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func Stats(c *gin.Context) {
	st, err := reminders.ComputeStats(database.DB, c.GetUint("user_id"), services.Now())
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}
