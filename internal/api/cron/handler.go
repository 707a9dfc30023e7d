package cron

import (
	"net/http"
	"time"

	"freelancer-hub/config"
	"freelancer-hub/database"
	"freelancer-hub/internal/app/http/respond"
	"freelancer-hub/internal/app/services"
	"freelancer-hub/internal/domain/invoices"
	"freelancer-hub/internal/domain/portal"
	"freelancer-hub/internal/jobs"
	"freelancer-hub/internal/logger"

	"github.com/gin-gonic/gin"
)

type remindersResponse struct {
	Success bool `json:"success"`
	jobs.Result
	Timestamp time.Time `json:"timestamp"`
}

// Reminders runs the daily reminder batch. It is safe to call more than
// once a day; deliveries already made are skipped.
func Reminders(c *gin.Context) {
	lg := logger.WithComponent("reminders")
	job := &jobs.Reminders{
		DB:     database.DB,
		Mailer: services.Mailer,
		AppURL: config.App.AppURL,
		Log:    lg,
		Now:    services.Now,
	}
	res, err := job.Run(c.Request.Context())
	if err != nil {
		respond.Error(c, err)
		return
	}
	now := services.Now()
	if n, err := portal.PurgeExpired(database.DB, now); err != nil {
		lg.Warn().Err(err).Msg("purge portal sessions")
	} else if n > 0 {
		lg.Info().Int64("purged", n).Msg("expired portal sessions removed")
	}
	c.JSON(http.StatusOK, remindersResponse{Success: true, Result: res, Timestamp: now.UTC()})
}

func MarkOverdue(c *gin.Context) {
	n, err := invoices.MarkOverdue(database.DB, services.Now())
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "marked_overdue": n})
}
