package users

import (
	"net/http"

	"freelancer-hub/database"
	"freelancer-hub/internal/app/http/middleware"
	"freelancer-hub/internal/app/http/respond"
	"freelancer-hub/internal/domain/billing"
	"freelancer-hub/internal/domain/clients"
	"freelancer-hub/internal/domain/contracts"
	"freelancer-hub/internal/domain/invoices"
	"freelancer-hub/internal/domain/portal"
	"freelancer-hub/internal/domain/projects"
	"freelancer-hub/internal/domain/reminders"
	"freelancer-hub/internal/domain/timeentries"
	"freelancer-hub/internal/domain/users"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

func GetCurrentUser(c *gin.Context) {
	var user users.User
	if err := database.DB.First(&user, c.GetUint("user_id")).Error; err != nil {
		respond.Error(c, err)
		return
	}
	resp, err := buildMe(database.DB, user)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func UpdateCurrentUser(c *gin.Context) {
	var in UpdateMeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.BindError(c, err)
		return
	}

	userID := c.GetUint("user_id")
	if updates := applyUpdate(in); len(updates) > 0 {
		if err := database.DB.Model(&users.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
			respond.Error(c, err)
			return
		}
	}

	var user users.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// DeleteCurrentUser removes the account and everything it owns in one
// transaction.
func DeleteCurrentUser(c *gin.Context) {
	userID := c.GetUint("user_id")
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		return deleteAccount(tx, userID)
	})
	if err != nil {
		respond.Error(c, err)
		return
	}
	log.Info().Uint("user_id", userID).Msg("account deleted")
	middleware.ClearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func deleteAccount(tx *gorm.DB, userID uint) error {
	invoiceIDs := tx.Model(&invoices.Invoice{}).Select("id").Where("user_id = ?", userID)
	projectIDs := tx.Model(&projects.Project{}).Select("id").Where("user_id = ?", userID)
	milestoneIDs := tx.Model(&projects.Milestone{}).Select("id").Where("project_id IN (?)", projectIDs)

	steps := []struct {
		model interface{}
		query string
		arg   interface{}
	}{
		{&portal.Message{}, "user_id = ?", userID},
		{&portal.Session{}, "user_id = ?", userID},
		{&portal.AccessToken{}, "user_id = ?", userID},
		{&reminders.Schedule{}, "user_id = ?", userID},
		{&reminders.Settings{}, "user_id = ?", userID},
		{&billing.Payment{}, "user_id = ?", userID},
		{&invoices.LineItem{}, "invoice_id IN (?)", invoiceIDs},
		{&timeentries.TimeEntry{}, "user_id = ?", userID},
		{&invoices.Invoice{}, "user_id = ?", userID},
		{&contracts.Contract{}, "user_id = ?", userID},
		{&projects.Deliverable{}, "milestone_id IN (?)", milestoneIDs},
		{&projects.Milestone{}, "project_id IN (?)", projectIDs},
		{&projects.Project{}, "user_id = ?", userID},
		{&clients.Client{}, "user_id = ?", userID},
	}
	for _, s := range steps {
		if err := tx.Where(s.query, s.arg).Delete(s.model).Error; err != nil {
			return err
		}
	}
	res := tx.Delete(&users.User{}, userID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func GetReminderSettings(c *gin.Context) {
	userID := c.GetUint("user_id")
	stored, err := reminders.LoadSettings(database.DB, userID)
	if err != nil {
		respond.Error(c, err)
		return
	}
	resp := ReminderSettingsResponse{Effective: reminders.Merge(reminders.DefaultPolicy(), stored)}
	if stored != nil {
		resp.Stored = *stored
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateReminderSettings stores the overrides that were sent. Omitted fields
// keep following the defaults.
func UpdateReminderSettings(c *gin.Context) {
	var in ReminderSettingsInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.BindError(c, err)
		return
	}

	saved, err := reminders.SaveSettings(database.DB, c.GetUint("user_id"), reminders.Settings{
		Enabled:    in.Enabled,
		DaysBefore: in.DaysBefore,
		OnDueDate:  in.OnDueDate,
		DaysAfter:  in.DaysAfter,
	})
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, ReminderSettingsResponse{
		Stored:    saved,
		Effective: reminders.Merge(reminders.DefaultPolicy(), &saved),
	})
}
