package users

import (
	"freelancer-hub/internal/domain/reminders"
	"freelancer-hub/internal/domain/users"
)

type MeResponse struct {
	User           users.User       `json:"user"`
	Reminders      reminders.Policy `json:"reminders"`
	UnreadMessages int64            `json:"unread_messages"`
	Counts         CountsDTO        `json:"counts"`
}

type CountsDTO struct {
	Clients  int64 `json:"clients"`
	Projects int64 `json:"projects"`
	Invoices int64 `json:"invoices"`
}

type UpdateMeInput struct {
	Name             *string `json:"name" binding:"omitempty,max=120"`
	BusinessName     *string `json:"business_name" binding:"omitempty,max=120"`
	DefaultCurrency  *string `json:"default_currency" binding:"omitempty,len=3"`
	PaymentTermsDays *int    `json:"payment_terms_days" binding:"omitempty,min=0,max=365"`
}

type ReminderSettingsInput struct {
	Enabled    *bool `json:"enabled"`
	DaysBefore *int  `json:"days_before" binding:"omitempty,min=0,max=60"`
	OnDueDate  *bool `json:"on_due_date"`
	DaysAfter  []int `json:"days_after" binding:"omitempty,max=10,dive,min=1,max=365"`
}

type ReminderSettingsResponse struct {
	Stored    reminders.Settings `json:"stored"`
	Effective reminders.Policy   `json:"effective"`
}
