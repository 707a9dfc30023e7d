package users

import (
	"strings"

	"freelancer-hub/internal/domain/clients"
	"freelancer-hub/internal/domain/invoices"
	"freelancer-hub/internal/domain/portal"
	"freelancer-hub/internal/domain/projects"
	"freelancer-hub/internal/domain/reminders"
	"freelancer-hub/internal/domain/users"

	"gorm.io/gorm"
)

func buildMe(db *gorm.DB, user users.User) (MeResponse, error) {
	resp := MeResponse{User: user}

	stored, err := reminders.LoadSettings(db, user.ID)
	if err != nil {
		return resp, err
	}
	resp.Reminders = reminders.Merge(reminders.DefaultPolicy(), stored)

	if resp.UnreadMessages, err = portal.Unread(db, user.ID); err != nil {
		return resp, err
	}
	if err := clients.Owned(db, user.ID).Count(&resp.Counts.Clients).Error; err != nil {
		return resp, err
	}
	if err := projects.Owned(db, user.ID).Count(&resp.Counts.Projects).Error; err != nil {
		return resp, err
	}
	if err := invoices.Owned(db, user.ID).Count(&resp.Counts.Invoices).Error; err != nil {
		return resp, err
	}
	return resp, nil
}

// applyUpdate returns the column updates for the fields that were sent.
func applyUpdate(in UpdateMeInput) map[string]interface{} {
	updates := map[string]interface{}{}
	if in.Name != nil {
		updates["name"] = strings.TrimSpace(*in.Name)
	}
	if in.BusinessName != nil {
		updates["business_name"] = strings.TrimSpace(*in.BusinessName)
	}
	if in.DefaultCurrency != nil {
		updates["default_currency"] = strings.ToLower(*in.DefaultCurrency)
	}
	if in.PaymentTermsDays != nil {
		updates["payment_terms_days"] = *in.PaymentTermsDays
	}
	return updates
}
