package auth

import (
	"context"
	"fmt"

	"freelancer-hub/config"
	"freelancer-hub/internal/app/services"
	"freelancer-hub/internal/domain/users"
	"freelancer-hub/internal/infra/mailer"
)

func sendWelcome(ctx context.Context, user users.User) error {
	body := fmt.Sprintf("Hi %s,\n\nYour account is ready. Add your first client and send an invoice from:\n\n%s\n",
		user.DisplayName(), config.App.AppURL)
	return services.Mailer.Send(ctx, mailer.Message{
		To:      user.Email,
		Subject: "Welcome to Freelancer Hub",
		Text:    body,
	})
}
