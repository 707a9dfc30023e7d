// Package jobs runs the batch work triggered by cron or the CLI.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"freelancer-hub/internal/domain/clients"
	"freelancer-hub/internal/domain/invoices"
	rem "freelancer-hub/internal/domain/reminders"
	"freelancer-hub/internal/domain/users"
	"freelancer-hub/internal/infra/mailer"
	"freelancer-hub/internal/metrics"
	"freelancer-hub/internal/notify"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

var ErrNoClientEmail = errors.New("client has no email address")

// Result is the per-run summary returned to the cron caller.
type Result struct {
	Upcoming      int   `json:"upcoming"`
	DueToday      int   `json:"due_today"`
	Overdue       int   `json:"overdue"`
	Failed        int   `json:"failed"`
	Skipped       int   `json:"skipped"`
	MarkedOverdue int64 `json:"marked_overdue"`
}

type Reminders struct {
	DB     *gorm.DB
	Mailer mailer.Mailer
	AppURL string
	Log    zerolog.Logger
	Now    func() time.Time

	users    map[uint]users.User
	clients  map[uint]clients.Client
	policies map[uint]rem.Policy
}

func (r *Reminders) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Run sweeps overdue invoices, then sends every reminder that is due today.
// A failed delivery is recorded on its schedule row and the run moves on.
func (r *Reminders) Run(ctx context.Context) (Result, error) {
	var res Result
	now := r.now()
	r.users = map[uint]users.User{}
	r.clients = map[uint]clients.Client{}
	r.policies = map[uint]rem.Policy{}

	marked, err := invoices.MarkOverdue(r.DB, now)
	if err != nil {
		return res, fmt.Errorf("mark overdue: %w", err)
	}
	res.MarkedOverdue = marked

	var list []invoices.Invoice
	err = r.DB.Where("status IN ?", []invoices.Status{invoices.StatusSent, invoices.StatusOverdue}).
		Order("id").
		Find(&list).Error
	if err != nil {
		return res, fmt.Errorf("load invoices: %w", err)
	}

	for _, inv := range list {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		pol, err := r.policy(inv.UserID)
		if err != nil {
			r.Log.Error().Err(err).Uint("invoice_id", inv.ID).Msg("load reminder settings")
			res.Failed++
			continue
		}
		if !pol.Enabled {
			continue
		}
		due, ok := rem.Eligible(pol, inv.DueDate, now)
		if !ok {
			continue
		}
		sent, err := rem.AlreadySent(r.DB, inv.ID, due)
		if err != nil {
			r.Log.Error().Err(err).Uint("invoice_id", inv.ID).Msg("check previous reminders")
			res.Failed++
			continue
		}
		if sent {
			res.Skipped++
			metrics.RemindersProcessed.WithLabelValues(string(due.Type), "skipped").Inc()
			continue
		}

		if _, err := r.deliver(ctx, inv, due, now); err != nil {
			res.Failed++
			continue
		}
		switch due.Type {
		case rem.TypeUpcoming:
			res.Upcoming++
		case rem.TypeDueToday:
			res.DueToday++
		case rem.TypeOverdue:
			res.Overdue++
		}
	}

	r.Log.Info().
		Int("upcoming", res.Upcoming).
		Int("due_today", res.DueToday).
		Int("overdue", res.Overdue).
		Int("failed", res.Failed).
		Int("skipped", res.Skipped).
		Int64("marked_overdue", res.MarkedOverdue).
		Msg("reminder run finished")
	return res, nil
}

// SendManual delivers a freelancer-triggered reminder regardless of policy.
func (r *Reminders) SendManual(ctx context.Context, inv invoices.Invoice) (rem.Schedule, error) {
	r.users = map[uint]users.User{}
	r.clients = map[uint]clients.Client{}
	now := r.now()
	due := rem.Due{Type: rem.TypeManual, Offset: rem.DaysSinceDue(inv.DueDate, now)}
	return r.deliver(ctx, inv, due, now)
}

func (r *Reminders) deliver(ctx context.Context, inv invoices.Invoice, due rem.Due, now time.Time) (rem.Schedule, error) {
	row := rem.Schedule{
		UserID:       inv.UserID,
		InvoiceID:    inv.ID,
		Type:         due.Type,
		DayOffset:    due.Offset,
		Status:       rem.StatusScheduled,
		ScheduledFor: now,
	}
	if err := r.DB.Create(&row).Error; err != nil {
		r.Log.Error().Err(err).Uint("invoice_id", inv.ID).Msg("create reminder row")
		return row, err
	}

	sendErr := r.send(ctx, inv, due)
	updates := map[string]interface{}{}
	if sendErr != nil {
		row.Status = rem.StatusFailed
		row.Error = sendErr.Error()
		updates["status"] = rem.StatusFailed
		updates["error"] = row.Error
		r.Log.Warn().Err(sendErr).Uint("invoice_id", inv.ID).Str("type", string(due.Type)).Msg("reminder delivery failed")
	} else {
		row.Status = rem.StatusSent
		row.SentAt = &now
		updates["status"] = rem.StatusSent
		updates["sent_at"] = now
	}
	metrics.RemindersProcessed.WithLabelValues(string(due.Type), string(row.Status)).Inc()

	if err := r.DB.Model(&rem.Schedule{}).Where("id = ?", row.ID).Updates(updates).Error; err != nil {
		r.Log.Error().Err(err).Uint("reminder_id", row.ID).Msg("update reminder row")
		if sendErr == nil {
			return row, err
		}
	}
	return row, sendErr
}

func (r *Reminders) send(ctx context.Context, inv invoices.Invoice, due rem.Due) error {
	u, err := r.user(inv.UserID)
	if err != nil {
		return err
	}
	c, err := r.client(inv.ClientID)
	if err != nil {
		return err
	}
	if c.Email == "" {
		return ErrNoClientEmail
	}
	msg, err := notify.Reminder(r.AppURL, u, c, inv, due)
	if err != nil {
		return err
	}
	return r.Mailer.Send(ctx, msg)
}

func (r *Reminders) policy(userID uint) (rem.Policy, error) {
	if p, ok := r.policies[userID]; ok {
		return p, nil
	}
	s, err := rem.LoadSettings(r.DB, userID)
	if err != nil {
		return rem.Policy{}, err
	}
	p := rem.Merge(rem.DefaultPolicy(), s)
	r.policies[userID] = p
	return p, nil
}

func (r *Reminders) user(id uint) (users.User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	var u users.User
	if err := r.DB.First(&u, id).Error; err != nil {
		return u, fmt.Errorf("load user %d: %w", id, err)
	}
	r.users[id] = u
	return u, nil
}

func (r *Reminders) client(id uint) (clients.Client, error) {
	if c, ok := r.clients[id]; ok {
		return c, nil
	}
	var c clients.Client
	if err := r.DB.First(&c, id).Error; err != nil {
		return c, fmt.Errorf("load client %d: %w", id, err)
	}
	r.clients[id] = c
	return c, nil
}
