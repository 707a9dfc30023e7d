package notify

import (
	"strings"
	"testing"
	"time"

	"freelancer-hub/internal/domain/clients"
	"freelancer-hub/internal/domain/invoices"
	"freelancer-hub/internal/domain/reminders"
	"freelancer-hub/internal/domain/users"

	"github.com/shopspring/decimal"
)

func TestReminder(t *testing.T) {
	from := users.User{Email: "me@example.com", BusinessName: "Studio"}
	to := clients.Client{Name: "Acme", Email: "billing@acme.test"}
	inv := invoices.Invoice{
		Number:     "INV-0007",
		Currency:   "usd",
		Total:      decimal.RequireFromString("1000"),
		AmountPaid: decimal.RequireFromString("250"),
		DueDate:    time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	cases := []struct {
		name    string
		due     reminders.Due
		subject string
		body    string
	}{
		{"upcoming", reminders.Due{Type: reminders.TypeUpcoming, Offset: -3}, "Invoice INV-0007 is due soon", "due in 3 day(s)"},
		{"due today", reminders.Due{Type: reminders.TypeDueToday}, "Invoice INV-0007 is due today", "is due today"},
		{"overdue", reminders.Due{Type: reminders.TypeOverdue, Offset: 14}, "Invoice INV-0007 is overdue", "14 day(s) overdue"},
		{"manual", reminders.Due{Type: reminders.TypeManual}, "Reminder: invoice INV-0007", "750.00 USD"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			msg, err := Reminder("https://app.test", from, to, inv, tc.due)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if msg.Subject != tc.subject {
				t.Fatalf("expected subject %q, got %q", tc.subject, msg.Subject)
			}
			if !strings.Contains(msg.Text, tc.body) {
				t.Fatalf("expected body to contain %q, got:\n%s", tc.body, msg.Text)
			}
			if msg.To != to.Email || msg.ReplyTo != from.Email {
				t.Fatalf("unexpected addressing %+v", msg)
			}
		})
	}
}

func TestPortalInvite(t *testing.T) {
	msg, err := PortalInvite(users.User{Name: "Sam", Email: "sam@example.com"}, clients.Client{Name: "Acme", Email: "a@acme.test"},
		"https://app.test/portal/auth?token=abc", time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(msg.Text, "https://app.test/portal/auth?token=abc") || !strings.Contains(msg.Text, "May 1, 2026") {
		t.Fatalf("unexpected body:\n%s", msg.Text)
	}
	if msg.Subject != "Your client portal access from Sam" {
		t.Fatalf("unexpected subject %q", msg.Subject)
	}
}
