package dashboard

import (
	"testing"
	"time"

	"freelancer-hub/internal/domain/billing"
	"freelancer-hub/internal/domain/invoices"
	"freelancer-hub/internal/domain/portal"
	"freelancer-hub/internal/domain/timeentries"
	"freelancer-hub/internal/testutil"
)

func TestBuild(t *testing.T) {
	db := testutil.NewDB(t)
	u := testutil.User(t, db, "me@example.com")
	c := testutil.Client(t, db, u.ID)
	p := testutil.Project(t, db, u.ID, c.ID, "0")
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	testutil.Invoice(t, db, u.ID, c.ID, invoices.StatusSent, "100", now.AddDate(0, 0, 5))
	over := testutil.Invoice(t, db, u.ID, c.ID, invoices.StatusOverdue, "300", now.AddDate(0, 0, -5))
	db.Model(&over).Update("amount_paid", testutil.Money("50"))
	testutil.Invoice(t, db, u.ID, c.ID, invoices.StatusDraft, "999", now)

	db.Create(&billing.Payment{InvoiceID: over.ID, UserID: u.ID, Amount: testutil.Money("50"), Status: billing.PaymentCompleted, Method: billing.MethodManual, PaidAt: now.AddDate(0, 0, -2)})
	db.Create(&billing.Payment{InvoiceID: over.ID, UserID: u.ID, Amount: testutil.Money("70"), Status: billing.PaymentCompleted, Method: billing.MethodManual, PaidAt: now.AddDate(0, -1, 0)})

	end := now.Add(-time.Hour)
	db.Create(&timeentries.TimeEntry{UserID: u.ID, ProjectID: p.ID, StartedAt: now.Add(-2 * time.Hour), EndedAt: &end, DurationMinutes: 90, Billable: true})
	db.Create(&timeentries.TimeEntry{UserID: u.ID, ProjectID: p.ID, StartedAt: now, Billable: true})
	db.Create(&portal.Message{ClientID: c.ID, UserID: u.ID, Sender: portal.SenderClient, Body: "hi"})

	s, err := Build(db, u.ID, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Run("money", func(t *testing.T) {
		if s.Outstanding.String() != "350" {
			t.Fatalf("expected outstanding 350, got %s", s.Outstanding)
		}
		if s.PaidThisMonth.String() != "50" {
			t.Fatalf("expected 50 paid this month, got %s", s.PaidThisMonth)
		}
		if s.OverdueCount != 1 {
			t.Fatalf("expected 1 overdue, got %d", s.OverdueCount)
		}
	})
	t.Run("work", func(t *testing.T) {
		if s.ActiveProjects != 1 || s.UnbilledHours.String() != "1.5" {
			t.Fatalf("unexpected projects %d / hours %s", s.ActiveProjects, s.UnbilledHours)
		}
		if s.RunningTimer == nil || s.UnreadMessages != 1 || len(s.RecentInvoices) != 3 {
			t.Fatalf("unexpected summary %+v", s)
		}
	})
}
