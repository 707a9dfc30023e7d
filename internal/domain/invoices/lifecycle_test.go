package invoices_test

import (
	"errors"
	"testing"
	"time"

	"freelancer-hub/internal/domain/billing"
	"freelancer-hub/internal/domain/invoices"
	"freelancer-hub/internal/domain/projects"
	"freelancer-hub/internal/domain/timeentries"
	"freelancer-hub/internal/testutil"

	"github.com/shopspring/decimal"
)

var now = time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)

func TestRecordPayment_PartialThenFull(t *testing.T) {
	db := testutil.NewDB(t)
	u := testutil.User(t, db, "f@example.com")
	c := testutil.Client(t, db, u.ID)
	inv := testutil.Invoice(t, db, u.ID, c.ID, invoices.StatusSent, "10000", now.AddDate(0, 0, 14))

	got, err := invoices.RecordPayment(db, inv.ID, invoices.PaymentInput{Amount: testutil.Money("2500"), PaidAt: now})
	if err != nil {
		t.Fatalf("first payment: %v", err)
	}
	if !got.BalanceDue().Equal(testutil.Money("7500")) {
		t.Fatalf("expected balance 7500, got %s", got.BalanceDue())
	}
	if got.Status != invoices.StatusSent {
		t.Fatalf("expected status sent, got %s", got.Status)
	}

	got, err = invoices.RecordPayment(db, inv.ID, invoices.PaymentInput{Amount: testutil.Money("7500"), PaidAt: now})
	if err != nil {
		t.Fatalf("second payment: %v", err)
	}
	if !got.BalanceDue().IsZero() {
		t.Fatalf("expected zero balance, got %s", got.BalanceDue())
	}
	if got.Status != invoices.StatusPaid || got.PaidAt == nil {
		t.Fatalf("expected paid with paid_at, got %s", got.Status)
	}

	ps, err := invoices.Payments(db, inv.ID)
	if err != nil {
		t.Fatalf("payments: %v", err)
	}
	if !billing.CompletedTotal(ps).Equal(got.AmountPaid) {
		t.Fatalf("payments sum %s != amount_paid %s", billing.CompletedTotal(ps), got.AmountPaid)
	}
}

func TestRecordPayment_Rejections(t *testing.T) {
	db := testutil.NewDB(t)
	u := testutil.User(t, db, "f@example.com")
	c := testutil.Client(t, db, u.ID)

	t.Run("overpayment leaves invoice untouched", func(t *testing.T) {
		inv := testutil.Invoice(t, db, u.ID, c.ID, invoices.StatusSent, "100", now)
		_, err := invoices.RecordPayment(db, inv.ID, invoices.PaymentInput{Amount: testutil.Money("150")})
		if !errors.Is(err, invoices.ErrOverpayment) {
			t.Fatalf("expected ErrOverpayment, got %v", err)
		}
		ps, _ := invoices.Payments(db, inv.ID)
		if len(ps) != 0 {
			t.Fatalf("expected payment rolled back, found %d", len(ps))
		}
	})

	t.Run("zero amount", func(t *testing.T) {
		inv := testutil.Invoice(t, db, u.ID, c.ID, invoices.StatusSent, "100", now)
		_, err := invoices.RecordPayment(db, inv.ID, invoices.PaymentInput{Amount: decimal.Zero})
		if !errors.Is(err, invoices.ErrInvalidAmount) {
			t.Fatalf("expected ErrInvalidAmount, got %v", err)
		}
	})

	t.Run("cancelled invoice", func(t *testing.T) {
		inv := testutil.Invoice(t, db, u.ID, c.ID, invoices.StatusCancelled, "100", now)
		_, err := invoices.RecordPayment(db, inv.ID, invoices.PaymentInput{Amount: testutil.Money("10")})
		if !errors.Is(err, invoices.ErrNotPayable) {
			t.Fatalf("expected ErrNotPayable, got %v", err)
		}
	})

	t.Run("draft invoice", func(t *testing.T) {
		inv := testutil.Invoice(t, db, u.ID, c.ID, invoices.StatusDraft, "100", now)
		_, err := invoices.RecordPayment(db, inv.ID, invoices.PaymentInput{Amount: testutil.Money("10")})
		if !errors.Is(err, invoices.ErrNotPayable) {
			t.Fatalf("expected ErrNotPayable, got %v", err)
		}
		ps, _ := invoices.Payments(db, inv.ID)
		if len(ps) != 0 {
			t.Fatalf("expected no payment stored, found %d", len(ps))
		}
	})

	t.Run("stripe session applied once", func(t *testing.T) {
		inv := testutil.Invoice(t, db, u.ID, c.ID, invoices.StatusSent, "100", now)
		in := invoices.PaymentInput{Amount: testutil.Money("40"), Method: billing.MethodStripe, StripeSessionID: "cs_test_1"}
		if _, err := invoices.RecordPayment(db, inv.ID, in); err != nil {
			t.Fatalf("first: %v", err)
		}
		_, err := invoices.RecordPayment(db, inv.ID, in)
		if !errors.Is(err, invoices.ErrDuplicatePayment) {
			t.Fatalf("expected ErrDuplicatePayment, got %v", err)
		}
		reloaded, _ := invoices.Load(db, inv.ID)
		if !reloaded.AmountPaid.Equal(testutil.Money("40")) {
			t.Fatalf("expected amount_paid 40, got %s", reloaded.AmountPaid)
		}
	})
}

func TestRecordPayment_PaysMilestone(t *testing.T) {
	db := testutil.NewDB(t)
	u := testutil.User(t, db, "f@example.com")
	c := testutil.Client(t, db, u.ID)
	p := testutil.Project(t, db, u.ID, c.ID, "0")
	m := testutil.Milestone(t, db, p.ID, projects.MilestoneApproved, "800", 0)

	inv, err := invoices.FromMilestone(db, u, m.ID, nil)
	if err != nil {
		t.Fatalf("from milestone: %v", err)
	}
	if !inv.Total.Equal(testutil.Money("800")) {
		t.Fatalf("expected total 800, got %s", inv.Total)
	}
	if _, err := invoices.FromMilestone(db, u, m.ID, nil); !errors.Is(err, invoices.ErrMilestoneInvoiced) {
		t.Fatalf("expected ErrMilestoneInvoiced, got %v", err)
	}
	if _, err := invoices.MarkSent(db, u.ID, inv.ID, now); err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := invoices.RecordPayment(db, inv.ID, invoices.PaymentInput{Amount: testutil.Money("800"), PaidAt: now}); err != nil {
		t.Fatalf("pay: %v", err)
	}

	var after projects.Milestone
	db.First(&after, m.ID)
	if after.Status != projects.MilestonePaid {
		t.Fatalf("expected milestone paid, got %s", after.Status)
	}
}

func TestMarkOverdue(t *testing.T) {
	db := testutil.NewDB(t)
	u := testutil.User(t, db, "f@example.com")
	c := testutil.Client(t, db, u.ID)

	past := testutil.Invoice(t, db, u.ID, c.ID, invoices.StatusSent, "100", now.AddDate(0, 0, -1))
	future := testutil.Invoice(t, db, u.ID, c.ID, invoices.StatusSent, "100", now.AddDate(0, 0, 1))
	draft := testutil.Invoice(t, db, u.ID, c.ID, invoices.StatusDraft, "100", now.AddDate(0, 0, -5))
	viewed := testutil.Invoice(t, db, u.ID, c.ID, invoices.StatusViewed, "100", now.AddDate(0, 0, -5))

	n, err := invoices.MarkOverdue(db, now)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 invoice marked, got %d", n)
	}

	want := map[uint]invoices.Status{
		past.ID:   invoices.StatusOverdue,
		future.ID: invoices.StatusSent,
		draft.ID:  invoices.StatusDraft,
		viewed.ID: invoices.StatusViewed,
	}
	for id, status := range want {
		got, _ := invoices.Load(db, id)
		if got.Status != status {
			t.Fatalf("invoice %d: expected %s, got %s", id, status, got.Status)
		}
	}

	n, err = invoices.MarkOverdue(db, now)
	if err != nil || n != 0 {
		t.Fatalf("second sweep should be a no-op, got n=%d err=%v", n, err)
	}
}

func TestCreateAndUpdate(t *testing.T) {
	db := testutil.NewDB(t)
	u := testutil.User(t, db, "f@example.com")
	c := testutil.Client(t, db, u.ID)

	inv, err := invoices.Create(db, u, invoices.CreateInput{
		ClientID:  c.ID,
		TaxRate:   testutil.Money("10"),
		IssueDate: now,
		Items: []invoices.ItemInput{
			{Description: "Design", Quantity: testutil.Money("2"), UnitPrice: testutil.Money("150")},
			{Description: "Hosting", Quantity: testutil.Money("1"), UnitPrice: testutil.Money("45.50")},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if inv.Number != "INV-0001" {
		t.Fatalf("expected INV-0001, got %s", inv.Number)
	}
	if !inv.Total.Equal(testutil.Money("380.05")) {
		t.Fatalf("expected total 380.05, got %s", inv.Total)
	}
	if !inv.DueDate.Equal(now.AddDate(0, 0, 30)) {
		t.Fatalf("expected due date from payment terms, got %s", inv.DueDate)
	}

	second, err := invoices.Create(db, u, invoices.CreateInput{
		ClientID: c.ID,
		Items:    []invoices.ItemInput{{Description: "x", Quantity: testutil.Money("1"), UnitPrice: testutil.Money("1")}},
	})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if second.Number != "INV-0002" {
		t.Fatalf("expected INV-0002, got %s", second.Number)
	}

	sent, err := invoices.MarkSent(db, u.ID, inv.ID, now)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := invoices.RecordPayment(db, sent.ID, invoices.PaymentInput{Amount: testutil.Money("300")}); err != nil {
		t.Fatalf("pay: %v", err)
	}

	_, err = invoices.Update(db, u.ID, inv.ID, invoices.UpdateInput{
		Items: []invoices.ItemInput{{Description: "Cheaper", Quantity: testutil.Money("1"), UnitPrice: testutil.Money("100")}},
	})
	if !errors.Is(err, invoices.ErrTotalBelowPaid) {
		t.Fatalf("expected ErrTotalBelowPaid, got %v", err)
	}

	updated, err := invoices.Update(db, u.ID, inv.ID, invoices.UpdateInput{
		Items: []invoices.ItemInput{{Description: "Retainer", Quantity: testutil.Money("1"), UnitPrice: testutil.Money("500")}},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(updated.LineItems) != 1 || !updated.Total.Equal(testutil.Money("550")) {
		t.Fatalf("unexpected update result: items=%d total=%s", len(updated.LineItems), updated.Total)
	}

	if _, err := invoices.MarkSent(db, u.ID, inv.ID, now); !errors.Is(err, invoices.ErrInvalidStatus) {
		t.Fatalf("resending should conflict, got %v", err)
	}
	if err := invoices.Delete(db, u.ID, inv.ID); !errors.Is(err, invoices.ErrInvalidStatus) {
		t.Fatalf("deleting a sent invoice should conflict, got %v", err)
	}
	if err := invoices.Delete(db, u.ID, second.ID); err != nil {
		t.Fatalf("delete draft: %v", err)
	}
}

func TestFromTimeEntries(t *testing.T) {
	db := testutil.NewDB(t)
	u := testutil.User(t, db, "f@example.com")
	c := testutil.Client(t, db, u.ID)
	p := testutil.Project(t, db, u.ID, c.ID, "0")

	end := now.Add(90 * time.Minute)
	billable := timeentries.TimeEntry{UserID: u.ID, ProjectID: p.ID, Description: "Build", StartedAt: now, EndedAt: &end, DurationMinutes: 90, Billable: true, HourlyRate: testutil.Money("80")}
	running := timeentries.TimeEntry{UserID: u.ID, ProjectID: p.ID, StartedAt: now, Billable: true, HourlyRate: testutil.Money("80")}
	db.Create(&billable)
	db.Create(&running)

	inv, err := invoices.FromTimeEntries(db, u, invoices.FromTimeInput{ClientID: c.ID, EntryIDs: []uint{billable.ID, running.ID}})
	if err != nil {
		t.Fatalf("from time: %v", err)
	}
	if !inv.Total.Equal(testutil.Money("120")) {
		t.Fatalf("expected total 120, got %s", inv.Total)
	}

	var reloaded timeentries.TimeEntry
	db.First(&reloaded, billable.ID)
	if reloaded.InvoiceID == nil || *reloaded.InvoiceID != inv.ID {
		t.Fatalf("expected entry linked to invoice")
	}

	_, err = invoices.FromTimeEntries(db, u, invoices.FromTimeInput{ClientID: c.ID, EntryIDs: []uint{billable.ID}})
	if !errors.Is(err, invoices.ErrNoBillableEntries) {
		t.Fatalf("expected ErrNoBillableEntries, got %v", err)
	}
}

func TestUpdate_TotalDownToPaidSettles(t *testing.T) {
	db := testutil.NewDB(t)
	u := testutil.User(t, db, "f@example.com")
	c := testutil.Client(t, db, u.ID)
	p := testutil.Project(t, db, u.ID, c.ID, "0")
	m := testutil.Milestone(t, db, p.ID, projects.MilestoneApproved, "10000", 0)

	inv, err := invoices.FromMilestone(db, u, m.ID, nil)
	if err != nil {
		t.Fatalf("from milestone: %v", err)
	}
	if _, err := invoices.MarkSent(db, u.ID, inv.ID, now); err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := invoices.RecordPayment(db, inv.ID, invoices.PaymentInput{Amount: testutil.Money("2500"), PaidAt: now}); err != nil {
		t.Fatalf("pay: %v", err)
	}

	got, err := invoices.Update(db, u.ID, inv.ID, invoices.UpdateInput{
		Items: []invoices.ItemInput{{Description: "Reduced scope", Quantity: testutil.Money("1"), UnitPrice: testutil.Money("2500")}},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !got.BalanceDue().IsZero() {
		t.Fatalf("expected zero balance, got %s", got.BalanceDue())
	}
	if got.Status != invoices.StatusPaid || got.PaidAt == nil {
		t.Fatalf("expected paid invoice once amount_paid covers total, got %s", got.Status)
	}

	var after projects.Milestone
	db.First(&after, m.ID)
	if after.Status != projects.MilestonePaid {
		t.Fatalf("expected milestone paid, got %s", after.Status)
	}

	note := "settled"
	if _, err := invoices.Update(db, u.ID, inv.ID, invoices.UpdateInput{Notes: &note}); !errors.Is(err, invoices.ErrInvalidStatus) {
		t.Fatalf("editing a paid invoice should conflict, got %v", err)
	}
}

func TestZeroTotalRejected(t *testing.T) {
	db := testutil.NewDB(t)
	u := testutil.User(t, db, "f@example.com")
	c := testutil.Client(t, db, u.ID)
	free := []invoices.ItemInput{{Description: "Courtesy call", Quantity: testutil.Money("1"), UnitPrice: decimal.Zero}}

	t.Run("create", func(t *testing.T) {
		_, err := invoices.Create(db, u, invoices.CreateInput{ClientID: c.ID, Items: free})
		if !errors.Is(err, invoices.ErrZeroTotal) {
			t.Fatalf("expected ErrZeroTotal, got %v", err)
		}
	})

	t.Run("update", func(t *testing.T) {
		inv := testutil.Invoice(t, db, u.ID, c.ID, invoices.StatusDraft, "100", now)
		_, err := invoices.Update(db, u.ID, inv.ID, invoices.UpdateInput{Items: free})
		if !errors.Is(err, invoices.ErrZeroTotal) {
			t.Fatalf("expected ErrZeroTotal, got %v", err)
		}
	})

	t.Run("send", func(t *testing.T) {
		inv := testutil.Invoice(t, db, u.ID, c.ID, invoices.StatusDraft, "0", now)
		_, err := invoices.MarkSent(db, u.ID, inv.ID, now)
		if !errors.Is(err, invoices.ErrZeroTotal) {
			t.Fatalf("expected ErrZeroTotal, got %v", err)
		}
		reloaded, _ := invoices.Load(db, inv.ID)
		if reloaded.Status != invoices.StatusDraft {
			t.Fatalf("expected draft to stay draft, got %s", reloaded.Status)
		}
	})
}

func TestRecordUnapplied(t *testing.T) {
	db := testutil.NewDB(t)
	u := testutil.User(t, db, "f@example.com")
	c := testutil.Client(t, db, u.ID)
	inv := testutil.Invoice(t, db, u.ID, c.ID, invoices.StatusPaid, "100", now)
	in := invoices.PaymentInput{Amount: testutil.Money("100"), Method: billing.MethodStripe, StripeSessionID: "cs_test_late", PaidAt: now}

	p, created, err := invoices.RecordUnapplied(db, inv.ID, in, "already_paid")
	if err != nil || !created {
		t.Fatalf("record: created=%v err=%v", created, err)
	}
	if p.Status != billing.PaymentNeedsRefund || p.Note != "already_paid" {
		t.Fatalf("unexpected payment %+v", p)
	}
	if _, created, err := invoices.RecordUnapplied(db, inv.ID, in, "already_paid"); err != nil || created {
		t.Fatalf("second record should be a no-op, created=%v err=%v", created, err)
	}

	reloaded, _ := invoices.Load(db, inv.ID)
	if !reloaded.AmountPaid.Equal(inv.AmountPaid) {
		t.Fatalf("amount_paid changed to %s", reloaded.AmountPaid)
	}
	ps, _ := invoices.Payments(db, inv.ID)
	if len(ps) != 1 || !billing.CompletedTotal(ps).IsZero() {
		t.Fatalf("expected one uncounted payment, got %d", len(ps))
	}
}
