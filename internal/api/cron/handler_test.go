package cron

import (
	"net/http"
	"testing"
	"time"

	"freelancer-hub/internal/app/services"
	"freelancer-hub/internal/domain/invoices"
	"freelancer-hub/internal/infra/mailer/mocks"
	"freelancer-hub/internal/testutil"

	"go.uber.org/mock/gomock"
)

func TestReminders(t *testing.T) {
	db := testutil.NewDB(t)
	u := testutil.User(t, db, "me@example.com")
	c := testutil.Client(t, db, u.ID)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	testutil.Invoice(t, db, u.ID, c.ID, invoices.StatusSent, "100", now.AddDate(0, 0, -7))

	ctrl := gomock.NewController(t)
	m := mocks.NewMockMailer(ctrl)
	m.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil)
	services.Mailer = m
	services.Now = func() time.Time { return now }
	t.Cleanup(services.Reset)

	r := testutil.Engine()
	r.POST("/cron/reminders", Reminders)

	w := testutil.Do(t, r, http.MethodPost, "/cron/reminders", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var got struct {
		Success       bool  `json:"success"`
		Overdue       int   `json:"overdue"`
		MarkedOverdue int64 `json:"marked_overdue"`
	}
	testutil.Decode(t, w, &got)
	if !got.Success || got.Overdue != 1 || got.MarkedOverdue != 1 {
		t.Fatalf("unexpected result %+v", got)
	}
}

func TestMarkOverdue(t *testing.T) {
	db := testutil.NewDB(t)
	u := testutil.User(t, db, "me@example.com")
	c := testutil.Client(t, db, u.ID)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	testutil.Invoice(t, db, u.ID, c.ID, invoices.StatusSent, "100", now.AddDate(0, 0, -1))
	testutil.Invoice(t, db, u.ID, c.ID, invoices.StatusSent, "100", now.AddDate(0, 0, 1))
	services.Now = func() time.Time { return now }
	t.Cleanup(services.Reset)

	r := testutil.Engine()
	r.POST("/cron/mark-overdue", MarkOverdue)
	var got struct {
		MarkedOverdue int64 `json:"marked_overdue"`
	}
	testutil.Decode(t, testutil.Do(t, r, http.MethodPost, "/cron/mark-overdue", nil), &got)
	if got.MarkedOverdue != 1 {
		t.Fatalf("expected 1 marked overdue, got %d", got.MarkedOverdue)
	}
}
