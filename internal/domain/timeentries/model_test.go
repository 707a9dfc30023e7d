package timeentries_test

import (
	"errors"
	"testing"
	"time"

	"freelancer-hub/internal/domain/timeentries"
	"freelancer-hub/internal/testutil"
)

func TestMinutes(t *testing.T) {
	start := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	cases := []struct {
		end  time.Time
		want int
	}{
		{start, 0},
		{start.Add(30 * time.Second), 1},
		{start.Add(90 * time.Minute), 90},
		{start.Add(-time.Minute), 0},
	}
	for _, tc := range cases {
		if got := timeentries.Minutes(start, tc.end); got != tc.want {
			t.Fatalf("end=%s: expected %d, got %d", tc.end, tc.want, got)
		}
	}
}

func TestAmount(t *testing.T) {
	e := timeentries.TimeEntry{DurationMinutes: 45, Billable: true, HourlyRate: testutil.Money("100")}
	if !e.Amount().Equal(testutil.Money("75")) {
		t.Fatalf("expected 75, got %s", e.Amount())
	}
	e.Billable = false
	if !e.Amount().IsZero() {
		t.Fatalf("non-billable should be zero")
	}
}

func TestStartStop(t *testing.T) {
	db := testutil.NewDB(t)
	u := testutil.User(t, db, "f@example.com")
	c := testutil.Client(t, db, u.ID)
	p := testutil.Project(t, db, u.ID, c.ID, "0")
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

	e, err := timeentries.Start(db, u.ID, p.ID, "Coding", testutil.Money("60"), now)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := timeentries.Start(db, u.ID, p.ID, "Again", testutil.Money("60"), now); !errors.Is(err, timeentries.ErrTimerRunning) {
		t.Fatalf("expected ErrTimerRunning, got %v", err)
	}
	stopped, err := timeentries.Stop(db, u.ID, e.ID, now.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if stopped.DurationMinutes != 120 {
		t.Fatalf("expected 120 minutes, got %d", stopped.DurationMinutes)
	}
	if _, err := timeentries.Stop(db, u.ID, e.ID, now.Add(3*time.Hour)); !errors.Is(err, timeentries.ErrNotRunning) {
		t.Fatalf("expected ErrNotRunning, got %v", err)
	}
}
