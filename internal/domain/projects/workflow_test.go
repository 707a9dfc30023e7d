package projects_test

import (
	"errors"
	"testing"
	"time"

	"freelancer-hub/internal/domain/projects"
	"freelancer-hub/internal/testutil"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to projects.MilestoneStatus
		want     bool
	}{
		{projects.MilestonePending, projects.MilestoneInProgress, true},
		{projects.MilestoneInProgress, projects.MilestonePendingApproval, true},
		{projects.MilestonePendingApproval, projects.MilestoneApproved, true},
		{projects.MilestonePendingApproval, projects.MilestoneInProgress, true},
		{projects.MilestoneApproved, projects.MilestonePaid, true},
		{projects.MilestonePending, projects.MilestoneApproved, false},
		{projects.MilestoneInProgress, projects.MilestoneApproved, false},
		{projects.MilestonePaid, projects.MilestonePending, false},
	}
	for _, tc := range cases {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			if got := projects.CanTransition(tc.from, tc.to); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestRequestRevision(t *testing.T) {
	db := testutil.NewDB(t)
	u := testutil.User(t, db, "f@example.com")
	c := testutil.Client(t, db, u.ID)
	p := testutil.Project(t, db, u.ID, c.ID, "0")

	t.Run("rejects deliverables and reopens milestone", func(t *testing.T) {
		m := testutil.Milestone(t, db, p.ID, projects.MilestonePendingApproval, "500", 2)

		got, err := projects.RequestRevision(db, c.ID, m.ID, "Logo needs more contrast")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Status != projects.MilestoneInProgress {
			t.Fatalf("expected in_progress, got %s", got.Status)
		}
		if len(got.Deliverables) != 2 {
			t.Fatalf("expected 2 deliverables, got %d", len(got.Deliverables))
		}
		for _, d := range got.Deliverables {
			if d.Status != projects.DeliverableRejected || d.Feedback != "Logo needs more contrast" {
				t.Fatalf("deliverable not rejected with feedback: %+v", d)
			}
		}
	})

	t.Run("only from pending_approval", func(t *testing.T) {
		m := testutil.Milestone(t, db, p.ID, projects.MilestoneInProgress, "500", 1)
		_, err := projects.RequestRevision(db, c.ID, m.ID, "again")
		if !errors.Is(err, projects.ErrInvalidTransition) {
			t.Fatalf("expected ErrInvalidTransition, got %v", err)
		}
	})

	t.Run("feedback required", func(t *testing.T) {
		m := testutil.Milestone(t, db, p.ID, projects.MilestonePendingApproval, "500", 1)
		_, err := projects.RequestRevision(db, c.ID, m.ID, "")
		if !errors.Is(err, projects.ErrFeedbackRequired) {
			t.Fatalf("expected ErrFeedbackRequired, got %v", err)
		}
	})

	t.Run("other client cannot see milestone", func(t *testing.T) {
		other := testutil.Client(t, db, u.ID)
		m := testutil.Milestone(t, db, p.ID, projects.MilestonePendingApproval, "500", 1)
		_, err := projects.RequestRevision(db, other.ID, m.ID, "x")
		if !errors.Is(err, projects.ErrMilestoneNotFound) {
			t.Fatalf("expected ErrMilestoneNotFound, got %v", err)
		}
	})
}

func TestRequestRevision_RollsBackOnFailure(t *testing.T) {
	db := testutil.NewDB(t)
	u := testutil.User(t, db, "f@example.com")
	c := testutil.Client(t, db, u.ID)
	p := testutil.Project(t, db, u.ID, c.ID, "0")
	m := testutil.Milestone(t, db, p.ID, projects.MilestonePendingApproval, "500", 2)

	// Without the deliverables table the second statement fails, so the
	// milestone update must not survive either.
	if err := db.Migrator().DropTable(&projects.Deliverable{}); err != nil {
		t.Fatalf("drop table: %v", err)
	}
	if _, err := projects.RequestRevision(db, c.ID, m.ID, "fix it"); err == nil {
		t.Fatalf("expected error")
	}

	var after projects.Milestone
	if err := db.First(&after, m.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if after.Status != projects.MilestonePendingApproval {
		t.Fatalf("expected milestone unchanged, got %s", after.Status)
	}
}

func TestApproveMilestone(t *testing.T) {
	db := testutil.NewDB(t)
	u := testutil.User(t, db, "f@example.com")
	c := testutil.Client(t, db, u.ID)
	p := testutil.Project(t, db, u.ID, c.ID, "0")
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	m := testutil.Milestone(t, db, p.ID, projects.MilestonePendingApproval, "500", 1)
	got, err := projects.ApproveMilestone(db, c.ID, m.ID, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != projects.MilestoneApproved || got.ApprovedAt == nil {
		t.Fatalf("expected approved with timestamp, got %+v", got)
	}
	if got.Deliverables[0].Status != projects.DeliverableApproved {
		t.Fatalf("expected deliverable approved, got %s", got.Deliverables[0].Status)
	}

	if _, err := projects.ApproveMilestone(db, c.ID, m.ID, now); !errors.Is(err, projects.ErrInvalidTransition) {
		t.Fatalf("second approval should conflict, got %v", err)
	}
}

func TestStartAndSubmit(t *testing.T) {
	db := testutil.NewDB(t)
	u := testutil.User(t, db, "f@example.com")
	c := testutil.Client(t, db, u.ID)
	p := testutil.Project(t, db, u.ID, c.ID, "0")
	m := testutil.Milestone(t, db, p.ID, projects.MilestonePending, "500", 0)
	db.Create(&projects.Deliverable{MilestoneID: m.ID, Title: "Mockups", Status: projects.DeliverableRejected, Feedback: "old"})

	if _, err := projects.SubmitMilestone(db, u.ID, m.ID, time.Now()); !errors.Is(err, projects.ErrInvalidTransition) {
		t.Fatalf("submit from pending should fail, got %v", err)
	}
	if _, err := projects.StartMilestone(db, u.ID, m.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	got, err := projects.SubmitMilestone(db, u.ID, m.ID, time.Now())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got.Status != projects.MilestonePendingApproval || got.SubmittedAt == nil {
		t.Fatalf("unexpected milestone %+v", got)
	}
	if got.Deliverables[0].Status != projects.DeliverableSubmitted || got.Deliverables[0].Feedback != "" {
		t.Fatalf("deliverable not resubmitted: %+v", got.Deliverables[0])
	}

	other := testutil.User(t, db, "other@example.com")
	if _, err := projects.StartMilestone(db, other.ID, m.ID); !errors.Is(err, projects.ErrMilestoneNotFound) {
		t.Fatalf("expected not found for another user, got %v", err)
	}
}

func TestReorder(t *testing.T) {
	db := testutil.NewDB(t)
	u := testutil.User(t, db, "f@example.com")
	c := testutil.Client(t, db, u.ID)
	p := testutil.Project(t, db, u.ID, c.ID, "0")
	a := testutil.Milestone(t, db, p.ID, projects.MilestonePending, "1", 0)
	b := testutil.Milestone(t, db, p.ID, projects.MilestonePending, "1", 0)

	if err := projects.Reorder(db, u.ID, p.ID, []uint{b.ID, a.ID}); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	var got projects.Milestone
	db.First(&got, b.ID)
	if got.SortIndex != 0 {
		t.Fatalf("expected b first, got index %d", got.SortIndex)
	}

	t.Run("unknown id rolls back", func(t *testing.T) {
		err := projects.Reorder(db, u.ID, p.ID, []uint{a.ID, b.ID, 9999})
		if !errors.Is(err, projects.ErrMilestoneNotFound) {
			t.Fatalf("expected ErrMilestoneNotFound, got %v", err)
		}
		var check projects.Milestone
		db.First(&check, b.ID)
		if check.SortIndex != 0 {
			t.Fatalf("expected reorder rolled back, b index %d", check.SortIndex)
		}
	})
}

func TestCheckBudget(t *testing.T) {
	db := testutil.NewDB(t)
	u := testutil.User(t, db, "f@example.com")
	c := testutil.Client(t, db, u.ID)
	p := testutil.Project(t, db, u.ID, c.ID, "1000")
	m := testutil.Milestone(t, db, p.ID, projects.MilestonePending, "600", 0)

	if err := projects.CheckBudget(db, p, 0, testutil.Money("400")); err != nil {
		t.Fatalf("400 should fit: %v", err)
	}
	if err := projects.CheckBudget(db, p, 0, testutil.Money("401")); !errors.Is(err, projects.ErrOverBudget) {
		t.Fatalf("expected ErrOverBudget, got %v", err)
	}
	if err := projects.CheckBudget(db, p, m.ID, testutil.Money("1000")); err != nil {
		t.Fatalf("editing the only milestone up to budget should fit: %v", err)
	}

	uncapped := testutil.Project(t, db, u.ID, c.ID, "0")
	if err := projects.CheckBudget(db, uncapped, 0, testutil.Money("1000000")); err != nil {
		t.Fatalf("uncapped project: %v", err)
	}
}
