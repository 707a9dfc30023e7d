package portal_test

import (
	"errors"
	"testing"
	"time"

	"freelancer-hub/internal/domain/portal"
	"freelancer-hub/internal/testutil"
)

func TestExchangeAndResolve(t *testing.T) {
	db := testutil.NewDB(t)
	u := testutil.User(t, db, "f@example.com")
	c := testutil.Client(t, db, u.ID)
	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

	link, stored, err := portal.IssueLink(db, u.ID, c.ID, time.Hour, now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if stored.TokenHash == link || stored.TokenHash != portal.HashToken(link) {
		t.Fatalf("expected only the hash to be stored")
	}

	raw, sess, err := portal.Exchange(db, link, 24*time.Hour, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if sess.ClientID != c.ID || sess.UserID != u.ID {
		t.Fatalf("session bound to wrong client: %+v", sess)
	}

	t.Run("link is single use", func(t *testing.T) {
		_, _, err := portal.Exchange(db, link, 24*time.Hour, now.Add(2*time.Minute))
		if !errors.Is(err, portal.ErrInvalidLink) {
			t.Fatalf("expected ErrInvalidLink, got %v", err)
		}
	})

	t.Run("session resolves until expiry", func(t *testing.T) {
		got, err := portal.Resolve(db, raw, now.Add(time.Hour))
		if err != nil || got.ID != sess.ID {
			t.Fatalf("resolve: %v", err)
		}
		var touched portal.Session
		db.First(&touched, sess.ID)
		if !touched.LastSeenAt.Equal(now.Add(time.Hour)) {
			t.Fatalf("expected last_seen_at %s, got %s", now.Add(time.Hour), touched.LastSeenAt)
		}
		if _, err := portal.Resolve(db, raw, now.Add(48*time.Hour)); !errors.Is(err, portal.ErrInvalidSession) {
			t.Fatalf("expected expired session, got %v", err)
		}
	})

	t.Run("revoked session is gone", func(t *testing.T) {
		if err := portal.Revoke(db, raw); err != nil {
			t.Fatalf("revoke: %v", err)
		}
		if _, err := portal.Resolve(db, raw, now.Add(time.Hour)); !errors.Is(err, portal.ErrInvalidSession) {
			t.Fatalf("expected ErrInvalidSession, got %v", err)
		}
	})
}

func TestExchange_ExpiredLink(t *testing.T) {
	db := testutil.NewDB(t)
	u := testutil.User(t, db, "f@example.com")
	c := testutil.Client(t, db, u.ID)
	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

	link, _, _ := portal.IssueLink(db, u.ID, c.ID, time.Hour, now)
	if _, _, err := portal.Exchange(db, link, time.Hour, now.Add(2*time.Hour)); !errors.Is(err, portal.ErrInvalidLink) {
		t.Fatalf("expected ErrInvalidLink, got %v", err)
	}
	if _, _, err := portal.Exchange(db, "not-a-token", time.Hour, now); !errors.Is(err, portal.ErrInvalidLink) {
		t.Fatalf("expected ErrInvalidLink for unknown token, got %v", err)
	}
}

func TestMessages(t *testing.T) {
	db := testutil.NewDB(t)
	u := testutil.User(t, db, "f@example.com")
	c := testutil.Client(t, db, u.ID)

	if _, err := portal.PostMessage(db, portal.Message{UserID: u.ID, ClientID: c.ID, Sender: portal.SenderClient, Body: "   "}); !errors.Is(err, portal.ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
	portal.PostMessage(db, portal.Message{UserID: u.ID, ClientID: c.ID, Sender: portal.SenderClient, Body: "Hi"})
	portal.PostMessage(db, portal.Message{UserID: u.ID, ClientID: c.ID, Sender: portal.SenderFreelancer, Body: "Hello"})

	if n, _ := portal.Unread(db, u.ID); n != 1 {
		t.Fatalf("expected 1 unread, got %d", n)
	}
	if err := portal.MarkRead(db, u.ID, c.ID, portal.SenderFreelancer, time.Now()); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if n, _ := portal.Unread(db, u.ID); n != 0 {
		t.Fatalf("expected 0 unread, got %d", n)
	}
	thread, _ := portal.Thread(db, u.ID, c.ID, nil)
	if len(thread) != 2 || thread[0].Body != "Hi" {
		t.Fatalf("unexpected thread %+v", thread)
	}
}
