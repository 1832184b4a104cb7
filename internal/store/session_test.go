package store

import (
	"context"
	"testing"
	"time"
)

func TestSessionLifecycle(t *testing.T) {
	db := setupTestDB(t)
	ss := NewSessionStore(db)
	ctx := context.Background()
	u := seedUser(t, db, "erin")

	sess, err := ss.Create(ctx, u.ID, time.Hour)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sess.Token == "" {
		t.Fatal("expected a token")
	}

	got, err := ss.GetByToken(ctx, sess.Token)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.UserID != u.ID {
		t.Fatalf("get by token = %+v", got)
	}

	if err := ss.Delete(ctx, sess.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err = ss.GetByToken(ctx, sess.Token)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if got != nil {
		t.Error("expected session to be gone")
	}
}

func TestSessionExpiry(t *testing.T) {
	db := setupTestDB(t)
	ss := NewSessionStore(db)
	ctx := context.Background()
	u := seedUser(t, db, "frank")

	expired, err := ss.Create(ctx, u.ID, -time.Minute)
	if err != nil {
		t.Fatalf("create expired: %v", err)
	}
	if _, err := ss.Create(ctx, u.ID, time.Hour); err != nil {
		t.Fatalf("create live: %v", err)
	}

	got, err := ss.GetByToken(ctx, expired.Token)
	if err != nil {
		t.Fatalf("get expired: %v", err)
	}
	if got != nil {
		t.Error("expired session should not be returned")
	}

	n, err := ss.DeleteExpired(ctx)
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted = %d, want 1", n)
	}
}
