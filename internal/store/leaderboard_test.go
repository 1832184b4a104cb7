package store

import (
	"context"
	"testing"
	"time"

	"github.com/dukerupert/choreboard/internal/model"
)

func TestLeaderboardUpsertPruneList(t *testing.T) {
	db := setupTestDB(t)
	ls := NewLeaderboardStore(db)
	ctx := context.Background()
	h, admin := seedHousehold(t, db, "home")
	member := seedMember(t, db, h.ID, "kim")

	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)
	entry := func(userID int64, points, rank int) model.LeaderboardEntry {
		return model.LeaderboardEntry{
			UserID: userID, HouseholdID: h.ID, Period: "daily",
			PeriodStart: start, PeriodEnd: end, Points: points, CompletedChores: 1, Rank: rank,
		}
	}

	for _, e := range []model.LeaderboardEntry{entry(admin.ID, 10, 1), entry(member.ID, 5, 2)} {
		if err := ls.Upsert(ctx, e); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}
	// Rerank replaces the existing rows in place.
	for _, e := range []model.LeaderboardEntry{entry(member.ID, 20, 1), entry(admin.ID, 10, 2)} {
		if err := ls.Upsert(ctx, e); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	rows, err := ls.ListWindow(ctx, h.ID, "daily", start, end)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].UserID != member.ID || rows[0].Points != 20 || rows[0].Username != "kim" {
		t.Errorf("rows[0] = %+v", rows[0])
	}

	if err := ls.Prune(ctx, h.ID, "daily", start, end, []int64{member.ID}); err != nil {
		t.Fatalf("prune: %v", err)
	}
	rows, err = ls.ListWindow(ctx, h.ID, "daily", start, end)
	if err != nil {
		t.Fatalf("list after prune: %v", err)
	}
	if len(rows) != 1 || rows[0].UserID != member.ID {
		t.Errorf("after prune = %+v", rows)
	}

	if err := ls.Prune(ctx, h.ID, "daily", start, end, nil); err != nil {
		t.Fatalf("prune all: %v", err)
	}
	rows, err = ls.ListWindow(ctx, h.ID, "daily", start, end)
	if err != nil {
		t.Fatalf("list after prune all: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("rows = %d, want 0", len(rows))
	}
}

func TestLeaderboardRejectsAllTimePeriod(t *testing.T) {
	db := setupTestDB(t)
	h, admin := seedHousehold(t, db, "home")

	err := NewLeaderboardStore(db).Upsert(context.Background(), model.LeaderboardEntry{
		UserID: admin.ID, HouseholdID: h.ID, Period: "allTime",
		PeriodStart: time.Now(), PeriodEnd: time.Now(), Rank: 1,
	})
	if err == nil {
		t.Error("expected allTime rows to be rejected by the cache table")
	}
}
