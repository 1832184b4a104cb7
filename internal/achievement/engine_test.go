package achievement

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/dukerupert/choreboard/internal/database"
	"github.com/dukerupert/choreboard/internal/model"
	"github.com/dukerupert/choreboard/internal/store"
)

func setupEngineTestDB(t *testing.T) (*sql.DB, *model.User, *model.Chore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	ctx := context.Background()

	users := store.NewUserStore(db)
	u, err := users.Create(ctx, "mia", "mia@example.com", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	h, err := store.NewHouseholdStore(db).Create(ctx, "home", u.ID, "CAFE0001")
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	if err := users.SetHousehold(ctx, u.ID, &h.ID, model.RoleAdmin); err != nil {
		t.Fatalf("set household: %v", err)
	}
	chore, err := store.NewChoreStore(db).Create(ctx, h.ID, store.ChoreFields{
		Name: "Dishes", Category: model.CategoryKitchen, Points: 5,
		Emoji: "🍽️", Difficulty: model.DifficultyEasy, EstimatedMinutes: 10,
	})
	if err != nil {
		t.Fatalf("create chore: %v", err)
	}
	return db, u, chore
}

func complete(t *testing.T, db *sql.DB, userID int64, chore *model.Chore, n int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		if _, err := store.NewCompletionStore(db).Create(ctx, &model.CompletedChore{
			ChoreID: chore.ID, UserID: userID, HouseholdID: chore.HouseholdID,
			Category: chore.Category, PointsEarned: chore.Points, QualityRating: 3,
			CompletedAt: time.Now(),
		}); err != nil {
			t.Fatalf("create completion: %v", err)
		}
		if _, err := store.NewUserStore(db).AddPoints(ctx, userID, chore.Points); err != nil {
			t.Fatalf("add points: %v", err)
		}
	}
}

func TestEngineGrantsOnce(t *testing.T) {
	db, u, chore := setupEngineTestDB(t)
	ctx := context.Background()
	e := NewEngine()

	complete(t, db, u.ID, chore, 1)
	granted, err := e.Check(ctx, db, u.ID, chore.Category, time.Now())
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(granted) != 1 || granted[0].Achievement != "First Chore" {
		t.Fatalf("granted = %+v, want First Chore", granted)
	}

	granted, err = e.Check(ctx, db, u.ID, chore.Category, time.Now())
	if err != nil {
		t.Fatalf("check again: %v", err)
	}
	if len(granted) != 0 {
		t.Errorf("second check granted %+v, want nothing", granted)
	}

	all, err := store.NewAchievementStore(db).ListByUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("achievements = %d, want 1", len(all))
	}
}

func TestEngineCategoryMastery(t *testing.T) {
	db, u, chore := setupEngineTestDB(t)
	ctx := context.Background()
	e := NewEngine()

	complete(t, db, u.ID, chore, 20)
	counters, err := e.Counters(ctx, db, u.ID, chore.Category)
	if err != nil {
		t.Fatalf("counters: %v", err)
	}
	want := Counters{Completions: 20, Points: 100, Category: model.CategoryKitchen, CategoryCompletions: 20}
	if counters != want {
		t.Errorf("counters = %+v, want %+v", counters, want)
	}

	granted, err := e.Check(ctx, db, u.ID, chore.Category, time.Now())
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	got := map[string]bool{}
	for _, a := range granted {
		got[a.Achievement] = true
	}
	for _, name := range []string{"First Chore", "Ten Chores", "100 Points", "Kitchen Master"} {
		if !got[name] {
			t.Errorf("expected %q to be granted, got %v", name, got)
		}
	}

	// Without a category the mastery rule cannot fire.
	counters, err = e.Counters(ctx, db, u.ID, "")
	if err != nil {
		t.Fatalf("counters without category: %v", err)
	}
	if counters.CategoryCompletions != 0 {
		t.Errorf("category completions = %d, want 0", counters.CategoryCompletions)
	}
}

func TestEngineUnknownUser(t *testing.T) {
	db, _, _ := setupEngineTestDB(t)
	if _, err := NewEngine().Check(context.Background(), db, 9999, "", time.Now()); err == nil {
		t.Error("expected error for unknown user")
	}
}
