package store

import (
	"context"
	"testing"
	"time"

	"github.com/dukerupert/choreboard/internal/model"
	"github.com/google/go-cmp/cmp"
)

func TestCompletionCreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	cs := NewCompletionStore(db)
	ctx := context.Background()
	h, admin := seedHousehold(t, db, "home")
	helper := seedMember(t, db, h.ID, "helper")
	chore := seedChore(t, db, h.ID, "Mop floor", model.CategoryCleaning, 15)

	minutes := 25
	at := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	c, err := cs.Create(ctx, &model.CompletedChore{
		ChoreID:        chore.ID,
		UserID:         admin.ID,
		HouseholdID:    h.ID,
		Category:       chore.Category,
		PointsEarned:   15,
		QualityRating:  4,
		CompletionTime: &minutes,
		Notes:          "kitchen too",
		Collaborators:  []int64{helper.ID, helper.ID},
		CompletedAt:    at,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if c.ChoreName != "Mop floor" || c.Username != admin.Username {
		t.Errorf("joined names = %q/%q", c.ChoreName, c.Username)
	}
	if !c.CompletedAt.Equal(at) {
		t.Errorf("completed at = %v, want %v", c.CompletedAt, at)
	}
	if c.CompletionTime == nil || *c.CompletionTime != 25 {
		t.Errorf("completion time = %v", c.CompletionTime)
	}
	if diff := cmp.Diff([]int64{helper.ID}, c.Collaborators); diff != "" {
		t.Errorf("collaborators mismatch (-want +got):\n%s", diff)
	}

	missing, err := cs.GetByID(ctx, 9999)
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing completion")
	}
}

func TestCompletionListFilters(t *testing.T) {
	db := setupTestDB(t)
	cs := NewCompletionStore(db)
	ctx := context.Background()
	h, admin := seedHousehold(t, db, "home")
	other := seedMember(t, db, h.ID, "other")
	chore := seedChore(t, db, h.ID, "Dust", model.CategoryCleaning, 5)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		seedCompletion(t, db, chore, admin.ID, 5, base.Add(time.Duration(i)*time.Hour))
	}
	seedCompletion(t, db, chore, other.ID, 5, base.Add(10*time.Hour))

	all, total, err := cs.List(ctx, CompletionFilter{HouseholdID: h.ID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 6 || len(all) != 6 {
		t.Fatalf("total=%d len=%d, want 6", total, len(all))
	}
	if all[0].UserID != other.ID {
		t.Error("expected newest completion first")
	}

	page, total, err := cs.List(ctx, CompletionFilter{HouseholdID: h.ID, UserID: admin.ID, Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("list page: %v", err)
	}
	if total != 5 || len(page) != 2 {
		t.Fatalf("total=%d len=%d, want 5/2", total, len(page))
	}
	if !page[0].CompletedAt.Equal(base.Add(2 * time.Hour)) {
		t.Errorf("page[0] at %v", page[0].CompletedAt)
	}

	start := base.Add(time.Hour)
	end := base.Add(3 * time.Hour)
	ranged, total, err := cs.List(ctx, CompletionFilter{HouseholdID: h.ID, Start: &start, End: &end})
	if err != nil {
		t.Fatalf("list range: %v", err)
	}
	if total != 3 || len(ranged) != 3 {
		t.Errorf("range total=%d len=%d, want 3", total, len(ranged))
	}
}

func TestCompletionCounts(t *testing.T) {
	db := setupTestDB(t)
	cs := NewCompletionStore(db)
	ctx := context.Background()
	h, admin := seedHousehold(t, db, "home")
	idle := seedMember(t, db, h.ID, "idle")
	dishes := seedChore(t, db, h.ID, "Dishes", model.CategoryKitchen, 10)
	laundry := seedChore(t, db, h.ID, "Laundry", model.CategoryLaundry, 8)

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	seedCompletion(t, db, dishes, admin.ID, 10, at)
	seedCompletion(t, db, dishes, admin.ID, 10, at.Add(time.Hour))
	seedCompletion(t, db, laundry, admin.ID, 8, at.Add(2*time.Hour))

	n, err := cs.CountByUser(ctx, admin.ID)
	if err != nil || n != 3 {
		t.Errorf("count by user = %d, %v", n, err)
	}
	n, err = cs.CountByUserCategory(ctx, admin.ID, model.CategoryKitchen)
	if err != nil || n != 2 {
		t.Errorf("count kitchen = %d, %v", n, err)
	}

	totals, err := cs.CategoryTotals(ctx, admin.ID)
	if err != nil {
		t.Fatalf("category totals: %v", err)
	}
	want := []model.CategoryTotal{
		{Category: model.CategoryKitchen, Count: 2, Points: 20},
		{Category: model.CategoryLaundry, Count: 1, Points: 8},
	}
	if diff := cmp.Diff(want, totals); diff != "" {
		t.Errorf("category totals mismatch (-want +got):\n%s", diff)
	}

	counts, err := cs.CountsByHouseholdMembers(ctx, h.ID)
	if err != nil {
		t.Fatalf("member counts: %v", err)
	}
	wantCounts := map[int64]Tally{admin.ID: {Points: 28, Count: 3}, idle.ID: {}}
	if diff := cmp.Diff(wantCounts, counts); diff != "" {
		t.Errorf("member counts mismatch (-want +got):\n%s", diff)
	}
}

func TestCompletionWindowTalliesHalfOpen(t *testing.T) {
	db := setupTestDB(t)
	cs := NewCompletionStore(db)
	ctx := context.Background()
	h, admin := seedHousehold(t, db, "home")
	chore := seedChore(t, db, h.ID, "Sweep", model.CategoryCleaning, 4)

	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)
	seedCompletion(t, db, chore, admin.ID, 4, start)
	seedCompletion(t, db, chore, admin.ID, 4, end.Add(-time.Second))
	seedCompletion(t, db, chore, admin.ID, 4, end)

	tallies, err := cs.WindowTallies(ctx, h.ID, start, end)
	if err != nil {
		t.Fatalf("window tallies: %v", err)
	}
	if got := tallies[admin.ID]; got != (Tally{Points: 8, Count: 2}) {
		t.Errorf("tally = %+v, want 8 points over 2 completions", got)
	}
}

func TestCompletionUpdateAndDelete(t *testing.T) {
	db := setupTestDB(t)
	cs := NewCompletionStore(db)
	ctx := context.Background()
	h, admin := seedHousehold(t, db, "home")
	chore := seedChore(t, db, h.ID, "Windows", model.CategoryCleaning, 20)
	c := seedCompletion(t, db, chore, admin.ID, 20, time.Now())

	minutes := 40
	updated, err := cs.UpdateDetails(ctx, c.ID, 5, &minutes, "sparkling")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.QualityRating != 5 || updated.Notes != "sparkling" || *updated.CompletionTime != 40 {
		t.Errorf("updated = %+v", updated)
	}
	if updated.PointsEarned != 20 {
		t.Errorf("points earned changed to %d", updated.PointsEarned)
	}

	if _, err := cs.UpdateDetails(ctx, c.ID, 6, nil, ""); err == nil {
		t.Error("expected out-of-range quality rating to be rejected")
	}

	if err := cs.Delete(ctx, c.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err := cs.GetByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("get deleted: %v", err)
	}
	if got != nil {
		t.Error("expected completion to be deleted")
	}
}
