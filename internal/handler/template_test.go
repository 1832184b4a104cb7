package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/dukerupert/choreboard/internal/model"
	"github.com/dukerupert/choreboard/internal/store"
)

func seedTemplates(t *testing.T, f *fixture) (active, retired *model.ChoreTemplate) {
	t.Helper()
	ctx := context.Background()
	templates := store.NewTemplateStore(f.db)
	fields := store.ChoreFields{
		Name: "Vacuum Living Room", Category: model.CategoryCleaning, Points: 15,
		Emoji: "🧹", Difficulty: model.DifficultyMedium, EstimatedMinutes: 20,
	}
	if err := templates.Upsert(ctx, fields, true); err != nil {
		t.Fatalf("upsert template: %v", err)
	}
	fields.Name = "Polish Silver"
	if err := templates.Upsert(ctx, fields, false); err != nil {
		t.Fatalf("upsert template: %v", err)
	}

	list, err := templates.ListActive(ctx, "")
	if err != nil || len(list) != 1 {
		t.Fatalf("list active = %v, %v", list, err)
	}
	active = &list[0]

	var retiredID int64
	if err := f.db.QueryRowContext(ctx, `SELECT id FROM chore_templates WHERE name = ?`, "Polish Silver").Scan(&retiredID); err != nil {
		t.Fatalf("find retired template: %v", err)
	}
	retired, err = templates.GetByID(ctx, retiredID)
	if err != nil {
		t.Fatalf("get template: %v", err)
	}
	return active, retired
}

func TestTemplateHandler(t *testing.T) {
	f := setupFixture(t)
	active, retired := seedTemplates(t, f)
	h := NewTemplateHandler(f.db, nil, discardLogger())

	rec := serve(h.List, newRequest(t, http.MethodGet, "/api/templates?category=Cleaning+%26+Maintenance", nil, f.member))
	if list := decode[[]model.ChoreTemplate](t, rec); len(list) != 1 || list[0].Name != active.Name {
		t.Errorf("list = %+v", list)
	}

	rec = serve(h.List, newRequest(t, http.MethodGet, "/api/templates?category=Kitchen+%26+Dining", nil, f.member))
	if list := decode[[]model.ChoreTemplate](t, rec); len(list) != 0 {
		t.Errorf("kitchen list = %+v, want empty", list)
	}

	rec = serve(h.Add, newRequest(t, http.MethodPost, "/", nil, f.admin, "id", id(active.ID)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("add status = %d: %s", rec.Code, rec.Body)
	}
	chore := decode[model.Chore](t, rec)
	if chore.Name != active.Name || chore.Points != 15 || chore.HouseholdID != f.hid {
		t.Errorf("chore = %+v", chore)
	}

	rec = serve(h.Add, newRequest(t, http.MethodPost, "/", nil, f.admin, "id", id(active.ID)))
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate add status = %d, want 409", rec.Code)
	}

	rec = serve(h.Add, newRequest(t, http.MethodPost, "/", nil, f.admin, "id", id(retired.ID)))
	if rec.Code != http.StatusNotFound {
		t.Errorf("retired add status = %d, want 404", rec.Code)
	}

	// Another household may add the same template.
	rec = serve(h.Add, newRequest(t, http.MethodPost, "/", nil, f.outsider, "id", id(active.ID)))
	if rec.Code != http.StatusCreated {
		t.Errorf("other household add status = %d, want 201", rec.Code)
	}
}
