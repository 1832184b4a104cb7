package catalog

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dukerupert/choreboard/internal/database"
	"github.com/dukerupert/choreboard/internal/model"
	"github.com/dukerupert/choreboard/internal/store"
)

func TestBuiltin(t *testing.T) {
	templates, err := Builtin()
	if err != nil {
		t.Fatalf("builtin: %v", err)
	}
	if len(templates) != 25 {
		t.Errorf("got %d templates, want 25", len(templates))
	}

	perCategory := map[string]int{}
	for _, tt := range templates {
		perCategory[tt.Category]++
	}
	for _, c := range []string{model.CategoryKitchen, model.CategoryCleaning, model.CategoryLaundry, model.CategoryShopping, model.CategoryOrganization} {
		if perCategory[c] == 0 {
			t.Errorf("no templates in %s", c)
		}
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"category": `templates: [{name: X, category: Garage, points: 1, difficulty: Easy, estimated_minutes: 5}]`,
		"points":   `templates: [{name: X, category: Other, points: 0, difficulty: Easy, estimated_minutes: 5}]`,
		"duplicate": `templates:
  - {name: X, category: Other, points: 1, difficulty: Easy, estimated_minutes: 5}
  - {name: X, category: Other, points: 2, difficulty: Hard, estimated_minutes: 5}`,
		"syntax": `templates: [`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(doc)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSeed(t *testing.T) {
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	defer db.Close()
	ctx := context.Background()

	templates, err := Parse([]byte(strings.TrimSpace(`
templates:
  - {name: Wash dishes, category: "Kitchen & Dining", points: 5, emoji: "🍽️", difficulty: Easy, estimated_minutes: 15}
  - {name: Iron clothes, category: "Laundry & Clothes", points: 6, emoji: "👔", difficulty: Medium, estimated_minutes: 20}
`)))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	n, err := Seed(ctx, db, templates)
	if err != nil || n != 2 {
		t.Fatalf("seed = %d, %v", n, err)
	}

	// Re-seeding refreshes rows and can retire a template.
	templates[0].Points = 7
	templates[1].Retired = true
	if _, err := Seed(ctx, db, templates); err != nil {
		t.Fatalf("reseed: %v", err)
	}

	active, err := store.NewTemplateStore(db).ListActive(ctx, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var got []string
	for _, a := range active {
		got = append(got, a.Name)
	}
	if diff := cmp.Diff([]string{"Wash dishes"}, got); diff != "" {
		t.Errorf("active templates (-want +got):\n%s", diff)
	}
	if active[0].Points != 7 {
		t.Errorf("points = %d, want refreshed 7", active[0].Points)
	}
}
