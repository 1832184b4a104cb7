// Package catalog holds the built-in chore templates offered in the
// template marketplace.
package catalog

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/dukerupert/choreboard/internal/model"
	"github.com/dukerupert/choreboard/internal/store"
)

//go:embed templates.yaml
var builtin []byte

type Template struct {
	Name             string `yaml:"name"`
	Description      string `yaml:"description"`
	Category         string `yaml:"category"`
	Points           int    `yaml:"points"`
	Emoji            string `yaml:"emoji"`
	Difficulty       string `yaml:"difficulty"`
	EstimatedMinutes int    `yaml:"estimated_minutes"`
	Retired          bool   `yaml:"retired"`
}

func (t Template) validate() error {
	switch {
	case t.Name == "":
		return errors.New("name is required")
	case !model.ValidCategory(t.Category):
		return fmt.Errorf("unknown category %q", t.Category)
	case t.Points < 1:
		return errors.New("points must be at least 1")
	case !model.ValidDifficulty(t.Difficulty):
		return fmt.Errorf("unknown difficulty %q", t.Difficulty)
	case t.EstimatedMinutes < 1:
		return errors.New("estimated minutes must be at least 1")
	}
	return nil
}

// Parse decodes and validates a template document. Names must be unique.
func Parse(data []byte) ([]Template, error) {
	var doc struct {
		Templates []Template `yaml:"templates"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	seen := make(map[string]bool, len(doc.Templates))
	for i, t := range doc.Templates {
		if err := t.validate(); err != nil {
			return nil, fmt.Errorf("template %d (%q): %w", i, t.Name, err)
		}
		if seen[t.Name] {
			return nil, fmt.Errorf("duplicate template %q", t.Name)
		}
		seen[t.Name] = true
	}
	return doc.Templates, nil
}

// Builtin returns the templates shipped with the binary.
func Builtin() ([]Template, error) {
	return Parse(builtin)
}

// Seed upserts templates by name in one transaction and returns how many
// were written. Running it again refreshes existing rows.
func Seed(ctx context.Context, db *sql.DB, templates []Template) (int, error) {
	err := store.WithTx(ctx, db, func(tx *sql.Tx) error {
		ts := store.NewTemplateStore(tx)
		for _, t := range templates {
			f := store.ChoreFields{
				Name:             t.Name,
				Description:      t.Description,
				Category:         t.Category,
				Points:           t.Points,
				Emoji:            t.Emoji,
				Difficulty:       t.Difficulty,
				EstimatedMinutes: t.EstimatedMinutes,
			}
			if err := ts.Upsert(ctx, f, !t.Retired); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(templates), nil
}
