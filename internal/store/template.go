package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/choreboard/internal/model"
)

type TemplateStore struct {
	db Queryer
}

func NewTemplateStore(db Queryer) *TemplateStore {
	return &TemplateStore{db: db}
}

func scanTemplate(s scanner) (*model.ChoreTemplate, error) {
	var t model.ChoreTemplate
	var active int
	err := s.Scan(
		&t.ID, &t.Name, &t.Description, &t.Category, &t.Points, &t.Emoji,
		&t.Difficulty, &t.EstimatedMinutes, &active, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Active = active != 0
	return &t, nil
}

const templateCols = `id, name, description, category, points, emoji, difficulty, estimated_minutes, active, created_at`

// Upsert inserts a template or refreshes the one with the same name.
func (s *TemplateStore) Upsert(ctx context.Context, f ChoreFields, active bool) error {
	var a int
	if active {
		a = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chore_templates (name, description, category, points, emoji, difficulty, estimated_minutes, active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (name) DO UPDATE SET
		   description = excluded.description,
		   category = excluded.category,
		   points = excluded.points,
		   emoji = excluded.emoji,
		   difficulty = excluded.difficulty,
		   estimated_minutes = excluded.estimated_minutes,
		   active = excluded.active`,
		f.Name, f.Description, f.Category, f.Points, f.Emoji, f.Difficulty, f.EstimatedMinutes, a,
	)
	if err != nil {
		return fmt.Errorf("upsert template %q: %w", f.Name, err)
	}
	return nil
}

func (s *TemplateStore) GetByID(ctx context.Context, id int64) (*model.ChoreTemplate, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+templateCols+` FROM chore_templates WHERE id = ?`, id)
	t, err := scanTemplate(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	return t, nil
}

// ListActive returns active templates, optionally filtered by category.
func (s *TemplateStore) ListActive(ctx context.Context, category string) ([]model.ChoreTemplate, error) {
	query := `SELECT ` + templateCols + ` FROM chore_templates WHERE active = 1`
	args := []any{}
	if category != "" {
		query += ` AND category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY category ASC, name ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var templates []model.ChoreTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		templates = append(templates, *t)
	}
	return templates, rows.Err()
}
