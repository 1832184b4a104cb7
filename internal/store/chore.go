package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dukerupert/choreboard/internal/model"
)

type ChoreStore struct {
	db Queryer
}

func NewChoreStore(db Queryer) *ChoreStore {
	return &ChoreStore{db: db}
}

// ChoreFields are the editable attributes of a chore or template.
type ChoreFields struct {
	Name             string
	Description      string
	Category         string
	Points           int
	Emoji            string
	Difficulty       string
	EstimatedMinutes int
}

func scanChore(s scanner) (*model.Chore, error) {
	var c model.Chore
	err := s.Scan(
		&c.ID, &c.HouseholdID, &c.Name, &c.Description, &c.Category, &c.Points,
		&c.Emoji, &c.Difficulty, &c.EstimatedMinutes, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

const choreCols = `id, household_id, name, description, category, points, emoji, difficulty, estimated_minutes, created_at, updated_at`

func (s *ChoreStore) Create(ctx context.Context, householdID int64, f ChoreFields) (*model.Chore, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO chores (household_id, name, description, category, points, emoji, difficulty, estimated_minutes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		householdID, f.Name, f.Description, f.Category, f.Points, f.Emoji, f.Difficulty, f.EstimatedMinutes,
	)
	if err != nil {
		return nil, fmt.Errorf("insert chore: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *ChoreStore) GetByID(ctx context.Context, id int64) (*model.Chore, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+choreCols+` FROM chores WHERE id = ?`, id)
	c, err := scanChore(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chore: %w", err)
	}
	return c, nil
}

// ListByHousehold returns a household's chores, optionally restricted to one
// category.
func (s *ChoreStore) ListByHousehold(ctx context.Context, householdID int64, category string) ([]model.Chore, error) {
	query := `SELECT ` + choreCols + ` FROM chores WHERE household_id = ?`
	args := []any{householdID}
	if category != "" {
		query += ` AND category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY category ASC, name ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list chores: %w", err)
	}
	defer rows.Close()

	var chores []model.Chore
	for rows.Next() {
		c, err := scanChore(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chore: %w", err)
		}
		chores = append(chores, *c)
	}
	return chores, rows.Err()
}

func (s *ChoreStore) ExistsByName(ctx context.Context, householdID int64, name string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chores WHERE household_id = ? AND name = ?`,
		householdID, name,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check chore name: %w", err)
	}
	return n > 0, nil
}

func (s *ChoreStore) Update(ctx context.Context, id int64, f ChoreFields) (*model.Chore, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE chores SET name = ?, description = ?, category = ?, points = ?, emoji = ?, difficulty = ?, estimated_minutes = ?
		 WHERE id = ?`,
		f.Name, f.Description, f.Category, f.Points, f.Emoji, f.Difficulty, f.EstimatedMinutes, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update chore: %w", err)
	}
	return s.GetByID(ctx, id)
}

// ErrChoreCompleted is returned when deleting a chore that has completions.
var ErrChoreCompleted = errors.New("chore has completions")

// Delete removes a chore that has never been completed. Deleting a missing
// chore is not an error.
func (s *ChoreStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM chores WHERE id = ?
		 AND NOT EXISTS (SELECT 1 FROM completed_chores WHERE chore_id = ?)`,
		id, id,
	)
	if err != nil {
		return fmt.Errorf("delete chore: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete chore: %w", err)
	}
	if n == 0 {
		c, err := s.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if c != nil {
			return fmt.Errorf("delete chore %d: %w", id, ErrChoreCompleted)
		}
	}
	return nil
}
