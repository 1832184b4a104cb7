package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/choreboard/internal/model"
)

type CompletionStore struct {
	db Queryer
}

func NewCompletionStore(db Queryer) *CompletionStore {
	return &CompletionStore{db: db}
}

func scanCompletion(s scanner) (*model.CompletedChore, error) {
	var c model.CompletedChore
	var completionTime sql.NullInt64
	err := s.Scan(
		&c.ID, &c.ChoreID, &c.ChoreName, &c.UserID, &c.Username, &c.HouseholdID,
		&c.Category, &c.PointsEarned, &c.QualityRating, &completionTime, &c.Notes,
		&c.CompletedAt, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if completionTime.Valid {
		n := int(completionTime.Int64)
		c.CompletionTime = &n
	}
	return &c, nil
}

// A zero ChoreID or HouseholdID marks history whose chore or household has
// since been deleted.
const completionSelect = `SELECT c.id, COALESCE(c.chore_id, 0), COALESCE(ch.name, ''), c.user_id, COALESCE(u.username, ''),
	COALESCE(c.household_id, 0), c.category, c.points_earned, c.quality_rating, c.completion_time, c.notes,
	c.completed_at, c.created_at
	FROM completed_chores c
	LEFT JOIN chores ch ON ch.id = c.chore_id
	LEFT JOIN users u ON u.id = c.user_id`

// Create persists a completion and its collaborators. The PointsEarned,
// Category and CompletedAt values are stored exactly as given.
func (s *CompletionStore) Create(ctx context.Context, c *model.CompletedChore) (*model.CompletedChore, error) {
	var completionTime sql.NullInt64
	if c.CompletionTime != nil {
		completionTime = sql.NullInt64{Int64: int64(*c.CompletionTime), Valid: true}
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO completed_chores
		 (chore_id, user_id, household_id, category, points_earned, quality_rating, completion_time, notes, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ChoreID, c.UserID, c.HouseholdID, c.Category, c.PointsEarned, c.QualityRating,
		completionTime, c.Notes, utc(c.CompletedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert completion: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	for _, uid := range c.Collaborators {
		if _, err := s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO completion_collaborators (completion_id, user_id) VALUES (?, ?)`,
			id, uid,
		); err != nil {
			return nil, fmt.Errorf("insert collaborator %d: %w", uid, err)
		}
	}

	return s.GetByID(ctx, id)
}

func (s *CompletionStore) GetByID(ctx context.Context, id int64) (*model.CompletedChore, error) {
	row := s.db.QueryRowContext(ctx, completionSelect+` WHERE c.id = ?`, id)
	c, err := scanCompletion(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get completion: %w", err)
	}
	collaborators, err := s.collaborators(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Collaborators = collaborators
	return c, nil
}

func (s *CompletionStore) collaborators(ctx context.Context, completionID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id FROM completion_collaborators WHERE completion_id = ? ORDER BY user_id ASC`,
		completionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list collaborators: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan collaborator: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CompletionFilter narrows a household completion listing. Zero values
// mean "no restriction"; Limit defaults to 20.
type CompletionFilter struct {
	HouseholdID int64
	UserID      int64
	Start       *time.Time
	End         *time.Time
	Limit       int
	Offset      int
}

// List returns one page of completions, newest first, and the total number
// of completions matching the filter.
func (s *CompletionStore) List(ctx context.Context, f CompletionFilter) ([]model.CompletedChore, int, error) {
	where := []string{`c.household_id = ?`}
	args := []any{f.HouseholdID}
	if f.UserID != 0 {
		where = append(where, `c.user_id = ?`)
		args = append(args, f.UserID)
	}
	if f.Start != nil {
		where = append(where, `c.completed_at >= ?`)
		args = append(args, utc(*f.Start))
	}
	if f.End != nil {
		where = append(where, `c.completed_at <= ?`)
		args = append(args, utc(*f.End))
	}
	clause := ` WHERE ` + strings.Join(where, ` AND `)

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM completed_chores c`+clause, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count completions: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		completionSelect+clause+` ORDER BY c.completed_at DESC, c.id DESC LIMIT ? OFFSET ?`,
		append(args, limit, f.Offset)...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list completions: %w", err)
	}
	completions, err := collectCompletions(rows)
	if err != nil {
		return nil, 0, err
	}
	return completions, total, nil
}

// Recent returns a user's most recent completions.
func (s *CompletionStore) Recent(ctx context.Context, userID int64, limit int) ([]model.CompletedChore, error) {
	rows, err := s.db.QueryContext(ctx,
		completionSelect+` WHERE c.user_id = ? ORDER BY c.completed_at DESC, c.id DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent completions: %w", err)
	}
	return collectCompletions(rows)
}

func collectCompletions(rows *sql.Rows) ([]model.CompletedChore, error) {
	defer rows.Close()
	var completions []model.CompletedChore
	for rows.Next() {
		c, err := scanCompletion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		completions = append(completions, *c)
	}
	return completions, rows.Err()
}

func (s *CompletionStore) UpdateDetails(ctx context.Context, id int64, qualityRating int, completionTime *int, notes string) (*model.CompletedChore, error) {
	var ct sql.NullInt64
	if completionTime != nil {
		ct = sql.NullInt64{Int64: int64(*completionTime), Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE completed_chores SET quality_rating = ?, completion_time = ?, notes = ? WHERE id = ?`,
		qualityRating, ct, notes, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update completion: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *CompletionStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM completed_chores WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete completion: %w", err)
	}
	return nil
}

// CountByUser counts every completion credited to a user.
func (s *CompletionStore) CountByUser(ctx context.Context, userID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM completed_chores WHERE user_id = ?`, userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count completions: %w", err)
	}
	return n, nil
}

// CountByUserCategory counts a user's completions in one category.
func (s *CompletionStore) CountByUserCategory(ctx context.Context, userID int64, category string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM completed_chores WHERE user_id = ? AND category = ?`, userID, category,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count completions by category: %w", err)
	}
	return n, nil
}

// CategoryTotals groups a user's completions by category.
func (s *CompletionStore) CategoryTotals(ctx context.Context, userID int64) ([]model.CategoryTotal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT category, COUNT(*), COALESCE(SUM(points_earned), 0)
		 FROM completed_chores WHERE user_id = ?
		 GROUP BY category ORDER BY COUNT(*) DESC, category ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("category totals: %w", err)
	}
	defer rows.Close()

	var totals []model.CategoryTotal
	for rows.Next() {
		var t model.CategoryTotal
		if err := rows.Scan(&t.Category, &t.Count, &t.Points); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

// Tally is a member's point sum and completion count over some range.
type Tally struct {
	Points int
	Count  int
}

// WindowTallies sums points and counts completions per user for a household
// over the half-open range [start, end).
func (s *CompletionStore) WindowTallies(ctx context.Context, householdID int64, start, end time.Time) (map[int64]Tally, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, COALESCE(SUM(points_earned), 0), COUNT(*)
		 FROM completed_chores
		 WHERE household_id = ? AND completed_at >= ? AND completed_at < ?
		 GROUP BY user_id`,
		householdID, utc(start), utc(end),
	)
	if err != nil {
		return nil, fmt.Errorf("window tallies: %w", err)
	}
	return collectTallies(rows)
}

// CountsByHouseholdMembers counts all completions of each current member of
// a household, regardless of where the completion was recorded.
func (s *CompletionStore) CountsByHouseholdMembers(ctx context.Context, householdID int64) (map[int64]Tally, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT u.id, COALESCE(SUM(c.points_earned), 0), COUNT(c.id)
		 FROM users u
		 LEFT JOIN completed_chores c ON c.user_id = u.id
		 WHERE u.household_id = ?
		 GROUP BY u.id`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("member completion counts: %w", err)
	}
	return collectTallies(rows)
}

func collectTallies(rows *sql.Rows) (map[int64]Tally, error) {
	defer rows.Close()
	tallies := make(map[int64]Tally)
	for rows.Next() {
		var uid int64
		var t Tally
		if err := rows.Scan(&uid, &t.Points, &t.Count); err != nil {
			return nil, fmt.Errorf("scan tally: %w", err)
		}
		tallies[uid] = t
	}
	return tallies, rows.Err()
}
