package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/choreboard/internal/model"
)

type LeaderboardStore struct {
	db Queryer
}

func NewLeaderboardStore(db Queryer) *LeaderboardStore {
	return &LeaderboardStore{db: db}
}

// Upsert writes one cached leaderboard row, fully replacing any previous
// values for the same (user, household, period, window).
func (s *LeaderboardStore) Upsert(ctx context.Context, e model.LeaderboardEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO leaderboard_entries
		 (user_id, household_id, period, period_start, period_end, points, completed_chores, rank)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, household_id, period, period_start, period_end) DO UPDATE SET
		   points = excluded.points,
		   completed_chores = excluded.completed_chores,
		   rank = excluded.rank,
		   updated_at = CURRENT_TIMESTAMP`,
		e.UserID, e.HouseholdID, e.Period, utc(e.PeriodStart), utc(e.PeriodEnd),
		e.Points, e.CompletedChores, e.Rank,
	)
	if err != nil {
		return fmt.Errorf("upsert leaderboard entry: %w", err)
	}
	return nil
}

// Prune deletes cached rows for a window whose user is not in keep.
func (s *LeaderboardStore) Prune(ctx context.Context, householdID int64, period string, start, end time.Time, keep []int64) error {
	query := `DELETE FROM leaderboard_entries
		WHERE household_id = ? AND period = ? AND period_start = ? AND period_end = ?`
	args := []any{householdID, period, utc(start), utc(end)}
	if len(keep) > 0 {
		query += ` AND user_id NOT IN (?` + strings.Repeat(`, ?`, len(keep)-1) + `)`
		for _, id := range keep {
			args = append(args, id)
		}
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("prune leaderboard entries: %w", err)
	}
	return nil
}

// ListWindow reads the cached rows for one household window in rank order.
func (s *LeaderboardStore) ListWindow(ctx context.Context, householdID int64, period string, start, end time.Time) ([]model.LeaderboardEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT l.user_id, u.username, u.avatar, l.household_id, l.period, l.period_start, l.period_end,
		        l.points, l.completed_chores, l.rank
		 FROM leaderboard_entries l
		 JOIN users u ON u.id = l.user_id
		 WHERE l.household_id = ? AND l.period = ? AND l.period_start = ? AND l.period_end = ?
		 ORDER BY l.rank ASC`,
		householdID, period, utc(start), utc(end),
	)
	if err != nil {
		return nil, fmt.Errorf("list leaderboard window: %w", err)
	}
	defer rows.Close()

	var entries []model.LeaderboardEntry
	for rows.Next() {
		var e model.LeaderboardEntry
		if err := rows.Scan(
			&e.UserID, &e.Username, &e.Avatar, &e.HouseholdID, &e.Period, &e.PeriodStart, &e.PeriodEnd,
			&e.Points, &e.CompletedChores, &e.Rank,
		); err != nil {
			return nil, fmt.Errorf("scan leaderboard entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
