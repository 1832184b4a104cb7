package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/choreboard/internal/model"
)

type StreakStore struct {
	db Queryer
}

func NewStreakStore(db Queryer) *StreakStore {
	return &StreakStore{db: db}
}

// Get returns a user's streak without its day history, or nil.
func (s *StreakStore) Get(ctx context.Context, userID int64) (*model.UserStreak, error) {
	var st model.UserStreak
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, current_streak, longest_streak, last_active_date FROM user_streaks WHERE user_id = ?`,
		userID,
	).Scan(&st.UserID, &st.CurrentStreak, &st.LongestStreak, &st.LastActiveDate)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get streak: %w", err)
	}
	return &st, nil
}

// GetWithHistory returns a user's streak and its full day history, oldest
// day first.
func (s *StreakStore) GetWithHistory(ctx context.Context, userID int64) (*model.UserStreak, error) {
	st, err := s.Get(ctx, userID)
	if err != nil || st == nil {
		return st, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT day, chore_count FROM streak_days WHERE user_id = ? ORDER BY day ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list streak days: %w", err)
	}
	defer rows.Close()

	st.History = []model.StreakDay{}
	for rows.Next() {
		var d model.StreakDay
		if err := rows.Scan(&d.Day, &d.ChoreCount); err != nil {
			return nil, fmt.Errorf("scan streak day: %w", err)
		}
		st.History = append(st.History, d)
	}
	return st, rows.Err()
}

// Save inserts or replaces the counters of a user's streak.
func (s *StreakStore) Save(ctx context.Context, st *model.UserStreak) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_streaks (user_id, current_streak, longest_streak, last_active_date)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
		   current_streak = excluded.current_streak,
		   longest_streak = excluded.longest_streak,
		   last_active_date = excluded.last_active_date,
		   updated_at = CURRENT_TIMESTAMP`,
		st.UserID, st.CurrentStreak, st.LongestStreak, utc(st.LastActiveDate),
	)
	if err != nil {
		return fmt.Errorf("save streak: %w", err)
	}
	return nil
}

// HasDay reports whether the user already has an entry for day.
func (s *StreakStore) HasDay(ctx context.Context, userID int64, day string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM streak_days WHERE user_id = ? AND day = ?`, userID, day,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check streak day: %w", err)
	}
	return n > 0, nil
}

// RecordDay adds one completion to the user's entry for day, creating the
// entry if needed, and returns the day's new count.
func (s *StreakStore) RecordDay(ctx context.Context, userID int64, day string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO streak_days (user_id, day, chore_count) VALUES (?, ?, 1)
		 ON CONFLICT (user_id, day) DO UPDATE SET chore_count = chore_count + 1
		 RETURNING chore_count`,
		userID, day,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("record streak day: %w", err)
	}
	return count, nil
}
