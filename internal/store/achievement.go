package store

import (
	"context"
	"fmt"
	"time"

	"github.com/dukerupert/choreboard/internal/model"
)

type AchievementStore struct {
	db Queryer
}

func NewAchievementStore(db Queryer) *AchievementStore {
	return &AchievementStore{db: db}
}

// Grant records an achievement for a user. It returns the new record, or nil
// if the user already holds that achievement.
func (s *AchievementStore) Grant(ctx context.Context, userID int64, name, description string, at time.Time) (*model.UserAchievement, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO user_achievements (user_id, achievement, description, earned_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id, achievement) DO NOTHING`,
		userID, name, description, utc(at),
	)
	if err != nil {
		return nil, fmt.Errorf("grant achievement %q: %w", name, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, nil
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return &model.UserAchievement{
		ID:          id,
		UserID:      userID,
		Achievement: name,
		Description: description,
		EarnedAt:    at,
	}, nil
}

const achievementSelect = `SELECT a.id, a.user_id, u.username, a.achievement, a.description, a.earned_at
	FROM user_achievements a JOIN users u ON u.id = a.user_id`

// ListByUser returns a user's achievements, newest first.
func (s *AchievementStore) ListByUser(ctx context.Context, userID int64) ([]model.UserAchievement, error) {
	return s.list(ctx, achievementSelect+` WHERE a.user_id = ? ORDER BY a.earned_at DESC, a.id DESC`, userID)
}

// ListByHousehold returns the achievements of every current member of a
// household, newest first.
func (s *AchievementStore) ListByHousehold(ctx context.Context, householdID int64) ([]model.UserAchievement, error) {
	return s.list(ctx, achievementSelect+` WHERE u.household_id = ? ORDER BY a.earned_at DESC, a.id DESC`, householdID)
}

func (s *AchievementStore) Count(ctx context.Context, userID int64) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM user_achievements WHERE user_id = ?`, userID,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("count achievements: %w", err)
	}
	return n, nil
}

func (s *AchievementStore) list(ctx context.Context, query string, arg any) ([]model.UserAchievement, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	defer rows.Close()

	var out []model.UserAchievement
	for rows.Next() {
		var a model.UserAchievement
		if err := rows.Scan(&a.ID, &a.UserID, &a.Username, &a.Achievement, &a.Description, &a.EarnedAt); err != nil {
			return nil, fmt.Errorf("scan achievement: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
