package achievement

import (
	"context"
	"fmt"
	"time"

	"github.com/dukerupert/choreboard/internal/model"
	"github.com/dukerupert/choreboard/internal/store"
)

// Engine reads a user's counters and grants every newly satisfied
// achievement.
type Engine struct {
	rules []Rule
}

func NewEngine() *Engine {
	return &Engine{rules: Rules}
}

// Counters reads the user's current counters through q. The category count
// is only read when category has a mastery badge.
func (e *Engine) Counters(ctx context.Context, q store.Queryer, userID int64, category string) (Counters, error) {
	c := Counters{Category: category}

	user, err := store.NewUserStore(q).GetByID(ctx, userID)
	if err != nil {
		return c, err
	}
	if user == nil {
		return c, fmt.Errorf("read counters: user %d not found", userID)
	}
	c.Points = user.Points

	completions := store.NewCompletionStore(q)
	if c.Completions, err = completions.CountByUser(ctx, userID); err != nil {
		return c, err
	}

	st, err := store.NewStreakStore(q).Get(ctx, userID)
	if err != nil {
		return c, err
	}
	if st != nil {
		c.CurrentStreak = st.CurrentStreak
	}

	if HasMastery(category) {
		if c.CategoryCompletions, err = completions.CountByUserCategory(ctx, userID, category); err != nil {
			return c, err
		}
	}
	return c, nil
}

// Check evaluates the rule table for userID and grants what is missing. It
// returns only the achievements granted by this call. Rules the user already
// holds are skipped without error.
func (e *Engine) Check(ctx context.Context, q store.Queryer, userID int64, category string, now time.Time) ([]model.UserAchievement, error) {
	counters, err := e.Counters(ctx, q, userID, category)
	if err != nil {
		return nil, err
	}

	achievements := store.NewAchievementStore(q)
	var granted []model.UserAchievement
	for _, r := range Evaluate(e.rules, counters) {
		a, err := achievements.Grant(ctx, userID, r.Name, r.Description, now)
		if err != nil {
			return nil, err
		}
		if a != nil {
			granted = append(granted, *a)
		}
	}
	return granted, nil
}
