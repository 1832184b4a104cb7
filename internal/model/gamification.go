package model

import "time"

type UserStreak struct {
	UserID         int64       `json:"user_id"`
	CurrentStreak  int         `json:"current_streak"`
	LongestStreak  int         `json:"longest_streak"`
	LastActiveDate time.Time   `json:"last_active_date"`
	History        []StreakDay `json:"streak_history,omitempty"`
}

// StreakDay counts completions on one calendar day. Day is formatted
// as YYYY-MM-DD in the server's day location.
type StreakDay struct {
	Day        string `json:"date"`
	ChoreCount int    `json:"chore_count"`
}

type UserAchievement struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Username    string    `json:"username,omitempty"`
	Achievement string    `json:"achievement"`
	Description string    `json:"description"`
	EarnedAt    time.Time `json:"earned_at"`
}

type LeaderboardEntry struct {
	UserID          int64     `json:"user_id"`
	Username        string    `json:"username"`
	Avatar          string    `json:"avatar"`
	HouseholdID     int64     `json:"household_id"`
	Period          string    `json:"period"`
	PeriodStart     time.Time `json:"period_start"`
	PeriodEnd       time.Time `json:"period_end"`
	Points          int       `json:"points"`
	CompletedChores int       `json:"completed_chores"`
	Rank            int       `json:"rank"`
}
