package model

import "time"

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	HouseholdID  *int64    `json:"household_id"`
	Role         string    `json:"role"`
	Points       int       `json:"points"`
	Avatar       string    `json:"avatar"`
	LastActive   time.Time `json:"last_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// InHousehold reports whether the user belongs to the given household.
func (u *User) InHousehold(householdID int64) bool {
	return u.HouseholdID != nil && *u.HouseholdID == householdID
}

// UserStats summarizes a user's activity.
type UserStats struct {
	TotalPoints          int              `json:"total_points"`
	TotalChoresCompleted int              `json:"total_chores_completed"`
	CurrentStreak        int              `json:"current_streak"`
	LongestStreak        int              `json:"longest_streak"`
	AchievementsCount    int              `json:"achievements_count"`
	ChoresByCategory     []CategoryTotal  `json:"chores_by_category"`
	RecentChores         []CompletedChore `json:"recent_chores"`
}

type CategoryTotal struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
	Points   int    `json:"points"`
}
