package model

import "time"

// Chore categories. The set is fixed.
const (
	CategoryKitchen      = "Kitchen & Dining"
	CategoryLaundry      = "Laundry & Clothes"
	CategoryCleaning     = "Cleaning & Maintenance"
	CategoryShopping     = "Shopping & Errands"
	CategoryOrganization = "Bedroom & Organization"
	CategoryOther        = "Other"
)

var Categories = []string{
	CategoryKitchen,
	CategoryLaundry,
	CategoryCleaning,
	CategoryShopping,
	CategoryOrganization,
	CategoryOther,
}

func ValidCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

const (
	DifficultyEasy   = "Easy"
	DifficultyMedium = "Medium"
	DifficultyHard   = "Hard"
)

func ValidDifficulty(d string) bool {
	return d == DifficultyEasy || d == DifficultyMedium || d == DifficultyHard
}

type Chore struct {
	ID               int64     `json:"id"`
	HouseholdID      int64     `json:"household_id"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	Category         string    `json:"category"`
	Points           int       `json:"points"`
	Emoji            string    `json:"emoji"`
	Difficulty       string    `json:"difficulty"`
	EstimatedMinutes int       `json:"estimated_minutes"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type ChoreTemplate struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	Category         string    `json:"category"`
	Points           int       `json:"points"`
	Emoji            string    `json:"emoji"`
	Difficulty       string    `json:"difficulty"`
	EstimatedMinutes int       `json:"estimated_minutes"`
	Active           bool      `json:"active"`
	CreatedAt        time.Time `json:"created_at"`
}

// CompletedChore is an immutable record of one chore being finished.
// PointsEarned is fixed when the record is created.
type CompletedChore struct {
	ID             int64     `json:"id"`
	ChoreID        int64     `json:"chore_id"`
	ChoreName      string    `json:"chore_name"`
	UserID         int64     `json:"user_id"`
	Username       string    `json:"username"`
	HouseholdID    int64     `json:"household_id"`
	Category       string    `json:"category"`
	PointsEarned   int       `json:"points_earned"`
	QualityRating  int       `json:"quality_rating"`
	CompletionTime *int      `json:"completion_time"`
	Notes          string    `json:"notes"`
	Collaborators  []int64   `json:"collaborators"`
	CompletedAt    time.Time `json:"completed_at"`
	CreatedAt      time.Time `json:"created_at"`
}
