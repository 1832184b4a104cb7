package model

import "time"

type Household struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	AdminID         int64     `json:"admin_id"`
	InviteCode      string    `json:"invite_code"`
	PointMultiplier float64   `json:"point_multiplier"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// HouseholdDetail is a household together with its current members.
type HouseholdDetail struct {
	Household
	Members []User `json:"members"`
}
