// Package auth carries the authenticated caller through a request context.
package auth

import (
	"context"

	"github.com/dukerupert/choreboard/internal/model"
)

type contextKey struct{}

// Caller identifies the user behind a request. HouseholdID is zero for a
// user who has not joined a household yet.
type Caller struct {
	UserID      int64
	Username    string
	HouseholdID int64
	Role        string
	SessionID   int64
}

// CallerFor builds a Caller from a user and their session.
func CallerFor(u *model.User, sessionID int64) Caller {
	c := Caller{
		UserID:    u.ID,
		Username:  u.Username,
		Role:      u.Role,
		SessionID: sessionID,
	}
	if u.HouseholdID != nil {
		c.HouseholdID = *u.HouseholdID
	}
	return c
}

func (c Caller) HasHousehold() bool { return c.HouseholdID != 0 }

func (c Caller) IsAdmin() bool { return c.HasHousehold() && c.Role == model.RoleAdmin }

func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, contextKey{}, c)
}

func FromContext(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(contextKey{}).(Caller)
	return c, ok
}

func UserID(ctx context.Context) int64 {
	c, _ := FromContext(ctx)
	return c.UserID
}

func HouseholdID(ctx context.Context) int64 {
	c, _ := FromContext(ctx)
	return c.HouseholdID
}

func IsAdmin(ctx context.Context) bool {
	c, _ := FromContext(ctx)
	return c.IsAdmin()
}
