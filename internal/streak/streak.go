// Package streak tracks consecutive calendar days of chore activity.
//
// A day is a calendar date in the tracker's location. Every user shares the
// same location, so users far from it see their day boundary shifted.
package streak

import (
	"context"
	"fmt"
	"time"

	"github.com/dukerupert/choreboard/internal/model"
	"github.com/dukerupert/choreboard/internal/store"
)

const dayLayout = "2006-01-02"

// Outcome describes how one completion moved a streak.
type Outcome int

const (
	// Started means the user had no streak record yet.
	Started Outcome = iota
	// SameDay means today already had activity; only the day's count grew.
	SameDay
	// Extended means the last activity was yesterday.
	Extended
	// Broken means one or more full days were missed and the streak restarted.
	Broken
	// Reopened means the last activity is dated today but no entry exists for
	// today. This happens when the day location changes between completions.
	// The counters are left alone and today's entry is added.
	Reopened
)

func (o Outcome) String() string {
	switch o {
	case Started:
		return "started"
	case SameDay:
		return "same_day"
	case Extended:
		return "extended"
	case Broken:
		return "broken"
	case Reopened:
		return "reopened"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Tracker applies completions to streak records.
type Tracker struct {
	loc *time.Location
}

// New returns a Tracker that buckets days in loc. A nil loc means time.Local.
func New(loc *time.Location) *Tracker {
	if loc == nil {
		loc = time.Local
	}
	return &Tracker{loc: loc}
}

// Location returns the location days are bucketed in.
func (t *Tracker) Location() *time.Location {
	return t.loc
}

// Day returns the calendar day key of at.
func (t *Tracker) Day(at time.Time) string {
	return at.In(t.loc).Format(dayLayout)
}

// Midnight returns the start of at's calendar day.
func (t *Tracker) Midnight(at time.Time) time.Time {
	y, m, d := at.In(t.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.loc)
}

func (t *Tracker) yesterday(now time.Time) string {
	y, m, d := now.In(t.loc).Date()
	return time.Date(y, m, d-1, 12, 0, 0, 0, t.loc).Format(dayLayout)
}

// Advance computes the streak that results from one completion at now. cur
// is the existing record (nil if the user has none) and hasToday reports
// whether its history already holds an entry for now's day. cur is not
// modified.
func (t *Tracker) Advance(cur *model.UserStreak, userID int64, hasToday bool, now time.Time) (model.UserStreak, Outcome) {
	if cur == nil {
		return model.UserStreak{
			UserID:         userID,
			CurrentStreak:  1,
			LongestStreak:  1,
			LastActiveDate: now,
		}, Started
	}

	next := *cur
	next.History = nil
	next.LastActiveDate = now

	if hasToday {
		return next, SameDay
	}

	last := t.Day(cur.LastActiveDate)
	switch last {
	case t.yesterday(now):
		next.CurrentStreak++
		if next.CurrentStreak > next.LongestStreak {
			next.LongestStreak = next.CurrentStreak
		}
		return next, Extended
	case t.Day(now):
		return next, Reopened
	default:
		next.CurrentStreak = 1
		return next, Broken
	}
}

// Record applies one completion at now to the user's persisted streak and
// day history. q should be a transaction that also covers the completion
// being recorded.
func (t *Tracker) Record(ctx context.Context, q store.Queryer, userID int64, now time.Time) (*model.UserStreak, Outcome, error) {
	streaks := store.NewStreakStore(q)

	cur, err := streaks.Get(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	today := t.Day(now)
	hasToday := false
	if cur != nil {
		hasToday, err = streaks.HasDay(ctx, userID, today)
		if err != nil {
			return nil, 0, err
		}
	}

	next, outcome := t.Advance(cur, userID, hasToday, now)
	if err := streaks.Save(ctx, &next); err != nil {
		return nil, 0, err
	}
	if _, err := streaks.RecordDay(ctx, userID, today); err != nil {
		return nil, 0, err
	}
	return &next, outcome, nil
}
