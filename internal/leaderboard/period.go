// Package leaderboard ranks household members over calendar windows.
package leaderboard

import (
	"sort"
	"time"

	"github.com/dukerupert/choreboard/internal/apperr"
)

type Period string

const (
	Daily   Period = "daily"
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
	AllTime Period = "allTime"
)

// Windowed lists the periods backed by cached leaderboard rows.
var Windowed = []Period{Daily, Weekly, Monthly}

func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case Daily, Weekly, Monthly, AllTime:
		return p, nil
	}
	return "", apperr.Validation("invalid period %q: must be daily, weekly, monthly or allTime", s)
}

// Window is the half-open time range [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// WindowFor returns the window of p that contains now, with day boundaries
// taken in loc. AllTime has no window and reports false.
//
// Weekly windows start on Sunday. Monthly windows run from the first of the
// month up to the first of the next.
func WindowFor(p Period, now time.Time, loc *time.Location) (Window, bool) {
	y, m, d := now.In(loc).Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, loc)

	switch p {
	case Daily:
		return Window{Start: today, End: time.Date(y, m, d+1, 0, 0, 0, 0, loc)}, true
	case Weekly:
		offset := int(today.Weekday())
		return Window{
			Start: time.Date(y, m, d-offset, 0, 0, 0, 0, loc),
			End:   time.Date(y, m, d-offset+7, 0, 0, 0, 0, loc),
		}, true
	case Monthly:
		return Window{
			Start: time.Date(y, m, 1, 0, 0, 0, 0, loc),
			End:   time.Date(y, m+1, 1, 0, 0, 0, 0, loc),
		}, true
	}
	return Window{}, false
}

// Standing is one member's totals before ranking.
type Standing struct {
	UserID          int64
	Points          int
	CompletedChores int
}

// Ranked is a Standing with its position.
type Ranked struct {
	Standing
	Rank int
}

// Rank orders standings by points, then completed chores, both descending,
// and assigns ranks 1..N. Remaining ties are broken by ascending user ID so
// the order is stable across recomputations.
func Rank(standings []Standing) []Ranked {
	sorted := make([]Standing, len(standings))
	copy(sorted, standings)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.CompletedChores != b.CompletedChores {
			return a.CompletedChores > b.CompletedChores
		}
		return a.UserID < b.UserID
	})

	out := make([]Ranked, len(sorted))
	for i, s := range sorted {
		out[i] = Ranked{Standing: s, Rank: i + 1}
	}
	return out
}
