// Package completion records chore completions and drives the point,
// streak and achievement updates that follow from them.
package completion

import (
	"context"
	"database/sql"
	"log/slog"
	"math"
	"time"

	"github.com/dukerupert/choreboard/internal/achievement"
	"github.com/dukerupert/choreboard/internal/apperr"
	"github.com/dukerupert/choreboard/internal/model"
	"github.com/dukerupert/choreboard/internal/store"
	"github.com/dukerupert/choreboard/internal/streak"
)

const defaultQualityRating = 3

// Input describes one completion event.
type Input struct {
	ChoreID      int64
	ActingUserID int64
	// CreditedUserID defaults to ActingUserID when zero.
	CreditedUserID int64
	// QualityRating defaults to 3 when nil.
	QualityRating  *int
	CompletionTime *int
	Notes          string
	Collaborators  []int64
}

// Result is everything a completion changed.
type Result struct {
	Completion    *model.CompletedChore   `json:"completion"`
	Streak        *model.UserStreak       `json:"streak"`
	StreakOutcome string                  `json:"streak_outcome"`
	Granted       []model.UserAchievement `json:"achievements_granted"`
	PointsTotal   int                     `json:"points_total"`
}

// Recorder is the single entry point for creating and removing completions.
type Recorder struct {
	db           *sql.DB
	streaks      *streak.Tracker
	achievements *achievement.Engine
	locks        *userLocks
	logger       *slog.Logger
	now          func() time.Time
}

func NewRecorder(db *sql.DB, tracker *streak.Tracker, engine *achievement.Engine, logger *slog.Logger) *Recorder {
	return &Recorder{
		db:           db,
		streaks:      tracker,
		achievements: engine,
		locks:        newUserLocks(),
		logger:       logger,
		now:          time.Now,
	}
}

// PointsFor returns the points a chore earns in a household with the given
// multiplier, rounded to the nearest integer. A negative multiplier counts
// as zero.
func PointsFor(chorePoints int, multiplier float64) int {
	if multiplier < 0 {
		multiplier = 0
	}
	return int(math.Round(float64(chorePoints) * multiplier))
}

func validateDetails(quality, completionTime *int) error {
	if quality != nil && (*quality < 1 || *quality > 5) {
		return apperr.Validation("quality rating must be between 1 and 5")
	}
	if completionTime != nil && *completionTime < 1 {
		return apperr.Validation("completion time must be at least 1 minute")
	}
	return nil
}

// Record persists a completion and applies its effects to the credited
// user. All writes happen in one transaction, and completions for the same
// credited user are processed one at a time.
func (r *Recorder) Record(ctx context.Context, in Input) (*Result, error) {
	if in.ChoreID == 0 {
		return nil, apperr.Validation("chore is required")
	}
	if err := validateDetails(in.QualityRating, in.CompletionTime); err != nil {
		return nil, err
	}
	quality := defaultQualityRating
	if in.QualityRating != nil {
		quality = *in.QualityRating
	}
	creditedID := in.CreditedUserID
	if creditedID == 0 {
		creditedID = in.ActingUserID
	}

	unlock := r.locks.lock(creditedID)
	defer unlock()

	var res Result
	err := store.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		users := store.NewUserStore(tx)

		acting, err := users.GetByID(ctx, in.ActingUserID)
		if err != nil {
			return err
		}
		if acting == nil {
			return apperr.NotFound("user %d not found", in.ActingUserID)
		}
		if acting.HouseholdID == nil {
			return apperr.InvalidState("you must join a household before completing chores")
		}
		householdID := *acting.HouseholdID

		chore, err := store.NewChoreStore(tx).GetByID(ctx, in.ChoreID)
		if err != nil {
			return err
		}
		if chore == nil {
			return apperr.NotFound("chore %d not found", in.ChoreID)
		}
		if chore.HouseholdID != householdID {
			return apperr.Forbidden("chore %d belongs to another household", chore.ID)
		}

		if creditedID != acting.ID {
			credited, err := users.GetByID(ctx, creditedID)
			if err != nil {
				return err
			}
			if credited == nil {
				return apperr.NotFound("user %d not found", creditedID)
			}
			if !credited.InHousehold(householdID) {
				return apperr.InvalidState("user %d is not a member of your household", creditedID)
			}
		}
		for _, id := range in.Collaborators {
			u, err := users.GetByID(ctx, id)
			if err != nil {
				return err
			}
			if u == nil || !u.InHousehold(householdID) {
				return apperr.InvalidState("collaborator %d is not a member of your household", id)
			}
		}

		household, err := store.NewHouseholdStore(tx).GetByID(ctx, householdID)
		if err != nil {
			return err
		}
		if household == nil {
			return apperr.NotFound("household %d not found", householdID)
		}

		now := r.now()
		created, err := store.NewCompletionStore(tx).Create(ctx, &model.CompletedChore{
			ChoreID:        chore.ID,
			UserID:         creditedID,
			HouseholdID:    householdID,
			Category:       chore.Category,
			PointsEarned:   PointsFor(chore.Points, household.PointMultiplier),
			QualityRating:  quality,
			CompletionTime: in.CompletionTime,
			Notes:          in.Notes,
			Collaborators:  in.Collaborators,
			CompletedAt:    now,
		})
		if err != nil {
			return err
		}
		res.Completion = created

		if res.PointsTotal, err = users.AddPoints(ctx, creditedID, created.PointsEarned); err != nil {
			return err
		}
		if err := users.Touch(ctx, creditedID, now); err != nil {
			return err
		}

		st, outcome, err := r.streaks.Record(ctx, tx, creditedID, now)
		if err != nil {
			return err
		}
		res.Streak = st
		res.StreakOutcome = outcome.String()

		res.Granted, err = r.achievements.Check(ctx, tx, creditedID, chore.Category, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("completion recorded",
		"completion_id", res.Completion.ID,
		"user_id", creditedID,
		"points", res.Completion.PointsEarned,
		"streak", res.Streak.CurrentStreak,
		"granted", len(res.Granted),
	)
	return &res, nil
}

// Delete removes a completion credited to the acting user and takes its
// stored points back. Streak and achievement records are left as they are.
// It returns the removed completion and the user's new point total.
func (r *Recorder) Delete(ctx context.Context, completionID, actingUserID int64) (*model.CompletedChore, int, error) {
	unlock := r.locks.lock(actingUserID)
	defer unlock()

	var removed *model.CompletedChore
	var total int
	err := store.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		acting, c, err := r.authorize(ctx, tx, completionID, actingUserID)
		if err != nil {
			return err
		}
		if c.UserID != acting.ID {
			return apperr.Forbidden("only the credited user can delete this completion")
		}

		if err := store.NewCompletionStore(tx).Delete(ctx, c.ID); err != nil {
			return err
		}
		if total, err = store.NewUserStore(tx).AddPoints(ctx, c.UserID, -c.PointsEarned); err != nil {
			return err
		}
		removed = c
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	r.logger.Info("completion deleted", "completion_id", completionID, "user_id", actingUserID, "points", removed.PointsEarned)
	return removed, total, nil
}

// Details are the editable fields of a completion. Nil fields are left
// unchanged.
type Details struct {
	QualityRating  *int
	CompletionTime *int
	Notes          *string
}

// Update edits the details of a completion credited to the acting user.
// Points are never recomputed.
func (r *Recorder) Update(ctx context.Context, completionID, actingUserID int64, d Details) (*model.CompletedChore, error) {
	if err := validateDetails(d.QualityRating, d.CompletionTime); err != nil {
		return nil, err
	}

	var updated *model.CompletedChore
	err := store.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		acting, c, err := r.authorize(ctx, tx, completionID, actingUserID)
		if err != nil {
			return err
		}
		if c.UserID != acting.ID {
			return apperr.Forbidden("only the credited user can edit this completion")
		}

		quality, completionTime, notes := c.QualityRating, c.CompletionTime, c.Notes
		if d.QualityRating != nil {
			quality = *d.QualityRating
		}
		if d.CompletionTime != nil {
			completionTime = d.CompletionTime
		}
		if d.Notes != nil {
			notes = *d.Notes
		}
		updated, err = store.NewCompletionStore(tx).UpdateDetails(ctx, c.ID, quality, completionTime, notes)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Get returns a completion from the acting user's household.
func (r *Recorder) Get(ctx context.Context, completionID, actingUserID int64) (*model.CompletedChore, error) {
	_, c, err := r.authorize(ctx, r.db, completionID, actingUserID)
	return c, err
}

// List returns a page of the acting user's household completions. The
// filter's HouseholdID is overwritten.
func (r *Recorder) List(ctx context.Context, actingUserID int64, f store.CompletionFilter) ([]model.CompletedChore, int, error) {
	acting, err := store.NewUserStore(r.db).GetByID(ctx, actingUserID)
	if err != nil {
		return nil, 0, err
	}
	if acting == nil {
		return nil, 0, apperr.NotFound("user %d not found", actingUserID)
	}
	if acting.HouseholdID == nil {
		return nil, 0, apperr.InvalidState("you are not a member of a household")
	}
	f.HouseholdID = *acting.HouseholdID
	return store.NewCompletionStore(r.db).List(ctx, f)
}

// authorize loads the acting user and a completion, checking that the
// completion belongs to the user's household.
func (r *Recorder) authorize(ctx context.Context, q store.Queryer, completionID, actingUserID int64) (*model.User, *model.CompletedChore, error) {
	acting, err := store.NewUserStore(q).GetByID(ctx, actingUserID)
	if err != nil {
		return nil, nil, err
	}
	if acting == nil {
		return nil, nil, apperr.NotFound("user %d not found", actingUserID)
	}
	c, err := store.NewCompletionStore(q).GetByID(ctx, completionID)
	if err != nil {
		return nil, nil, err
	}
	if c == nil {
		return nil, nil, apperr.NotFound("completion %d not found", completionID)
	}
	if !acting.InHousehold(c.HouseholdID) {
		return nil, nil, apperr.Forbidden("completion %d belongs to another household", completionID)
	}
	return acting, c, nil
}
