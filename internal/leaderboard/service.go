package leaderboard

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/dukerupert/choreboard/internal/model"
	"github.com/dukerupert/choreboard/internal/store"
	"golang.org/x/sync/errgroup"
)

// Service computes leaderboards. Windowed periods are recomputed from the
// completion history and written to the cache table before every read.
type Service struct {
	db     *sql.DB
	loc    *time.Location
	logger *slog.Logger
	now    func() time.Time

	// Parallelism bounds RefreshAll.
	Parallelism int
}

func NewService(db *sql.DB, loc *time.Location, logger *slog.Logger) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		db:          db,
		loc:         loc,
		logger:      logger,
		now:         time.Now,
		Parallelism: 4,
	}
}

// Get returns the ranked leaderboard of a household for p.
func (s *Service) Get(ctx context.Context, householdID int64, p Period) ([]model.LeaderboardEntry, error) {
	now := s.now()
	if p == AllTime {
		return s.allTime(ctx, householdID)
	}
	w, _ := WindowFor(p, now, s.loc)

	var entries []model.LeaderboardEntry
	err := store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.refresh(ctx, tx, householdID, p, w); err != nil {
			return err
		}
		var err error
		entries, err = store.NewLeaderboardStore(tx).ListWindow(ctx, householdID, string(p), w.Start, w.End)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// CurrentWindow returns the window of p that contains the present moment.
func (s *Service) CurrentWindow(p Period) (Window, bool) {
	return WindowFor(p, s.now(), s.loc)
}

// Refresh recomputes and stores every windowed period of one household.
func (s *Service) Refresh(ctx context.Context, householdID int64) error {
	now := s.now()
	return store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, p := range Windowed {
			w, _ := WindowFor(p, now, s.loc)
			if err := s.refresh(ctx, tx, householdID, p, w); err != nil {
				return err
			}
		}
		return nil
	})
}

// RefreshAll refreshes every household, a bounded number at a time. It
// returns the IDs of the households refreshed.
func (s *Service) RefreshAll(ctx context.Context) ([]int64, error) {
	ids, err := store.NewHouseholdStore(s.db).ListIDs(ctx)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.Parallelism, 1))
	for _, id := range ids {
		g.Go(func() error {
			return s.Refresh(gctx, id)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *Service) refresh(ctx context.Context, q store.Queryer, householdID int64, p Period, w Window) error {
	members, err := store.NewUserStore(q).ListByHousehold(ctx, householdID)
	if err != nil {
		return err
	}
	tallies, err := store.NewCompletionStore(q).WindowTallies(ctx, householdID, w.Start, w.End)
	if err != nil {
		return err
	}

	standings := make([]Standing, 0, len(members))
	keep := make([]int64, 0, len(members))
	for _, m := range members {
		t := tallies[m.ID]
		standings = append(standings, Standing{UserID: m.ID, Points: t.Points, CompletedChores: t.Count})
		keep = append(keep, m.ID)
	}

	boards := store.NewLeaderboardStore(q)
	for _, r := range Rank(standings) {
		if err := boards.Upsert(ctx, model.LeaderboardEntry{
			UserID:          r.UserID,
			HouseholdID:     householdID,
			Period:          string(p),
			PeriodStart:     w.Start,
			PeriodEnd:       w.End,
			Points:          r.Points,
			CompletedChores: r.CompletedChores,
			Rank:            r.Rank,
		}); err != nil {
			return err
		}
	}
	return boards.Prune(ctx, householdID, string(p), w.Start, w.End, keep)
}

func (s *Service) allTime(ctx context.Context, householdID int64) ([]model.LeaderboardEntry, error) {
	members, err := store.NewUserStore(s.db).ListByHousehold(ctx, householdID)
	if err != nil {
		return nil, err
	}
	counts, err := store.NewCompletionStore(s.db).CountsByHouseholdMembers(ctx, householdID)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]model.User, len(members))
	standings := make([]Standing, 0, len(members))
	for _, m := range members {
		byID[m.ID] = m
		standings = append(standings, Standing{UserID: m.ID, Points: m.Points, CompletedChores: counts[m.ID].Count})
	}

	entries := make([]model.LeaderboardEntry, 0, len(members))
	for _, r := range Rank(standings) {
		u := byID[r.UserID]
		entries = append(entries, model.LeaderboardEntry{
			UserID:          r.UserID,
			Username:        u.Username,
			Avatar:          u.Avatar,
			HouseholdID:     householdID,
			Period:          string(AllTime),
			Points:          r.Points,
			CompletedChores: r.CompletedChores,
			Rank:            r.Rank,
		})
	}
	return entries, nil
}
