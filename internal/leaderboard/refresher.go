package leaderboard

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Refresher periodically recomputes the windowed leaderboards of every
// household.
type Refresher struct {
	mu       sync.RWMutex
	service  *Service
	logger   *slog.Logger
	interval time.Duration
	notify   func(householdID int64)
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewRefresher creates a refresher. notify, if non-nil, is called for each
// household after a successful sweep.
func NewRefresher(svc *Service, interval time.Duration, logger *slog.Logger, notify func(householdID int64)) *Refresher {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Refresher{
		service:  svc,
		logger:   logger,
		interval: interval,
		notify:   notify,
	}
}

// Start begins the refresh loop.
func (r *Refresher) Start(ctx context.Context) {
	r.mu.Lock()
	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})
	r.mu.Unlock()

	go func() {
		defer close(r.done)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.tick(ctx)
			}
		}
	}()
}

// Stop stops the loop and waits for an in-flight sweep to finish.
func (r *Refresher) Stop() {
	r.mu.RLock()
	cancel := r.cancel
	done := r.done
	r.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (r *Refresher) tick(ctx context.Context) {
	start := time.Now()
	ids, err := r.service.RefreshAll(ctx)
	if err != nil {
		if ctx.Err() == nil {
			r.logger.Error("leaderboard refresh failed", "error", err)
		}
		return
	}
	r.logger.Debug("leaderboards refreshed", "households", len(ids), "duration", time.Since(start))

	if r.notify == nil {
		return
	}
	for _, id := range ids {
		r.notify(id)
	}
}
