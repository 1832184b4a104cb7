package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/choreboard/internal/database"
	"github.com/dukerupert/choreboard/internal/leaderboard"
	"github.com/dukerupert/choreboard/internal/server"
	ws "github.com/dukerupert/choreboard/internal/websocket"
)

const (
	shutdownTimeout        = 10 * time.Second
	rateLimitCleanupPeriod = time.Minute
	sessionCleanupPeriod   = time.Hour
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default command)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := a.cfg.Location()
	if err != nil {
		return err
	}

	db, err := database.Open(a.cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	srv := server.New(db, server.Options{
		SessionTTL:             a.cfg.Session.TTL,
		Location:               loc,
		LeaderboardParallelism: a.cfg.Leaderboard.Parallelism,
	}, a.logger)

	hub := srv.Hub()
	refresher := leaderboard.NewRefresher(srv.Leaderboard(), a.cfg.Leaderboard.RefreshInterval,
		a.logger.With("component", "leaderboard_refresher"),
		func(householdID int64) {
			hub.Broadcast(householdID, ws.NewMessage("leaderboard", "refreshed", householdID, nil))
		},
	)
	refresher.Start(ctx)
	defer refresher.Stop()

	go srv.RateLimiter().RunCleanup(ctx, rateLimitCleanupPeriod)
	go a.sweepSessions(ctx, srv)

	httpServer := &http.Server{
		Addr:         a.cfg.Addr(),
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("choreboard listening",
			"addr", httpServer.Addr,
			"db", a.cfg.Database.Path,
			"timezone", loc.String(),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// sweepSessions deletes expired sessions until ctx is done.
func (a *app) sweepSessions(ctx context.Context, srv *server.Server) {
	ticker := time.NewTicker(sessionCleanupPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := srv.SessionStore().DeleteExpired(ctx)
			if err != nil {
				a.logger.Error("delete expired sessions", "error", err)
				continue
			}
			if n > 0 {
				a.logger.Debug("expired sessions deleted", "count", n)
			}
		}
	}
}
