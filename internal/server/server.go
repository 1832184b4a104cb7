package server

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/choreboard/internal/achievement"
	"github.com/dukerupert/choreboard/internal/completion"
	"github.com/dukerupert/choreboard/internal/handler"
	"github.com/dukerupert/choreboard/internal/household"
	"github.com/dukerupert/choreboard/internal/leaderboard"
	"github.com/dukerupert/choreboard/internal/middleware"
	"github.com/dukerupert/choreboard/internal/store"
	"github.com/dukerupert/choreboard/internal/streak"
	ws "github.com/dukerupert/choreboard/internal/websocket"
)

const (
	authRateLimit  = 10
	authRatePeriod = time.Minute
)

// Options tune the server's domain services.
type Options struct {
	SessionTTL time.Duration
	// Location defines calendar days for streaks and leaderboards.
	Location               *time.Location
	LeaderboardParallelism int
}

type Server struct {
	db           *sql.DB
	hub          *ws.Hub
	authH        *handler.AuthHandler
	userH        *handler.UserHandler
	householdH   *handler.HouseholdHandler
	choreH       *handler.ChoreHandler
	templateH    *handler.TemplateHandler
	completionH  *handler.CompletionHandler
	achievementH *handler.AchievementHandler
	leaderboardH *handler.LeaderboardHandler
	userStore    *store.UserStore
	sessionStore *store.SessionStore
	leaderboard  *leaderboard.Service
	rateLimiter  *middleware.RateLimiter
	logger       *slog.Logger
}

func New(db *sql.DB, opts Options, logger *slog.Logger) *Server {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 30 * 24 * time.Hour
	}

	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db)

	recorder := completion.NewRecorder(db,
		streak.New(opts.Location),
		achievement.NewEngine(),
		logger.With("component", "completion"),
	)

	lb := leaderboard.NewService(db, opts.Location, logger.With("component", "leaderboard"))
	if opts.LeaderboardParallelism > 0 {
		lb.Parallelism = opts.LeaderboardParallelism
	}

	return &Server{
		db:           db,
		hub:          hub,
		authH:        handler.NewAuthHandler(userStore, sessionStore, opts.SessionTTL, logger.With("component", "auth")),
		userH:        handler.NewUserHandler(db, logger.With("component", "user")),
		householdH:   handler.NewHouseholdHandler(household.NewService(db), hub, logger.With("component", "household")),
		choreH:       handler.NewChoreHandler(db, hub, logger.With("component", "chore")),
		templateH:    handler.NewTemplateHandler(db, hub, logger.With("component", "template")),
		completionH:  handler.NewCompletionHandler(recorder, opts.Location, hub, logger.With("component", "completion")),
		achievementH: handler.NewAchievementHandler(db, logger.With("component", "achievement")),
		leaderboardH: handler.NewLeaderboardHandler(lb, logger.With("component", "leaderboard")),
		userStore:    userStore,
		sessionStore: sessionStore,
		leaderboard:  lb,
		rateLimiter:  middleware.NewRateLimiter(),
		logger:       logger,
	}
}

// Hub returns the live event hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

// Leaderboard returns the leaderboard service for the background refresher.
func (s *Server) Leaderboard() *leaderboard.Service {
	return s.leaderboard
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes
	authLimit := middleware.RateLimit(s.rateLimiter, authRateLimit, authRatePeriod)
	outerMux.Handle("POST /api/auth/register", authLimit(http.HandlerFunc(s.authH.Register)))
	outerMux.Handle("POST /api/auth/login", authLimit(http.HandlerFunc(s.authH.Login)))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore, s.userStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := s.db.PingContext(r.Context()); err != nil {
		s.logger.Error("health check", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"unavailable"}`))
		return
	}
	w.Write([]byte(`{"status":"ok"}`))
}

func member(h http.HandlerFunc) http.Handler {
	return middleware.RequireHousehold(h)
}

func admin(h http.HandlerFunc) http.Handler {
	return middleware.RequireHousehold(middleware.RequireAdmin(h))
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/logout", s.authH.Logout)

	// Users
	mux.HandleFunc("GET /api/users/me", s.userH.Me)
	mux.HandleFunc("GET /api/users/me/stats", s.userH.Stats)
	mux.HandleFunc("GET /api/users/me/streak", s.userH.MyStreak)
	mux.HandleFunc("GET /api/users/me/achievements", s.userH.MyAchievements)
	mux.Handle("GET /api/users/{id}/streak", member(s.userH.MemberStreak))
	mux.Handle("GET /api/users/{id}/achievements", member(s.userH.MemberAchievements))

	// Households
	mux.HandleFunc("POST /api/households", s.householdH.Create)
	mux.HandleFunc("POST /api/households/join", s.householdH.Join)
	mux.HandleFunc("GET /api/households/mine", s.householdH.Mine)
	mux.Handle("PATCH /api/households/mine", admin(s.householdH.Update))
	mux.Handle("DELETE /api/households/mine", admin(s.householdH.Delete))
	mux.Handle("POST /api/households/mine/invite-code", admin(s.householdH.RegenerateInvite))
	mux.Handle("POST /api/households/mine/members", admin(s.householdH.AddMember))
	mux.Handle("DELETE /api/households/mine/members/{id}", admin(s.householdH.RemoveMember))
	mux.Handle("POST /api/households/mine/admin", admin(s.householdH.TransferAdmin))

	// Chore catalog
	mux.Handle("GET /api/chores", member(s.choreH.List))
	mux.Handle("POST /api/chores", admin(s.choreH.Create))
	mux.Handle("GET /api/chores/{id}", member(s.choreH.Get))
	mux.Handle("PUT /api/chores/{id}", admin(s.choreH.Update))
	mux.Handle("DELETE /api/chores/{id}", admin(s.choreH.Delete))

	// Template marketplace
	mux.HandleFunc("GET /api/templates", s.templateH.List)
	mux.Handle("POST /api/templates/{id}/add", admin(s.templateH.Add))

	// Completions
	mux.Handle("GET /api/completions", member(s.completionH.List))
	mux.Handle("POST /api/completions", member(s.completionH.Create))
	mux.Handle("GET /api/completions/{id}", member(s.completionH.Get))
	mux.Handle("PATCH /api/completions/{id}", member(s.completionH.Update))
	mux.Handle("DELETE /api/completions/{id}", member(s.completionH.Delete))

	// Achievements and leaderboards
	mux.HandleFunc("GET /api/achievements", s.achievementH.Catalog)
	mux.Handle("GET /api/achievements/household", member(s.achievementH.Household))
	mux.Handle("GET /api/leaderboard/{period}", member(s.leaderboardH.Get))

	// WebSocket
	mux.Handle("GET /ws", member(ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket"))))
}
