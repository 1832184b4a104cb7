package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dukerupert/choreboard/internal/apperr"
	"github.com/dukerupert/choreboard/internal/auth"
	"github.com/dukerupert/choreboard/internal/model"
	"github.com/dukerupert/choreboard/internal/store"
)

const recentChoresLimit = 5

type UserHandler struct {
	users        *store.UserStore
	completions  *store.CompletionStore
	streaks      *store.StreakStore
	achievements *store.AchievementStore
	logger       *slog.Logger
}

func NewUserHandler(q store.Queryer, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		users:        store.NewUserStore(q),
		completions:  store.NewCompletionStore(q),
		streaks:      store.NewStreakStore(q),
		achievements: store.NewAchievementStore(q),
		logger:       logger,
	}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetByID(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, h.logger, err, "failed to load user")
		return
	}
	if user == nil {
		writeMessage(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, h.logger, err, "failed to load stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *UserHandler) stats(ctx context.Context, userID int64) (*model.UserStats, error) {
	user, err := h.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound("user not found")
	}

	stats := &model.UserStats{TotalPoints: user.Points}
	if stats.TotalChoresCompleted, err = h.completions.CountByUser(ctx, userID); err != nil {
		return nil, err
	}
	st, err := h.streaks.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if st != nil {
		stats.CurrentStreak = st.CurrentStreak
		stats.LongestStreak = st.LongestStreak
	}
	if stats.AchievementsCount, err = h.achievements.Count(ctx, userID); err != nil {
		return nil, err
	}
	if stats.ChoresByCategory, err = h.completions.CategoryTotals(ctx, userID); err != nil {
		return nil, err
	}
	if stats.RecentChores, err = h.completions.Recent(ctx, userID, recentChoresLimit); err != nil {
		return nil, err
	}
	if stats.ChoresByCategory == nil {
		stats.ChoresByCategory = []model.CategoryTotal{}
	}
	if stats.RecentChores == nil {
		stats.RecentChores = []model.CompletedChore{}
	}
	return stats, nil
}

func (h *UserHandler) MyStreak(w http.ResponseWriter, r *http.Request) {
	h.writeStreak(w, r, auth.UserID(r.Context()))
}

func (h *UserHandler) MyAchievements(w http.ResponseWriter, r *http.Request) {
	h.writeAchievements(w, r, auth.UserID(r.Context()))
}

func (h *UserHandler) MemberStreak(w http.ResponseWriter, r *http.Request) {
	id, err := h.visibleUser(r)
	if err != nil {
		writeError(w, h.logger, err, "failed to load user")
		return
	}
	h.writeStreak(w, r, id)
}

func (h *UserHandler) MemberAchievements(w http.ResponseWriter, r *http.Request) {
	id, err := h.visibleUser(r)
	if err != nil {
		writeError(w, h.logger, err, "failed to load user")
		return
	}
	h.writeAchievements(w, r, id)
}

// visibleUser resolves the {id} path value to a user the caller may look
// at: themselves or someone in their household.
func (h *UserHandler) visibleUser(r *http.Request) (int64, error) {
	id, err := parseIDParam(r)
	if err != nil {
		return 0, err
	}
	caller, _ := auth.FromContext(r.Context())
	if id == caller.UserID {
		return id, nil
	}
	target, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		return 0, err
	}
	if target == nil {
		return 0, apperr.NotFound("user %d not found", id)
	}
	if !caller.HasHousehold() || !target.InHousehold(caller.HouseholdID) {
		return 0, apperr.Forbidden("you can only view members of your own household")
	}
	return id, nil
}

func (h *UserHandler) writeStreak(w http.ResponseWriter, r *http.Request, userID int64) {
	st, err := h.streaks.GetWithHistory(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err, "failed to load streak")
		return
	}
	if st == nil {
		st = &model.UserStreak{UserID: userID, History: []model.StreakDay{}}
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *UserHandler) writeAchievements(w http.ResponseWriter, r *http.Request, userID int64) {
	list, err := h.achievements.ListByUser(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err, "failed to load achievements")
		return
	}
	if list == nil {
		list = []model.UserAchievement{}
	}
	writeJSON(w, http.StatusOK, list)
}
