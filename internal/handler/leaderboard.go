package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/choreboard/internal/auth"
	"github.com/dukerupert/choreboard/internal/leaderboard"
	"github.com/dukerupert/choreboard/internal/model"
)

type LeaderboardHandler struct {
	svc    *leaderboard.Service
	logger *slog.Logger
}

func NewLeaderboardHandler(svc *leaderboard.Service, logger *slog.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{svc: svc, logger: logger}
}

type leaderboardResponse struct {
	Period  string                   `json:"period"`
	Start   *time.Time               `json:"period_start,omitempty"`
	End     *time.Time               `json:"period_end,omitempty"`
	Entries []model.LeaderboardEntry `json:"entries"`
}

func (h *LeaderboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := leaderboard.ParsePeriod(r.PathValue("period"))
	if err != nil {
		writeError(w, h.logger, err, "invalid request")
		return
	}

	entries, err := h.svc.Get(r.Context(), auth.HouseholdID(r.Context()), p)
	if err != nil {
		writeError(w, h.logger, err, "failed to load leaderboard")
		return
	}
	if entries == nil {
		entries = []model.LeaderboardEntry{}
	}

	resp := leaderboardResponse{Period: string(p), Entries: entries}
	if len(entries) > 0 && p != leaderboard.AllTime {
		resp.Start, resp.End = &entries[0].PeriodStart, &entries[0].PeriodEnd
	} else if win, ok := h.svc.CurrentWindow(p); ok {
		resp.Start, resp.End = &win.Start, &win.End
	}
	writeJSON(w, http.StatusOK, resp)
}
