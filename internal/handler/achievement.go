package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/choreboard/internal/achievement"
	"github.com/dukerupert/choreboard/internal/auth"
	"github.com/dukerupert/choreboard/internal/model"
	"github.com/dukerupert/choreboard/internal/store"
)

type AchievementHandler struct {
	achievements *store.AchievementStore
	logger       *slog.Logger
}

func NewAchievementHandler(q store.Queryer, logger *slog.Logger) *AchievementHandler {
	return &AchievementHandler{achievements: store.NewAchievementStore(q), logger: logger}
}

// Household lists every achievement earned in the caller's household,
// newest first.
func (h *AchievementHandler) Household(w http.ResponseWriter, r *http.Request) {
	list, err := h.achievements.ListByHousehold(r.Context(), auth.HouseholdID(r.Context()))
	if err != nil {
		writeError(w, h.logger, err, "failed to list achievements")
		return
	}
	if list == nil {
		list = []model.UserAchievement{}
	}
	writeJSON(w, http.StatusOK, list)
}

type ruleView struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Trigger     string `json:"trigger"`
	Threshold   int    `json:"threshold"`
	Category    string `json:"category,omitempty"`
}

// Catalog lists every achievement that can be earned.
func (h *AchievementHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	views := make([]ruleView, 0, len(achievement.Rules))
	for _, rule := range achievement.Rules {
		views = append(views, ruleView{
			Name:        rule.Name,
			Description: rule.Description,
			Trigger:     rule.Trigger.String(),
			Threshold:   rule.Threshold,
			Category:    rule.Category,
		})
	}
	writeJSON(w, http.StatusOK, views)
}
