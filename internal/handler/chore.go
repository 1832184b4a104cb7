package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/choreboard/internal/apperr"
	"github.com/dukerupert/choreboard/internal/auth"
	"github.com/dukerupert/choreboard/internal/model"
	"github.com/dukerupert/choreboard/internal/store"
	"github.com/dukerupert/choreboard/internal/websocket"
)

const (
	defaultChoreEmoji   = "✅"
	defaultChoreMinutes = 15
)

type ChoreHandler struct {
	chores *store.ChoreStore
	events broadcaster
	logger *slog.Logger
}

func NewChoreHandler(q store.Queryer, hub *websocket.Hub, logger *slog.Logger) *ChoreHandler {
	return &ChoreHandler{
		chores: store.NewChoreStore(q),
		events: broadcaster{hub: hub},
		logger: logger,
	}
}

// choreRequest is a create or partial update. Absent fields keep the
// value they are applied over.
type choreRequest struct {
	Name             *string `json:"name"`
	Description      *string `json:"description"`
	Category         *string `json:"category"`
	Points           *int    `json:"points"`
	Emoji            *string `json:"emoji"`
	Difficulty       *string `json:"difficulty"`
	EstimatedMinutes *int    `json:"estimated_minutes"`
}

func newChoreFields() store.ChoreFields {
	return store.ChoreFields{
		Category:         model.CategoryOther,
		Emoji:            defaultChoreEmoji,
		Difficulty:       model.DifficultyMedium,
		EstimatedMinutes: defaultChoreMinutes,
	}
}

func choreFieldsOf(c *model.Chore) store.ChoreFields {
	return store.ChoreFields{
		Name:             c.Name,
		Description:      c.Description,
		Category:         c.Category,
		Points:           c.Points,
		Emoji:            c.Emoji,
		Difficulty:       c.Difficulty,
		EstimatedMinutes: c.EstimatedMinutes,
	}
}

func (req choreRequest) apply(f store.ChoreFields) (store.ChoreFields, error) {
	if req.Name != nil {
		f.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		f.Description = strings.TrimSpace(*req.Description)
	}
	if req.Category != nil {
		f.Category = *req.Category
	}
	if req.Points != nil {
		f.Points = *req.Points
	}
	if req.Emoji != nil && *req.Emoji != "" {
		f.Emoji = *req.Emoji
	}
	if req.Difficulty != nil {
		f.Difficulty = *req.Difficulty
	}
	if req.EstimatedMinutes != nil {
		f.EstimatedMinutes = *req.EstimatedMinutes
	}

	switch {
	case f.Name == "":
		return f, apperr.Validation("chore name is required")
	case !model.ValidCategory(f.Category):
		return f, apperr.Validation("category must be one of: %s", strings.Join(model.Categories, ", "))
	case f.Points < 1:
		return f, apperr.Validation("points must be at least 1")
	case !model.ValidDifficulty(f.Difficulty):
		return f, apperr.Validation("difficulty must be Easy, Medium, or Hard")
	case f.EstimatedMinutes < 1:
		return f, apperr.Validation("estimated minutes must be at least 1")
	}
	return f, nil
}

func (h *ChoreHandler) List(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category != "" && !model.ValidCategory(category) {
		writeMessage(w, http.StatusBadRequest, "unknown category")
		return
	}

	chores, err := h.chores.ListByHousehold(r.Context(), auth.HouseholdID(r.Context()), category)
	if err != nil {
		writeError(w, h.logger, err, "failed to list chores")
		return
	}
	if chores == nil {
		chores = []model.Chore{}
	}
	writeJSON(w, http.StatusOK, chores)
}

// load fetches the {id} chore and checks it belongs to the caller's household.
func (h *ChoreHandler) load(r *http.Request) (*model.Chore, error) {
	id, err := parseIDParam(r)
	if err != nil {
		return nil, err
	}
	c, err := h.chores.GetByID(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperr.NotFound("chore %d not found", id)
	}
	if c.HouseholdID != auth.HouseholdID(r.Context()) {
		return nil, apperr.Forbidden("you can only access chores in your own household")
	}
	return c, nil
}

func (h *ChoreHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.load(r)
	if err != nil {
		writeError(w, h.logger, err, "failed to get chore")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *ChoreHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req choreRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err, "invalid request")
		return
	}
	fields, err := req.apply(newChoreFields())
	if err != nil {
		writeError(w, h.logger, err, "invalid request")
		return
	}

	hid := auth.HouseholdID(r.Context())
	c, err := h.chores.Create(r.Context(), hid, fields)
	if err != nil {
		writeError(w, h.logger, err, "failed to create chore")
		return
	}

	h.events.broadcast(hid, websocket.NewMessage("chore", "created", c.ID, nil))
	writeJSON(w, http.StatusCreated, c)
}

func (h *ChoreHandler) Update(w http.ResponseWriter, r *http.Request) {
	existing, err := h.load(r)
	if err != nil {
		writeError(w, h.logger, err, "failed to get chore")
		return
	}

	var req choreRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err, "invalid request")
		return
	}
	fields, err := req.apply(choreFieldsOf(existing))
	if err != nil {
		writeError(w, h.logger, err, "invalid request")
		return
	}

	c, err := h.chores.Update(r.Context(), existing.ID, fields)
	if err != nil {
		writeError(w, h.logger, err, "failed to update chore")
		return
	}

	h.events.broadcast(c.HouseholdID, websocket.NewMessage("chore", "updated", c.ID, nil))
	writeJSON(w, http.StatusOK, c)
}

// Delete refuses chores that already have completions; their history
// references the chore.
func (h *ChoreHandler) Delete(w http.ResponseWriter, r *http.Request) {
	existing, err := h.load(r)
	if err != nil {
		writeError(w, h.logger, err, "failed to get chore")
		return
	}

	if err := h.chores.Delete(r.Context(), existing.ID); err != nil {
		if errors.Is(err, store.ErrChoreCompleted) {
			writeMessage(w, http.StatusConflict, "chore has completions and cannot be deleted")
			return
		}
		writeError(w, h.logger, err, "failed to delete chore")
		return
	}

	h.events.broadcast(existing.HouseholdID, websocket.NewMessage("chore", "deleted", existing.ID, nil))
	w.WriteHeader(http.StatusNoContent)
}
