package handler

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/dukerupert/choreboard/internal/apperr"
	"github.com/dukerupert/choreboard/internal/auth"
	"github.com/dukerupert/choreboard/internal/model"
	"github.com/dukerupert/choreboard/internal/store"
	"github.com/dukerupert/choreboard/internal/websocket"
)

type TemplateHandler struct {
	db     *sql.DB
	events broadcaster
	logger *slog.Logger
}

func NewTemplateHandler(db *sql.DB, hub *websocket.Hub, logger *slog.Logger) *TemplateHandler {
	return &TemplateHandler{db: db, events: broadcaster{hub: hub}, logger: logger}
}

func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category != "" && !model.ValidCategory(category) {
		writeMessage(w, http.StatusBadRequest, "unknown category")
		return
	}

	templates, err := store.NewTemplateStore(h.db).ListActive(r.Context(), category)
	if err != nil {
		writeError(w, h.logger, err, "failed to list templates")
		return
	}
	if templates == nil {
		templates = []model.ChoreTemplate{}
	}
	writeJSON(w, http.StatusOK, templates)
}

// Add copies a template into the caller's household as a new chore.
func (h *TemplateHandler) Add(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, h.logger, err, "invalid request")
		return
	}
	hid := auth.HouseholdID(r.Context())

	var chore *model.Chore
	err = store.WithTx(r.Context(), h.db, func(tx *sql.Tx) error {
		t, err := store.NewTemplateStore(tx).GetByID(r.Context(), id)
		if err != nil {
			return err
		}
		if t == nil || !t.Active {
			return apperr.NotFound("template %d not found", id)
		}

		chores := store.NewChoreStore(tx)
		exists, err := chores.ExistsByName(r.Context(), hid, t.Name)
		if err != nil {
			return err
		}
		if exists {
			return apperr.InvalidState("this chore already exists in your household")
		}

		chore, err = chores.Create(r.Context(), hid, store.ChoreFields{
			Name:             t.Name,
			Description:      t.Description,
			Category:         t.Category,
			Points:           t.Points,
			Emoji:            t.Emoji,
			Difficulty:       t.Difficulty,
			EstimatedMinutes: t.EstimatedMinutes,
		})
		return err
	})
	if err != nil {
		writeError(w, h.logger, err, "failed to add chore from template")
		return
	}

	h.events.broadcast(hid, websocket.NewMessage("chore", "created", chore.ID, map[string]any{"template_id": id}))
	writeJSON(w, http.StatusCreated, chore)
}
