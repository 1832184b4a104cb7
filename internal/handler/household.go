package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/choreboard/internal/auth"
	"github.com/dukerupert/choreboard/internal/household"
	"github.com/dukerupert/choreboard/internal/websocket"
)

type HouseholdHandler struct {
	svc    *household.Service
	events broadcaster
	logger *slog.Logger
}

func NewHouseholdHandler(svc *household.Service, hub *websocket.Hub, logger *slog.Logger) *HouseholdHandler {
	return &HouseholdHandler{svc: svc, events: broadcaster{hub: hub}, logger: logger}
}

type householdRequest struct {
	Name            *string  `json:"name"`
	PointMultiplier *float64 `json:"point_multiplier"`
}

func (h *HouseholdHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req householdRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err, "invalid request")
		return
	}
	name := ""
	if req.Name != nil {
		name = *req.Name
	}

	hh, err := h.svc.Create(r.Context(), auth.UserID(r.Context()), name)
	if err != nil {
		writeError(w, h.logger, err, "failed to create household")
		return
	}
	h.logger.Info("household created", "household_id", hh.ID, "admin_id", hh.AdminID)
	writeJSON(w, http.StatusCreated, hh)
}

func (h *HouseholdHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req struct {
		InviteCode string `json:"invite_code"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err, "invalid request")
		return
	}

	userID := auth.UserID(r.Context())
	hh, err := h.svc.Join(r.Context(), userID, req.InviteCode)
	if err != nil {
		writeError(w, h.logger, err, "failed to join household")
		return
	}

	h.events.broadcast(hh.ID, websocket.NewMessage("member", "joined", userID, nil))
	writeJSON(w, http.StatusOK, hh)
}

func (h *HouseholdHandler) Mine(w http.ResponseWriter, r *http.Request) {
	detail, err := h.svc.Mine(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, h.logger, err, "failed to load household")
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *HouseholdHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req householdRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err, "invalid request")
		return
	}

	hh, err := h.svc.Update(r.Context(), auth.UserID(r.Context()), household.Changes{
		Name:            req.Name,
		PointMultiplier: req.PointMultiplier,
	})
	if err != nil {
		writeError(w, h.logger, err, "failed to update household")
		return
	}

	h.events.broadcast(hh.ID, websocket.NewMessage("household", "updated", hh.ID, nil))
	writeJSON(w, http.StatusOK, hh)
}

func (h *HouseholdHandler) RegenerateInvite(w http.ResponseWriter, r *http.Request) {
	code, err := h.svc.RegenerateInvite(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, h.logger, err, "failed to regenerate invite code")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"invite_code": code})
}

func (h *HouseholdHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err, "invalid request")
		return
	}

	u, err := h.svc.AddMember(r.Context(), auth.UserID(r.Context()), strings.ToLower(req.Email))
	if err != nil {
		writeError(w, h.logger, err, "failed to add member")
		return
	}

	h.events.broadcast(auth.HouseholdID(r.Context()), websocket.NewMessage("member", "joined", u.ID, nil))
	writeJSON(w, http.StatusCreated, u)
}

func (h *HouseholdHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, h.logger, err, "invalid request")
		return
	}

	if err := h.svc.RemoveMember(r.Context(), auth.UserID(r.Context()), id); err != nil {
		writeError(w, h.logger, err, "failed to remove member")
		return
	}

	h.events.broadcast(auth.HouseholdID(r.Context()), websocket.NewMessage("member", "removed", id, nil))
	w.WriteHeader(http.StatusNoContent)
}

func (h *HouseholdHandler) TransferAdmin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID int64 `json:"user_id"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err, "invalid request")
		return
	}
	if req.UserID <= 0 {
		writeMessage(w, http.StatusBadRequest, "user_id is required")
		return
	}

	if err := h.svc.TransferAdmin(r.Context(), auth.UserID(r.Context()), req.UserID); err != nil {
		writeError(w, h.logger, err, "failed to transfer admin role")
		return
	}

	hid := auth.HouseholdID(r.Context())
	h.events.broadcast(hid, websocket.NewMessage("household", "admin_changed", hid, map[string]any{"admin_id": req.UserID}))
	writeJSON(w, http.StatusOK, map[string]int64{"admin_id": req.UserID})
}

func (h *HouseholdHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := h.svc.Delete(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, h.logger, err, "failed to delete household")
		return
	}

	h.logger.Info("household deleted", "household_id", id)
	h.events.broadcast(id, websocket.NewMessage("household", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}
