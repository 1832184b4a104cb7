// Package handler implements the JSON HTTP API.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/choreboard/internal/apperr"
	"github.com/dukerupert/choreboard/internal/websocket"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeError maps a classified domain error to its status code. Anything
// unclassified is logged and reported as a 500 with fallback as the message.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error, fallback string) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeMessage(w, http.StatusNotFound, apperr.Message(err, "not found"))
	case errors.Is(err, apperr.ErrForbidden):
		writeMessage(w, http.StatusForbidden, apperr.Message(err, "forbidden"))
	case errors.Is(err, apperr.ErrInvalidState):
		writeMessage(w, http.StatusConflict, apperr.Message(err, fallback))
	case errors.Is(err, apperr.ErrValidation):
		writeMessage(w, http.StatusBadRequest, apperr.Message(err, "invalid request"))
	default:
		logger.Error(fallback, "error", err)
		writeMessage(w, http.StatusInternalServerError, fallback)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Validation("invalid JSON")
	}
	return nil
}

func parseIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("invalid id")
	}
	return id, nil
}

// queryInt reads a positive integer query parameter, returning def when the
// parameter is absent.
func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, apperr.Validation("%s must be a positive integer", key)
	}
	return n, nil
}

// broadcaster pushes live events to a household. A nil hub disables it.
type broadcaster struct {
	hub *websocket.Hub
}

func (b broadcaster) broadcast(householdID int64, msg websocket.Message) {
	if b.hub != nil && householdID != 0 {
		b.hub.Broadcast(householdID, msg)
	}
}
