package handler

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/dukerupert/choreboard/internal/apperr"
	"github.com/dukerupert/choreboard/internal/auth"
	"github.com/dukerupert/choreboard/internal/completion"
	"github.com/dukerupert/choreboard/internal/model"
	"github.com/dukerupert/choreboard/internal/store"
	"github.com/dukerupert/choreboard/internal/websocket"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
	dateLayout       = "2006-01-02"
)

type CompletionHandler struct {
	recorder *completion.Recorder
	loc      *time.Location
	events   broadcaster
	logger   *slog.Logger
}

// NewCompletionHandler serves completion routes. loc interprets date-only
// start and end filters.
func NewCompletionHandler(rec *completion.Recorder, loc *time.Location, hub *websocket.Hub, logger *slog.Logger) *CompletionHandler {
	if loc == nil {
		loc = time.Local
	}
	return &CompletionHandler{recorder: rec, loc: loc, events: broadcaster{hub: hub}, logger: logger}
}

type completionRequest struct {
	ChoreID        int64   `json:"chore_id"`
	UserID         int64   `json:"user_id"`
	QualityRating  *int    `json:"quality_rating"`
	CompletionTime *int    `json:"completion_time"`
	Notes          string  `json:"notes"`
	Collaborators  []int64 `json:"collaborators"`
}

func (h *CompletionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req completionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err, "invalid request")
		return
	}

	res, err := h.recorder.Record(r.Context(), completion.Input{
		ChoreID:        req.ChoreID,
		ActingUserID:   auth.UserID(r.Context()),
		CreditedUserID: req.UserID,
		QualityRating:  req.QualityRating,
		CompletionTime: req.CompletionTime,
		Notes:          req.Notes,
		Collaborators:  req.Collaborators,
	})
	if err != nil {
		writeError(w, h.logger, err, "failed to record completion")
		return
	}

	c := res.Completion
	h.events.broadcast(c.HouseholdID, websocket.NewMessage("completion", "recorded", c.ID, map[string]any{
		"user_id":       c.UserID,
		"chore_id":      c.ChoreID,
		"points_earned": c.PointsEarned,
	}))
	for _, a := range res.Granted {
		h.events.broadcast(c.HouseholdID, websocket.NewMessage("achievement", "granted", a.ID, map[string]any{
			"user_id":     a.UserID,
			"achievement": a.Achievement,
		}))
	}

	writeJSON(w, http.StatusCreated, res)
}

type pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

type completionList struct {
	Completions []model.CompletedChore `json:"completions"`
	Pagination  pagination             `json:"pagination"`
}

func (h *CompletionHandler) List(w http.ResponseWriter, r *http.Request) {
	f, page, err := h.parseFilter(r)
	if err != nil {
		writeError(w, h.logger, err, "invalid request")
		return
	}

	list, total, err := h.recorder.List(r.Context(), auth.UserID(r.Context()), f)
	if err != nil {
		writeError(w, h.logger, err, "failed to list completions")
		return
	}
	if list == nil {
		list = []model.CompletedChore{}
	}

	writeJSON(w, http.StatusOK, completionList{
		Completions: list,
		Pagination: pagination{
			Page:  page,
			Limit: f.Limit,
			Total: total,
			Pages: int(math.Ceil(float64(total) / float64(f.Limit))),
		},
	})
}

func (h *CompletionHandler) parseFilter(r *http.Request) (store.CompletionFilter, int, error) {
	var f store.CompletionFilter
	q := r.URL.Query()

	page, err := queryInt(r, "page", 1)
	if err != nil {
		return f, 0, err
	}
	limit, err := queryInt(r, "limit", defaultPageLimit)
	if err != nil {
		return f, 0, err
	}
	f.Limit = min(limit, maxPageLimit)
	f.Offset = (page - 1) * f.Limit

	if v := q.Get("user_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return f, 0, apperr.Validation("user_id must be a positive integer")
		}
		f.UserID = id
	}
	if v := q.Get("start"); v != "" {
		t, err := h.parseTime(v, false)
		if err != nil {
			return f, 0, apperr.Validation("start must be RFC 3339 or YYYY-MM-DD")
		}
		f.Start = &t
	}
	if v := q.Get("end"); v != "" {
		t, err := h.parseTime(v, true)
		if err != nil {
			return f, 0, apperr.Validation("end must be RFC 3339 or YYYY-MM-DD")
		}
		f.End = &t
	}
	return f, page, nil
}

// parseTime accepts a timestamp or a calendar date. A date used as an end
// bound covers the whole day.
func (h *CompletionHandler) parseTime(v string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(dateLayout, v, h.loc)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return t, nil
}

func (h *CompletionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, h.logger, err, "invalid request")
		return
	}
	c, err := h.recorder.Get(r.Context(), id, auth.UserID(r.Context()))
	if err != nil {
		writeError(w, h.logger, err, "failed to get completion")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

type completionDetailsRequest struct {
	QualityRating  *int    `json:"quality_rating"`
	CompletionTime *int    `json:"completion_time"`
	Notes          *string `json:"notes"`
}

func (h *CompletionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, h.logger, err, "invalid request")
		return
	}
	var req completionDetailsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err, "invalid request")
		return
	}

	c, err := h.recorder.Update(r.Context(), id, auth.UserID(r.Context()), completion.Details{
		QualityRating:  req.QualityRating,
		CompletionTime: req.CompletionTime,
		Notes:          req.Notes,
	})
	if err != nil {
		writeError(w, h.logger, err, "failed to update completion")
		return
	}

	h.events.broadcast(c.HouseholdID, websocket.NewMessage("completion", "updated", c.ID, nil))
	writeJSON(w, http.StatusOK, c)
}

func (h *CompletionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, h.logger, err, "invalid request")
		return
	}

	c, total, err := h.recorder.Delete(r.Context(), id, auth.UserID(r.Context()))
	if err != nil {
		writeError(w, h.logger, err, "failed to delete completion")
		return
	}

	h.events.broadcast(c.HouseholdID, websocket.NewMessage("completion", "deleted", c.ID, map[string]any{
		"user_id":       c.UserID,
		"points_earned": c.PointsEarned,
	}))
	writeJSON(w, http.StatusOK, map[string]any{
		"completion":   c,
		"points_total": total,
	})
}
