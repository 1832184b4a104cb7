package handler

import (
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dukerupert/choreboard/internal/apperr"
	"github.com/dukerupert/choreboard/internal/auth"
	"github.com/dukerupert/choreboard/internal/middleware"
	"github.com/dukerupert/choreboard/internal/model"
	"github.com/dukerupert/choreboard/internal/store"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 30
	minPasswordLen = 8
)

type AuthHandler struct {
	users      *store.UserStore
	sessions   *store.SessionStore
	sessionTTL time.Duration
	logger     *slog.Logger
}

func NewAuthHandler(us *store.UserStore, ss *store.SessionStore, sessionTTL time.Duration, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{users: us, sessions: ss, sessionTTL: sessionTTL, logger: logger}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	User      *model.User `json:"user"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
}

func (req *registerRequest) normalize() error {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if n := len(req.Username); n < minUsernameLen || n > maxUsernameLen {
		return apperr.Validation("username must be between %d and %d characters", minUsernameLen, maxUsernameLen)
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return apperr.Validation("a valid email is required")
	}
	if len(req.Password) < minPasswordLen {
		return apperr.Validation("password must be at least %d characters", minPasswordLen)
	}
	return nil
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err, "invalid request")
		return
	}
	if err := req.normalize(); err != nil {
		writeError(w, h.logger, err, "invalid request")
		return
	}

	existing, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		writeError(w, h.logger, err, "failed to register")
		return
	}
	if existing != nil {
		writeMessage(w, http.StatusConflict, "email is already registered")
		return
	}
	existing, err = h.users.GetByUsername(r.Context(), req.Username)
	if err != nil {
		writeError(w, h.logger, err, "failed to register")
		return
	}
	if existing != nil {
		writeMessage(w, http.StatusConflict, "username is already taken")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, h.logger, err, "failed to hash password")
		return
	}

	user, err := h.users.Create(r.Context(), req.Username, req.Email, string(hash))
	if err != nil {
		writeError(w, h.logger, err, "failed to register")
		return
	}
	h.logger.Info("user registered", "user_id", user.ID)

	h.startSession(w, r, user, http.StatusCreated)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err, "invalid request")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		writeError(w, h.logger, err, "failed to log in")
		return
	}
	// Same response for unknown email and wrong password.
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		writeMessage(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	h.startSession(w, r, user, http.StatusOK)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, user *model.User, status int) {
	sess, err := h.sessions.Create(r.Context(), user.ID, h.sessionTTL)
	if err != nil {
		writeError(w, h.logger, err, "failed to create session")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		MaxAge:   int(h.sessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, status, sessionResponse{User: user, Token: sess.Token, ExpiresAt: sess.ExpiresAt})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.FromContext(r.Context())
	if err := h.sessions.Delete(r.Context(), caller.SessionID); err != nil {
		writeError(w, h.logger, err, "failed to log out")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}
