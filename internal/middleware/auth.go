package middleware

import (
	"net/http"
	"strings"

	"github.com/dukerupert/choreboard/internal/auth"
	"github.com/dukerupert/choreboard/internal/store"
)

// SessionCookieName is the cookie that carries a session token.
const SessionCookieName = "choreboard_session"

// SessionToken extracts the session token from an "Authorization: Bearer"
// header, falling back to the session cookie.
func SessionToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(SessionCookieName); err == nil {
		return c.Value
	}
	return ""
}

// RequireAuth resolves the session token to a user and stores the caller in
// the request context. Household and role are read fresh on every request
// so membership changes apply immediately.
func RequireAuth(sessions *store.SessionStore, users *store.UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := SessionToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			sess, err := sessions.GetByToken(r.Context(), token)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "failed to check session")
				return
			}
			if sess == nil {
				writeError(w, http.StatusUnauthorized, "session expired or invalid")
				return
			}

			u, err := users.GetByID(r.Context(), sess.UserID)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "failed to load user")
				return
			}
			if u == nil {
				writeError(w, http.StatusUnauthorized, "session expired or invalid")
				return
			}

			ctx := auth.WithCaller(r.Context(), auth.CallerFor(u, sess.ID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireHousehold rejects callers who have not joined a household.
func RequireHousehold(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.HouseholdID(r.Context()) == 0 {
			writeError(w, http.StatusConflict, "you must join a household first")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin checks that the caller administers their household.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsAdmin(r.Context()) {
			writeError(w, http.StatusForbidden, "household admin only")
			return
		}
		next.ServeHTTP(w, r)
	})
}
