package websocket

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/choreboard/internal/auth"
)

// HandleWebSocket upgrades an authenticated request and streams the
// caller's household events until the connection closes. It must run
// behind middleware that places an auth.Caller with a household in the
// request context.
func HandleWebSocket(hub *Hub, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := auth.FromContext(r.Context())
		if !ok || !caller.HasHousehold() {
			http.Error(w, "household membership required", http.StatusConflict)
			return
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			InsecureSkipVerify: true, // household LAN clients connect from any origin
		})
		if err != nil {
			logger.Warn("websocket accept", "user_id", caller.UserID, "error", err)
			return
		}
		defer conn.CloseNow()

		logger.Debug("websocket connected", "user_id", caller.UserID, "household_id", caller.HouseholdID)
		NewClient(hub, conn, caller.UserID, caller.HouseholdID).Run(r.Context())
		logger.Debug("websocket disconnected", "user_id", caller.UserID, "household_id", caller.HouseholdID)
	}
}
