package websocket

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/larder/internal/auth"
)

// HandleWebSocket upgrades an authenticated request and streams change
// notifications for that user until the connection closes. originPatterns
// lists extra hosts allowed besides same-origin.
func HandleWebSocket(hub *Hub, originPatterns []string, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.UserID(r.Context())
		if userID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{OriginPatterns: originPatterns})
		if err != nil {
			logger.Warn("websocket upgrade rejected", "user_id", userID, "error", err)
			return
		}
		defer conn.CloseNow()

		logger.Debug("live updates subscribed", "user_id", userID)
		err = hub.serve(r.Context(), conn, userID)
		switch {
		case err == nil, errors.Is(err, context.Canceled):
			conn.Close(ws.StatusNormalClosure, "")
		case ws.CloseStatus(err) != -1:
		default:
			logger.Debug("live updates ended", "user_id", userID, "error", err)
		}
	}
}
