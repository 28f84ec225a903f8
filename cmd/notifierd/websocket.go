package main

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/teamdocs/notifier/pkg/bridge"
	"github.com/teamdocs/notifier/pkg/logger"
	"github.com/teamdocs/notifier/pkg/notifier"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Authn is handled upstream; the daemon is not exposed directly.
	CheckOrigin: func(*http.Request) bool { return true },
}

// connectHandler upgrades the request and pumps inbound frames into the
// bridge until the peer goes away.
func connectHandler(svc *notifier.Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.ErrorContext(r.Context(), "websocket upgrade failed", logger.Error(err))
			return
		}

		userID := r.Header.Get("X-User-ID")
		connID := svc.Connect(r.Context(), bridge.NewWSConn(ws), userID)
		defer svc.Disconnect(connID)

		for {
			_, raw, err := ws.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.WarnContext(r.Context(), "websocket read failed",
						logger.Error(err), logger.ConnID(connID))
				}
				return
			}
			if err := svc.HandleMessage(r.Context(), connID, raw); err != nil {
				log.WarnContext(r.Context(), "inbound message rejected",
					logger.Error(err), logger.ConnID(connID))
			}
		}
	}
}
