package handler

import (
	"net/http"

	"kiosk/internal/dto"
	"kiosk/internal/logger"

	"github.com/gorilla/websocket"
)

// Upgrader upgrades HTTP connections to WebSocket; CheckOrigin allows all origins.
var Upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ViewerHub tracks websocket viewers of the dashboard.
type ViewerHub interface {
	Register(conn *websocket.Conn) bool
	Unregister(conn *websocket.Conn)
}

// StatusSource provides the live kiosk status.
type StatusSource interface {
	Status() dto.Status
}

// ViewWebsocketHandler handles viewer connections over WebSocket and
// registers them in the hub to receive dashboard updates.
func ViewWebsocketHandler(hub ViewerHub, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("WebSocket upgrade error: %v", err)
			return
		}

		if !hub.Register(connection) {
			connection.Close()
			return
		}
		defer hub.Unregister(connection)

		for {
			if _, _, err := connection.ReadMessage(); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logger.Warning("Viewer disconnected with error: %v", err)
				}
				break
			}
		}
	}
}

// StatusHandler returns the live kiosk status as JSON.
func StatusHandler(source StatusSource, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, logger, source.Status())
	}
}
