package handlers

import (
	"net/http"

	"task-manager/logging"
	"task-manager/realtime"
	"task-manager/utils"

	"github.com/gorilla/websocket"
)

// WSHandler upgrades live-update connections and registers them with the hub
// under the authenticated user id. Clients connect with
// /ws?token=<jwt>; the token is the same bearer token the REST API uses.
type WSHandler struct {
	hub      *realtime.Hub
	upgrader websocket.Upgrader
}

func NewWSHandler(hub *realtime.Hub) *WSHandler {
	return &WSHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The REST CORS policy is open as well; the token is the gate.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	claims, err := utils.ValidateToken(r.URL.Query().Get("token"))
	if err != nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Logger.Warnf("Event ID: WS_UPGRADE_FAILED, Description: WebSocket upgrade failed for user %s: %v", claims.UserID, err)
		return
	}

	h.hub.Join(claims.UserID, conn)
	defer func() {
		h.hub.Leave(claims.UserID, conn)
		conn.Close()
	}()

	// The channel is push-only; drain incoming frames until the client goes
	// away so control messages keep being processed.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
