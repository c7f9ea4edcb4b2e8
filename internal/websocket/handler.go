package websocket

import (
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler upgrades authenticated HTTP requests into hub subscriptions.
type Handler struct {
	hub *Hub
}

func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

// Subscribe upgrades the request and registers the connection with the
// hub. Registration ensures the room exists and pushes the current
// state to the new subscriber before any further event lands.
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request, roomID, userID string) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		return err
	}

	cl := newWSClient(conn, roomID, userID)
	h.hub.register <- cl

	go cl.keepAlive()
	go cl.writeLoop()
	go cl.readLoop(h.hub)
	return nil
}

// Rooms exposes the hub's live room summary for the lobby API.
func (h *Handler) Rooms() []RoomRes {
	return h.hub.Rooms()
}
