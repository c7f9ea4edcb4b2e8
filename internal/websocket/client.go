package websocket

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"gameroom/internal/protocol"
)

// WSClient is one subscriber: a single client's live channel to a
// single room.
type WSClient struct {
	Conn     *websocket.Conn
	UserID   string
	RoomID   string
	send     chan []byte
	done     chan struct{} // Signal for coordinating goroutine shutdown
	mu       sync.Mutex    // Mutex for connection access
	isClosed bool

	// player is the id this connection announced with its accepted
	// join. Touched only on the hub goroutine.
	player string
}

func newWSClient(conn *websocket.Conn, roomID, userID string) *WSClient {
	return &WSClient{
		Conn:   conn,
		UserID: userID,
		RoomID: roomID,
		send:   make(chan []byte, 16),
		done:   make(chan struct{}),
	}
}

func (cl *WSClient) keepAlive() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-cl.done:
			return
		case <-ticker.C:
			cl.mu.Lock()
			if cl.isClosed {
				cl.mu.Unlock()
				return
			}
			err := cl.Conn.WriteMessage(websocket.PingMessage, nil)
			cl.mu.Unlock()

			if err != nil {
				log.Printf("Ping error for client %s: %v", cl.UserID, err)
				return
			}
		}
	}
}

func (cl *WSClient) writeLoop() {
	defer func() {
		cl.mu.Lock()
		cl.isClosed = true
		cl.Conn.Close()
		cl.mu.Unlock()
	}()

	for {
		select {
		case <-cl.done:
			return
		case payload, ok := <-cl.send:
			if !ok {
				return
			}

			cl.mu.Lock()
			if cl.isClosed {
				cl.mu.Unlock()
				return
			}
			err := cl.Conn.WriteMessage(websocket.TextMessage, payload)
			cl.mu.Unlock()

			if err != nil {
				log.Printf("Error sending message to client %s: %v", cl.UserID, err)
				return
			}
		}
	}
}

// readLoop decodes inbound payloads and hands accepted events to the
// hub. A payload that fails to decode is logged and dropped; the room
// state machine never sees it and the connection stays up.
func (cl *WSClient) readLoop(hub *Hub) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic in readLoop: %v", r)
		}

		if cl.done != nil {
			close(cl.done)
		}

		hub.unregister <- cl
		log.Printf("Client %s disconnected from room %s", cl.UserID, cl.RoomID)
	}()

	cl.Conn.SetReadLimit(512 * 1024)

	for {
		_, payload, err := cl.Conn.ReadMessage()
		if err != nil {
			if closeErr, ok := err.(*websocket.CloseError); ok {
				if closeErr.Code == websocket.CloseNormalClosure ||
					closeErr.Code == websocket.CloseGoingAway ||
					closeErr.Code == websocket.CloseNoStatusReceived {
					break
				}
			}
			log.Printf("Error reading message from client %s: %v", cl.UserID, err)
			break
		}

		ev, err := protocol.Decode(payload)
		if err != nil {
			var decodeErr *protocol.DecodeError
			if errors.As(err, &decodeErr) {
				log.Printf("Dropping undecodable payload from client %s: %v", cl.UserID, err)
				continue
			}
			log.Printf("Decode failure from client %s: %v", cl.UserID, err)
			continue
		}

		hub.events <- inboundEvent{
			roomID: cl.RoomID,
			client: cl,
			event:  ev,
		}
	}
}
