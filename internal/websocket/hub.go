package websocket

import (
	"log"

	"gameroom/internal/game"
	"gameroom/internal/protocol"
)

// Hub owns all room membership for the process. A single Run goroutine
// consumes every register, unregister and event, so applying an event
// and broadcasting the resulting snapshot is one atomic step: every
// accepted event yields exactly one broadcast, and broadcasts for the
// same room are never reordered.
type Hub struct {
	registry   *game.Registry
	maxPlayers int
	bridge     *Bridge

	subscribers map[string]map[*WSClient]struct{}

	register   chan *WSClient
	unregister chan *WSClient
	events     chan inboundEvent
	remote     chan remoteBroadcast
	roomsReq   chan chan []RoomRes
	quit       chan struct{}
}

// NewHub wires the hub to an injected registry. bridge may be nil, in
// which case broadcasts stay local to this process.
func NewHub(registry *game.Registry, maxPlayers int, bridge *Bridge) *Hub {
	return &Hub{
		registry:    registry,
		maxPlayers:  maxPlayers,
		bridge:      bridge,
		subscribers: make(map[string]map[*WSClient]struct{}),
		register:    make(chan *WSClient),
		unregister:  make(chan *WSClient),
		events:      make(chan inboundEvent, 64),
		remote:      make(chan remoteBroadcast, 64),
		roomsReq:    make(chan chan []RoomRes),
		quit:        make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case <-h.quit:
			return

		case client := <-h.register:
			h.handleRegister(client)

		case client := <-h.unregister:
			h.handleUnregister(client)

		case in := <-h.events:
			h.handleEvent(in)

		case rb := <-h.remote:
			h.deliver(rb.roomID, rb.payload)

		case reply := <-h.roomsReq:
			reply <- h.snapshotRooms()
		}
	}
}

// Stop terminates the Run loop. Used in tests; the server runs the hub
// for the life of the process.
func (h *Hub) Stop() {
	close(h.quit)
}

func (h *Hub) handleRegister(client *WSClient) {
	subs, ok := h.subscribers[client.RoomID]
	if !ok {
		subs = make(map[*WSClient]struct{})
		h.subscribers[client.RoomID] = subs
	}
	subs[client] = struct{}{}
	incConnections()

	h.registry.EnsureRoom(client.RoomID)
	setRooms(h.registry.Len())

	// Late joiners see the current state immediately.
	h.broadcastState(client.RoomID)
}

func (h *Hub) handleUnregister(client *WSClient) {
	// The client may already have been dropped by deliver; its leave
	// below still has to happen.
	if subs, ok := h.subscribers[client.RoomID]; ok {
		if _, member := subs[client]; member {
			delete(subs, client)
			close(client.send)
			decConnections()
			if len(subs) == 0 {
				delete(h.subscribers, client.RoomID)
			}
		}
	}

	// Connection loss is a leave: the remaining members observe the
	// departure, and an emptied room is torn down.
	if state, ok := h.registry.Get(client.RoomID); ok {
		if client.player != "" {
			game.Apply(state, protocol.Leave{UserID: client.player})
		}
		// Teardown waits for the last subscriber: watchers may still
		// be attached after every player has left.
		if _, live := h.subscribers[client.RoomID]; !live {
			h.registry.RemoveIfEmpty(client.RoomID)
		}
		setRooms(h.registry.Len())
		h.broadcastState(client.RoomID)
	}
}

func (h *Hub) handleEvent(in inboundEvent) {
	state, ok := h.registry.Get(in.roomID)
	if !ok {
		// Events can race room teardown; skip silently.
		return
	}

	// A leave without an explicit id means "whoever this connection
	// joined as".
	if leave, ok := in.event.(protocol.Leave); ok && leave.UserID == "" && in.client != nil {
		in.event = protocol.Leave{UserID: in.client.player}
	}

	if reason := h.rejectEvent(state, in.event); reason != "" {
		h.sendError(in.client, reason)
		return
	}

	game.Apply(state, in.event)

	// Remember which player this connection speaks for, so a dropped
	// connection can be folded into a leave.
	if in.client != nil {
		switch e := in.event.(type) {
		case protocol.Join:
			in.client.player = e.UserID
		case protocol.Leave:
			if in.client.player == e.UserID {
				in.client.player = ""
			}
		}
	}

	h.broadcastState(in.roomID)
}

// rejectEvent validates a client event against the current room state
// and returns a rejection reason, or "" when the event is accepted.
func (h *Hub) rejectEvent(state *protocol.State, ev protocol.Event) string {
	join, ok := ev.(protocol.Join)
	if !ok {
		return ""
	}
	if join.UserID == "" {
		return "invalid nickname"
	}
	if h.maxPlayers > 0 {
		if _, member := state.Players[join.UserID]; !member && len(state.Players) >= h.maxPlayers {
			return "room is full"
		}
	}
	return ""
}

// broadcastState pushes the room's full snapshot to every local
// subscriber and, when a bridge is configured, to the other nodes. A
// room with no subscribers is a safe no-op.
func (h *Hub) broadcastState(roomID string) {
	state, ok := h.registry.Get(roomID)
	var snapshot protocol.State
	if ok {
		snapshot = game.Snapshot(state)
	} else {
		// The room may already be torn down; remaining subscribers (if
		// any) still observe the final empty state.
		snapshot = protocol.State{Players: map[string]protocol.Player{}}
	}

	payload, err := protocol.Encode(protocol.GameState{State: snapshot})
	if err != nil {
		log.Printf("hub: encode state for room %s: %v", roomID, err)
		return
	}

	h.deliver(roomID, payload)

	if h.bridge != nil {
		if err := h.bridge.Publish(roomID, payload); err != nil {
			log.Printf("hub: bridge publish for room %s: %v", roomID, err)
		}
	}
}

func (h *Hub) deliver(roomID string, payload []byte) {
	subs, ok := h.subscribers[roomID]
	if !ok {
		return
	}
	delivered := 0
	for client := range subs {
		select {
		case client.send <- payload:
			delivered++
		default:
			// Subscriber cannot keep up; drop it rather than stall the
			// loop. Its reader will unregister through the normal path.
			close(client.send)
			delete(subs, client)
			decConnections()
			incDropped()
		}
	}
	if len(subs) == 0 {
		delete(h.subscribers, roomID)
	}
	if delivered > 0 {
		addBroadcasts(delivered)
	}
}

func (h *Hub) sendError(client *WSClient, reason string) {
	// The client may have been dropped with events still queued; its
	// send channel is closed then.
	subs, ok := h.subscribers[client.RoomID]
	if !ok {
		return
	}
	if _, member := subs[client]; !member {
		return
	}

	payload, err := protocol.Encode(protocol.ErrorEvent{Error: reason})
	if err != nil {
		log.Printf("hub: encode error event: %v", err)
		return
	}
	select {
	case client.send <- payload:
	default:
		log.Printf("hub: dropping error event for client %s", client.UserID)
	}
}

// Rooms summarizes the hub's live rooms for the HTTP surface. The
// request goes through the Run loop so room state is only ever read on
// the event-processing goroutine.
func (h *Hub) Rooms() []RoomRes {
	reply := make(chan []RoomRes, 1)
	select {
	case h.roomsReq <- reply:
		return <-reply
	case <-h.quit:
		return nil
	}
}

func (h *Hub) snapshotRooms() []RoomRes {
	ids := h.registry.RoomIDs()
	rooms := make([]RoomRes, 0, len(ids))
	for _, id := range ids {
		if state, ok := h.registry.Get(id); ok {
			rooms = append(rooms, RoomRes{ID: id, Players: len(state.Players)})
		}
	}
	return rooms
}
