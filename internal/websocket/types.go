package websocket

import "gameroom/internal/protocol"

// inboundEvent is a decoded client event on its way to the hub loop.
type inboundEvent struct {
	roomID string
	client *WSClient
	event  protocol.Event
}

// remoteBroadcast is a snapshot published by another node via the
// redis bridge, delivered to local subscribers as-is.
type remoteBroadcast struct {
	roomID  string
	payload []byte
}

type RoomRes struct {
	ID      string `json:"id"`
	Players int    `json:"players"`
}
