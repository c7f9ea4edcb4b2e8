package game

import "gameroom/internal/protocol"

// NewState returns an empty room state with no players.
func NewState() *protocol.State {
	return &protocol.State{
		Players: make(map[string]protocol.Player),
	}
}

// Apply advances a room state by one event. Join and leave are both
// idempotent so duplicate delivery upstream is harmless, and event
// types the state machine does not know are ignored rather than
// rejected, which keeps the union open for game-specific variants.
func Apply(state *protocol.State, ev protocol.Event) {
	if state.Players == nil {
		state.Players = make(map[string]protocol.Player)
	}

	switch e := ev.(type) {
	case protocol.Join:
		if _, ok := state.Players[e.UserID]; !ok {
			state.Players[e.UserID] = protocol.Player{ID: e.UserID}
		}
	case protocol.Leave:
		delete(state.Players, e.UserID)
	}
}

// Snapshot copies a state so it can leave the hub loop without sharing
// the live player map.
func Snapshot(state *protocol.State) protocol.State {
	players := make(map[string]protocol.Player, len(state.Players))
	for id, p := range state.Players {
		players[id] = p
	}
	return protocol.State{Players: players}
}
