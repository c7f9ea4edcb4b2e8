package game

import (
	"sync"

	"gameroom/internal/protocol"
)

// Registry holds every live room in the process, keyed by the opaque
// room identifier issued by the lobby. Rooms appear on first
// subscription and disappear once their player set empties. The
// registry is constructed at startup and injected wherever it is
// needed; there is no package-level instance.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*protocol.State
}

func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]*protocol.State),
	}
}

// EnsureRoom returns the state for roomID, creating an empty room if it
// does not exist yet. Idempotent.
func (r *Registry) EnsureRoom(roomID string) *protocol.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.rooms[roomID]
	if !ok {
		state = NewState()
		r.rooms[roomID] = state
	}
	return state
}

// Get reports the state for roomID. A miss is benign: unsubscribe and
// message events can race room teardown, so callers skip silently.
func (r *Registry) Get(roomID string) (*protocol.State, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	state, ok := r.rooms[roomID]
	return state, ok
}

// RemoveIfEmpty deletes the room iff its player set is empty and
// reports whether a deletion happened.
func (r *Registry) RemoveIfEmpty(roomID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.rooms[roomID]
	if !ok || len(state.Players) > 0 {
		return false
	}
	delete(r.rooms, roomID)
	return true
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

func (r *Registry) RoomIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.rooms))
	for id := range r.rooms {
		ids = append(ids, id)
	}
	return ids
}
