package game

import (
	"testing"

	"gameroom/internal/protocol"
)

func TestEnsureRoomIsIdempotent(t *testing.T) {
	registry := NewRegistry()

	first := registry.EnsureRoom("room-1")
	Apply(first, protocol.Join{UserID: "alice"})

	second := registry.EnsureRoom("room-1")
	if first != second {
		t.Fatal("EnsureRoom returned a different state for an existing room")
	}
	if len(second.Players) != 1 {
		t.Fatalf("expected existing membership preserved, got %d players", len(second.Players))
	}
}

func TestGetMissingRoom(t *testing.T) {
	registry := NewRegistry()
	if _, ok := registry.Get("nope"); ok {
		t.Fatal("expected miss for unknown room")
	}
}

func TestRemoveIfEmptyLifecycle(t *testing.T) {
	registry := NewRegistry()
	state := registry.EnsureRoom("room-1")
	Apply(state, protocol.Join{UserID: "alice"})

	if registry.RemoveIfEmpty("room-1") {
		t.Fatal("room with a player must not be removed")
	}

	Apply(state, protocol.Leave{UserID: "alice"})
	if !registry.RemoveIfEmpty("room-1") {
		t.Fatal("empty room should be removed")
	}
	if _, ok := registry.Get("room-1"); ok {
		t.Fatal("expected miss after removal")
	}
	if registry.RemoveIfEmpty("room-1") {
		t.Fatal("second removal should report false")
	}
}

func TestLenAndRoomIDs(t *testing.T) {
	registry := NewRegistry()
	registry.EnsureRoom("a")
	registry.EnsureRoom("b")
	registry.EnsureRoom("a")

	if registry.Len() != 2 {
		t.Fatalf("expected 2 rooms, got %d", registry.Len())
	}
	ids := registry.RoomIDs()
	if len(ids) != 2 {
		t.Fatalf("expected 2 ids, got %d", len(ids))
	}
}
