package game

import (
	"testing"

	"gameroom/internal/protocol"
)

func TestApplyJoinLeaveSequences(t *testing.T) {
	cases := []struct {
		name   string
		events []protocol.Event
		want   []string
	}{
		{
			name:   "single join",
			events: []protocol.Event{protocol.Join{UserID: "alice"}},
			want:   []string{"alice"},
		},
		{
			name: "join then leave",
			events: []protocol.Event{
				protocol.Join{UserID: "alice"},
				protocol.Leave{UserID: "alice"},
			},
			want: nil,
		},
		{
			name: "leave without join is a no-op",
			events: []protocol.Event{
				protocol.Leave{UserID: "ghost"},
				protocol.Join{UserID: "bob"},
			},
			want: []string{"bob"},
		},
		{
			name: "interleaved members",
			events: []protocol.Event{
				protocol.Join{UserID: "alice"},
				protocol.Join{UserID: "bob"},
				protocol.Leave{UserID: "alice"},
				protocol.Join{UserID: "carol"},
			},
			want: []string{"bob", "carol"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			state := NewState()
			for _, ev := range tc.events {
				Apply(state, ev)
			}
			if len(state.Players) != len(tc.want) {
				t.Fatalf("expected %d players, got %d", len(tc.want), len(state.Players))
			}
			for _, id := range tc.want {
				player, ok := state.Players[id]
				if !ok {
					t.Fatalf("expected player %q in state", id)
				}
				if player.ID != id {
					t.Fatalf("player %q has mismatched id %q", id, player.ID)
				}
			}
		})
	}
}

func TestApplyJoinIsIdempotent(t *testing.T) {
	once := NewState()
	Apply(once, protocol.Join{UserID: "alice"})

	twice := NewState()
	Apply(twice, protocol.Join{UserID: "alice"})
	Apply(twice, protocol.Join{UserID: "alice"})

	if len(once.Players) != 1 || len(twice.Players) != 1 {
		t.Fatalf("expected one player in both states, got %d and %d", len(once.Players), len(twice.Players))
	}
}

func TestApplyIgnoresUnrecognizedEvents(t *testing.T) {
	state := NewState()
	Apply(state, protocol.Join{UserID: "alice"})
	Apply(state, protocol.ErrorEvent{Error: "not a membership event"})

	if len(state.Players) != 1 {
		t.Fatalf("expected state untouched, got %d players", len(state.Players))
	}
}

func TestSnapshotDoesNotShareMap(t *testing.T) {
	state := NewState()
	Apply(state, protocol.Join{UserID: "alice"})

	snap := Snapshot(state)
	Apply(state, protocol.Leave{UserID: "alice"})

	if len(snap.Players) != 1 {
		t.Fatalf("snapshot mutated by later apply: %d players", len(snap.Players))
	}
}
