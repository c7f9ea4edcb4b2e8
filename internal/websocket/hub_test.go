package websocket

import (
	"testing"
	"time"

	"gameroom/internal/game"
	"gameroom/internal/protocol"
)

func startHub(t *testing.T, maxPlayers int) (*Hub, *game.Registry) {
	t.Helper()
	registry := game.NewRegistry()
	hub := NewHub(registry, maxPlayers, nil)
	go hub.Run()
	t.Cleanup(hub.Stop)
	return hub, registry
}

func newTestClient(roomID, userID string) *WSClient {
	return &WSClient{
		UserID: userID,
		RoomID: roomID,
		send:   make(chan []byte, 16),
		done:   make(chan struct{}),
	}
}

func recvEvent(t *testing.T, cl *WSClient) protocol.Event {
	t.Helper()
	select {
	case payload, ok := <-cl.send:
		if !ok {
			t.Fatal("send channel closed while waiting for event")
		}
		ev, err := protocol.Decode(payload)
		if err != nil {
			t.Fatalf("decode broadcast: %v", err)
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func recvState(t *testing.T, cl *WSClient) protocol.State {
	t.Helper()
	ev := recvEvent(t, cl)
	gs, ok := ev.(protocol.GameState)
	if !ok {
		t.Fatalf("expected gameState, got %T", ev)
	}
	return gs.State
}

func expectNoEvent(t *testing.T, cl *WSClient) {
	t.Helper()
	select {
	case payload, ok := <-cl.send:
		if ok {
			t.Fatalf("unexpected event delivered: %s", payload)
		}
	case <-time.After(100 * time.Millisecond):
	}
}

func TestRegisterBroadcastsInitialState(t *testing.T) {
	hub, registry := startHub(t, 0)

	cl := newTestClient("room-1", "alice")
	hub.register <- cl

	state := recvState(t, cl)
	if len(state.Players) != 0 {
		t.Fatalf("expected empty initial state, got %d players", len(state.Players))
	}
	if _, ok := registry.Get("room-1"); !ok {
		t.Fatal("expected room created on first subscription")
	}
}

func TestRoomLifecycleScenario(t *testing.T) {
	hub, registry := startHub(t, 0)

	a := newTestClient("room-1", "alice")
	hub.register <- a
	recvState(t, a) // initial empty snapshot

	hub.events <- inboundEvent{roomID: "room-1", client: a, event: protocol.Join{UserID: "alice"}}
	state := recvState(t, a)
	if _, ok := state.Players["alice"]; !ok || len(state.Players) != 1 {
		t.Fatalf("expected alice alone, got %v", state.Players)
	}

	b := newTestClient("room-1", "bob")
	hub.register <- b
	recvState(t, a) // subscription broadcast
	recvState(t, b)

	hub.events <- inboundEvent{roomID: "room-1", client: b, event: protocol.Join{UserID: "bob"}}
	state = recvState(t, a)
	if len(state.Players) != 2 {
		t.Fatalf("expected alice and bob, got %v", state.Players)
	}
	recvState(t, b)

	// A drops; B observes the departure.
	hub.unregister <- a
	state = recvState(t, b)
	if _, ok := state.Players["alice"]; ok {
		t.Fatalf("expected alice removed, got %v", state.Players)
	}
	if _, ok := state.Players["bob"]; !ok {
		t.Fatalf("expected bob still present, got %v", state.Players)
	}

	// B drops; the emptied room is torn down.
	hub.unregister <- b
	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, ok := registry.Get("room-1"); !ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("expected room removed after last leave")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestBroadcastsOrderedPerRoom(t *testing.T) {
	hub, _ := startHub(t, 0)

	watcher := newTestClient("room-1", "watcher")
	hub.register <- watcher
	recvState(t, watcher)

	users := []string{"u1", "u2", "u3", "u4"}
	for _, u := range users {
		hub.events <- inboundEvent{roomID: "room-1", client: watcher, event: protocol.Join{UserID: u}}
	}

	for i := range users {
		state := recvState(t, watcher)
		if len(state.Players) != i+1 {
			t.Fatalf("broadcast %d: expected %d players, got %d", i, i+1, len(state.Players))
		}
	}
}

func TestDuplicateJoinStillBroadcasts(t *testing.T) {
	hub, _ := startHub(t, 0)

	cl := newTestClient("room-1", "alice")
	hub.register <- cl
	recvState(t, cl)

	hub.events <- inboundEvent{roomID: "room-1", client: cl, event: protocol.Join{UserID: "alice"}}
	hub.events <- inboundEvent{roomID: "room-1", client: cl, event: protocol.Join{UserID: "alice"}}

	first := recvState(t, cl)
	second := recvState(t, cl)
	if len(first.Players) != 1 || len(second.Players) != 1 {
		t.Fatalf("re-join must not change membership: %v then %v", first.Players, second.Players)
	}
}

func TestJoinWithEmptyNicknameRejected(t *testing.T) {
	hub, _ := startHub(t, 0)

	cl := newTestClient("room-1", "")
	hub.register <- cl
	recvState(t, cl)

	hub.events <- inboundEvent{roomID: "room-1", client: cl, event: protocol.Join{UserID: ""}}

	ev := recvEvent(t, cl)
	errEv, ok := ev.(protocol.ErrorEvent)
	if !ok {
		t.Fatalf("expected error event, got %T", ev)
	}
	if errEv.Error != "invalid nickname" {
		t.Fatalf("unexpected rejection reason %q", errEv.Error)
	}
	expectNoEvent(t, cl)
}

func TestRoomCapacityRejectsExtraJoin(t *testing.T) {
	hub, _ := startHub(t, 1)

	a := newTestClient("room-1", "alice")
	hub.register <- a
	recvState(t, a)
	hub.events <- inboundEvent{roomID: "room-1", client: a, event: protocol.Join{UserID: "alice"}}
	recvState(t, a)

	b := newTestClient("room-1", "bob")
	hub.register <- b
	recvState(t, a)
	recvState(t, b)

	hub.events <- inboundEvent{roomID: "room-1", client: b, event: protocol.Join{UserID: "bob"}}
	ev := recvEvent(t, b)
	errEv, ok := ev.(protocol.ErrorEvent)
	if !ok {
		t.Fatalf("expected error event, got %T", ev)
	}
	if errEv.Error != "room is full" {
		t.Fatalf("unexpected rejection reason %q", errEv.Error)
	}

	// A member re-joining a full room is still a no-op, not a rejection.
	hub.events <- inboundEvent{roomID: "room-1", client: a, event: protocol.Join{UserID: "alice"}}
	state := recvState(t, a)
	if len(state.Players) != 1 {
		t.Fatalf("expected membership unchanged, got %v", state.Players)
	}
}

func TestRoomSurvivesWhileWatcherRemains(t *testing.T) {
	hub, registry := startHub(t, 0)

	watcher := newTestClient("room-1", "watcher")
	hub.register <- watcher
	recvState(t, watcher)

	player := newTestClient("room-1", "player-conn")
	hub.register <- player
	recvState(t, watcher)
	recvState(t, player)

	hub.events <- inboundEvent{roomID: "room-1", client: player, event: protocol.Join{UserID: "alice"}}
	recvState(t, watcher)
	recvState(t, player)

	// The last player drops; the watcher is still subscribed, so the
	// room must stay alive and accept its join.
	hub.unregister <- player
	state := recvState(t, watcher)
	if len(state.Players) != 0 {
		t.Fatalf("expected empty room after player left, got %v", state.Players)
	}
	if _, ok := registry.Get("room-1"); !ok {
		t.Fatal("room must survive while a subscriber remains")
	}

	hub.events <- inboundEvent{roomID: "room-1", client: watcher, event: protocol.Join{UserID: "watcher"}}
	state = recvState(t, watcher)
	if _, ok := state.Players["watcher"]; !ok {
		t.Fatalf("expected watcher join accepted, got %v", state.Players)
	}

	hub.unregister <- watcher
	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, ok := registry.Get("room-1"); !ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("expected room removed after last subscriber left")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestBareLeaveResolvesToJoinedPlayer(t *testing.T) {
	hub, _ := startHub(t, 0)

	cl := newTestClient("room-1", "conn-uuid")
	hub.register <- cl
	recvState(t, cl)

	hub.events <- inboundEvent{roomID: "room-1", client: cl, event: protocol.Join{UserID: "alice"}}
	recvState(t, cl)

	// Wire leave without a userId: the hub resolves it to the player
	// this connection joined as.
	hub.events <- inboundEvent{roomID: "room-1", client: cl, event: protocol.Leave{}}
	state := recvState(t, cl)
	if len(state.Players) != 0 {
		t.Fatalf("expected alice removed by bare leave, got %v", state.Players)
	}
}

func TestEventForUnknownRoomSkippedSilently(t *testing.T) {
	hub, registry := startHub(t, 0)

	cl := newTestClient("elsewhere", "alice")
	hub.register <- cl
	recvState(t, cl)

	hub.events <- inboundEvent{roomID: "gone", client: cl, event: protocol.Join{UserID: "alice"}}
	expectNoEvent(t, cl)
	if _, ok := registry.Get("gone"); ok {
		t.Fatal("event must not create a room")
	}
}

func TestRemoteBroadcastDeliveredToLocalSubscribers(t *testing.T) {
	hub, _ := startHub(t, 0)

	cl := newTestClient("room-1", "alice")
	hub.register <- cl
	recvState(t, cl)

	payload, err := protocol.Encode(protocol.GameState{State: protocol.State{
		Players: map[string]protocol.Player{"remote": {ID: "remote"}},
	}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	hub.remote <- remoteBroadcast{roomID: "room-1", payload: payload}

	state := recvState(t, cl)
	if _, ok := state.Players["remote"]; !ok {
		t.Fatalf("expected remote snapshot delivered, got %v", state.Players)
	}
}

func TestRoomsSummary(t *testing.T) {
	hub, _ := startHub(t, 0)

	cl := newTestClient("room-1", "alice")
	hub.register <- cl
	recvState(t, cl)
	hub.events <- inboundEvent{roomID: "room-1", client: cl, event: protocol.Join{UserID: "alice"}}
	recvState(t, cl)

	rooms := hub.Rooms()
	if len(rooms) != 1 {
		t.Fatalf("expected one room, got %d", len(rooms))
	}
	if rooms[0].ID != "room-1" || rooms[0].Players != 1 {
		t.Fatalf("unexpected summary %+v", rooms[0])
	}
}
