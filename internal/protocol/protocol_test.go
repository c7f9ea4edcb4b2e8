package protocol

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestEncodeDecodeJoin(t *testing.T) {
	data, err := Encode(Join{UserID: "alice"})
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}

	ev, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	join, ok := ev.(Join)
	if !ok {
		t.Fatalf("expected Join, got %T", ev)
	}
	if join.UserID != "alice" {
		t.Fatalf("unexpected userId %q", join.UserID)
	}
}

func TestEncodeGameStateWireShape(t *testing.T) {
	state := State{Players: map[string]Player{
		"alice": {ID: "alice"},
	}}
	data, err := Encode(GameState{State: state})
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal wire payload: %v", err)
	}
	if string(raw["type"]) != `"gameState"` {
		t.Fatalf("unexpected type field %s", raw["type"])
	}
	if _, ok := raw["state"]; !ok {
		t.Fatal("expected state field in payload")
	}
}

func TestDecodeUnknownTypeReturnsDecodeError(t *testing.T) {
	_, err := Decode([]byte(`{"type":"unknown","userId":"alice"}`))
	if err == nil {
		t.Fatal("expected error for unknown type")
	}
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected *DecodeError, got %T", err)
	}
}

func TestDecodeMalformedPayload(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{"not json", "not json at all"},
		{"missing type", `{"userId":"alice"}`},
		{"gameState without state", `{"type":"gameState"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode([]byte(tc.payload))
			var decodeErr *DecodeError
			if !errors.As(err, &decodeErr) {
				t.Fatalf("expected *DecodeError, got %v", err)
			}
		})
	}
}

func TestDecodeErrorEvent(t *testing.T) {
	ev, err := Decode([]byte(`{"type":"error","error":"room is full"}`))
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	errEv, ok := ev.(ErrorEvent)
	if !ok {
		t.Fatalf("expected ErrorEvent, got %T", ev)
	}
	if errEv.Error != "room is full" {
		t.Fatalf("unexpected error text %q", errEv.Error)
	}
}
