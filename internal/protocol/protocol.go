package protocol

import (
	"encoding/json"
	"fmt"
)

// Event type discriminants carried in the wire payload.
const (
	TypeJoin      = "join"
	TypeLeave     = "leave"
	TypeGameState = "gameState"
	TypeError     = "error"
)

// Player is one member of a room. Attrs is an open bag for
// game-specific fields.
type Player struct {
	ID    string         `json:"id"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

// State is the full broadcast snapshot of a room.
type State struct {
	Players map[string]Player `json:"players"`
}

// Event is one variant of the tagged wire union.
type Event interface {
	EventType() string
}

// Join requests membership for UserID.
type Join struct {
	UserID string `json:"userId"`
}

func (Join) EventType() string { return TypeJoin }

// Leave removes UserID from the room.
type Leave struct {
	UserID string `json:"userId"`
}

func (Leave) EventType() string { return TypeLeave }

// GameState is the server push of a room snapshot.
type GameState struct {
	State State `json:"state"`
}

func (GameState) EventType() string { return TypeGameState }

// ErrorEvent is a server-side rejection of a client event.
type ErrorEvent struct {
	Error string `json:"error"`
}

func (ErrorEvent) EventType() string { return TypeError }

// DecodeError reports an inbound payload that could not be turned into
// an Event. Callers log and drop the payload; it is never fatal to the
// connection.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("protocol: %s: %v", e.Reason, e.Err)
	}
	return "protocol: " + e.Reason
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// envelope is the flattened wire shape shared by every variant.
type envelope struct {
	Type   string `json:"type"`
	UserID string `json:"userId,omitempty"`
	State  *State `json:"state,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Encode serializes an event as UTF-8 JSON with a type discriminant.
func Encode(ev Event) ([]byte, error) {
	var env envelope
	switch e := ev.(type) {
	case Join:
		env = envelope{Type: TypeJoin, UserID: e.UserID}
	case Leave:
		env = envelope{Type: TypeLeave, UserID: e.UserID}
	case GameState:
		state := e.State
		env = envelope{Type: TypeGameState, State: &state}
	case ErrorEvent:
		env = envelope{Type: TypeError, Error: e.Error}
	default:
		return nil, fmt.Errorf("protocol: encode unsupported event type %q", ev.EventType())
	}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("protocol: encode %s: %w", env.Type, err)
	}
	return data, nil
}

// Decode parses a wire payload into an Event. Malformed payloads and
// unrecognized discriminants yield a *DecodeError.
func Decode(data []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &DecodeError{Reason: "malformed payload", Err: err}
	}

	switch env.Type {
	case TypeJoin:
		return Join{UserID: env.UserID}, nil
	case TypeLeave:
		return Leave{UserID: env.UserID}, nil
	case TypeGameState:
		if env.State == nil {
			return nil, &DecodeError{Reason: "gameState payload missing state"}
		}
		return GameState{State: *env.State}, nil
	case TypeError:
		return ErrorEvent{Error: env.Error}, nil
	case "":
		return nil, &DecodeError{Reason: "payload missing type discriminant"}
	default:
		return nil, &DecodeError{Reason: fmt.Sprintf("unrecognized event type %q", env.Type)}
	}
}
