package client

import "fmt"

// ConnectionError wraps a transport or auth failure during Connect.
// The manager is back in the idle state by the time it is returned.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("client: %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// RejectionError is a server-side rejection of a join, delivered as an
// error event inside the handshake window.
type RejectionError struct {
	Reason string
}

func (e *RejectionError) Error() string {
	return "client: join rejected: " + e.Reason
}
