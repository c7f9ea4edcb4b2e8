package client

import (
	"context"
	"log"
	"net"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"

	"gameroom/internal/protocol"
)

// ConnState tracks the lifecycle of the single logical connection a
// Client owns.
type ConnState int

const (
	StateIdle ConnState = iota
	StateConnecting
	StateOpen
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// MessageHandler receives every raw inbound payload. Handlers run
// synchronously on the read goroutine in arrival order, so they must
// not block indefinitely.
type MessageHandler func(payload []byte)

// HandlerID identifies a registered handler for removal.
type HandlerID int

type handlerReg struct {
	id HandlerID
	fn MessageHandler
}

// Client owns at most one live connection to one room. Establishing a
// new connection tears down any prior one first; concurrent Connect
// calls serialize.
type Client struct {
	api    *SessionClient
	dialer *websocket.Dialer

	// connectMu serializes Connect/Disconnect sequences end to end;
	// mu guards the mutable fields below.
	connectMu sync.Mutex
	mu        sync.Mutex
	state     ConnState
	conn      *websocket.Conn
	handlers  []handlerReg
	nextID    HandlerID
	// generation invalidates whatever was in flight when it bumps: a
	// dial that resolves late finds itself outdated and is discarded.
	generation int
}

// New builds a client against the lobby API at baseURL
// (e.g. "http://localhost:4000").
func New(baseURL string) *Client {
	return &Client{
		api:    NewSessionClient(baseURL),
		dialer: websocket.DefaultDialer,
		state:  StateIdle,
	}
}

func (c *Client) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Client) IsConnected() bool {
	return c.State() == StateOpen
}

// Connect establishes the websocket for roomID: acquire the (cached)
// credential, resolve connection details, dial, and start the read
// loop. Any failure returns a *ConnectionError with the manager back
// at idle, never half-open.
func (c *Client) Connect(ctx context.Context, roomID string) error {
	c.connectMu.Lock()
	defer c.connectMu.Unlock()

	c.teardown(StateIdle)

	c.mu.Lock()
	c.state = StateConnecting
	c.generation++
	gen := c.generation
	c.mu.Unlock()

	fail := func(op string, err error) error {
		c.mu.Lock()
		if c.generation == gen {
			c.state = StateIdle
		}
		c.mu.Unlock()
		return &ConnectionError{Op: op, Err: err}
	}

	token, err := c.api.Token(ctx)
	if err != nil {
		return fail("acquire credential", err)
	}

	details, err := c.api.ConnectionDetails(ctx, roomID)
	if err != nil {
		return fail("resolve connection details", err)
	}

	wsURL := url.URL{
		Scheme:   "ws",
		Host:     net.JoinHostPort(details.Host, details.Port),
		Path:     details.Path,
		RawQuery: url.Values{"token": {token}}.Encode(),
	}

	conn, resp, err := c.dialer.DialContext(ctx, wsURL.String(), nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return fail("dial "+wsURL.Host, err)
	}

	c.mu.Lock()
	if c.generation != gen {
		// Disconnect raced the dial; the late success is discarded and
		// the manager stays wherever Disconnect left it.
		c.mu.Unlock()
		conn.Close()
		return &ConnectionError{Op: "connect", Err: context.Canceled}
	}
	c.conn = conn
	c.state = StateOpen
	c.mu.Unlock()

	go c.readLoop(conn, gen)
	return nil
}

// Send encodes and writes an event. When no connection is open this is
// a logged no-op: UI call sites stay simple and never handle transport
// errors.
func (c *Client) Send(ev protocol.Event) {
	payload, err := protocol.Encode(ev)
	if err != nil {
		log.Printf("client: dropping unencodable %s event: %v", ev.EventType(), err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateOpen || c.conn == nil {
		log.Printf("client: no active connection, dropping %s event", ev.EventType())
		return
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		log.Printf("client: write %s event: %v", ev.EventType(), err)
	}
}

// AddMessageHandler registers a handler for inbound payloads and
// returns its id for removal.
func (c *Client) AddMessageHandler(h MessageHandler) HandlerID {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	id := c.nextID
	// Copy-on-write: dispatch iterates whatever slice it snapshotted,
	// so registration during dispatch never invalidates iteration.
	handlers := make([]handlerReg, len(c.handlers), len(c.handlers)+1)
	copy(handlers, c.handlers)
	c.handlers = append(handlers, handlerReg{id: id, fn: h})
	return id
}

func (c *Client) RemoveMessageHandler(id HandlerID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	handlers := make([]handlerReg, 0, len(c.handlers))
	for _, reg := range c.handlers {
		if reg.id != id {
			handlers = append(handlers, reg)
		}
	}
	c.handlers = handlers
}

// Disconnect is idempotent: it closes the transport, clears handler
// registrations and returns the manager to idle. A transport-initiated
// close runs the same path.
func (c *Client) Disconnect() {
	c.teardown(StateIdle)
}

func (c *Client) teardown(final ConnState) {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.handlers = nil
	c.state = final
	c.generation++
	c.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
}

func (c *Client) readLoop(conn *websocket.Conn, gen int) {
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			stale := c.generation != gen
			c.mu.Unlock()
			if !stale {
				c.teardown(StateClosed)
			}
			return
		}
		c.dispatch(payload)
	}
}

// dispatch runs each registered handler against an immutable snapshot
// of the handler list. A panicking handler is isolated so the others
// still run and the loop survives.
func (c *Client) dispatch(payload []byte) {
	c.mu.Lock()
	handlers := c.handlers
	c.mu.Unlock()

	for _, reg := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("client: message handler panic: %v", r)
				}
			}()
			reg.fn(payload)
		}()
	}
}
