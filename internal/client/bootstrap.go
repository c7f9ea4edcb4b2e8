package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"gameroom/internal/dto"
	"gameroom/internal/jwt"
	"gameroom/internal/protocol"
	"gameroom/internal/session"
)

// joinRejectionWindow bounds how long JoinExisting waits for the
// server to reject a join. Expiry means acceptance: this is a
// best-effort synchronous-feeling handshake over an asynchronous
// channel, and a rejection arriving after the window looks like a
// success to the caller.
var joinRejectionWindow = 500 * time.Millisecond

// SessionClient talks to the lobby HTTP API. The anonymous credential
// is obtained once and reused for every subsequent connect from the
// same client instance.
type SessionClient struct {
	baseURL string
	http    *http.Client

	mu    sync.Mutex
	token string
}

func NewSessionClient(baseURL string) *SessionClient {
	return &SessionClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Token returns the cached anonymous credential, logging in on first
// use.
func (s *SessionClient) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != "" {
		return s.token, nil
	}

	var resp jwt.TokenResponse
	if err := s.post(ctx, "/api/v1/login/anonymous", "", nil, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", fmt.Errorf("login returned empty token")
	}
	s.token = resp.Token
	return s.token, nil
}

// CreateRoom asks the lobby for a fresh room identifier. It does not
// open a connection.
func (s *SessionClient) CreateRoom(ctx context.Context) (string, error) {
	token, err := s.Token(ctx)
	if err != nil {
		return "", err
	}

	var resp dto.LobbyResponse
	if err := s.post(ctx, "/api/v1/lobbies", token, nil, &resp); err != nil {
		return "", err
	}
	if resp.RoomID == "" {
		return "", fmt.Errorf("lobby returned empty room id")
	}
	return resp.RoomID, nil
}

// ConnectionDetails resolves the websocket endpoint for a room.
func (s *SessionClient) ConnectionDetails(ctx context.Context, roomID string) (session.ConnectionDetails, error) {
	token, err := s.Token(ctx)
	if err != nil {
		return session.ConnectionDetails{}, err
	}

	var details session.ConnectionDetails
	if err := s.get(ctx, "/api/v1/rooms/"+roomID+"/connection", token, &details); err != nil {
		return session.ConnectionDetails{}, err
	}
	return details, nil
}

func (s *SessionClient) post(ctx context.Context, path, token string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, &buf)
	if err != nil {
		return err
	}
	return s.do(req, token, out)
}

func (s *SessionClient) get(ctx context.Context, path, token string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		return err
	}
	return s.do(req, token, out)
}

func (s *SessionClient) do(req *http.Request, token string, out any) error {
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: unexpected status %d", req.Method, req.URL.Path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// CreateRoom obtains a new room identifier from the session layer
// without connecting to it.
func (c *Client) CreateRoom(ctx context.Context) (string, error) {
	return c.api.CreateRoom(ctx)
}

// JoinExisting connects to roomID, announces the player under nickname
// and watches for a server-side rejection for a short bounded window.
// No rejection inside the window counts as acceptance (see
// joinRejectionWindow).
func (c *Client) JoinExisting(ctx context.Context, roomID, nickname string) error {
	nickname = strings.TrimSpace(nickname)
	roomID = strings.TrimSpace(roomID)
	if nickname == "" || roomID == "" {
		return fmt.Errorf("client: nickname and room id are required")
	}

	if err := c.Connect(ctx, roomID); err != nil {
		return err
	}

	rejected := make(chan string, 1)
	handlerID := c.AddMessageHandler(func(payload []byte) {
		ev, err := protocol.Decode(payload)
		if err != nil {
			return
		}
		if errEv, ok := ev.(protocol.ErrorEvent); ok {
			select {
			case rejected <- errEv.Error:
			default:
			}
		}
	})

	c.Send(protocol.Join{UserID: nickname})

	select {
	case reason := <-rejected:
		c.Disconnect()
		return &RejectionError{Reason: reason}
	case <-ctx.Done():
		c.Disconnect()
		return ctx.Err()
	case <-time.After(joinRejectionWindow):
		c.RemoveMessageHandler(handlerID)
		return nil
	}
}
