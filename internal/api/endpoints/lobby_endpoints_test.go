package endpoints

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"gameroom/internal/api"
	"gameroom/internal/dto"
	internaljwt "gameroom/internal/jwt"
	"gameroom/internal/queue"
	"gameroom/internal/session"
)

var listenAddrSeq int64

// nextListenAddr hands every test server its own address so the
// metric collectors, which carry the address as a const label, do not
// collide on the default registerer.
func nextListenAddr() string {
	return fmt.Sprintf(":%d", 42000+atomic.AddInt64(&listenAddrSeq, 1))
}

func fixedTime() time.Time {
	return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

func setupTestJWT(t *testing.T) {
	t.Helper()
	internaljwt.SetSecret([]byte("test-secret"))
}

func setupLobbyHandler(t *testing.T, svc *session.Service) (http.Handler, func()) {
	t.Helper()

	lobbyEndpoints := NewLobbyEndpoints(svc, nil, "/api/v1")

	queueManager := queue.NewRequestQueueManager(10, 1)

	server := api.NewAPIServer(nextListenAddr(), queueManager, svc, nil)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/login/anonymous", server.MakeHTTPHandleFunc(lobbyEndpoints.LoginAnonymous))
	mux.HandleFunc("/api/v1/lobbies", server.MakeHTTPHandleFunc(lobbyEndpoints.Lobbies))
	mux.HandleFunc("/api/v1/rooms/", server.MakeHTTPHandleFunc(lobbyEndpoints.Room))

	return mux, func() {
		queueManager.Shutdown()
	}
}

func newLobbyService() *session.Service {
	return session.NewWithClock(session.NewMemoryRepository(), "test-app", "localhost", "4000", fixedTime)
}

func doJSONRequest[T any](t *testing.T, handler http.Handler, method, target string, body interface{}, headers map[string]string, expectedStatus int) T {
	t.Helper()

	var payload io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		payload = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, target, payload)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != expectedStatus {
		t.Fatalf("expected status %d, got %d: %s", expectedStatus, rec.Code, rec.Body.String())
	}

	var result T
	if expectedStatus != http.StatusNoContent {
		if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}

	return result
}

func TestLobbyEndpointsEndToEnd(t *testing.T) {
	setupTestJWT(t)
	service := newLobbyService()

	handler, cleanup := setupLobbyHandler(t, service)
	defer cleanup()

	loginResp := doJSONRequest[internaljwt.TokenResponse](t, handler, http.MethodPost, "/api/v1/login/anonymous", nil, nil, http.StatusOK)

	if loginResp.Token == "" {
		t.Fatal("expected token in login response")
	}

	authHeaders := map[string]string{
		"Authorization": "Bearer " + loginResp.Token,
	}

	lobbyResp := doJSONRequest[dto.LobbyResponse](t, handler, http.MethodPost, "/api/v1/lobbies", nil, authHeaders, http.StatusCreated)

	if len(lobbyResp.RoomID) != 11 {
		t.Fatalf("expected 11 character room id, got %q", lobbyResp.RoomID)
	}

	details := doJSONRequest[session.ConnectionDetails](t, handler, http.MethodGet, "/api/v1/rooms/"+lobbyResp.RoomID+"/connection", nil, authHeaders, http.StatusOK)

	if details.Host != "localhost" || details.Port != "4000" {
		t.Fatalf("unexpected connection details: %#v", details)
	}

	if details.Path != "/api/v1/rooms/"+lobbyResp.RoomID {
		t.Fatalf("unexpected websocket path %q", details.Path)
	}

	rooms := doJSONRequest[[]dto.RoomSummary](t, handler, http.MethodGet, "/api/v1/lobbies", nil, authHeaders, http.StatusOK)

	// Lobby listing reflects live subscribers, and no websocket has
	// connected here.
	if len(rooms) != 0 {
		t.Fatalf("expected no active rooms, got %#v", rooms)
	}
}

func TestLobbyCreationRequiresCredential(t *testing.T) {
	setupTestJWT(t)
	service := newLobbyService()

	handler, cleanup := setupLobbyHandler(t, service)
	defer cleanup()

	doJSONRequest[map[string]interface{}](t, handler, http.MethodPost, "/api/v1/lobbies", nil, nil, http.StatusUnauthorized)

	badHeaders := map[string]string{
		"Authorization": "Bearer not-a-token",
	}
	doJSONRequest[map[string]interface{}](t, handler, http.MethodPost, "/api/v1/lobbies", nil, badHeaders, http.StatusUnauthorized)
}

func TestConnectionDetailsUnknownRoom(t *testing.T) {
	setupTestJWT(t)
	service := newLobbyService()

	handler, cleanup := setupLobbyHandler(t, service)
	defer cleanup()

	loginResp := doJSONRequest[internaljwt.TokenResponse](t, handler, http.MethodPost, "/api/v1/login/anonymous", nil, nil, http.StatusOK)

	authHeaders := map[string]string{
		"Authorization": "Bearer " + loginResp.Token,
	}

	doJSONRequest[map[string]interface{}](t, handler, http.MethodGet, "/api/v1/rooms/NO-SUCH-ROOM/connection", nil, authHeaders, http.StatusNotFound)
}

func TestWebsocketPathRequiresToken(t *testing.T) {
	setupTestJWT(t)
	service := newLobbyService()

	handler, cleanup := setupLobbyHandler(t, service)
	defer cleanup()

	doJSONRequest[map[string]interface{}](t, handler, http.MethodGet, "/api/v1/rooms/SOMEROOMID1", nil, nil, http.StatusUnauthorized)

	doJSONRequest[map[string]interface{}](t, handler, http.MethodGet, "/api/v1/rooms/SOMEROOMID1?token=garbage", nil, nil, http.StatusUnauthorized)
}

func TestLobbiesRejectsUnknownMethod(t *testing.T) {
	setupTestJWT(t)
	service := newLobbyService()

	handler, cleanup := setupLobbyHandler(t, service)
	defer cleanup()

	doJSONRequest[map[string]interface{}](t, handler, http.MethodDelete, "/api/v1/lobbies", nil, nil, http.StatusMethodNotAllowed)
}
