package endpoints

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gameroom/internal/dto"
	"gameroom/internal/session"
	"gameroom/internal/websocket"
)

type LobbyEndpoints interface {
	LoginAnonymous(http.ResponseWriter, *http.Request) error
	Lobbies(http.ResponseWriter, *http.Request) error
	Room(http.ResponseWriter, *http.Request) error
}

type LobbyPaths struct {
	LoginPath   string
	LobbiesPath string
	RoomPrefix  string
}

type lobbyEndpoints struct {
	service *session.Service
	handler *websocket.Handler
	paths   LobbyPaths
}

func NewLobbyEndpoints(service *session.Service, handler *websocket.Handler, prefix string) LobbyEndpoints {
	base := strings.TrimRight(prefix, "/")
	return NewLobbyEndpointsWithPaths(service, handler, LobbyPaths{
		LoginPath:   base + "/login/anonymous",
		LobbiesPath: base + "/lobbies",
		RoomPrefix:  base + "/rooms/",
	})
}

func NewLobbyEndpointsWithPaths(service *session.Service, handler *websocket.Handler, paths LobbyPaths) LobbyEndpoints {
	return &lobbyEndpoints{
		service: service,
		handler: handler,
		paths:   paths,
	}
}

func (h *lobbyEndpoints) LoginAnonymous(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodPost: h.handleLoginAnonymous,
	})
}

func (h *lobbyEndpoints) Lobbies(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodPost: h.handleCreateLobby,
		http.MethodGet:  h.handleListLobbies,
	})
}

// Room serves everything under the room prefix: the connection-details
// lookup and the websocket subscription itself.
func (h *lobbyEndpoints) Room(w http.ResponseWriter, r *http.Request) error {
	rest := strings.TrimPrefix(r.URL.Path, h.paths.RoomPrefix)
	if rest == r.URL.Path {
		return &HTTPError{
			StatusCode: http.StatusNotFound,
			Message:    "Not found",
			ErrorLog:   fmt.Errorf("room path %q outside prefix %q", r.URL.Path, h.paths.RoomPrefix),
		}
	}
	rest = strings.Trim(rest, "/")

	if roomID, ok := strings.CutSuffix(rest, "/connection"); ok {
		return h.handleConnectionDetails(w, r, strings.Trim(roomID, "/"))
	}
	return h.handleWebsocket(w, r, rest)
}

func (h *lobbyEndpoints) handleLoginAnonymous(w http.ResponseWriter, r *http.Request) error {
	resp, err := h.service.LoginAnonymous()
	if err != nil {
		return h.serviceError(err)
	}
	return WriteJSON(w, http.StatusOK, resp)
}

func (h *lobbyEndpoints) handleCreateLobby(w http.ResponseWriter, r *http.Request) error {
	identity, err := h.service.IdentityFromAuthorizationHeader(r.Header.Get("Authorization"))
	if err != nil {
		return h.serviceError(err)
	}

	room, err := h.service.CreateRoom(r.Context(), identity)
	if err != nil {
		return h.serviceError(err)
	}
	return WriteJSON(w, http.StatusCreated, dto.LobbyResponse{RoomID: room.RoomID})
}

func (h *lobbyEndpoints) handleListLobbies(w http.ResponseWriter, r *http.Request) error {
	if _, err := h.service.IdentityFromAuthorizationHeader(r.Header.Get("Authorization")); err != nil {
		return h.serviceError(err)
	}

	rooms := make([]dto.RoomSummary, 0)
	if h.handler != nil {
		for _, room := range h.handler.Rooms() {
			rooms = append(rooms, dto.RoomSummary{RoomID: room.ID, Players: room.Players})
		}
	}
	return WriteJSON(w, http.StatusOK, rooms)
}

func (h *lobbyEndpoints) handleConnectionDetails(w http.ResponseWriter, r *http.Request, roomID string) error {
	if r.Method != http.MethodGet {
		return &HTTPError{
			StatusCode: http.StatusMethodNotAllowed,
			Message:    "Method not allowed.",
			ErrorLog:   fmt.Errorf("method %s on connection details", r.Method),
		}
	}
	if _, err := h.service.IdentityFromAuthorizationHeader(r.Header.Get("Authorization")); err != nil {
		return h.serviceError(err)
	}

	details, err := h.service.ConnectionDetailsForRoom(r.Context(), roomID)
	if err != nil {
		return h.serviceError(err)
	}
	return WriteJSON(w, http.StatusOK, details)
}

// handleWebsocket authenticates via the token query parameter since
// browsers cannot set headers on websocket requests, then hands the
// connection to the hub.
func (h *lobbyEndpoints) handleWebsocket(w http.ResponseWriter, r *http.Request, roomID string) error {
	if roomID == "" {
		return &HTTPError{
			StatusCode: http.StatusNotFound,
			Message:    "Room not found",
			ErrorLog:   fmt.Errorf("websocket room id missing"),
		}
	}

	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		return &HTTPError{
			StatusCode: http.StatusUnauthorized,
			Message:    "Missing token",
			ErrorLog:   fmt.Errorf("websocket missing token"),
		}
	}

	identity, err := h.service.Authorize(token)
	if err != nil {
		return h.serviceError(err)
	}

	if h.handler == nil {
		return &HTTPError{
			StatusCode: http.StatusServiceUnavailable,
			Message:    "Websocket not available",
			ErrorLog:   fmt.Errorf("websocket handler missing"),
		}
	}

	if err := h.handler.Subscribe(w, r, roomID, identity.UserID); err != nil {
		// Upgrade already answered the request.
		return nil
	}
	return nil
}

func (h *lobbyEndpoints) serviceError(err error) error {
	var svcErr *session.Error
	if !errors.As(err, &svcErr) {
		return &HTTPError{
			StatusCode: http.StatusInternalServerError,
			Message:    "Internal server error",
			ErrorLog:   err,
		}
	}

	status := http.StatusInternalServerError
	switch svcErr.Code {
	case session.ErrorCodeValidation:
		status = http.StatusBadRequest
	case session.ErrorCodeUnauthorized:
		status = http.StatusUnauthorized
	case session.ErrorCodeNotFound:
		status = http.StatusNotFound
	}

	return &HTTPError{
		StatusCode: status,
		Message:    svcErr.Message,
		ErrorLog:   err,
	}
}
