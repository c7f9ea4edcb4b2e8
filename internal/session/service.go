package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	internaljwt "gameroom/internal/jwt"
	"gameroom/internal/model"
	"gameroom/utils"
)

type ErrorCode string

const (
	ErrorCodeValidation   ErrorCode = "validation_error"
	ErrorCodeUnauthorized ErrorCode = "unauthorized"
	ErrorCodeNotFound     ErrorCode = "not_found"
	ErrorCodeInternal     ErrorCode = "internal_error"
)

type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ConnectionDetails tell a client where to open the websocket for a
// room.
type ConnectionDetails struct {
	Host string `json:"host"`
	Port string `json:"port"`
	Path string `json:"path"`
}

// Service is the session layer: it issues anonymous credentials, mints
// room identifiers and resolves connection details. Room identifiers
// are opaque to everything downstream; the registry and hub treat them
// purely as routing keys.
type Service struct {
	repo  Repository
	appID string
	host  string
	port  string
	now   func() time.Time
}

func New(repo Repository, appID, host, port string) *Service {
	return &Service{
		repo:  repo,
		appID: appID,
		host:  host,
		port:  port,
		now:   time.Now,
	}
}

// NewWithClock is the test constructor.
func NewWithClock(repo Repository, appID, host, port string, now func() time.Time) *Service {
	svc := New(repo, appID, host, port)
	svc.now = now
	return svc
}

// LoginAnonymous mints a credential for a fresh anonymous player id.
func (s *Service) LoginAnonymous() (internaljwt.TokenResponse, error) {
	token, _, err := internaljwt.CreateAnonymousToken(s.appID)
	if err != nil {
		return internaljwt.TokenResponse{}, newError(ErrorCodeInternal, "Unable to issue credential", err)
	}
	return internaljwt.TokenResponse{Token: token}, nil
}

// Authorize verifies a bearer credential.
func (s *Service) Authorize(token string) (internaljwt.Identity, error) {
	identity, err := internaljwt.ParseToken(token)
	if err != nil {
		return internaljwt.Identity{}, newError(ErrorCodeUnauthorized, "Unauthorized", err)
	}
	return identity, nil
}

// IdentityFromAuthorizationHeader verifies a "Bearer <token>" header.
func (s *Service) IdentityFromAuthorizationHeader(header string) (internaljwt.Identity, error) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return internaljwt.Identity{}, newError(ErrorCodeUnauthorized, "Unauthorized", fmt.Errorf("missing bearer token"))
	}
	return s.Authorize(strings.TrimPrefix(header, prefix))
}

// CreateRoom mints a new room identifier and records it in the room
// directory. The room itself comes to life lazily, on the first
// websocket subscription.
func (s *Service) CreateRoom(ctx context.Context, identity internaljwt.Identity) (model.RoomItem, error) {
	room := model.RoomItem{
		RoomID:    utils.CreateRoomCode(),
		AppID:     s.appID,
		CreatedBy: identity.UserID,
		Host:      s.host,
		Port:      s.port,
		CreatedAt: s.now().UTC().Format(time.RFC3339),
	}
	if room.RoomID == "" {
		return model.RoomItem{}, newError(ErrorCodeInternal, "Unable to mint room id", nil)
	}
	if err := s.repo.PutRoom(ctx, room); err != nil {
		return model.RoomItem{}, newError(ErrorCodeInternal, "Unable to store room", err)
	}
	return room, nil
}

// ConnectionDetailsForRoom resolves where the websocket endpoint for a
// room lives.
func (s *Service) ConnectionDetailsForRoom(ctx context.Context, roomID string) (ConnectionDetails, error) {
	if strings.TrimSpace(roomID) == "" {
		return ConnectionDetails{}, newError(ErrorCodeValidation, "Room id required", nil)
	}
	room, err := s.repo.GetRoom(ctx, roomID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ConnectionDetails{}, newError(ErrorCodeNotFound, "Room not found", err)
		}
		return ConnectionDetails{}, newError(ErrorCodeInternal, "Unable to resolve room", err)
	}
	return ConnectionDetails{
		Host: room.Host,
		Port: room.Port,
		Path: "/api/v1/rooms/" + room.RoomID,
	}, nil
}

// RoomExists reports whether the lobby has a record for roomID.
func (s *Service) RoomExists(ctx context.Context, roomID string) (bool, error) {
	_, err := s.repo.GetRoom(ctx, roomID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
