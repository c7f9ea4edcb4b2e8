package router

import (
	"net/http"
	"strings"

	"gameroom/internal/api"
	"gameroom/internal/api/endpoints"
	"gameroom/internal/api/middleware"
)

// LobbyRoutes mounts the session layer: anonymous login, lobby
// creation/listing and everything under /rooms/ (connection details
// and the websocket subscription).
func LobbyRoutes(prefix string) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		base := strings.TrimRight(prefix, "/")
		lobbyEndpoints := endpoints.NewLobbyEndpoints(s.Session(), s.Handler(), base)

		mux.HandleFunc(base+"/login/anonymous", s.MakeHTTPHandleFunc(lobbyEndpoints.LoginAnonymous))
		mux.HandleFunc(base+"/lobbies", s.MakeHTTPHandleFunc(lobbyEndpoints.Lobbies, middleware.ValidateSessionJWT))
		// /rooms/ serves both the Bearer-authenticated connection
		// lookup and the token-query websocket, so auth stays inside
		// the endpoint.
		mux.HandleFunc(base+"/rooms/", s.MakeHTTPHandleFunc(lobbyEndpoints.Room))
	}
}
