package main

import (
	"context"
	"log"
	"strconv"

	"gameroom/internal/api"
	"gameroom/internal/api/router"
	"gameroom/internal/database"
	"gameroom/internal/env"
	"gameroom/internal/game"
	internaljwt "gameroom/internal/jwt"
	"gameroom/internal/queue"
	"gameroom/internal/session"
	"gameroom/internal/websocket"
)

func main() {
	if err := env.Validate(); err != nil {
		log.Fatal(err)
	}
	internaljwt.SetSecret([]byte(env.MustGet(env.UserSecretKey)))

	port := env.GetOrDefault(env.Port, env.DefaultPort)
	host := env.GetOrDefault(env.PublicHost, "localhost")

	maxPlayers := 0
	if raw := env.Get(env.MaxPlayers); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			log.Fatalf("invalid %s: %q", env.MaxPlayers, raw)
		}
		maxPlayers = n
	}

	repo := newRoomRepository()

	registry := game.NewRegistry()
	bridge := websocket.NewBridge(env.Get(env.RedisURL), env.Get(env.RedisPass))
	hub := websocket.NewHub(registry, maxPlayers, bridge)
	go hub.Run()
	if bridge != nil {
		go bridge.Run(context.Background(), hub)
	}
	handler := websocket.NewHandler(hub)

	svc := session.New(repo, env.MustGet(env.AppID), host, port)

	queueManager := queue.NewRequestQueueManager(10, 10)
	server := api.NewAPIServer(
		":"+port,
		queueManager,
		svc,
		handler,
		router.UtilsRoutes("/api/v1"),
		router.LobbyRoutes("/api/v1"),
	)

	server.Run()
}

// newRoomRepository picks DynamoDB when AWS settings are present and
// falls back to the in-process directory otherwise, so a bare laptop
// run needs no infrastructure.
func newRoomRepository() session.Repository {
	if env.Get(env.AWSRegion) == "" {
		log.Printf("no %s configured, using in-memory room directory", env.AWSRegion)
		return session.NewMemoryRepository()
	}

	db, err := database.NewDatabase()
	if err != nil {
		log.Fatalf("db init failed: %v", err)
	}
	return session.NewDynamoRepository(db, env.Get(env.RoomsTable))
}
