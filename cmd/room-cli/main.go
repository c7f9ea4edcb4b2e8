package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"gameroom/internal/client"
	"gameroom/internal/protocol"
)

// room-cli drives the client SDK from a terminal: create a room, join
// it under a nickname and print every state broadcast until
// interrupted.
func main() {
	var (
		server   = flag.String("server", "http://localhost:4000", "lobby API base URL")
		roomID   = flag.String("room", "", "room id to join; empty creates a new room")
		nickname = flag.String("nick", "", "player nickname (required)")
	)
	flag.Parse()

	if *nickname == "" {
		fmt.Fprintln(os.Stderr, "usage: room-cli -nick NAME [-room ROOMID] [-server URL]")
		os.Exit(2)
	}

	ctx := context.Background()
	c := client.New(*server)
	defer c.Disconnect()

	target := *roomID
	if target == "" {
		created, err := c.CreateRoom(ctx)
		if err != nil {
			log.Fatalf("create room: %v", err)
		}
		fmt.Printf("created room %s\n", created)
		target = created
	}

	if err := c.JoinExisting(ctx, target, *nickname); err != nil {
		log.Fatalf("join room %s: %v", target, err)
	}
	fmt.Printf("joined room %s as %s\n", target, *nickname)

	// Handlers registered before a connect are cleared by the connect
	// itself, so the watcher goes in after the join handshake.
	c.AddMessageHandler(func(payload []byte) {
		ev, err := protocol.Decode(payload)
		if err != nil {
			log.Printf("dropping undecodable message: %v", err)
			return
		}
		switch e := ev.(type) {
		case protocol.GameState:
			fmt.Printf("room %s players:", target)
			for id := range e.State.Players {
				fmt.Printf(" %s", id)
			}
			fmt.Println()
		case protocol.ErrorEvent:
			fmt.Printf("server error: %s\n", e.Error)
		}
	})

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	c.Send(protocol.Leave{})
	fmt.Println("left room")
}
