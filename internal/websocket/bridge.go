package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const bridgeChannelPrefix = "room:"

// Bridge fans broadcasts out across server nodes through redis
// pub/sub. Every node publishes its snapshots tagged with its own id
// and re-delivers snapshots published by the others, so subscribers on
// any node observe every broadcast for their room at least once.
type Bridge struct {
	client *redis.Client
	nodeID string
}

type bridgeEnvelope struct {
	Node string          `json:"node"`
	Data json.RawMessage `json:"data"`
}

// NewBridge connects to redis. addr empty means the bridge is disabled
// and the caller should pass a nil bridge to the hub.
func NewBridge(addr, password string) *Bridge {
	if addr == "" {
		return nil
	}
	return &Bridge{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       0,
		}),
		nodeID: uuid.NewString(),
	}
}

// Publish sends a broadcast payload to the room's channel for the
// other nodes to pick up.
func (b *Bridge) Publish(roomID string, payload []byte) error {
	if roomID == "" {
		return fmt.Errorf("bridge publish: roomID required")
	}

	env, err := json.Marshal(bridgeEnvelope{Node: b.nodeID, Data: payload})
	if err != nil {
		return fmt.Errorf("bridge publish: marshal envelope: %w", err)
	}

	if err := b.client.Publish(context.Background(), bridgeChannelPrefix+roomID, env).Err(); err != nil {
		return fmt.Errorf("bridge publish: redis publish: %w", err)
	}
	return nil
}

// Run subscribes to every room channel and forwards snapshots from
// other nodes into the hub loop. Blocks until ctx is cancelled.
func (b *Bridge) Run(ctx context.Context, hub *Hub) {
	sub := b.client.PSubscribe(ctx, bridgeChannelPrefix+"*")
	defer sub.Close()

	log.Printf("bridge: node %s subscribed to %s*", b.nodeID, bridgeChannelPrefix)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env bridgeEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				log.Printf("bridge: drop malformed envelope on %s: %v", msg.Channel, err)
				continue
			}
			if env.Node == b.nodeID {
				// Our own publish coming back around.
				continue
			}
			roomID := strings.TrimPrefix(msg.Channel, bridgeChannelPrefix)
			hub.remote <- remoteBroadcast{roomID: roomID, payload: env.Data}
		}
	}
}
