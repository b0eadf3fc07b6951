package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Broadcaster publishes an event payload to a named room. The websocket
// edge subscribes to the room channels and forwards to connected clients;
// this service never talks to sockets directly.
type Broadcaster interface {
	EmitToRoom(ctx context.Context, room, event string, payload interface{}) error
}

type envelope struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

// RedisBroadcaster publishes room events over Redis pub/sub.
type RedisBroadcaster struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisBroadcaster constructs a broadcaster on an existing client.
func NewRedisBroadcaster(client *redis.Client, logger *zap.Logger) *RedisBroadcaster {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisBroadcaster{client: client, logger: logger}
}

// ChannelForRoom maps a room name to its pub/sub channel.
func ChannelForRoom(room string) string {
	return "room:" + room
}

// EmitToRoom marshals the payload and publishes it to the room channel.
func (b *RedisBroadcaster) EmitToRoom(ctx context.Context, room, event string, payload interface{}) error {
	body, err := json.Marshal(envelope{Event: event, Payload: payload})
	if err != nil {
		return fmt.Errorf("marshal room event: %w", err)
	}
	if err := b.client.Publish(ctx, ChannelForRoom(room), body).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", room, err)
	}
	return nil
}
