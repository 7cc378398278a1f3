package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bhanuudhay/baat-cheet-backend/internal/chat/domain"
	"github.com/bhanuudhay/baat-cheet-backend/pkg/logger"

	"github.com/go-redis/redis/v8"
)

// UserChannel redis channel carrying one user's relayed events
func UserChannel(userID string) string {
	return "chat:user:" + userID
}

// PubSub cross-node event relay
type PubSub interface {
	Publish(ctx context.Context, channel string, ev domain.RelayEvent) error
	Subscribe(ctx context.Context, channel string, handler func(ev domain.RelayEvent)) error
}

// RedisPubSub definition redis pub/sub
type RedisPubSub struct {
	client *redis.Client
}

// NewRedisPubSub create RedisPubSub
func NewRedisPubSub(client *redis.Client) *RedisPubSub {
	return &RedisPubSub{client: client}
}

// Publish serializes the event and publishes it on channel
func (r *RedisPubSub) Publish(ctx context.Context, channel string, ev domain.RelayEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, channel, data).Err()
}

// Subscribe listens on channel until ctx is cancelled, calling handler for
// every decoded event
func (r *RedisPubSub) Subscribe(ctx context.Context, channel string, handler func(ev domain.RelayEvent)) error {
	sub := r.client.Subscribe(ctx, channel)
	go func() {
		ch := sub.Channel()

		for {
			select {
			case m, ok := <-ch:
				if !ok {
					return
				}

				var ev domain.RelayEvent
				if err := json.Unmarshal([]byte(m.Payload), &ev); err != nil {
					logger.Log.Errorf("relay event unmarshal error:", err)
					continue
				}
				handler(ev)
			case <-ctx.Done():
				logger.Log.Info(fmt.Sprintf("%s , sub close", channel))
				sub.Close()
				return
			}
		}
	}()
	return nil
}
