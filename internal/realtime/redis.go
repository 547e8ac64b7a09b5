package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisRelay publishes events on a Redis pub/sub channel and feeds every
// frame received on that channel to the local Broadcaster, so all API
// instances subscribed to the channel reach their own clients.
type RedisRelay struct {
	client  redis.UniversalClient
	channel string
	local   Broadcaster
	log     *zap.Logger
}

func NewRedisRelay(client redis.UniversalClient, channel string, local Broadcaster, log *zap.Logger) *RedisRelay {
	return &RedisRelay{client: client, channel: channel, local: local, log: log}
}

func (r *RedisRelay) Publish(ctx context.Context, ev Event) error {
	frame, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, r.channel, frame).Err()
}

// Run subscribes to the channel and relays frames until ctx is done.
func (r *RedisRelay) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}
	r.log.Info("relaying realtime events", zap.String("channel", r.channel))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			r.local.Broadcast([]byte(msg.Payload))
		}
	}
}
