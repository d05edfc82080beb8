package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Bus is a pub/sub transport.
type Bus interface {
	Publish(ctx context.Context, channel string, payload []byte) error

	// Subscribe calls fn for every payload published on channel until ctx
	// is cancelled or the subscription fails.
	Subscribe(ctx context.Context, channel string, fn func(payload []byte)) error
}

// RedisBus is a Bus on Redis pub/sub.
type RedisBus struct {
	rdb *redis.Client
	log *slog.Logger
}

// NewRedisBus connects to redis and verifies connectivity.
func NewRedisBus(ctx context.Context, addr string, db int, log *slog.Logger) (*RedisBus, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis %s: %w", addr, err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &RedisBus{rdb: rdb, log: log}, nil
}

// Publish sends payload to channel.
func (b *RedisBus) Publish(ctx context.Context, channel string, payload []byte) error {
	return b.rdb.Publish(ctx, channel, payload).Err()
}

// Subscribe listens on channel and invokes fn for each message.
func (b *RedisBus) Subscribe(ctx context.Context, channel string, fn func([]byte)) error {
	pubsub := b.rdb.Subscribe(ctx, channel)
	defer pubsub.Close()

	// Wait for the subscription to be confirmed so nothing published after
	// Subscribe starts is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", channel, err)
	}
	b.log.Info("subscribed", "channel", channel)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return errors.New("subscription closed")
			}
			fn([]byte(msg.Payload))
		}
	}
}

// Close shuts down the redis connection.
func (b *RedisBus) Close() error { return b.rdb.Close() }
