package redis

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
)

// ExpirySubscriber listens for key-expiry notifications on the session
// shadow keys. Redis delivers these at-least-once and only best-effort, so
// consumers must tolerate duplicates and absorb them idempotently.
type ExpirySubscriber struct {
	client *goredis.Client
	db     int
}

// NewExpirySubscriber creates a new expiry subscriber
func NewExpirySubscriber(client *goredis.Client, db int) *ExpirySubscriber {
	return &ExpirySubscriber{client: client, db: db}
}

// Subscribe blocks, invoking handler with the raw expired key. Returns when
// the context is cancelled or the connection drops.
func (s *ExpirySubscriber) Subscribe(ctx context.Context, handler func(key string)) error {
	// Best effort; the server may already be configured or may forbid CONFIG.
	_ = s.client.ConfigSet(ctx, "notify-keyspace-events", "Ex").Err()

	channel := fmt.Sprintf("__keyevent@%d__:expired", s.db)
	sub := s.client.PSubscribe(ctx, channel)
	defer sub.Close()

	for {
		msg, err := sub.ReceiveMessage(ctx)
		if err != nil {
			return err
		}
		handler(msg.Payload)
	}
}
