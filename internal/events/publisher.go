package events

import (
	"context"

	goredis "github.com/redis/go-redis/v9"
)

// ChannelPipeline carries serialized pipeline commands for completed uploads.
const ChannelPipeline = "pipeline:file:process"

// Publisher pushes a serialized message onto a named channel.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

type RedisPublisher struct {
	client *goredis.Client
}

func NewRedisPublisher(client *goredis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, channel string, payload []byte) error {
	return p.client.Publish(ctx, channel, payload).Err()
}
