package events

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/servicedesk/internal/domain"
)

// RedisPublisher fans domain events out on a Redis pub/sub channel.
type RedisPublisher struct {
	client  *redis.Client
	channel string
	source  string
}

// NewRedisPublisher creates a publisher for channel.
func NewRedisPublisher(client *redis.Client, channel, source string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel, source: source}
}

// Handle is an EventHandler.
func (p *RedisPublisher) Handle(ctx context.Context, event domain.DomainEvent) error {
	if p == nil || p.client == nil {
		return nil
	}
	data, err := NewEnvelope(p.source, event).Encode()
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", p.channel, err)
	}
	return nil
}
