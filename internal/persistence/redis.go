package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/servicedesk/internal/config"
)

const redisConnectTimeout = 2 * time.Second

// Redis wraps the client shared by the workflow cache and the events channel.
type Redis struct {
	Client        *redis.Client
	EventsChannel string
	addr          string
}

// NewRedis builds the client. An unreachable server is logged, not fatal:
// workflow reads then go straight to Postgres and channel publishes fail per event.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	r := &Redis{
		Client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		EventsChannel: cfg.EventsChannel,
		addr:          cfg.Addr,
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisConnectTimeout)
	defer cancel()
	fields := []zap.Field{
		zap.String("addr", cfg.Addr),
		zap.Int("db", cfg.DB),
		zap.String("events_channel", cfg.EventsChannel),
		zap.Duration("workflow_cache_ttl", cfg.WorkflowCacheTTL()),
	}
	if err := r.Ping(ctx); err != nil {
		logger.Warn("redis unreachable", append(fields, zap.Error(err))...)
	} else {
		logger.Info("connected to redis", fields...)
	}
	return r
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity for the readiness probe.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	if err := r.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis %s: %w", r.addr, err)
	}
	return nil
}
