package events

import (
	"context"
	"fmt"

	"user-service/internal/config"
	"user-service/internal/domain/user"
	"user-service/pkg/logger"

	"github.com/go-redis/redis/v8"
)

// DefaultListKey is the Redis list user events are pushed onto.
const DefaultListKey = "events:user"

// RedisPublisher pushes events onto a Redis list. Consumers pop from the
// other end with BRPOP, so the list behaves as a FIFO queue.
type RedisPublisher struct {
	client redis.UniversalClient
	key    string
}

// NewRedisPublisher creates a publisher from the redis config section.
func NewRedisPublisher(cfg *config.RedisConfig) *RedisPublisher {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return NewRedisPublisherWithClient(rdb, cfg.ListKey)
}

// NewRedisPublisherWithClient wraps an existing client.
func NewRedisPublisherWithClient(client redis.UniversalClient, key string) *RedisPublisher {
	if key == "" {
		key = DefaultListKey
	}
	return &RedisPublisher{
		client: client,
		key:    key,
	}
}

// Publish adds the event to the Redis list
func (rp *RedisPublisher) Publish(ctx context.Context, event user.Event) error {
	data, err := encode(event)
	if err != nil {
		return err
	}

	if err := rp.client.LPush(ctx, rp.key, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue %s event for user %d: %w", event.EventType, event.UserID, err)
	}

	logger.Debug("Enqueued %s event for user %d on %s", event.EventType, event.UserID, rp.key)
	return nil
}

// Ping checks connectivity.
func (rp *RedisPublisher) Ping(ctx context.Context) error {
	return rp.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (rp *RedisPublisher) Close() error {
	return rp.client.Close()
}

var _ Publisher = (*RedisPublisher)(nil)
