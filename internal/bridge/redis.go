package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Priya8975/appointment-notifier/internal/domain"
	"github.com/redis/go-redis/v9"
)

// InvalidationChannel carries every signalled scope as JSON.
const InvalidationChannel = "appointments:invalidate"

// NewRedisClient parses redisURL and verifies the server is reachable.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return client, nil
}

// CacheKeyPrefix is the prefix shared by every cached read-model in scope.
func CacheKeyPrefix(scope domain.Scope) string {
	return fmt.Sprintf("cache:appointments:%s:", scope.OfficeID)
}

// Redis invalidates cached read-models stored in Redis. It deletes every key
// under the scope's prefix and publishes the scope so other processes holding
// their own caches refetch too.
type Redis struct {
	client    *redis.Client
	logger    *slog.Logger
	batchSize int64
}

func NewRedis(client *redis.Client, logger *slog.Logger) *Redis {
	return &Redis{
		client:    client,
		logger:    logger,
		batchSize: 100,
	}
}

func (b *Redis) Signal(ctx context.Context, scope domain.Scope) error {
	pattern := CacheKeyPrefix(scope) + "*"

	var keys []string
	iter := b.client.Scan(ctx, 0, pattern, b.batchSize).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scanning cache keys: %w", err)
	}

	if len(keys) > 0 {
		if err := b.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("deleting cache keys: %w", err)
		}
	}

	msg, err := json.Marshal(scope)
	if err != nil {
		return fmt.Errorf("marshalling scope: %w", err)
	}
	if err := b.client.Publish(ctx, InvalidationChannel, msg).Err(); err != nil {
		return fmt.Errorf("publishing invalidation: %w", err)
	}

	b.logger.Debug("cache invalidated",
		"kind", scope.Kind,
		"office_id", scope.OfficeID,
		"keys_deleted", len(keys),
	)
	return nil
}
