package reputation

import (
	"context"
	"fmt"

	"github.com/mikey/fraud-detector/internal/core"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisStore keeps each scope in a Redis set
type RedisStore struct {
	client *redis.Client
	key    string
	logger *zap.Logger
}

var _ core.ReputationStore = (*RedisStore)(nil)

// NewRedisStore connects to Redis and verifies the connection
func NewRedisStore(addr, password string, db int, prefix, scope string, logger *zap.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{
		client: client,
		key:    prefix + ":" + scope,
		logger: logger,
	}, nil
}

// Contains reports whether the key is a member of the scope set
func (s *RedisStore) Contains(ctx context.Context, key string) (bool, error) {
	ok, err := s.client.SIsMember(ctx, s.key, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to query reputation set: %w", err)
	}
	return ok, nil
}

// Add inserts the key into the scope set
func (s *RedisStore) Add(ctx context.Context, key string) error {
	if err := s.client.SAdd(ctx, s.key, key).Err(); err != nil {
		return fmt.Errorf("failed to add reputation entry: %w", err)
	}
	s.logger.Debug("Stored reputation entry", zap.String("set", s.key), zap.String("key", key))
	return nil
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}
