package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps flags as Redis keys under a namespace prefix.
// ttl bounds how long an abandoned session lingers; 0 means no expiry.
type RedisStore struct {
	rdb       *redis.Client
	namespace string
	ttl       time.Duration
}

// NewRedisStore creates a store; namespace separates sessions sharing one Redis.
func NewRedisStore(rdb *redis.Client, namespace string, ttl time.Duration) *RedisStore {
	if namespace == "" {
		namespace = "moments"
	}
	return &RedisStore{rdb: rdb, namespace: namespace, ttl: ttl}
}

func (s *RedisStore) key(flag Flag, contentID string) string {
	return s.namespace + ":session:" + Key(flag, contentID)
}

func (s *RedisStore) Get(ctx context.Context, contentID string, flag Flag) (bool, error) {
	n, err := s.rdb.Exists(ctx, s.key(flag, contentID)).Result()
	if err != nil {
		return false, fmt.Errorf("session: redis exists: %w", err)
	}
	return n > 0, nil
}

func (s *RedisStore) Set(ctx context.Context, contentID string, flag Flag) error {
	if err := s.rdb.Set(ctx, s.key(flag, contentID), "1", s.ttl).Err(); err != nil {
		return fmt.Errorf("session: redis set: %w", err)
	}
	return nil
}

// Reset deletes every key in the namespace using SCAN so large sessions do not block Redis.
func (s *RedisStore) Reset(ctx context.Context) error {
	pattern := s.namespace + ":session:*"
	var cursor uint64
	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return fmt.Errorf("session: redis scan: %w", err)
		}
		if len(keys) > 0 {
			if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("session: redis del: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}
