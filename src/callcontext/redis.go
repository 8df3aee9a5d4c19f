package callcontext

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces context keys in a shared Redis
const DefaultRedisPrefix = "callbridge:context:"

// RedisStore keeps call context in Redis so the process that registers a
// call and the one that serves its media stream need not be the same.
type RedisStore struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewRedisStore wraps an existing client. ttl of zero stores without expiry.
func NewRedisStore(client redis.Cmdable, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(callSid string) string {
	return s.prefix + callSid
}

// Put stores issue for callSid with the store TTL
func (s *RedisStore) Put(ctx context.Context, callSid, issue string) error {
	if callSid == "" {
		return ErrEmptyCallSid
	}
	if issue == "" {
		return nil
	}
	if err := s.client.Set(ctx, s.key(callSid), issue, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store context for %s: %w", callSid, err)
	}
	return nil
}

// TakeIfPresent reads and deletes the key in one GETDEL
func (s *RedisStore) TakeIfPresent(ctx context.Context, callSid string) (string, bool, error) {
	if callSid == "" {
		return "", false, nil
	}
	issue, err := s.client.GetDel(ctx, s.key(callSid)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to take context for %s: %w", callSid, err)
	}
	return issue, true, nil
}
