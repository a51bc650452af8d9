package notice

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps notices in a Redis list per session, so several portal
// instances behind a load balancer see the same notices.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func noticeKey(sessionID string) string {
	return fmt.Sprintf("portal:notice:%s", sessionID)
}

// Push appends a notice using RPUSH and refreshes the key's TTL.
func (s *RedisStore) Push(ctx context.Context, sessionID string, n Notice) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notice: %w", err)
	}

	key := noticeKey(sessionID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, data)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to push notice to redis: %w", err)
	}
	return nil
}

// Pop reads and deletes the session's list in one transaction (LRANGE + DEL).
func (s *RedisStore) Pop(ctx context.Context, sessionID string) ([]Notice, error) {
	key := noticeKey(sessionID)

	var lrange *redis.StringSliceCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		lrange = pipe.LRange(ctx, key, 0, -1)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to pop notices from redis: %w", err)
	}

	raw, err := lrange.Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to read notices from redis: %w", err)
	}

	notices := make([]Notice, 0, len(raw))
	for _, item := range raw {
		var n Notice
		if err := json.Unmarshal([]byte(item), &n); err != nil {
			continue
		}
		notices = append(notices, n)
	}
	return notices, nil
}
