package ticket

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Redis key prefix for daily ticket sequences.
	sequenceKeyPrefix = "ticket:seq:"

	// Daily sequence keys are kept well past their day so a restart after
	// midnight cannot reissue numbers for an ongoing backfill.
	sequenceKeyTTL = 72 * time.Hour
)

// RedisSequencer is a Redis-backed daily sequence. INCR is atomic, so
// concurrent allocations each get a distinct number. This is the
// production-recommended implementation when multiple instances share the
// queue.
type RedisSequencer struct {
	client *redis.Client
}

func NewRedisSequencer(client *redis.Client) *RedisSequencer {
	return &RedisSequencer{client: client}
}

func (s *RedisSequencer) Next(ctx context.Context, day time.Time) (int64, error) {
	key := sequenceKeyPrefix + DayKey(day)
	n, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("incr ticket sequence %s: %w", key, err)
	}
	// Set the TTL on first allocation of the day; ignore result, the key
	// already carries a TTL on subsequent calls.
	if n == 1 {
		if err := s.client.Expire(ctx, key, sequenceKeyTTL).Err(); err != nil {
			return 0, fmt.Errorf("expire ticket sequence %s: %w", key, err)
		}
	}
	return n, nil
}
