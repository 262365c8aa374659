// Copyright (c) 2026 OreMetrics. All rights reserved.

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oremetrics/oremetrics/internal/platform/constants"
)

// RedisAttemptRepository implements AttemptRepository using Redis.
//
// Keys expire with the attempt window, so an idle counter cleans itself up
// and a throttled user is automatically unblocked when the window lapses.
type RedisAttemptRepository struct {
	client *redis.Client
}

// NewAttemptRepository creates a new Redis-backed AttemptRepository.
func NewAttemptRepository(client *redis.Client) *RedisAttemptRepository {
	return &RedisAttemptRepository{client: client}
}

func attemptKey(userID string) string {
	return constants.RedisPrefixOTPAttempts + userID
}

// Count returns the failed-attempt count for the current window.
// A missing key reads as zero.
func (repository *RedisAttemptRepository) Count(ctx context.Context, userID string) (int64, error) {
	count, err := repository.client.Get(ctx, attemptKey(userID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("redis_attempt_count_failed: %w", err)
	}

	return count, nil
}

// Incr records one failed attempt and returns the new count.
//
// The expiry is armed on the first increment only, giving a fixed window
// measured from the first failure.
func (repository *RedisAttemptRepository) Incr(ctx context.Context, userID string, window time.Duration) (int64, error) {
	key := attemptKey(userID)

	count, err := repository.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis_attempt_incr_failed: %w", err)
	}

	if count == 1 {
		if err := repository.client.Expire(ctx, key, window).Err(); err != nil {
			return count, fmt.Errorf("redis_attempt_expire_failed: %w", err)
		}
	}

	return count, nil
}

// Reset discards the counter for the user.
func (repository *RedisAttemptRepository) Reset(ctx context.Context, userID string) error {
	if err := repository.client.Del(ctx, attemptKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis_attempt_reset_failed: %w", err)
	}

	return nil
}
