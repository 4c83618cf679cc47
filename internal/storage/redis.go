package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient parses redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}

// URLLock marks a (user, url) extraction as in flight so a double submit does
// not pay for two proxy calls. A nil client makes every acquire succeed.
type URLLock struct {
	client *redis.Client
	ttl    time.Duration
}

func NewURLLock(client *redis.Client, ttl time.Duration) *URLLock {
	return &URLLock{client: client, ttl: ttl}
}

func lockKey(userID, rawURL string) string {
	return "requill:extract:" + userID + ":" + HashURL(rawURL)
}

// Acquire returns false when another extraction of the same URL by the same
// user is still running.
func (l *URLLock) Acquire(ctx context.Context, userID, rawURL string) (bool, error) {
	if l == nil || l.client == nil {
		return true, nil
	}
	ok, err := l.client.SetNX(ctx, lockKey(userID, rawURL), time.Now().Unix(), l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire url lock: %w", err)
	}
	return ok, nil
}

func (l *URLLock) Release(ctx context.Context, userID, rawURL string) error {
	if l == nil || l.client == nil {
		return nil
	}
	return l.client.Del(ctx, lockKey(userID, rawURL)).Err()
}
