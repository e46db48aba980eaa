package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/campusportal/admission/internal/shared/config"
)

const pingTimeout = 3 * time.Second

// NewRedisClient creates the shared Redis client and verifies the connection.
// The op timeouts are kept short so a slow store turns into a fast fallback.
// The client is returned even when the ping fails; the limiter runs on its
// local store until Redis comes back.
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.GetAddr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  time.Duration(cfg.DialTimeoutMs) * time.Millisecond,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutMs) * time.Millisecond,
		WriteTimeout: time.Duration(cfg.WriteTimeoutMs) * time.Millisecond,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return client, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.GetAddr(), err)
	}
	return client, nil
}
