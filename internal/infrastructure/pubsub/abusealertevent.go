package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	domain "github.com/campusportal/admission/internal/domain/ratelimit"
	"github.com/campusportal/admission/internal/shared/logger"
)

// DefaultAbuseAlertChannel carries every persisted abuse alert as JSON.
const DefaultAbuseAlertChannel = "ratelimit:abuse_alerts:events"

// AbuseAlertHandler is a callback function for handling abuse alert events
type AbuseAlertHandler func(ctx context.Context, alert domain.AbuseAlert)

// RedisAbuseAlertBus forwards abuse alerts to operators and other instances
// using Redis Pub/Sub
type RedisAbuseAlertBus struct {
	client  *redis.Client
	channel string
	logger  logger.Interface
}

// NewRedisAbuseAlertBus creates a new Redis-based abuse alert bus
func NewRedisAbuseAlertBus(client *redis.Client, channel string, logger logger.Interface) *RedisAbuseAlertBus {
	if channel == "" {
		channel = DefaultAbuseAlertChannel
	}
	return &RedisAbuseAlertBus{
		client:  client,
		channel: channel,
		logger:  logger,
	}
}

// Channel returns the channel name alerts are published on.
func (b *RedisAbuseAlertBus) Channel() string {
	return b.channel
}

// Publish sends alert to every subscriber
func (b *RedisAbuseAlertBus) Publish(ctx context.Context, alert domain.AbuseAlert) error {
	data, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal abuse alert: %w", err)
	}

	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish abuse alert: %w", err)
	}

	b.logger.Debugw("abuse alert published",
		"identifier", alert.Identifier,
		"endpoint", alert.Endpoint,
		"severity", alert.Severity,
	)
	return nil
}

// Subscribe delivers abuse alerts to handler until ctx is cancelled.
// Handlers run on the subscriber goroutine, in publish order.
func (b *RedisAbuseAlertBus) Subscribe(ctx context.Context, handler AbuseAlertHandler) error {
	pubsub := b.client.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	// Wait for subscription confirmation
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to channel: %w", err)
	}

	b.logger.Infow("subscribed to abuse alert events",
		"channel", b.channel,
	)

	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			b.logger.Infow("abuse alert subscriber stopped",
				"reason", ctx.Err(),
			)
			return ctx.Err()

		case msg, ok := <-ch:
			if !ok {
				b.logger.Warnw("abuse alert channel closed")
				return nil
			}

			var alert domain.AbuseAlert
			if err := json.Unmarshal([]byte(msg.Payload), &alert); err != nil {
				b.logger.Warnw("failed to unmarshal abuse alert",
					"payload", msg.Payload,
					"error", err,
				)
				continue
			}

			handler(ctx, alert)
		}
	}
}
