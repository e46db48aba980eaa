package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	domain "github.com/campusportal/admission/internal/domain/ratelimit"
)

// alertKeyPrefix is the prefix for all abuse alert cooldown keys
const alertKeyPrefix = "ratelimit:abuse_cooldown:"

// AlertDeduplicator suppresses repeated abuse alerts across instances
type AlertDeduplicator struct {
	client *redis.Client
}

// NewAlertDeduplicator creates a new AlertDeduplicator instance
func NewAlertDeduplicator(client *redis.Client) *AlertDeduplicator {
	return &AlertDeduplicator{client: client}
}

// buildKey builds the Redis key for alert deduplication
// Format: ratelimit:abuse_cooldown:<severity>:{<identifier>}:<endpoint>
func (d *AlertDeduplicator) buildKey(alert domain.AbuseAlert) string {
	return cooldownPrefix(alert.Severity, alert.Identifier) + alert.Endpoint
}

// cooldownPrefix returns the key prefix shared by every cooldown of one
// identifier at one severity. The identifier is braced so "ip:::1" never
// shares a prefix with "ip:::1:5".
func cooldownPrefix(severity domain.Severity, identifier string) string {
	return alertKeyPrefix + string(severity) + ":" + domain.QuoteSegment(identifier) + ":"
}

// TryAcquire atomically claims the cooldown slot for alert using SetNX.
// Returns true if the alert should be emitted. A non-positive ttl disables
// suppression. Severity is part of the key, so an escalation from medium to
// high is never held back by an earlier medium alert.
func (d *AlertDeduplicator) TryAcquire(ctx context.Context, alert domain.AbuseAlert, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return true, nil
	}

	acquired, err := d.client.SetNX(ctx, d.buildKey(alert), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire alert cooldown: %w", err)
	}

	return acquired, nil
}

// ClearIdentifier removes every cooldown held for identifier so the next
// overage after an admin reset alerts again.
func (d *AlertDeduplicator) ClearIdentifier(ctx context.Context, identifier string) (int, error) {
	removed := 0
	for _, severity := range []domain.Severity{domain.SeverityMedium, domain.SeverityHigh} {
		pattern := domain.EscapeGlob(cooldownPrefix(severity, identifier)) + "*"
		iter := d.client.Scan(ctx, 0, pattern, 100).Iterator()
		for iter.Next(ctx) {
			n, err := d.client.Del(ctx, iter.Val()).Result()
			if err != nil {
				return removed, fmt.Errorf("failed to clear alert cooldown: %w", err)
			}
			removed += int(n)
		}
		if err := iter.Err(); err != nil {
			return removed, fmt.Errorf("failed to scan alert cooldowns: %w", err)
		}
	}
	return removed, nil
}
