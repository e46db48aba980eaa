package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	domain "github.com/campusportal/admission/internal/domain/ratelimit"
	"github.com/campusportal/admission/internal/shared/logger"
)

const (
	// AbuseAlertsKey is the capped list of alerts, newest first.
	AbuseAlertsKey = "ratelimit:abuse_alerts"

	DefaultAlertCapacity = 10000
	DefaultAlertTTL      = 7 * 24 * time.Hour
)

// AbuseAlertStore persists abuse alerts in a capped Redis list.
type AbuseAlertStore struct {
	client   *redis.Client
	capacity int
	ttl      time.Duration
	logger   logger.Interface
}

// NewAbuseAlertStore creates a new AbuseAlertStore instance
func NewAbuseAlertStore(client *redis.Client, capacity int, ttl time.Duration, logger logger.Interface) *AbuseAlertStore {
	if capacity <= 0 {
		capacity = DefaultAlertCapacity
	}
	if ttl <= 0 {
		ttl = DefaultAlertTTL
	}
	return &AbuseAlertStore{
		client:   client,
		capacity: capacity,
		ttl:      ttl,
		logger:   logger,
	}
}

// Append pushes alert to the head of the list, trims the list to capacity
// and refreshes its TTL in one pipeline.
func (s *AbuseAlertStore) Append(ctx context.Context, alert domain.AbuseAlert) error {
	data, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal abuse alert: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, AbuseAlertsKey, data)
		pipe.LTrim(ctx, AbuseAlertsKey, 0, int64(s.capacity-1))
		pipe.Expire(ctx, AbuseAlertsKey, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store abuse alert: %w", err)
	}

	return nil
}

// Recent returns up to n alerts, newest first. Entries that fail to decode
// are skipped.
func (s *AbuseAlertStore) Recent(ctx context.Context, n int) ([]domain.AbuseAlert, error) {
	if n <= 0 {
		return []domain.AbuseAlert{}, nil
	}

	raw, err := s.client.LRange(ctx, AbuseAlertsKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read abuse alerts: %w", err)
	}

	alerts := make([]domain.AbuseAlert, 0, len(raw))
	for _, entry := range raw {
		var alert domain.AbuseAlert
		if err := json.Unmarshal([]byte(entry), &alert); err != nil {
			s.logger.Warnw("skipping malformed abuse alert",
				"payload", entry,
				"error", err,
			)
			continue
		}
		alerts = append(alerts, alert)
	}

	return alerts, nil
}
