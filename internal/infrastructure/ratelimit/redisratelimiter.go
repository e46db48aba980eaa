package ratelimit

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	domain "github.com/campusportal/admission/internal/domain/ratelimit"
	"github.com/campusportal/admission/internal/shared/biztime"
)

const scanBatchSize = 200

// RedisStore is the distributed counter store. Each key is a sorted set of
// request records scored by epoch seconds, shared by every instance.
//
// The four commands of a check run in one MULTI/EXEC, so each check is
// internally consistent. Two instances racing on the same key may each miss
// the other's insert; the limit is soft under that kind of contention.
type RedisStore struct {
	client *redis.Client
	clock  biztime.Clock
}

type RedisStoreOption func(*RedisStore)

// WithRedisClock overrides the time source used for record scores.
func WithRedisClock(clock biztime.Clock) RedisStoreOption {
	return func(s *RedisStore) {
		s.clock = clock
	}
}

func NewRedisStore(client *redis.Client, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{client: client}
	for _, opt := range opts {
		opt(s)
	}
	s.clock = s.clock.OrDefault()
	return s
}

func (s *RedisStore) CheckAndRecord(ctx context.Context, key string, limit, windowSeconds, cost int) CheckOutcome {
	now := s.clock()
	nowScore := biztime.EpochSeconds(now)
	windowStart := nowScore - float64(windowSeconds)

	members := newRecordMembers(nowScore, cost)

	var count *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, key, "-inf", "("+formatScore(windowStart))
		pipe.ZAdd(ctx, key, members...)
		count = pipe.ZCount(ctx, key, formatScore(windowStart), formatScore(nowScore))
		pipe.Expire(ctx, key, biztime.Seconds(windowSeconds))
		return nil
	})
	if err != nil {
		return Unavailable(fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err))
	}

	return Served(domain.NewWindowResult(int(count.Val()), limit, windowSeconds, now))
}

func (s *RedisStore) ResetIdentifier(ctx context.Context, identifier domain.Identifier, endpoint string) (int, error) {
	if endpoint != "" {
		deleted, err := s.client.Del(ctx, domain.NewKey(identifier, endpoint).String()).Result()
		if err != nil {
			return 0, fmt.Errorf("%w: failed to delete key: %v", domain.ErrStoreUnavailable, err)
		}
		return int(deleted), nil
	}

	pattern := domain.IdentifierPattern(identifier)
	removed := 0

	iter := s.client.Scan(ctx, 0, pattern, scanBatchSize).Iterator()
	for iter.Next(ctx) {
		deleted, err := s.client.Del(ctx, iter.Val()).Result()
		if err != nil {
			return removed, fmt.Errorf("%w: failed to delete key %s: %v", domain.ErrStoreUnavailable, iter.Val(), err)
		}
		removed += int(deleted)
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("%w: failed to scan keys: %v", domain.ErrStoreUnavailable, err)
	}

	return removed, nil
}

// Ping reports whether the shared store answers within ctx.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// newRecordMembers builds cost records "<score>:<disambiguator>" at one score.
func newRecordMembers(score float64, cost int) []redis.Z {
	if cost < 1 {
		cost = 1
	}
	batch := uuid.NewString()
	prefix := formatScore(score) + ":" + batch
	members := make([]redis.Z, cost)
	for i := range members {
		members[i] = redis.Z{
			Score:  score,
			Member: prefix + "-" + strconv.Itoa(i),
		}
	}
	return members
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', 6, 64)
}
