package ratelimit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusportal/admission/internal/application/ratelimit/usecases"
	domain "github.com/campusportal/admission/internal/domain/ratelimit"
	"github.com/campusportal/admission/internal/infrastructure/cache"
	infraratelimit "github.com/campusportal/admission/internal/infrastructure/ratelimit"
	apperrors "github.com/campusportal/admission/internal/shared/errors"
	"github.com/campusportal/admission/internal/shared/logger"
)

type adminFixture struct {
	service *AdminService
	limiter *infraratelimit.Limiter
	local   *infraratelimit.LocalStore
	alerts  *cache.AbuseAlertStore
}

func newAdminFixture(t *testing.T) (*adminFixture, func()) {
	mr, client := newTestRedis(t)
	log := logger.NewNopLogger()

	redisStore := infraratelimit.NewRedisStore(client)
	local := infraratelimit.NewLocalStore()
	alerts := cache.NewAbuseAlertStore(client, 0, 0, log)

	service := NewAdminService(
		usecases.NewListAbuseAlertsUseCase(alerts, log),
		usecases.NewClearRateLimitUseCase(redisStore, local, cache.NewAlertDeduplicator(client), log),
	)

	return &adminFixture{
		service: service,
		limiter: infraratelimit.NewLimiter(redisStore, local, log),
		local:   local,
		alerts:  alerts,
	}, mr.Close
}

func TestAdminService_ListRecentAbuseAlerts(t *testing.T) {
	f, _ := newAdminFixture(t)
	ctx := context.Background()

	for i := 0; i < 120; i++ {
		require.NoError(t, f.alerts.Append(ctx, domain.AbuseAlert{
			Identifier: fmt.Sprintf("ip:10.0.0.%d", i),
			Endpoint:   "login",
			Requests:   16,
			Limit:      10,
			Timestamp:  time.Now().UTC(),
			Severity:   domain.SeverityMedium,
		}))
	}

	resp := f.service.ListRecentAbuseAlerts(ctx, 0)
	assert.Equal(t, 100, resp.Count)
	assert.Equal(t, "ip:10.0.0.119", resp.Alerts[0].Identifier)

	resp = f.service.ListRecentAbuseAlerts(ctx, 5)
	assert.Equal(t, 5, resp.Count)
}

func TestAdminService_ListRecentAbuseAlerts_StoreDown(t *testing.T) {
	f, stopRedis := newAdminFixture(t)
	stopRedis()

	resp := f.service.ListRecentAbuseAlerts(context.Background(), 10)
	require.NotNil(t, resp)
	assert.Equal(t, 0, resp.Count)
	assert.NotNil(t, resp.Alerts)
}

func TestAdminService_ClearLimit_ThenOneRequest(t *testing.T) {
	f, _ := newAdminFixture(t)
	ctx := context.Background()
	key := "ratelimit:user:{42}:search"

	for i := 0; i < 12; i++ {
		_, err := f.limiter.CheckLimit(ctx, key, 10, 60, 1)
		require.NoError(t, err)
	}

	result, err := f.service.ClearLimit(ctx, "user:42", "")
	require.NoError(t, err)
	assert.Equal(t, "user:42", result.Identifier)
	assert.Equal(t, 1, result.DistributedKeys)

	after, err := f.limiter.CheckLimit(ctx, key, 10, 60, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, after.Current)
	assert.True(t, after.Allowed)
}

func TestAdminService_ClearLimit_SingleEndpoint(t *testing.T) {
	f, _ := newAdminFixture(t)
	ctx := context.Background()

	for _, endpoint := range []string{"search", "login"} {
		_, err := f.limiter.CheckLimit(ctx, "ratelimit:ip:{203.0.113.9}:"+endpoint, 10, 60, 1)
		require.NoError(t, err)
	}

	result, err := f.service.ClearLimit(ctx, "ip:203.0.113.9", "login")
	require.NoError(t, err)
	assert.Equal(t, 1, result.DistributedKeys)

	search, err := f.limiter.CheckLimit(ctx, "ratelimit:ip:{203.0.113.9}:search", 10, 60, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, search.Current)
}

func TestAdminService_ClearLimit_ResetsLocalStore(t *testing.T) {
	f, stopRedis := newAdminFixture(t)
	ctx := context.Background()
	key := "ratelimit:user:{7}:search"

	f.local.CheckAndRecord(ctx, key, 10, 60, 1)
	f.local.CheckAndRecord(ctx, key, 10, 60, 1)
	stopRedis()

	_, err := f.service.ClearLimit(ctx, "user:7", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	appErr := apperrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrorTypeServiceUnavailable, appErr.Type)

	assert.Equal(t, 0, f.local.Len())
}

func TestAdminService_ClearLimit_InvalidIdentifier(t *testing.T) {
	f, _ := newAdminFixture(t)

	_, err := f.service.ClearLimit(context.Background(), "42", "")
	assert.True(t, apperrors.IsValidationError(err))

	_, err = f.service.ClearLimit(context.Background(), "tenant:42", "")
	assert.True(t, apperrors.IsValidationError(err))
}
