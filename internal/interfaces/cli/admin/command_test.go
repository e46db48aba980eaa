package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/campusportal/admission/internal/application/ratelimit/dto"
	domain "github.com/campusportal/admission/internal/domain/ratelimit"
	"github.com/campusportal/admission/internal/infrastructure/cache"
	"github.com/campusportal/admission/internal/infrastructure/config"
	infraratelimit "github.com/campusportal/admission/internal/infrastructure/ratelimit"
	sharedConfig "github.com/campusportal/admission/internal/shared/config"
	"github.com/campusportal/admission/internal/shared/logger"
)

func testAlert(identifier string, severity domain.Severity) domain.AbuseAlert {
	return domain.AbuseAlert{
		Identifier: identifier,
		Endpoint:   "search",
		Requests:   16,
		Limit:      10,
		Timestamp:  time.Date(2025, 5, 4, 10, 30, 0, 0, time.UTC),
		Severity:   severity,
	}
}

func newTestRuntime(t *testing.T) (*runtime, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})

	cfg := &config.Config{
		Abuse: sharedConfig.AbuseConfig{ListCapacity: 100, TTLHours: 1, Channel: "test:alerts"},
	}
	rt := newRuntime(cfg, client, logger.NewNopLogger())
	t.Cleanup(rt.Close)
	return rt, mr
}

func TestWriteAlerts(t *testing.T) {
	resp := dto.ToAbuseAlertListResponse([]domain.AbuseAlert{
		testAlert("ip:198.51.100.7", domain.SeverityHigh),
		testAlert("user:42", domain.SeverityMedium),
	})

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeAlerts(&buf, OutputTable, resp))
		out := buf.String()
		assert.Contains(t, out, "SEVERITY")
		assert.Contains(t, out, "HIGH")
		assert.Contains(t, out, "ip:198.51.100.7")
		assert.Contains(t, out, "2025-05-04T10:30:00Z")
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeAlerts(&buf, OutputJSON, resp))

		var decoded dto.AbuseAlertListResponse
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, 2, decoded.Count)
		assert.Equal(t, "user:42", decoded.Alerts[1].Identifier)
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeAlerts(&buf, OutputYAML, resp))

		var decoded map[string]any
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, 2, decoded["count"])
	})

	t.Run("empty table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeAlerts(&buf, OutputTable, dto.ToAbuseAlertListResponse(nil)))
		assert.Equal(t, "no abuse alerts\n", buf.String())
	})

	t.Run("unknown format", func(t *testing.T) {
		err := writeAlerts(&bytes.Buffer{}, "xml", resp)
		assert.ErrorContains(t, err, "unsupported output format")
	})
}

func TestWriteClearResult(t *testing.T) {
	var buf bytes.Buffer
	err := writeClearResult(&buf, OutputTable, &dto.ClearRateLimitResult{
		Identifier:       "user:42",
		DistributedKeys:  3,
		CooldownsCleared: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, "cleared user:42 (all endpoints): 3 distributed keys, 0 local keys, 1 alert cooldowns\n", buf.String())
}

func TestRuntime_ListAndClear(t *testing.T) {
	rt, _ := newTestRuntime(t)
	ctx := context.Background()

	alerts := cache.NewAbuseAlertStore(rt.client, 100, time.Hour, logger.NewNopLogger())
	require.NoError(t, alerts.Append(ctx, testAlert("user:1", domain.SeverityMedium)))
	require.NoError(t, alerts.Append(ctx, testAlert("user:2", domain.SeverityHigh)))

	resp := rt.service.ListRecentAbuseAlerts(ctx, 10)
	require.Equal(t, 2, resp.Count)
	assert.Equal(t, "user:2", resp.Alerts[0].Identifier)

	store := infraratelimit.NewRedisStore(rt.client)
	id, err := domain.ParseIdentifier("user:1")
	require.NoError(t, err)
	for _, endpoint := range []string{"search", "export"} {
		outcome := store.CheckAndRecord(ctx, domain.NewKey(id, endpoint).String(), 10, 60, 1)
		require.NoError(t, outcome.Unavailable)
	}

	result, err := rt.service.ClearLimit(ctx, "user:1", "")
	require.NoError(t, err)
	assert.Equal(t, 2, result.DistributedKeys)
}

func TestWatchAlerts(t *testing.T) {
	rt, mr := newTestRuntime(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var buf safeBuffer
	done := make(chan error, 1)
	go func() {
		done <- watchAlerts(ctx, rt.bus, &buf, OutputJSON)
	}()

	require.Eventually(t, func() bool {
		return len(mr.PubSubChannels("")) == 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, rt.bus.Publish(context.Background(), testAlert("ip:203.0.113.5", domain.SeverityHigh)))

	require.Eventually(t, func() bool {
		return bytes.Contains(buf.Bytes(), []byte("ip:203.0.113.5"))
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop")
	}
}
