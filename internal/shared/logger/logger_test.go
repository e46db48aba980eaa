package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceHandler(t *testing.T) {
	tests := []struct {
		name             string
		level            slog.Level
		sourceLevel      slog.Level
		shouldHaveSource bool
	}{
		{"info below warn threshold", slog.LevelInfo, slog.LevelWarn, false},
		{"warn at threshold", slog.LevelWarn, slog.LevelWarn, true},
		{"error above threshold", slog.LevelError, slog.LevelWarn, true},
		{"info in debug mode", slog.LevelInfo, slog.LevelDebug, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			base := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
			log := slog.New(NewSourceHandler(base, tt.sourceLevel))

			log.Log(context.Background(), tt.level, "rate limit check")

			assert.Equal(t, tt.shouldHaveSource, strings.Contains(buf.String(), "source="), buf.String())
		})
	}
}

func TestSourceHandlerKeepsAttrsAndGroups(t *testing.T) {
	var buf bytes.Buffer
	base := slog.NewTextHandler(&buf, nil)
	log := slog.New(NewSourceHandler(base, slog.LevelError)).
		With("identifier", "ip:10.0.0.1").
		WithGroup("window")

	log.Info("checked", "current", 4)

	out := buf.String()
	assert.NotContains(t, out, "source=")
	assert.Contains(t, out, "identifier=ip:10.0.0.1")
	assert.Contains(t, out, "window.current=4")
}

func TestSourceHandlerEnabled(t *testing.T) {
	base := slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelInfo})
	handler := NewSourceHandler(base, slog.LevelError)

	assert.True(t, handler.Enabled(context.Background(), slog.LevelInfo))
	assert.False(t, handler.Enabled(context.Background(), slog.LevelDebug))
}

func TestJSONHandlerWritesStructuredRecords(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerWithSlog(slog.New(newHandler(&buf, "json", slog.LevelInfo, slog.LevelError)))

	log.Named("limiter").Warnw("distributed store unavailable", "key", "ratelimit:user:{1}:login")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "limiter", record["component"])
	assert.Equal(t, "ratelimit:user:{1}:login", record["key"])
	assert.NotContains(t, record, "source")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}
