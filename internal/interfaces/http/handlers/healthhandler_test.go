package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusportal/admission/internal/interfaces/http/handlers/testutil"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

type stubBreaker string

func (s stubBreaker) State() string { return string(s) }

func TestHealthHandler_Check(t *testing.T) {
	tests := []struct {
		name       string
		pingErr    error
		breaker    string
		wantStatus string
		wantStore  string
	}{
		{"store up", nil, "closed", "ok", "up"},
		{"store down", errors.New("connection refused"), "open", "degraded", "down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHealthHandler(stubPinger{err: tt.pingErr}, stubBreaker(tt.breaker))

			c, w := testutil.NewTestContext(http.MethodGet, "/health", nil)
			handler.Check(c)

			assert.Equal(t, http.StatusOK, w.Code)
			var resp HealthResponse
			require.NoError(t, testutil.ParseResponse(w, &resp))
			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.Equal(t, tt.wantStore, resp.DistributedStore)
			assert.Equal(t, tt.breaker, resp.Breaker)
		})
	}
}
