package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const healthPingTimeout = 500 * time.Millisecond

// StorePinger reports whether the shared counter store answers.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// BreakerStater exposes the shared store's circuit breaker state.
type BreakerStater interface {
	State() string
}

type HealthHandler struct {
	store   StorePinger
	breaker BreakerStater
}

func NewHealthHandler(store StorePinger, breaker BreakerStater) *HealthHandler {
	return &HealthHandler{
		store:   store,
		breaker: breaker,
	}
}

type HealthResponse struct {
	Status           string `json:"status"`
	DistributedStore string `json:"distributed_store"`
	Breaker          string `json:"breaker"`
}

// Check handles GET /health. The service keeps admitting traffic on its
// local store while the shared store is down, so that case is reported as
// degraded with a 200.
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthPingTimeout)
	defer cancel()

	resp := HealthResponse{
		Status:           "ok",
		DistributedStore: "up",
		Breaker:          h.breaker.State(),
	}
	if err := h.store.Ping(ctx); err != nil {
		resp.Status = "degraded"
		resp.DistributedStore = "down"
	}

	c.JSON(http.StatusOK, resp)
}
