package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// StateReporter reports a circuit breaker state: closed, half-open or open.
type StateReporter interface {
	State() string
}

type HealthHandler struct {
	service string
	store   Pinger
	media   StateReporter
	log     *zap.Logger
}

// NewHealthHandler builds the /health handler. media may be nil.
func NewHealthHandler(serviceName string, store Pinger, media StateReporter, log *zap.Logger) *HealthHandler {
	return &HealthHandler{service: serviceName, store: store, media: media, log: log}
}

// HealthCheck returns server status. An unreachable store is 503; an open
// media breaker only marks the service degraded.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	body := gin.H{"status": "healthy", "service": h.service, "store": "ok"}
	if h.media != nil {
		state := h.media.State()
		body["media"] = state
		if state == "open" {
			body["status"] = "degraded"
		}
	}

	if err := h.store.Ping(ctx); err != nil {
		h.log.Error("Store health check failed", zap.Error(err))
		body["status"] = "unhealthy"
		body["store"] = "unavailable"
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}

	c.JSON(http.StatusOK, body)
}
