package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/crashlens/crashlens-core/pkg/logger"
	"github.com/crashlens/crashlens-core/pkg/streams"
)

// ReadyChecker reports whether the document store can serve requests.
type ReadyChecker interface {
	Ready(ctx context.Context) error
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	client streams.Client
	store  ReadyChecker
	logger logger.Logger
}

func NewHealthHandler(client streams.Client, store ReadyChecker, log logger.Logger) *HealthHandler {
	return &HealthHandler{client: client, store: store, logger: log}
}

// HealthCheck handles GET /health. Always healthy while the process runs.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "crashlens-core",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// ReadinessCheck handles GET /ready: both the stream transport and the
// document store must answer.
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	checks := gin.H{"streams": "ok", "store": "ok"}
	ready := true

	if err := h.client.HealthCheck(ctx); err != nil {
		h.logger.Warn("Streams readiness check failed", "error", err)
		checks["streams"] = err.Error()
		ready = false
	}
	if err := h.store.Ready(ctx); err != nil {
		h.logger.Warn("Store readiness check failed", "error", err)
		checks["store"] = err.Error()
		ready = false
	}

	status := http.StatusOK
	state := "ready"
	if !ready {
		status = http.StatusServiceUnavailable
		state = "not ready"
	}
	c.JSON(status, gin.H{"status": state, "checks": checks})
}
