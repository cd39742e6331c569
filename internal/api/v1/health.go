package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/flexisub/flexisub/internal/logger"
	"github.com/gin-gonic/gin"
)

const healthCheckTimeout = 2 * time.Second

// DatabasePinger is satisfied by *postgres.DB
type DatabasePinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db     DatabasePinger
	logger *logger.Logger
}

// NewHealthHandler reports liveness and, when db is set, database reachability
func NewHealthHandler(db DatabasePinger, logger *logger.Logger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		logger: logger,
	}
}

// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	if h.db == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		h.logger.Warnw("health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "unavailable",
			"database": "down",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"database": "up",
	})
}
