package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/tesseract-hub/sales-analytics-service/internal/realtime"
)

// Pinger checks a backing store
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check requests
type HealthHandler struct {
	db      Pinger
	hub     *realtime.Hub
	started time.Time
	logger  *logrus.Logger
}

// NewHealthHandler creates a new health handler. hub may be nil.
func NewHealthHandler(db Pinger, hub *realtime.Hub, logger *logrus.Logger) *HealthHandler {
	return &HealthHandler{
		db:      db,
		hub:     hub,
		started: time.Now(),
		logger:  logger,
	}
}

// Health reports liveness together with store reachability
// GET /api/health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	now := time.Now()
	if err := h.db.Ping(ctx); err != nil {
		h.logger.WithError(err).Warn("Health check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "ERROR",
			"timestamp": now.UTC(),
			"error":     "Database unavailable",
		})
		return
	}

	body := gin.H{
		"status":    "OK",
		"timestamp": now.UTC(),
		"uptime":    now.Sub(h.started).Seconds(),
	}
	if h.hub != nil {
		body["realtime"] = h.hub.Stats()
	}
	c.JSON(http.StatusOK, body)
}
