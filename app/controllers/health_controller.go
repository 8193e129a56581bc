package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/kleptokart/kleptokart/pkg/ctx"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthController struct {
	db Pinger
}

func NewHealthController(db Pinger) *HealthController {
	return &HealthController{db: db}
}

// Health handles GET /health. It never touches the database.
func (h *HealthController) Health(c *ctx.Context) {
	c.Success(map[string]string{"status": "ok"})
}

// Ready handles GET /ready: 200 while the database answers, 503 otherwise.
func (h *HealthController) Ready(c *ctx.Context) {
	pingCtx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(pingCtx); err != nil {
		c.Logger().Warn("readiness check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"error":  "database unavailable",
		})
		return
	}
	c.Success(map[string]string{"status": "ready"})
}
