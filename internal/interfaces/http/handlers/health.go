package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthCheck probes one backing service
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthHandler serves liveness and readiness probes
type HealthHandler struct {
	checks      []HealthCheck
	version     string
	environment string
	started     time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version, environment string, checks ...HealthCheck) *HealthHandler {
	return &HealthHandler{
		checks:      checks,
		version:     version,
		environment: environment,
		started:     time.Now(),
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	services := make(gin.H, len(h.checks))
	for _, check := range h.checks {
		if err := check.Check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			services[check.Name] = "unhealthy"
			continue
		}
		services[check.Name] = "healthy"
	}

	body := gin.H{
		"status":      "healthy",
		"timestamp":   time.Now().UTC(),
		"version":     h.version,
		"environment": h.environment,
		"services":    services,
	}
	if status != http.StatusOK {
		body["status"] = "unhealthy"
	}
	c.JSON(status, body)
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(h.started).Round(time.Second).String(),
	})
}
