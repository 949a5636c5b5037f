package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthCheck probes one dependency
type HealthCheck func(ctx context.Context) error

// HealthHandler reports service and dependency health
type HealthHandler struct {
	version  string
	checks   map[string]HealthCheck
	sessions func() int
}

// NewHealthHandler creates a health handler. sessions reports open form sessions.
func NewHealthHandler(version string, sessions func() int) *HealthHandler {
	return &HealthHandler{
		version:  version,
		checks:   make(map[string]HealthCheck),
		sessions: sessions,
	}
}

// AddCheck registers a named dependency probe
func (h *HealthHandler) AddCheck(name string, check HealthCheck) {
	h.checks[name] = check
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := gin.H{}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			deps[name] = gin.H{"status": "unhealthy", "error": err.Error()}
			continue
		}
		deps[name] = gin.H{"status": "healthy"}
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "unhealthy"
	}

	body := gin.H{
		"status":       overall,
		"version":      h.version,
		"dependencies": deps,
		"timestamp":    time.Now().Unix(),
	}
	if h.sessions != nil {
		body["open_sessions"] = h.sessions()
	}
	c.JSON(status, body)
}
