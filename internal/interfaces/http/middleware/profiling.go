package middleware

import (
	"context"
	"slices"

	"github.com/gin-gonic/gin"

	"github.com/invoicing/backend/internal/infrastructure/telemetry"
)

// ProfilingConfig holds configuration for the profiling middleware
type ProfilingConfig struct {
	Enabled bool
	// SkipPaths are served without profiling labels
	SkipPaths []string
}

// DefaultProfilingConfig skips the health endpoint
func DefaultProfilingConfig() ProfilingConfig {
	return ProfilingConfig{
		Enabled:   true,
		SkipPaths: []string{"/health"},
	}
}

// Profiling tags CPU samples taken while serving a request with its route
// and method so Pyroscope can split profiles per endpoint
func Profiling(cfg ProfilingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		if slices.Contains(cfg.SkipPaths, c.Request.URL.Path) {
			c.Next()
			return
		}
		labels := telemetry.RequestLabels(routePattern(c), c.Request.Method)
		telemetry.Profile(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}
