package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/invoicing/backend/internal/infrastructure/telemetry"
)

// invoice PDFs dominate the upper buckets
var responseSizeBuckets = []float64{100, 1000, 10000, 50000, 100000, 500000, 1000000, 5000000}

type httpMetrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
	size     metric.Float64Histogram
	active   metric.Int64UpDownCounter
}

// HTTPMetrics records request count, latency and response size per route
// template. A nil meter disables it.
func HTTPMetrics(meter metric.Meter, log *zap.Logger) gin.HandlerFunc {
	if meter == nil {
		return func(c *gin.Context) { c.Next() }
	}
	if log == nil {
		log = zap.NewNop()
	}

	in := telemetry.NewInstruments(meter)
	m := &httpMetrics{
		requests: in.Counter("http_server_request_total", "Total number of HTTP requests", "{request}"),
		duration: in.Histogram("http_server_request_duration_seconds",
			"HTTP request latency in seconds", "s", telemetry.HTTPDurationBuckets),
		size: in.Histogram("http_server_response_size_bytes",
			"HTTP response body size in bytes", "By", responseSizeBuckets),
		active: in.UpDownCounter("http_server_active_requests", "In-flight HTTP requests", "{request}"),
	}
	if err := in.Err(); err != nil {
		log.Warn("HTTP metrics disabled", zap.Error(err))
		return func(c *gin.Context) { c.Next() }
	}
	return m.handle
}

func (m *httpMetrics) handle(c *gin.Context) {
	ctx := c.Request.Context()
	start := time.Now()
	m.active.Add(ctx, 1)
	defer m.active.Add(ctx, -1)

	c.Next()

	method := telemetry.AttrHTTPMethod.String(c.Request.Method)
	path := telemetry.AttrHTTPRoute.String(routePattern(c))
	route := metric.WithAttributes(method, path)
	m.requests.Add(ctx, 1, metric.WithAttributes(method, path, telemetry.AttrHTTPStatusCode.Int(c.Writer.Status())))
	m.duration.Record(ctx, time.Since(start).Seconds(), route)
	if size := c.Writer.Size(); size > 0 {
		m.size.Record(ctx, float64(size), route)
	}
}

// routePattern is the matched route template, "unknown" for 404s
func routePattern(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unknown"
}
