package router

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/invoicing/backend/internal/infrastructure/logger"
	"github.com/invoicing/backend/internal/interfaces/http/handler"
	"github.com/invoicing/backend/internal/interfaces/http/middleware"
)

// EngineConfig configures the middleware chain
type EngineConfig struct {
	ServiceName      string
	Production       bool
	TrustedProxies   []string
	CORS             middleware.CORSConfig
	MaxBodySize      int64
	TracingEnabled   bool
	ProfilingEnabled bool
	// RateLimiter and Meter are optional; nil disables them
	RateLimiter *middleware.RateLimiter
	Meter       metric.Meter
}

// Handlers are the HTTP endpoints of the service
type Handlers struct {
	Document    *handler.InvoiceDocumentHandler
	Config      *handler.InvoiceConfigHandler
	OrderPlaced *handler.OrderPlacedHookHandler
	Health      *handler.HealthHandler
}

// NewEngine builds the gin engine with the middleware chain and all routes
func NewEngine(cfg EngineConfig, h Handlers, log *zap.Logger) *gin.Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.ServiceName,
		Enabled:     cfg.TracingEnabled,
	}))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.TracingAttributeInjector())
	engine.Use(middleware.HTTPMetrics(cfg.Meter, log))
	if cfg.ProfilingEnabled {
		engine.Use(middleware.Profiling(middleware.DefaultProfilingConfig()))
	}
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORS(cfg.CORS))
	engine.Use(middleware.BodyLimit(cfg.MaxBodySize))
	if cfg.RateLimiter != nil {
		engine.Use(cfg.RateLimiter.Middleware())
	}

	engine.GET("/health", h.Health.Health)
	engine.NoRoute(middleware.NoRoute())

	mount(engine, APIPrefix, h.Routes())
	return engine
}
