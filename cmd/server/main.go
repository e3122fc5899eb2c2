package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	invoiceapp "github.com/invoicing/backend/internal/application/invoice"
	"github.com/invoicing/backend/internal/domain/shared"
	"github.com/invoicing/backend/internal/infrastructure/cache"
	"github.com/invoicing/backend/internal/infrastructure/config"
	"github.com/invoicing/backend/internal/infrastructure/logger"
	"github.com/invoicing/backend/internal/infrastructure/persistence"
	"github.com/invoicing/backend/internal/infrastructure/printing"
	"github.com/invoicing/backend/internal/infrastructure/storage"
	"github.com/invoicing/backend/internal/infrastructure/telemetry"
	"github.com/invoicing/backend/internal/interfaces/http/handler"
	"github.com/invoicing/backend/internal/interfaces/http/middleware"
	"github.com/invoicing/backend/internal/interfaces/http/router"
)

const shutdownTimeout = 30 * time.Second

//	@title			Invoice Document API
//	@version		1.0
//	@description	Renders invoice PDFs for commerce orders and caches their document models.
//
//	@BasePath	/api/v1
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: cfg.App.Name,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tc := cfg.Telemetry
	tel := telemetry.Setup(ctx, telemetry.Config{
		ServiceName:       tc.ServiceName,
		CollectorEndpoint: tc.CollectorEndpoint,
		Insecure:          tc.Insecure,
		Traces:            tc.Enabled,
		SamplingRatio:     tc.SamplingRatio,
		Metrics:           tc.Enabled && tc.MetricsEnabled,
		MetricsInterval:   tc.MetricsInterval,
		Logs:              tc.Enabled && tc.LogsEnabled,
		Profiling:         tc.ProfilingEnabled,
		ProfilingEndpoint: tc.ProfilingEndpoint,
	}, log)
	if level, err := zapcore.ParseLevel(cfg.Log.Level); err == nil {
		log = tel.Logger(log, level)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := tel.Shutdown(ctx); err != nil {
			log.Warn("Error shutting down telemetry", zap.Error(err))
		}
	}()

	log.Info("Starting invoice backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	gormLog := logger.NewGormLogger(log, cfg.Log.Level, cfg.Telemetry.DBSlowQueryThresh)
	db, err := persistence.Open(ctx, &cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	var dbMeter metric.Meter
	if tel.MetricsEnabled() {
		dbMeter = tel.Meter("db.client")
	}
	dbTelemetry, err := telemetry.RegisterDB(db.DB, dbMeter, telemetry.DBConfig{
		TraceEnabled: cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:   cfg.Telemetry.DBLogFullSQL,
		SlowQuery:    cfg.Telemetry.DBSlowQueryThresh,
	}, log)
	if err != nil {
		log.Warn("Database telemetry disabled", zap.Error(err))
	} else {
		dbTelemetry.StartPoolStats(ctx)
		defer dbTelemetry.Stop()
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() {
			_ = redisClient.Close()
		}()
		log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	}
	caches := cache.NewFactory(redisClient, cache.WithLogger(log))

	pdfEngine, err := printing.NewPDFRenderer(printing.EngineConfig{
		Engine:          cfg.Printing.Engine,
		Timeout:         cfg.Printing.Timeout,
		ChromeRemoteURL: cfg.Printing.ChromeRemoteURL,
		ChromeNoSandbox: cfg.Printing.ChromeNoSandbox,
		WkhtmltopdfPath: cfg.Printing.WkhtmltopdfPath,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize PDF engine", zap.Error(err))
	}
	defer func() {
		if err := pdfEngine.Close(); err != nil {
			log.Warn("Error closing PDF engine", zap.Error(err))
		}
	}()
	renderer := printing.NewModelRenderer(printing.NewDocumentHTMLRenderer(), pdfEngine, log,
		printing.WithRenderTimeout(cfg.Printing.Timeout))
	assets := printing.NewAssetEmbedder(&printing.AssetEmbedderConfig{
		Timeout:   cfg.Asset.Timeout,
		MaxBytes:  cfg.Asset.MaxBytes,
		UserAgent: cfg.Asset.UserAgent,
		Logger:    log,
	})

	invoiceMetrics, err := telemetry.NewInvoiceMetrics(tel.Meter("invoice"))
	if err != nil {
		log.Warn("Invoice metrics disabled", zap.Error(err))
	}

	serviceOpts := []invoiceapp.ServiceOption{
		invoiceapp.WithRegenerationLock(caches.RegenerationLock(cfg.Invoice.LockTTL)),
		invoiceapp.WithMetrics(invoiceMetrics),
		invoiceapp.WithStrictCacheWrite(cfg.Invoice.StrictCacheWrite),
	}
	if archive := newArchive(ctx, cfg, log); archive != nil {
		serviceOpts = append(serviceOpts, invoiceapp.WithPDFArchive(archive))
	}

	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB, log)
	configRepo := persistence.NewGormInvoiceConfigRepository(db.DB)
	builder := invoiceapp.NewBuilder(assets, invoiceMetrics, log)
	invoiceService := invoiceapp.NewService(invoiceRepo, configRepo, builder, renderer, log, serviceOpts...)
	configService := invoiceapp.NewConfigService(configRepo, log)
	orderPlaced := invoiceapp.NewOrderPlacedHandler(
		invoiceService,
		caches.IdempotencyStore(),
		shared.IdempotencyConfig{TTL: cfg.Invoice.IdempotencyTTL, Enabled: true},
		invoiceapp.NewLoggingNotifier(log),
		log,
	)

	health := handler.NewHealthHandler().
		AddCheck("database", db.Ping)
	if redisClient != nil {
		health.AddCheck("redis", func(ctx context.Context) error { return redisClient.Ping(ctx).Err() })
	}

	var rateLimiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitRPS > 0 {
		rateLimiter = middleware.NewRateLimiter(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.HTTP.RateLimitRPS,
			Burst:             cfg.HTTP.RateLimitBurst,
		})
		rateLimiter.StartCleanup(ctx)
		log.Info("Rate limiting enabled",
			zap.Float64("rps", cfg.HTTP.RateLimitRPS),
			zap.Int("burst", cfg.HTTP.RateLimitBurst),
		)
	}

	engine := router.NewEngine(router.EngineConfig{
		ServiceName:    cfg.Telemetry.ServiceName,
		Production:     cfg.App.IsProduction(),
		TrustedProxies: cfg.HTTP.TrustedProxies,
		CORS: middleware.CORSConfig{
			AllowOrigins: cfg.HTTP.CORSAllowOrigins,
			AllowMethods: cfg.HTTP.CORSAllowMethods,
			AllowHeaders: cfg.HTTP.CORSAllowHeaders,
			MaxAge:       12 * time.Hour,
		},
		MaxBodySize:      cfg.HTTP.MaxBodySize,
		TracingEnabled:   tel.TracingEnabled(),
		ProfilingEnabled: tel.ProfilingEnabled(),
		RateLimiter:      rateLimiter,
		Meter:            httpMeter(tel),
	}, router.Handlers{
		Document:    handler.NewInvoiceDocumentHandler(invoiceService, log),
		Config:      handler.NewInvoiceConfigHandler(configService),
		OrderPlaced: handler.NewOrderPlacedHookHandler(orderPlaced),
		Health:      health,
	}, log)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exited gracefully")
}

// httpMeter returns nil when metrics are off so the middleware is skipped
func httpMeter(tel *telemetry.Telemetry) metric.Meter {
	if !tel.MetricsEnabled() {
		return nil
	}
	return tel.Meter("http.server")
}

// newArchive returns the configured PDF archive, or nil when archiving is off
func newArchive(ctx context.Context, cfg *config.Config, log *zap.Logger) storage.PDFArchive {
	switch cfg.Storage.Driver {
	case "s3":
		archive, err := storage.NewS3PDFArchive(ctx, &cfg.Storage, log)
		if err != nil {
			log.Fatal("Failed to initialize S3 archive", zap.Error(err))
		}
		if err := archive.EnsureBucket(ctx); err != nil {
			log.Fatal("Failed to ensure archive bucket", zap.Error(err))
		}
		log.Info("Archiving invoice PDFs to S3", zap.String("bucket", cfg.Storage.Bucket))
		return archive
	case "filesystem":
		archive, err := storage.NewFileSystemArchive(cfg.Storage.BasePath, cfg.Storage.PublicBaseURL, log)
		if err != nil {
			log.Fatal("Failed to initialize filesystem archive", zap.Error(err))
		}
		log.Info("Archiving invoice PDFs to disk", zap.String("path", cfg.Storage.BasePath))
		return archive
	default:
		return nil
	}
}
