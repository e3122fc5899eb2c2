package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBConfig controls database tracing and metrics.
type DBConfig struct {
	TraceEnabled   bool
	LogFullSQL     bool
	SlowQuery      time.Duration
	PoolStatsEvery time.Duration
}

func (c DBConfig) withDefaults() DBConfig {
	if c.SlowQuery <= 0 {
		c.SlowQuery = 200 * time.Millisecond
	}
	if c.PoolStatsEvery <= 0 {
		c.PoolStatsEvery = 15 * time.Second
	}
	return c
}

type dbContextKey struct{}

// DBTelemetry instruments a gorm connection with spans, query metrics and
// connection pool gauges.
type DBTelemetry struct {
	config DBConfig
	logger *zap.Logger

	queryTotal     metric.Int64Counter
	queryDuration  metric.Float64Histogram
	slowQueryTotal metric.Int64Counter
	poolConns      metric.Int64Gauge

	sqlDB    *sql.DB
	stopCh   chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// RegisterDB attaches otelgorm when tracing is enabled and query metrics when
// meter is not nil. Call Stop on shutdown.
func RegisterDB(db *gorm.DB, meter metric.Meter, cfg DBConfig, logger *zap.Logger) (*DBTelemetry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &DBTelemetry{config: cfg.withDefaults(), logger: logger, stopCh: make(chan struct{})}

	if cfg.TraceEnabled {
		opts := []otelgorm.Option{otelgorm.WithDBName("postgresql")}
		if !cfg.LogFullSQL {
			opts = append(opts, otelgorm.WithoutQueryVariables())
		}
		if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
			return nil, err
		}
	}

	if meter != nil {
		if err := t.initInstruments(meter); err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		t.sqlDB = sqlDB
	}

	if err := t.registerCallbacks(db); err != nil {
		return nil, err
	}

	logger.Info("Database telemetry registered",
		zap.Bool("tracing", cfg.TraceEnabled),
		zap.Bool("metrics", t.queryTotal != nil),
		zap.Duration("slow_query_threshold", t.config.SlowQuery),
	)
	return t, nil
}

func (t *DBTelemetry) initInstruments(meter metric.Meter) error {
	in := NewInstruments(meter)
	t.queryTotal = in.Counter("db_query_total", "Database queries by operation", "{query}")
	t.queryDuration = in.Histogram("db_query_duration_seconds", "Database query latency", "s", DBDurationBuckets)
	t.slowQueryTotal = in.Counter("db_slow_query_total", "Database queries over the slow threshold", "{query}")
	t.poolConns = in.Gauge("db_pool_connections", "Pooled connections by state", "{connection}")
	return in.Err()
}

func (t *DBTelemetry) registerCallbacks(db *gorm.DB) error {
	cb := db.Callback()
	return errors.Join(
		cb.Create().Before("gorm:create").Register("telemetry:before_create", t.before),
		cb.Create().After("gorm:create").Register("telemetry:after_create", t.after),
		cb.Query().Before("gorm:query").Register("telemetry:before_query", t.before),
		cb.Query().After("gorm:query").Register("telemetry:after_query", t.after),
		cb.Update().Before("gorm:update").Register("telemetry:before_update", t.before),
		cb.Update().After("gorm:update").Register("telemetry:after_update", t.after),
		cb.Delete().Before("gorm:delete").Register("telemetry:before_delete", t.before),
		cb.Delete().After("gorm:delete").Register("telemetry:after_delete", t.after),
		cb.Row().Before("gorm:row").Register("telemetry:before_row", t.before),
		cb.Row().After("gorm:row").Register("telemetry:after_row", t.after),
		cb.Raw().Before("gorm:raw").Register("telemetry:before_raw", t.before),
		cb.Raw().After("gorm:raw").Register("telemetry:after_raw", t.after),
	)
}

func (t *DBTelemetry) before(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, dbContextKey{}, time.Now())
	}
}

func (t *DBTelemetry) after(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	start, ok := ctx.Value(dbContextKey{}).(time.Time)
	if !ok {
		return
	}
	elapsed := time.Since(start)
	slow := elapsed > t.config.SlowQuery

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		if db.Statement.Table != "" {
			span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
		}
		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
		if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
			Fail(span, db.Error)
		}
		if slow {
			span.SetAttributes(attribute.Bool("db.slow_query", true))
		}
	}

	if t.queryTotal == nil {
		return
	}
	attrs := metric.WithAttributes(
		AttrDBOperation.String(operationOf(db.Statement.SQL.String())),
		AttrDBTable.String(db.Statement.Table),
	)
	t.queryTotal.Add(ctx, 1, attrs)
	t.queryDuration.Record(ctx, elapsed.Seconds(), attrs)
	if slow {
		t.slowQueryTotal.Add(ctx, 1, attrs)
	}
}

// StartPoolStats samples connection pool usage until Stop is called
func (t *DBTelemetry) StartPoolStats(ctx context.Context) {
	if t.sqlDB == nil {
		return
	}
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		ticker := time.NewTicker(t.config.PoolStatsEvery)
		defer ticker.Stop()
		for {
			t.recordPoolStats(ctx)
			select {
			case <-ctx.Done():
				return
			case <-t.stopCh:
				return
			case <-ticker.C:
			}
		}
	}()
}

func (t *DBTelemetry) recordPoolStats(ctx context.Context) {
	stats := t.sqlDB.Stats()
	t.poolConns.Record(ctx, int64(stats.InUse), metric.WithAttributes(AttrDBState.String("in_use")))
	t.poolConns.Record(ctx, int64(stats.Idle), metric.WithAttributes(AttrDBState.String("idle")))
	t.poolConns.Record(ctx, int64(stats.MaxOpenConnections), metric.WithAttributes(AttrDBState.String("max")))
}

// Stop ends pool sampling. Safe to call more than once.
func (t *DBTelemetry) Stop() {
	if t == nil {
		return
	}
	t.stopOnce.Do(func() { close(t.stopCh) })
	t.wg.Wait()
}

// operationOf returns the leading SQL verb
func operationOf(stmt string) string {
	stmt = strings.ToUpper(strings.TrimSpace(stmt))
	for _, verb := range []string{"SELECT", "INSERT", "UPDATE", "DELETE"} {
		if strings.HasPrefix(stmt, verb) {
			return verb
		}
	}
	return "OTHER"
}
