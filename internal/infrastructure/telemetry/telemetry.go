// Package telemetry wires OpenTelemetry traces, metrics and logs plus
// Pyroscope profiling for the invoice service.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	otelpyroscope "github.com/grafana/otel-profiling-go"
	"github.com/grafana/pyroscope-go"
	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ServiceVersion is reported on every exported resource
const ServiceVersion = "1.0.0"

const shutdownTimeout = 10 * time.Second

// Config selects the signals to export. All exporters share one OTLP gRPC
// collector endpoint.
type Config struct {
	ServiceName       string
	CollectorEndpoint string
	Insecure          bool

	Traces        bool
	SamplingRatio float64

	Metrics         bool
	MetricsInterval time.Duration

	Logs bool

	Profiling         bool
	ProfilingEndpoint string
}

// Telemetry owns the SDK providers installed by Setup. The zero value and
// nil are valid and export nothing.
type Telemetry struct {
	meters    metric.MeterProvider
	logs      *sdklog.LoggerProvider
	traces    bool
	profiling bool
	service   string
	shutdown  []func(context.Context) error
}

// Setup installs the enabled providers globally. A signal that fails to
// start is logged and left disabled; Setup itself does not fail startup.
func Setup(ctx context.Context, cfg Config, log *zap.Logger) *Telemetry {
	if log == nil {
		log = zap.NewNop()
	}
	t := &Telemetry{service: cfg.ServiceName}

	res, err := newResource(ctx, cfg.ServiceName)
	if err != nil {
		log.Warn("Telemetry disabled", zap.Error(err))
		return t
	}

	var tp *sdktrace.TracerProvider
	if cfg.Traces {
		if tp, err = startTraces(ctx, cfg, res); err != nil {
			log.Warn("Tracing disabled", zap.Error(err))
		} else {
			t.traces = true
			t.shutdown = append(t.shutdown, tp.Shutdown)
			log.Info("Tracing enabled",
				zap.String("collector_endpoint", cfg.CollectorEndpoint),
				zap.Float64("sampling_ratio", cfg.SamplingRatio))
		}
	}

	if cfg.Metrics {
		mp, err := startMetrics(ctx, cfg, res)
		if err != nil {
			log.Warn("Metrics disabled", zap.Error(err))
		} else {
			t.meters = mp
			t.shutdown = append(t.shutdown, mp.Shutdown)
			log.Info("Metrics enabled", zap.Duration("interval", cfg.MetricsInterval))
		}
	}

	if cfg.Logs {
		lp, err := startLogs(ctx, cfg, res)
		if err != nil {
			log.Warn("Log export disabled", zap.Error(err))
		} else {
			t.logs = lp
			t.shutdown = append(t.shutdown, lp.Shutdown)
			log.Info("Log export enabled")
		}
	}

	if cfg.Profiling {
		profiler, err := startProfiler(cfg, log)
		if err != nil {
			log.Warn("Profiling disabled", zap.Error(err))
		} else {
			t.profiling = true
			t.shutdown = append(t.shutdown, func(context.Context) error { return profiler.Stop() })
			if tp != nil {
				// CPU samples carry the span id of the request they belong to
				otel.SetTracerProvider(otelpyroscope.NewTracerProvider(tp))
			}
			log.Info("Profiling enabled", zap.String("server_address", cfg.ProfilingEndpoint))
		}
	}
	return t
}

func newResource(ctx context.Context, service string) (*resource.Resource, error) {
	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			semconv.ServiceName(service),
			semconv.ServiceVersion(ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}

// sampler follows the parent decision and samples roots at ratio
func sampler(ratio float64) sdktrace.Sampler {
	root := sdktrace.TraceIDRatioBased(ratio)
	switch {
	case ratio >= 1:
		root = sdktrace.AlwaysSample()
	case ratio <= 0:
		root = sdktrace.NeverSample()
	}
	return sdktrace.ParentBased(root)
}

func startTraces(ctx context.Context, cfg Config, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.CollectorEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(cfg.SamplingRatio)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))
	return tp, nil
}

func startMetrics(ctx context.Context, cfg Config, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.CollectorEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}
	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.MetricsInterval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.MetricsInterval))
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
	)
	otel.SetMeterProvider(mp)
	return mp, nil
}

func startLogs(ctx context.Context, cfg Config, res *resource.Resource) (*sdklog.LoggerProvider, error) {
	opts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(cfg.CollectorEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlploggrpc.WithInsecure())
	}
	exporter, err := otlploggrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create log exporter: %w", err)
	}
	lp := sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
	)
	global.SetLoggerProvider(lp)
	return lp, nil
}

func startProfiler(cfg Config, log *zap.Logger) (*pyroscope.Profiler, error) {
	if cfg.ProfilingEndpoint == "" {
		return nil, errors.New("profiling endpoint is required")
	}
	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: cfg.ServiceName,
		ServerAddress:   cfg.ProfilingEndpoint,
		Logger:          log.Named("pyroscope").Sugar(),
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start profiler: %w", err)
	}
	return profiler, nil
}

// Meter returns a meter on the exporting provider, or a no-op meter when
// metrics are off
func (t *Telemetry) Meter(name string) metric.Meter {
	if t == nil || t.meters == nil {
		return noop.NewMeterProvider().Meter(name)
	}
	return t.meters.Meter(name)
}

// MetricsEnabled reports whether Meter instruments are exported
func (t *Telemetry) MetricsEnabled() bool { return t != nil && t.meters != nil }

// TracingEnabled reports whether spans are exported
func (t *Telemetry) TracingEnabled() bool { return t != nil && t.traces }

// ProfilingEnabled reports whether Pyroscope is running
func (t *Telemetry) ProfilingEnabled() bool { return t != nil && t.profiling }

// Logger tees base into the OTLP log exporter for entries at or above min.
// Without log export base is returned unchanged.
func (t *Telemetry) Logger(base *zap.Logger, min zapcore.Level) *zap.Logger {
	if t == nil || t.logs == nil {
		return base
	}
	return teeLogger(base, otelzap.NewCore(t.service, otelzap.WithLoggerProvider(t.logs)), min)
}

func teeLogger(base *zap.Logger, export zapcore.Core, min zapcore.Level) *zap.Logger {
	if filtered, err := zapcore.NewIncreaseLevelCore(export, min); err == nil {
		export = filtered
	}
	return base.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, export)
	}))
}

// Shutdown flushes and stops every provider in reverse start order
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	var errs []error
	for i := len(t.shutdown) - 1; i >= 0; i-- {
		errs = append(errs, t.shutdown[i](ctx))
	}
	t.shutdown = nil
	return errors.Join(errs...)
}
