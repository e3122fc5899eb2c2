package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ctxKey int

const (
	loggerKey ctxKey = iota
	requestIDKey
	invoiceIDKey
)

// WithContext stores log in ctx
func WithContext(ctx context.Context, log *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, log)
}

// FromContext returns the logger stored in ctx, or a no-op logger
func FromContext(ctx context.Context) *zap.Logger {
	if log, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return log
	}
	return zap.NewNop()
}

// WithRequestID records the request id in ctx and returns a logger carrying it
func WithRequestID(ctx context.Context, log *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	log = log.With(zap.String("request_id", requestID))
	ctx = context.WithValue(ctx, requestIDKey, requestID)
	return WithContext(ctx, log), log
}

// WithInvoiceID records the invoice id in ctx and returns a logger carrying it
func WithInvoiceID(ctx context.Context, log *zap.Logger, invoiceID string) (context.Context, *zap.Logger) {
	log = log.With(zap.String("invoice_id", invoiceID))
	ctx = context.WithValue(ctx, invoiceIDKey, invoiceID)
	return WithContext(ctx, log), log
}

// RequestID returns the request id recorded by WithRequestID
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// InvoiceID returns the invoice id recorded by WithInvoiceID
func InvoiceID(ctx context.Context) string {
	id, _ := ctx.Value(invoiceIDKey).(string)
	return id
}

// TraceFields returns trace_id and span_id of the active span, if any
func TraceFields(ctx context.Context) []zap.Field {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return nil
	}
	return []zap.Field{
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	}
}

// contextFields collects every correlation field present in ctx
func contextFields(ctx context.Context) []zap.Field {
	fields := TraceFields(ctx)
	if id := RequestID(ctx); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	if id := InvoiceID(ctx); id != "" {
		fields = append(fields, zap.String("invoice_id", id))
	}
	return fields
}
