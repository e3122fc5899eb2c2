package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromContext_DefaultsToNop(t *testing.T) {
	log := FromContext(context.Background())
	require.NotNil(t, log)
	assert.False(t, log.Core().Enabled(zapcore.ErrorLevel))
}

func TestWithInvoiceID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	ctx, log := WithRequestID(context.Background(), zap.New(core), "req-1")
	ctx, log = WithInvoiceID(ctx, log, "inv_42")
	log.Info("generating")

	assert.Equal(t, "req-1", RequestID(ctx))
	assert.Equal(t, "inv_42", InvoiceID(ctx))
	assert.Same(t, log, FromContext(ctx))

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "inv_42", fields["invoice_id"])
}

func TestTraceFields(t *testing.T) {
	assert.Empty(t, TraceFields(context.Background()))

	ctx := contextWithSpan(t)
	fields := TraceFields(ctx)
	require.Len(t, fields, 2)
	assert.Equal(t, "trace_id", fields[0].Key)
	assert.Equal(t, "0102030405060708090a0b0c0d0e0f10", fields[0].String)
	assert.Equal(t, "span_id", fields[1].Key)
	assert.Equal(t, "0102030405060708", fields[1].String)
}

func TestContextFields(t *testing.T) {
	ctx := contextWithSpan(t)
	ctx, _ = WithRequestID(ctx, zap.NewNop(), "req-9")
	ctx, _ = WithInvoiceID(ctx, zap.NewNop(), "inv_9")

	keys := make([]string, 0, 4)
	for _, f := range contextFields(ctx) {
		keys = append(keys, f.Key)
	}
	assert.Equal(t, []string{"trace_id", "span_id", "request_id", "invoice_id"}, keys)
}

func contextWithSpan(t *testing.T) context.Context {
	t.Helper()
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16},
		SpanID:     trace.SpanID{1, 2, 3, 4, 5, 6, 7, 8},
		TraceFlags: trace.FlagsSampled,
	})
	require.True(t, sc.IsValid())
	return trace.ContextWithSpanContext(context.Background(), sc)
}
