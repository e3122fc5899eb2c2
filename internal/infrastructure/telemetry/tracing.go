package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of service spans
const TracerName = "github.com/invoicing/backend"

// Span attribute keys
var (
	AttrInvoiceID     = attribute.Key("invoice_id")
	AttrOrderID       = attribute.Key("order_id")
	AttrEventID       = attribute.Key("event_id")
	AttrCurrencyCode  = attribute.Key("currency_code")
	AttrItemCount     = attribute.Key("item_count")
	AttrRegenerated   = attribute.Key("regenerated")
	AttrSchemaVersion = attribute.Key("schema_version")
	AttrPDFBytes      = attribute.Key("pdf_bytes")
	AttrAssetURL      = attribute.Key("asset_url")
)

// Start opens an internal span named "component.operation" on the global
// provider; the caller ends it
func Start(ctx context.Context, component, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, component+"."+operation,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...))
}

// Fail records err on span and marks it failed. A nil err is ignored.
func Fail(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// OK marks span successful
func OK(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// Event adds a named event to the span active in ctx
func Event(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).AddEvent(name, trace.WithAttributes(attrs...))
}
