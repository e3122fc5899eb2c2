package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when metrics are built without a meter
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// Values of the cache outcome attribute
const (
	CacheOutcomeHit  = "hit"
	CacheOutcomeMiss = "miss"
)

var (
	hitAttrs  = metric.WithAttributes(AttrCacheOutcome.String(CacheOutcomeHit))
	missAttrs = metric.WithAttributes(AttrCacheOutcome.String(CacheOutcomeMiss))
)

// InvoiceMetrics counts document cache and rendering activity. A nil
// *InvoiceMetrics records nothing.
type InvoiceMetrics struct {
	cacheLookups       metric.Int64Counter
	regenerations      metric.Int64Counter
	assetFailures      metric.Int64Counter
	cacheWriteFailures metric.Int64Counter
	renderFailures     metric.Int64Counter
	renderDuration     metric.Float64Histogram
}

// NewInvoiceMetrics registers the invoice instruments on meter
func NewInvoiceMetrics(meter metric.Meter) (*InvoiceMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	in := NewInstruments(meter)
	m := &InvoiceMetrics{
		cacheLookups: in.Counter("invoice_document_cache_lookups_total",
			"Invoice document cache lookups by outcome", "{lookup}"),
		regenerations: in.Counter("invoice_document_regenerations_total",
			"Invoice document models rebuilt", "{document}"),
		assetFailures: in.Counter("invoice_asset_failures_total",
			"Remote assets left out of a document", "{asset}"),
		cacheWriteFailures: in.Counter("invoice_document_cache_write_failures_total",
			"Rebuilt document models that could not be saved", "{document}"),
		renderFailures: in.Counter("invoice_render_failures_total",
			"Documents the PDF engine failed to render", "{document}"),
		renderDuration: in.Histogram("invoice_render_duration_seconds",
			"Time spent rendering invoice documents to PDF", "s", RenderDurationBuckets),
	}
	if err := in.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordCacheLookup counts one cache lookup, labelled hit or miss
func (m *InvoiceMetrics) RecordCacheLookup(ctx context.Context, hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheLookups.Add(ctx, 1, hitAttrs)
		return
	}
	m.cacheLookups.Add(ctx, 1, missAttrs)
}

// RecordRegeneration counts a rebuilt document model
func (m *InvoiceMetrics) RecordRegeneration(ctx context.Context) {
	if m != nil {
		m.regenerations.Add(ctx, 1)
	}
}

// RecordAssetFailure counts a remote asset that could not be embedded
func (m *InvoiceMetrics) RecordAssetFailure(ctx context.Context) {
	if m != nil {
		m.assetFailures.Add(ctx, 1)
	}
}

// RecordCacheWriteFailure counts a rebuilt model that was not persisted
func (m *InvoiceMetrics) RecordCacheWriteFailure(ctx context.Context) {
	if m != nil {
		m.cacheWriteFailures.Add(ctx, 1)
	}
}

// RecordRender records the duration of one rendering attempt and counts it
// as failed when err is set
func (m *InvoiceMetrics) RecordRender(ctx context.Context, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.renderDuration.Record(ctx, d.Seconds())
	if err != nil {
		m.renderFailures.Add(ctx, 1)
	}
}
