package telemetry

import (
	"context"
	"maps"
	"slices"
	"strings"

	"github.com/grafana/pyroscope-go"
)

// Profiling label keys
const (
	LabelOperation = "operation"
	LabelRoute     = "route"
	LabelMethod    = "method"
)

const maxLabelValue = 128

// per-entity values would give every invoice its own profile series
var unboundedLabels = []string{"invoice_id", "order_id", "event_id", "request_id", "trace_id", "span_id"}

// Labels is a set of profiling labels
type Labels map[string]string

// OperationLabels labels a unit of work such as "invoice_render"
func OperationLabels(operation string) Labels {
	return Labels{LabelOperation: operation}
}

// RequestLabels labels an HTTP request by route template
func RequestLabels(route, method string) Labels {
	return Labels{LabelRoute: route, LabelMethod: method}
}

// Profile runs fn with labels attached to the CPU samples it produces. Empty
// values and per-entity keys are dropped.
func Profile(ctx context.Context, labels Labels, fn func(context.Context)) {
	pairs := labels.pairs()
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(pairs...), fn)
}

// pairs flattens the labels into key, value pairs sorted by key
func (l Labels) pairs() []string {
	var pairs []string
	for _, raw := range slices.Sorted(maps.Keys(l)) {
		key, value := labelKey(raw), l[raw]
		if key == "" || value == "" || slices.Contains(unboundedLabels, key) {
			continue
		}
		if len(value) > maxLabelValue {
			value = value[:maxLabelValue]
		}
		pairs = append(pairs, key, value)
	}
	return pairs
}

// labelKey reduces key to lower snake_case
func labelKey(key string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		case r == ' ', r == '-':
			return '_'
		}
		return -1
	}, strings.TrimSpace(key))
}
