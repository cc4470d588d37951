// Package observe provides application-wide observability primitives for the
// translation server: OpenTelemetry metrics, distributed tracing, structured
// logging, and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all translation
// server metrics.
const meterName = "github.com/bergamot-go/bergamot"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// TranslateDuration tracks end-to-end latency of a single Translate or
	// Pivot call, from submission to callback.
	TranslateDuration metric.Float64Histogram

	// BatchSize tracks how many sentences were drained into each batch
	// handed to a collaborator.
	BatchSize metric.Int64Histogram

	// CacheHits counts exact-cache and semantic-cache hits. Use with
	// attribute.String("tier", "exact"|"semantic").
	CacheHits metric.Int64Counter

	// CacheMisses counts cache lookups that found nothing. Use with
	// attribute.String("tier", "exact"|"semantic").
	CacheMisses metric.Int64Counter

	// CollaboratorRequests counts calls into a Collaborator's TranslateBatch.
	// Use with attributes: attribute.String("model", ...), attribute.String("status", ...)
	CollaboratorRequests metric.Int64Counter

	// CollaboratorErrors counts failed collaborator calls, including circuit
	// breaker rejections. Use with attribute.String("model", ...).
	CollaboratorErrors metric.Int64Counter

	// ActiveRequests tracks in-flight Translate/Pivot calls not yet resolved.
	ActiveRequests metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) for
// translation request latency.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// batchSizeBuckets defines histogram bucket boundaries for sentence counts
// per batch.
var batchSizeBuckets = []float64{1, 2, 4, 8, 16, 32, 64, 128}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.TranslateDuration, err = m.Float64Histogram("bergamot.translate.duration",
		metric.WithDescription("Latency of a Translate or Pivot call from submission to callback."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.BatchSize, err = m.Int64Histogram("bergamot.batch.size",
		metric.WithDescription("Number of sentences drained into each batch."),
		metric.WithExplicitBucketBoundaries(batchSizeBuckets...),
	); err != nil {
		return nil, err
	}
	if met.CacheHits, err = m.Int64Counter("bergamot.cache.hits",
		metric.WithDescription("Total cache hits by tier."),
	); err != nil {
		return nil, err
	}
	if met.CacheMisses, err = m.Int64Counter("bergamot.cache.misses",
		metric.WithDescription("Total cache misses by tier."),
	); err != nil {
		return nil, err
	}
	if met.CollaboratorRequests, err = m.Int64Counter("bergamot.collaborator.requests",
		metric.WithDescription("Total collaborator calls by model and status."),
	); err != nil {
		return nil, err
	}
	if met.CollaboratorErrors, err = m.Int64Counter("bergamot.collaborator.errors",
		metric.WithDescription("Total failed collaborator calls by model."),
	); err != nil {
		return nil, err
	}
	if met.ActiveRequests, err = m.Int64UpDownCounter("bergamot.active_requests",
		metric.WithDescription("Number of in-flight Translate/Pivot calls."),
	); err != nil {
		return nil, err
	}

	if met.HTTPRequestDuration, err = m.Float64Histogram("bergamot.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordCollaboratorRequest is a convenience method that records a
// collaborator call counter increment with the standard attribute set.
func (m *Metrics) RecordCollaboratorRequest(ctx context.Context, model, status string) {
	m.CollaboratorRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("model", model),
			attribute.String("status", status),
		),
	)
}

// RecordCollaboratorError is a convenience method that records a
// collaborator error counter increment.
func (m *Metrics) RecordCollaboratorError(ctx context.Context, model string) {
	m.CollaboratorErrors.Add(ctx, 1,
		metric.WithAttributes(attribute.String("model", model)),
	)
}

// RecordCacheHit records a cache hit for the given tier ("exact" or "semantic").
func (m *Metrics) RecordCacheHit(ctx context.Context, tier string) {
	m.CacheHits.Add(ctx, 1, metric.WithAttributes(attribute.String("tier", tier)))
}

// RecordCacheMiss records a cache miss for the given tier ("exact" or "semantic").
func (m *Metrics) RecordCacheMiss(ctx context.Context, tier string) {
	m.CacheMisses.Add(ctx, 1, metric.WithAttributes(attribute.String("tier", tier)))
}
