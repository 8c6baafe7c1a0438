// Package observe provides application-wide observability primitives for
// Tara: OpenTelemetry metrics, trace-aware logging, and HTTP middleware that
// ties them together.
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
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all Tara metrics.
const meterName = "github.com/tarahq/tara"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms per session stage ---

	// ReplyDuration tracks chat backend reply latency.
	ReplyDuration metric.Float64Histogram

	// SynthesisDuration tracks text-to-speech synthesis latency.
	SynthesisDuration metric.Float64Histogram

	// PlaybackDuration tracks voice playback duration.
	PlaybackDuration metric.Float64Histogram

	// --- Counters ---

	// SessionsStarted counts sessions that passed quota and lock checks.
	SessionsStarted metric.Int64Counter

	// QuotaDenials counts session attempts rejected by the daily quota.
	QuotaDenials metric.Int64Counter

	// LockConflicts counts acquire attempts rejected because another
	// requester held the lock.
	LockConflicts metric.Int64Counter

	// SessionErrors counts failed sessions. Use with attribute:
	//   attribute.String("stage", ...)
	SessionErrors metric.Int64Counter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds). Playback
// and synthesis of a spoken reply routinely take several seconds.
var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.ReplyDuration, err = m.Float64Histogram("tara.reply.duration",
		metric.WithDescription("Latency of chat backend replies."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.SynthesisDuration, err = m.Float64Histogram("tara.synthesis.duration",
		metric.WithDescription("Latency of text-to-speech synthesis."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.PlaybackDuration, err = m.Float64Histogram("tara.playback.duration",
		metric.WithDescription("Duration of voice playback."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.SessionsStarted, err = m.Int64Counter("tara.sessions.started",
		metric.WithDescription("Total voice sessions started."),
	); err != nil {
		return nil, err
	}
	if met.QuotaDenials, err = m.Int64Counter("tara.quota.denials",
		metric.WithDescription("Total session attempts denied by the daily quota."),
	); err != nil {
		return nil, err
	}
	if met.LockConflicts, err = m.Int64Counter("tara.lock.conflicts",
		metric.WithDescription("Total lock acquisitions rejected due to another holder."),
	); err != nil {
		return nil, err
	}
	if met.SessionErrors, err = m.Int64Counter("tara.session.errors",
		metric.WithDescription("Total failed sessions by stage."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("tara.http.request.duration",
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

// RecordStageDuration records d on the given stage histogram.
func RecordStageDuration(ctx context.Context, h metric.Float64Histogram, d time.Duration) {
	h.Record(ctx, d.Seconds())
}

// RecordSessionError records a failed session with the stage it failed in.
func (m *Metrics) RecordSessionError(ctx context.Context, stage string) {
	m.SessionErrors.Add(ctx, 1,
		metric.WithAttributes(attribute.String("stage", stage)),
	)
}
