package observe

import (
	"context"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// newTestMetrics returns a Metrics instance backed by a ManualReader for
// programmatic metric inspection.
func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

// collect gathers all metric data from the reader.
func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

// findMetric searches for a metric by name across all scope metrics.
func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestNewMetrics_CreatesWithoutError(t *testing.T) {
	m, _ := newTestMetrics(t)
	if m == nil {
		t.Fatal("NewMetrics returned nil")
	}
}

func TestCounterIncrements(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.SessionsStarted.Add(ctx, 1)
	m.SessionsStarted.Add(ctx, 1)
	m.QuotaDenials.Add(ctx, 1)

	rm := collect(t, reader)

	started := findMetric(rm, "tara.sessions.started")
	if started == nil {
		t.Fatal("tara.sessions.started not found")
	}
	sum, ok := started.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("unexpected data type %T", started.Data)
	}
	if got := sum.DataPoints[0].Value; got != 2 {
		t.Errorf("sessions started = %d, want 2", got)
	}

	denials := findMetric(rm, "tara.quota.denials")
	if denials == nil {
		t.Fatal("tara.quota.denials not found")
	}
}

func TestStageHistogram(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	RecordStageDuration(ctx, m.SynthesisDuration, 1500*time.Millisecond)

	rm := collect(t, reader)
	synth := findMetric(rm, "tara.synthesis.duration")
	if synth == nil {
		t.Fatal("tara.synthesis.duration not found")
	}
	hist, ok := synth.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("unexpected data type %T", synth.Data)
	}
	if got := hist.DataPoints[0].Count; got != 1 {
		t.Errorf("histogram count = %d, want 1", got)
	}
	if got := hist.DataPoints[0].Sum; got != 1.5 {
		t.Errorf("histogram sum = %v, want 1.5", got)
	}
}

func TestSessionErrorAttribute(t *testing.T) {
	m, reader := newTestMetrics(t)
	m.RecordSessionError(context.Background(), "synthesis")

	rm := collect(t, reader)
	errs := findMetric(rm, "tara.session.errors")
	if errs == nil {
		t.Fatal("tara.session.errors not found")
	}
	sum, ok := errs.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("unexpected data type %T", errs.Data)
	}
	if len(sum.DataPoints) != 1 || sum.DataPoints[0].Value != 1 {
		t.Errorf("session errors datapoints = %+v, want one point of 1", sum.DataPoints)
	}
}
