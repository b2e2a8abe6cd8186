package goSession

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMetricsDisabledNoIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	m.Inc(MetricLoginSuccess)

	if got := m.Value(MetricLoginSuccess); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestMetricsConcurrentIncrementSafe(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const goroutines = 32
	const perG = 4000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perG; j++ {
				m.Inc(MetricRotateRefreshSuccess)
			}
		}()
	}
	wg.Wait()

	want := uint64(goroutines * perG)
	if got := m.Value(MetricRotateRefreshSuccess); got != want {
		t.Fatalf("expected %d, got %d", want, got)
	}
}

func TestMetricsHistogramBucketCorrectness(t *testing.T) {
	m := NewMetrics(MetricsConfig{
		Enabled:                 true,
		EnableLatencyHistograms: true,
	})

	observations := []time.Duration{
		5 * time.Millisecond,
		10 * time.Millisecond,
		25 * time.Millisecond,
		50 * time.Millisecond,
		100 * time.Millisecond,
		250 * time.Millisecond,
		500 * time.Millisecond,
		700 * time.Millisecond,
	}

	for _, d := range observations {
		m.Observe(MetricValidateLatency, d)
	}

	buckets := m.Snapshot().Histograms[MetricValidateLatency]
	if len(buckets) != 8 {
		t.Fatalf("expected 8 buckets, got %d", len(buckets))
	}
	for i, v := range buckets {
		if v != 1 {
			t.Fatalf("bucket %d expected 1, got %d", i, v)
		}
	}
}

func TestMetricNamesAreDefined(t *testing.T) {
	seen := map[string]MetricID{}
	for id := MetricID(0); int(id) < MetricCount; id++ {
		name := id.String()
		if name == "" || name == "unknown" {
			t.Fatalf("metric %d has no name", id)
		}
		if prev, ok := seen[name]; ok {
			t.Fatalf("metric %d reuses name %q of %d", id, name, prev)
		}
		seen[name] = id
	}
}

func TestEngineMetricsTrackValidationStates(t *testing.T) {
	h := newEngineHarness(t, func(c *Config) {
		c.Metrics.Enabled = true
		c.Metrics.EnableLatencyHistograms = true
	})
	ctx := context.Background()

	p := h.register(t, "alice", "secret-pass")
	pair, err := h.engine.IssueTokenPair(ctx, *p)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := h.engine.ValidateAccess(ctx, pair.AccessToken); err != nil {
		t.Fatalf("validate: %v", err)
	}
	_, _ = h.engine.ValidateAccess(ctx, "garbage")

	h.advance(16 * time.Minute)
	_, _ = h.engine.ValidateAccess(ctx, pair.AccessToken)

	snap := h.engine.MetricsSnapshot()
	if snap.Counters[MetricValidateSuccess] != 1 {
		t.Fatalf("expected 1 success, got %d", snap.Counters[MetricValidateSuccess])
	}
	if snap.Counters[MetricValidateMalformed] != 1 {
		t.Fatalf("expected 1 malformed, got %d", snap.Counters[MetricValidateMalformed])
	}
	if snap.Counters[MetricValidateExpired] != 1 {
		t.Fatalf("expected 1 expired, got %d", snap.Counters[MetricValidateExpired])
	}
	if snap.Counters[MetricRegisterSuccess] != 1 || snap.Counters[MetricTokenPairIssued] != 1 {
		t.Fatalf("unexpected issue counters: %+v", snap.Counters)
	}

	var total uint64
	for _, v := range snap.Histograms[MetricValidateLatency] {
		total += v
	}
	if total != 3 {
		t.Fatalf("expected 3 latency observations, got %d", total)
	}
}
