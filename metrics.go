package goSession

import (
	"sync/atomic"
	"time"
)

// MetricID identifies a counter or histogram in the in-process metrics system.
type MetricID uint16

const (
	MetricTokenPairIssued MetricID = iota
	MetricValidateSuccess
	MetricValidateMalformed
	MetricValidateExpired
	MetricValidateRevoked
	MetricValidateOrphaned
	// MetricOrphanRevoked counts orphaned access ids written to the blacklist.
	MetricOrphanRevoked
	MetricRotateRefreshSuccess
	MetricRotateRefreshFailure
	MetricRotateAccessSuccess
	MetricRotateAccessFailure
	MetricLogout
	MetricLogoutAll
	MetricIdentityUpdated
	MetricRegisterSuccess
	MetricRegisterConflict
	MetricLoginSuccess
	MetricLoginFailure
	MetricLoginRateLimited
	// MetricInfrastructureError counts operations aborted by a cache or
	// identity store failure.
	MetricInfrastructureError
	MetricValidateLatency
	metricIDCount
)

var metricNames = [metricIDCount]string{
	MetricTokenPairIssued:      "token_pair_issued",
	MetricValidateSuccess:      "validate_success",
	MetricValidateMalformed:    "validate_malformed",
	MetricValidateExpired:      "validate_expired",
	MetricValidateRevoked:      "validate_revoked",
	MetricValidateOrphaned:     "validate_orphaned",
	MetricOrphanRevoked:        "orphan_revoked",
	MetricRotateRefreshSuccess: "rotate_refresh_success",
	MetricRotateRefreshFailure: "rotate_refresh_failure",
	MetricRotateAccessSuccess:  "rotate_access_success",
	MetricRotateAccessFailure:  "rotate_access_failure",
	MetricLogout:               "logout",
	MetricLogoutAll:            "logout_all",
	MetricIdentityUpdated:      "identity_updated",
	MetricRegisterSuccess:      "register_success",
	MetricRegisterConflict:     "register_conflict",
	MetricLoginSuccess:         "login_success",
	MetricLoginFailure:         "login_failure",
	MetricLoginRateLimited:     "login_rate_limited",
	MetricInfrastructureError:  "infrastructure_error",
	MetricValidateLatency:      "validate_latency",
}

// String returns the snake_case exporter name of id.
func (id MetricID) String() string {
	if id >= metricIDCount {
		return "unknown"
	}
	return metricNames[id]
}

// MetricCount is the number of defined metric ids. Exporters iterate
// MetricID(0)..MetricCount-1.
const MetricCount = int(metricIDCount)

// HistogramBounds are the inclusive upper bounds of the latency buckets. The last
// bucket is unbounded.
var HistogramBounds = [histBucketCount - 1]time.Duration{
	5 * time.Millisecond,
	10 * time.Millisecond,
	25 * time.Millisecond,
	50 * time.Millisecond,
	100 * time.Millisecond,
	250 * time.Millisecond,
	500 * time.Millisecond,
}

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds lock-free counters and the validate latency histogram.
//
// A nil or disabled *Metrics is valid and records nothing.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of every counter and histogram.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics creates a metrics registry from cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to the counter id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d in the histogram id. Only [MetricValidateLatency] carries a
// histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricValidateLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies the current values. A disabled registry returns empty maps.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		if id == MetricValidateLatency {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricValidateLatency].buckets[i])
		}
		s.Histograms[MetricValidateLatency] = buckets
	}

	return s
}

func bucketIndex(d time.Duration) int {
	for i, bound := range HistogramBounds {
		if d <= bound {
			return i
		}
	}
	return histBucketCount - 1
}
