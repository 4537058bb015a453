package phoneauth

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one in-process counter or histogram.
type MetricID uint16

const (
	// MetricSignInSuccess counts sign-ins that issued a token pair.
	MetricSignInSuccess MetricID = iota
	// MetricSignInFailure counts sign-ins rejected for bad credentials.
	MetricSignInFailure
	// MetricSignInRateLimited counts sign-ins blocked by the attempt budget.
	MetricSignInRateLimited
	// MetricSignUpSuccess counts created accounts.
	MetricSignUpSuccess
	// MetricSignUpDuplicate counts sign-ups rejected for a taken phone or telegram id.
	MetricSignUpDuplicate
	// MetricRefreshSuccess counts successful rotations.
	MetricRefreshSuccess
	// MetricRefreshFailure counts rotations that found no record or no token.
	MetricRefreshFailure
	MetricSignOut
	// MetricTokensIssued counts every minted pair, whatever the entry point.
	MetricTokensIssued
	// MetricRefreshEvicted counts refresh records removed by a newer sign-in.
	MetricRefreshEvicted
	MetricAccessDenied
	MetricAccessNeedsRefresh
	// MetricAccessCheckLatency is the only histogram for CheckAccess.
	MetricAccessCheckLatency
	// MetricSignInLatency tracks the password-verifying path.
	MetricSignInLatency
	metricIDCount
)

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

// Metrics holds lock-free counters and fixed-bucket latency histograms.
//
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of every counter. Histograms is
// populated only when latency histograms are enabled.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics returns a Metrics honoring cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether histograms are recorded.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to counter id.
func (m *Metrics) Inc(id MetricID) {
	m.Add(id, 1)
}

// Add adds n to counter id.
func (m *Metrics) Add(id MetricID, n uint64) {
	if m == nil || !m.enabled || id >= metricIDCount || n == 0 {
		return
	}
	atomic.AddUint64(&m.counters[id].value, n)
}

// Observe records d into histogram id. Only latency metrics accept
// observations.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || !isHistogram(id) {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value returns the current value of counter id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter, and every histogram when enabled.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 2),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		if isHistogram(id) {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		for _, id := range []MetricID{MetricAccessCheckLatency, MetricSignInLatency} {
			buckets := make([]uint64, histBucketCount)
			for i := 0; i < histBucketCount; i++ {
				buckets[i] = atomic.LoadUint64(&m.histograms[id].buckets[i])
			}
			s.Histograms[id] = buckets
		}
	}

	return s
}

func isHistogram(id MetricID) bool {
	return id == MetricAccessCheckLatency || id == MetricSignInLatency
}

// bucketIndex upper bounds: 5, 10, 25, 50, 100, 250, 500 ms, then +Inf.
func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
