package goPerm

import (
	"sync/atomic"
	"time"
)

// MetricID defines a public type used by goPerm APIs.
//
// MetricID instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricID uint16

const (
	// MetricActionGranted counts single-action grants.
	MetricActionGranted MetricID = iota
	// MetricActionRevoked counts single-action revocations.
	MetricActionRevoked
	// MetricModuleToggled counts bulk module toggles.
	MetricModuleToggled
	// MetricDeleteEscalated counts delete grants that also granted show.
	MetricDeleteEscalated
	// MetricSuperAdminGranted counts toggles that collapsed a set to SuperAdmin.
	MetricSuperAdminGranted
	// MetricSuperAdminCleared counts toggles that removed SuperAdmin.
	MetricSuperAdminCleared
	// MetricMutationRejected counts toggles refused by the catalog.
	MetricMutationRejected
	// MetricValidationError counts validation passes with at least one error.
	MetricValidationError
	// MetricValidationWarning counts validation passes with at least one warning.
	MetricValidationWarning
	// MetricCriticalGrant counts validation passes flagging a critical delete.
	MetricCriticalGrant
	// MetricDecodeFailure counts wire documents that failed to decode.
	MetricDecodeFailure
	// MetricSubmitSuccess counts persisted role submissions.
	MetricSubmitSuccess
	// MetricSubmitRejected counts submissions refused by validation.
	MetricSubmitRejected
	// MetricSubmitFailure counts submissions the store failed to persist.
	MetricSubmitFailure
	// MetricSessionOpened counts edit sessions opened.
	MetricSessionOpened
	// MetricSessionClosed counts edit sessions closed.
	MetricSessionClosed
	// MetricDebouncedSubmit counts submissions started by a debounce timer.
	MetricDebouncedSubmit
	// MetricAuditRun counts role audit reports generated.
	MetricAuditRun
	// MetricValidateLatency records validation latency.
	MetricValidateLatency
	// MetricSubmitLatency records end-to-end submission latency.
	MetricSubmitLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

var histogramIDs = [...]MetricID{MetricValidateLatency, MetricSubmitLatency}

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics defines a public type used by goPerm APIs.
//
// Metrics instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot defines a public type used by goPerm APIs.
//
// MetricsSnapshot instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics describes the newmetrics operation and its observable behavior.
//
// NewMetrics does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
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

// LatencyEnabled reports whether latency histograms are recorded.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc describes the inc operation and its observable behavior.
//
// Inc is safe for concurrent use and never blocks.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d in the histogram for id. Counter IDs are ignored.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if !isHistogram(id) {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value describes the value operation and its observable behavior.
//
// Value does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot describes the snapshot operation and its observable behavior.
//
// Snapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, len(histogramIDs)),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		if isHistogram(id) {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		for _, id := range histogramIDs {
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
	for _, h := range histogramIDs {
		if h == id {
			return true
		}
	}
	return false
}

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
