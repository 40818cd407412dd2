package engine

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/keypulse/internal/pattern"
)

// Metrics tracks pipeline processing counters and latency.
type Metrics struct {
	// Event counters
	eventsTotal        atomic.Uint64
	emitted            atomic.Uint64
	suppressed         atomic.Uint64
	buffered           atomic.Uint64
	flushed            atomic.Uint64
	trackingRejects    atomic.Uint64
	validationWarnings atomic.Uint64
	droppedEvents      atomic.Uint64

	// Match counters by pattern type
	sequenceMatches atomic.Uint64
	chordMatches    atomic.Uint64
	holdMatches     atomic.Uint64

	// Latency tracking
	mu                sync.RWMutex
	latencies         []time.Duration
	maxLatencySamples int
	latencyIdx        int

	// Peak latency (all time)
	peakLatency atomic.Int64

	// Start time for uptime calculation
	startTime time.Time

	// Enable flag
	enabled atomic.Bool
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	m := &Metrics{
		latencies:         make([]time.Duration, 1000),
		maxLatencySamples: 1000,
		startTime:         time.Now(),
	}
	m.enabled.Store(true)
	return m
}

// SetEnabled enables or disables metrics collection.
func (m *Metrics) SetEnabled(enabled bool) {
	m.enabled.Store(enabled)
}

// IsEnabled returns whether metrics collection is enabled.
func (m *Metrics) IsEnabled() bool {
	return m.enabled.Load()
}

// RecordEvent records a processed raw event with its processing time.
func (m *Metrics) RecordEvent(latency time.Duration) {
	if !m.enabled.Load() {
		return
	}

	m.eventsTotal.Add(1)

	// Update peak latency
	latencyNs := latency.Nanoseconds()
	for {
		current := m.peakLatency.Load()
		if latencyNs <= current {
			break
		}
		if m.peakLatency.CompareAndSwap(current, latencyNs) {
			break
		}
	}

	// Store in circular buffer
	m.mu.Lock()
	m.latencies[m.latencyIdx] = latency
	m.latencyIdx = (m.latencyIdx + 1) % m.maxLatencySamples
	m.mu.Unlock()
}

// RecordEmitted records an event forwarded past the quirk filter.
func (m *Metrics) RecordEmitted() {
	if !m.enabled.Load() {
		return
	}
	m.emitted.Add(1)
}

// RecordSuppressed records an event dropped by the quirk filter.
func (m *Metrics) RecordSuppressed() {
	if !m.enabled.Load() {
		return
	}
	m.suppressed.Add(1)
}

// RecordBuffered records an event withheld by the quirk filter.
func (m *Metrics) RecordBuffered() {
	if !m.enabled.Load() {
		return
	}
	m.buffered.Add(1)
}

// RecordFlushed records a buffered event replayed after its window expired.
func (m *Metrics) RecordFlushed() {
	if !m.enabled.Load() {
		return
	}
	m.flushed.Add(1)
}

// RecordTrackingReject records an event rejected by press/release tracking.
func (m *Metrics) RecordTrackingReject() {
	if !m.enabled.Load() {
		return
	}
	m.trackingRejects.Add(1)
}

// RecordValidationWarning records an event that failed consistency checks.
func (m *Metrics) RecordValidationWarning() {
	if !m.enabled.Load() {
		return
	}
	m.validationWarnings.Add(1)
}

// RecordDroppedEvent records a dropped event (channel full).
func (m *Metrics) RecordDroppedEvent() {
	if !m.enabled.Load() {
		return
	}
	m.droppedEvents.Add(1)
}

// RecordMatch records a completed pattern match by type.
func (m *Metrics) RecordMatch(t pattern.Type) {
	if !m.enabled.Load() {
		return
	}
	switch t {
	case pattern.TypeSequence:
		m.sequenceMatches.Add(1)
	case pattern.TypeChord:
		m.chordMatches.Add(1)
	case pattern.TypeHold:
		m.holdMatches.Add(1)
	}
}

// MetricsSnapshot holds a point-in-time view of metrics.
type MetricsSnapshot struct {
	// Counters
	EventsTotal        uint64
	Emitted            uint64
	Suppressed         uint64
	Buffered           uint64
	Flushed            uint64
	TrackingRejects    uint64
	ValidationWarnings uint64
	DroppedEvents      uint64

	SequenceMatches uint64
	ChordMatches    uint64
	HoldMatches     uint64

	// Latency stats
	AvgLatency  time.Duration
	MaxLatency  time.Duration
	P99Latency  time.Duration
	PeakLatency time.Duration

	// Rates
	EventsPerSecond float64

	// Uptime
	Uptime time.Duration
}

// Snapshot returns a point-in-time view of all metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	latencies := make([]time.Duration, len(m.latencies))
	copy(latencies, m.latencies)
	m.mu.RUnlock()

	total := m.eventsTotal.Load()
	uptime := time.Since(m.startTime)

	snap := MetricsSnapshot{
		EventsTotal:        total,
		Emitted:            m.emitted.Load(),
		Suppressed:         m.suppressed.Load(),
		Buffered:           m.buffered.Load(),
		Flushed:            m.flushed.Load(),
		TrackingRejects:    m.trackingRejects.Load(),
		ValidationWarnings: m.validationWarnings.Load(),
		DroppedEvents:      m.droppedEvents.Load(),
		SequenceMatches:    m.sequenceMatches.Load(),
		ChordMatches:       m.chordMatches.Load(),
		HoldMatches:        m.holdMatches.Load(),
		PeakLatency:        time.Duration(m.peakLatency.Load()),
		Uptime:             uptime,
	}

	if uptime > 0 {
		snap.EventsPerSecond = float64(total) / uptime.Seconds()
	}

	snap.AvgLatency, snap.MaxLatency, snap.P99Latency = calculateLatencyStats(latencies)

	return snap
}

// calculateLatencyStats computes average, max, and p99 from a slice of latencies.
func calculateLatencyStats(latencies []time.Duration) (avg, maxLat, p99 time.Duration) {
	// Filter non-zero latencies
	valid := make([]time.Duration, 0, len(latencies))
	for _, l := range latencies {
		if l > 0 {
			valid = append(valid, l)
		}
	}

	if len(valid) == 0 {
		return 0, 0, 0
	}

	var sum time.Duration
	for _, l := range valid {
		sum += l
		if l > maxLat {
			maxLat = l
		}
	}
	avg = sum / time.Duration(len(valid))

	// Sort for percentile calculation (simple approach)
	sorted := make([]time.Duration, len(valid))
	copy(sorted, valid)
	for i := 0; i < len(sorted)-1; i++ {
		for j := i + 1; j < len(sorted); j++ {
			if sorted[i] > sorted[j] {
				sorted[i], sorted[j] = sorted[j], sorted[i]
			}
		}
	}

	idx := int(float64(len(sorted)) * 0.99)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	p99 = sorted[idx]

	return avg, maxLat, p99
}

// Reset clears all metrics.
func (m *Metrics) Reset() {
	m.eventsTotal.Store(0)
	m.emitted.Store(0)
	m.suppressed.Store(0)
	m.buffered.Store(0)
	m.flushed.Store(0)
	m.trackingRejects.Store(0)
	m.validationWarnings.Store(0)
	m.droppedEvents.Store(0)
	m.sequenceMatches.Store(0)
	m.chordMatches.Store(0)
	m.holdMatches.Store(0)
	m.peakLatency.Store(0)

	m.mu.Lock()
	m.latencies = make([]time.Duration, m.maxLatencySamples)
	m.latencyIdx = 0
	m.startTime = time.Now()
	m.mu.Unlock()
}

// EventsTotal returns the total number of raw events processed.
func (m *Metrics) EventsTotal() uint64 {
	return m.eventsTotal.Load()
}

// DroppedEvents returns the total number of dropped events.
func (m *Metrics) DroppedEvents() uint64 {
	return m.droppedEvents.Load()
}

// HealthStatus represents the current health of event processing.
type HealthStatus struct {
	Healthy          bool
	DroppedEvents    uint64
	PeakLatency      time.Duration
	LatencyThreshold time.Duration
	Message          string
}

// HealthCheck returns the current health status.
func (m *Metrics) HealthCheck(latencyThreshold time.Duration) HealthStatus {
	status := HealthStatus{
		Healthy:          true,
		DroppedEvents:    m.droppedEvents.Load(),
		PeakLatency:      time.Duration(m.peakLatency.Load()),
		LatencyThreshold: latencyThreshold,
	}

	if status.DroppedEvents > 0 {
		status.Healthy = false
		status.Message = "dropped events detected"
	} else if status.PeakLatency > latencyThreshold {
		status.Healthy = false
		status.Message = "latency threshold exceeded"
	} else {
		status.Message = "healthy"
	}

	return status
}
