package infra

import (
	"log/slog"
	"sync/atomic"
	"time"
)

// Metrics provides lightweight observability without external dependencies.
// Uses atomic operations for thread-safety.
type Metrics struct {
	// Counters
	eventsProcessed atomic.Uint64
	patchesApplied  atomic.Uint64
	recomputes      atomic.Uint64
	reconciles      atomic.Uint64
	decodeErrors    atomic.Uint64
	commandsSent    atomic.Uint64
	sendErrors      atomic.Uint64
	reconnects      atomic.Uint64
	errorsTotal     atomic.Uint64

	// Latency tracking
	latencySumNs atomic.Int64
	latencyCount atomic.Uint64

	// Gauges
	activeConnections atomic.Int32
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// RecordEvent records an event processing with latency.
func (m *Metrics) RecordEvent(latencyNs int64) {
	m.eventsProcessed.Add(1)
	m.latencySumNs.Add(latencyNs)
	m.latencyCount.Add(1)
}

// RecordPatch records one merged patch or snapshot.
func (m *Metrics) RecordPatch() { m.patchesApplied.Add(1) }

// RecordRecompute records a full order recompute of one view.
func (m *Metrics) RecordRecompute() { m.recomputes.Add(1) }

// RecordReconcile records a view reconciled against its frozen order.
func (m *Metrics) RecordReconcile() { m.reconciles.Add(1) }

// RecordDecodeError records an inbound frame that was dropped.
func (m *Metrics) RecordDecodeError() { m.decodeErrors.Add(1) }

// RecordCommand records a command written to the channel.
func (m *Metrics) RecordCommand() { m.commandsSent.Add(1) }

// RecordSendError records a command that could not be written.
func (m *Metrics) RecordSendError() {
	m.sendErrors.Add(1)
	m.errorsTotal.Add(1)
}

// RecordReconnect records a successful connection after the first one.
func (m *Metrics) RecordReconnect() { m.reconnects.Add(1) }

// RecordError records an error occurrence.
func (m *Metrics) RecordError() {
	m.errorsTotal.Add(1)
}

// SetActiveConnections sets the current active connection count.
func (m *Metrics) SetActiveConnections(count int32) {
	m.activeConnections.Store(count)
}

// IncrementConnections increments active connections by 1.
func (m *Metrics) IncrementConnections() {
	m.activeConnections.Add(1)
}

// DecrementConnections decrements active connections by 1.
func (m *Metrics) DecrementConnections() {
	m.activeConnections.Add(-1)
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	EventsProcessed   uint64
	PatchesApplied    uint64
	Recomputes        uint64
	Reconciles        uint64
	DecodeErrors      uint64
	CommandsSent      uint64
	SendErrors        uint64
	Reconnects        uint64
	ErrorsTotal       uint64
	AvgLatencyNs      int64
	ActiveConnections int32
	Timestamp         time.Time
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	var avgLatency int64
	count := m.latencyCount.Load()
	if count > 0 {
		avgLatency = m.latencySumNs.Load() / int64(count)
	}

	return MetricsSnapshot{
		EventsProcessed:   m.eventsProcessed.Load(),
		PatchesApplied:    m.patchesApplied.Load(),
		Recomputes:        m.recomputes.Load(),
		Reconciles:        m.reconciles.Load(),
		DecodeErrors:      m.decodeErrors.Load(),
		CommandsSent:      m.commandsSent.Load(),
		SendErrors:        m.sendErrors.Load(),
		Reconnects:        m.reconnects.Load(),
		ErrorsTotal:       m.errorsTotal.Load(),
		AvgLatencyNs:      avgLatency,
		ActiveConnections: m.activeConnections.Load(),
		Timestamp:         time.Now(),
	}
}

// LogValue lets a snapshot be logged as a structured group.
func (s MetricsSnapshot) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("events", s.EventsProcessed),
		slog.Uint64("patches", s.PatchesApplied),
		slog.Uint64("recomputes", s.Recomputes),
		slog.Uint64("reconciles", s.Reconciles),
		slog.Uint64("decode_errors", s.DecodeErrors),
		slog.Uint64("commands", s.CommandsSent),
		slog.Uint64("send_errors", s.SendErrors),
		slog.Uint64("reconnects", s.Reconnects),
		slog.Int64("avg_latency_ns", s.AvgLatencyNs),
		slog.Int("connections", int(s.ActiveConnections)),
	)
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	m.eventsProcessed.Store(0)
	m.patchesApplied.Store(0)
	m.recomputes.Store(0)
	m.reconciles.Store(0)
	m.decodeErrors.Store(0)
	m.commandsSent.Store(0)
	m.sendErrors.Store(0)
	m.reconnects.Store(0)
	m.errorsTotal.Store(0)
	m.latencySumNs.Store(0)
	m.latencyCount.Store(0)
	m.activeConnections.Store(0)
}
