package relay

import "sync/atomic"

// AtomicCounter is a lock-free monotonic counter using sync/atomic.
type AtomicCounter struct {
	value int64
}

// Inc increments the counter by 1.
func (c *AtomicCounter) Inc() { atomic.AddInt64(&c.value, 1) }

// Get returns the current counter value.
func (c *AtomicCounter) Get() int64 { return atomic.LoadInt64(&c.value) }

// Metrics collects in-process telemetry for the coordinator. All counters
// are safe for concurrent use by the poll loop and the worker pool.
type Metrics struct {
	Observed         AtomicCounter
	Dispatched       AtomicCounter
	Confirmed        AtomicCounter
	Retries          AtomicCounter
	TerminalFailures AtomicCounter
}

// MetricsSnapshot is a point-in-time copy of the coordinator counters.
type MetricsSnapshot struct {
	Observed         int64 `json:"observed"`
	Dispatched       int64 `json:"dispatched"`
	Confirmed        int64 `json:"confirmed"`
	Retries          int64 `json:"retries"`
	TerminalFailures int64 `json:"terminal_failures"`
}

// Snapshot returns a consistent-enough copy of all counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Observed:         m.Observed.Get(),
		Dispatched:       m.Dispatched.Get(),
		Confirmed:        m.Confirmed.Get(),
		Retries:          m.Retries.Get(),
		TerminalFailures: m.TerminalFailures.Get(),
	}
}
