package ratemon

import (
	"log/slog"
	"math"
	"sync/atomic"
	"time"
)

// DefaultWindow is the number of samples per measurement window.
const DefaultWindow = 100

// Sink receives one emitted rate per completed window.
type Sink func(stage string, hz float64)

// Monitor counts samples and emits the sustained rate once per window.
// Not safe for concurrent use; one owner goroutine per instance.
type Monitor struct {
	stage  string
	window int
	sink   Sink

	count       int
	windowStart time.Time

	// lastRate is stored atomically (float bits) so monitoring snapshots
	// may read it from other goroutines; everything else stays owned by
	// the recording goroutine.
	lastRate atomic.Uint64

	// now is the clock source; time.Time carries a monotonic reading,
	// so wall-clock jumps cannot distort the rate. Replaced in tests.
	now func() time.Time
}

// New creates a monitor for the named stage. window <= 0 selects
// DefaultWindow. A nil sink logs via slog, matching the classic
// "Average framerate(stage): N Hz" diagnostic.
func New(stage string, window int, sink Sink) *Monitor {
	if window <= 0 {
		window = DefaultWindow
	}
	if sink == nil {
		sink = func(stage string, hz float64) {
			slog.Info("average framerate", "stage", stage, "hz", hz)
		}
	}
	return &Monitor{
		stage:  stage,
		window: window,
		sink:   sink,
		now:    time.Now,
	}
}

// Record counts one sample. On the window boundary it computes
// window/elapsed, emits it, and starts a fresh window.
func (m *Monitor) Record() {
	if m.count == 0 && m.windowStart.IsZero() {
		// First sample ever: open the window without emitting.
		m.windowStart = m.now()
	}

	m.count++
	if m.count < m.window {
		return
	}

	now := m.now()
	elapsed := now.Sub(m.windowStart).Seconds()
	if elapsed > 0 {
		hz := float64(m.count) / elapsed
		m.lastRate.Store(math.Float64bits(hz))
		m.sink(m.stage, hz)
	}
	m.count = 0
	m.windowStart = now
}

// LastRate returns the most recently emitted rate in Hz (0 before the
// first full window). Safe to call from any goroutine.
func (m *Monitor) LastRate() float64 {
	return math.Float64frombits(m.lastRate.Load())
}

// Stage returns the stage name this monitor was created for.
func (m *Monitor) Stage() string {
	return m.stage
}
