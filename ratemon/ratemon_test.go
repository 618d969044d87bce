package ratemon

import (
	"math"
	"testing"
	"time"
)

// fakeClock advances only when told, making rate math exact.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

// TestEmitsRateAfterFullWindow validates the core contract: N samples over
// a known interval T emit a rate of N/T, and the counter resets.
func TestEmitsRateAfterFullWindow(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}

	var emitted []float64
	m := New("computation", 100, func(stage string, hz float64) {
		if stage != "computation" {
			t.Errorf("sink stage = %q, want %q", stage, "computation")
		}
		emitted = append(emitted, hz)
	})
	m.now = clock.now

	// 100 samples spanning exactly 2 seconds.
	for i := 0; i < 100; i++ {
		m.Record()
		clock.advance(20 * time.Millisecond)
	}
	// The window closes on the 100th Record; the last advance happens after.
	// Elapsed at emission: 99 * 20ms = 1.98s.
	if len(emitted) != 1 {
		t.Fatalf("%d emissions, want 1", len(emitted))
	}
	want := 100.0 / 1.98
	if math.Abs(emitted[0]-want) > 1e-9 {
		t.Errorf("rate = %v Hz, want %v Hz", emitted[0], want)
	}
	if m.count != 0 {
		t.Errorf("counter = %d after emission, want 0", m.count)
	}
	if m.LastRate() != emitted[0] {
		t.Errorf("LastRate() = %v, want %v", m.LastRate(), emitted[0])
	}
}

// TestNoEmissionBeforeWindowFull validates silence below the window size.
func TestNoEmissionBeforeWindowFull(t *testing.T) {
	emissions := 0
	m := New("visualization", 10, func(string, float64) { emissions++ })

	for i := 0; i < 9; i++ {
		m.Record()
	}
	if emissions != 0 {
		t.Errorf("%d emissions after 9/10 samples, want 0", emissions)
	}
	if m.LastRate() != 0 {
		t.Errorf("LastRate() = %v before first window, want 0", m.LastRate())
	}
}

// TestConsecutiveWindowsIndependent validates that each window measures its
// own interval, not time since monitor creation.
func TestConsecutiveWindowsIndependent(t *testing.T) {
	clock := &fakeClock{t: time.Unix(2000, 0)}

	var emitted []float64
	m := New("computation", 10, func(_ string, hz float64) { emitted = append(emitted, hz) })
	m.now = clock.now

	// First window: 10 samples over 0.9s (10ms gaps before samples 2..10... )
	for i := 0; i < 10; i++ {
		if i > 0 {
			clock.advance(100 * time.Millisecond)
		}
		m.Record()
	}
	// Second window: slower, 1s gaps.
	for i := 0; i < 10; i++ {
		clock.advance(1 * time.Second)
		m.Record()
	}

	if len(emitted) != 2 {
		t.Fatalf("%d emissions, want 2", len(emitted))
	}
	want1 := 10.0 / 0.9
	want2 := 10.0 / 10.0
	if math.Abs(emitted[0]-want1) > 1e-9 {
		t.Errorf("window 1 rate = %v, want %v", emitted[0], want1)
	}
	if math.Abs(emitted[1]-want2) > 1e-9 {
		t.Errorf("window 2 rate = %v, want %v", emitted[1], want2)
	}
}

// TestDefaultWindowAndSink validates the zero-config path used by the
// pipeline when no sink is wired.
func TestDefaultWindowAndSink(t *testing.T) {
	m := New("computation", 0, nil)
	if m.window != DefaultWindow {
		t.Errorf("window = %d, want DefaultWindow (%d)", m.window, DefaultWindow)
	}
	if m.sink == nil {
		t.Error("nil sink not replaced with slog default")
	}
	if m.Stage() != "computation" {
		t.Errorf("Stage() = %q", m.Stage())
	}
	// The default sink must be callable without panicking.
	for i := 0; i < DefaultWindow; i++ {
		m.Record()
	}
}
