// Package synthetic implements an in-process acquisition source that
// renders an animated parametric depth surface.
//
// It exists so the pipeline can be exercised end to end without capture
// hardware: demos, benchmarks and the test suite all run against it. The
// generated clouds deliberately include the awkward parts of real sensor
// output: a moving depth step (discontinuity for the adaptive cut to
// detect) and a band of NaN dropout (holes the triangulation must skip).
package synthetic

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chewxy/math32"
	"github.com/google/uuid"

	"github.com/e7canasta/meshview/cloud"
	"github.com/e7canasta/meshview/grabber"
)

// Config shapes the generated stream. The zero value is usable.
type Config struct {
	// Width and Height of the organized grid (default 160x120).
	Width  int
	Height int
	// FPS is the delivery rate (default 30).
	FPS float64
	// Color enables a per-point depth-gradient color plane, making the
	// device probe as color-capable.
	Color bool

	// BaseDepth is the mean surface distance in meters (default 1.2).
	BaseDepth float32
	// Amplitude of the travelling wave in meters (default 0.15).
	Amplitude float32
	// StepDepth is the extra distance behind the moving depth step
	// (default 0.6). Zero disables the step.
	StepDepth float32
	// Dropout carves a moving band of invalid (NaN) samples.
	Dropout bool
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.Width <= 0 {
		out.Width = 160
	}
	if out.Height <= 0 {
		out.Height = 120
	}
	if out.FPS <= 0 {
		out.FPS = 30
	}
	if out.BaseDepth <= 0 {
		out.BaseDepth = 1.2
	}
	if out.Amplitude == 0 {
		out.Amplitude = 0.15
	}
	return out
}

// ErrDeviceNotFound is returned by Open for an id that does not address
// the (single) synthetic device.
var ErrDeviceNotFound = errors.New("synthetic: device not found")

// deviceSerial is the serial the synthetic device enumerates with.
const deviceSerial = "SYN-0001"

// Enumerate lists the synthetic device the way a driver would list
// connected hardware. Used by the CLI's --help diagnostics.
func Enumerate() []grabber.DeviceInfo {
	return []grabber.DeviceInfo{{
		Index:   1,
		Vendor:  "meshview",
		Product: "synthetic depth surface",
		Bus:     0,
		Address: 0,
		Serial:  deviceSerial,
	}}
}

// Open resolves a parsed device id against the enumeration and returns a
// grabber for it. Only "#1", the serial, or the default id match.
func Open(id grabber.DeviceID, cfg Config) (*Grabber, error) {
	switch id.Kind {
	case grabber.KindDefault:
	case grabber.KindIndex:
		if id.Index != 1 {
			return nil, fmt.Errorf("%w: #%d (only #1 exists)", ErrDeviceNotFound, id.Index)
		}
	case grabber.KindSerial:
		if id.Serial != deviceSerial {
			return nil, fmt.Errorf("%w: serial %q", ErrDeviceNotFound, id.Serial)
		}
	case grabber.KindBusAddress:
		return nil, fmt.Errorf("%w: synthetic device has no usb address", ErrDeviceNotFound)
	}
	return New(cfg), nil
}

// Grabber generates organized clouds on its own goroutine at a fixed rate.
type Grabber struct {
	cfg Config

	mu      sync.Mutex
	cb      func(*cloud.Cloud)
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	seq       atomic.Uint64
	delivered atomic.Uint64
}

// New creates a grabber; it does not deliver until Start.
func New(cfg Config) *Grabber {
	return &Grabber{cfg: cfg.withDefaults()}
}

// RegisterCallback implements grabber.Provider. Must be called before
// Start; the callback runs on the grabber's delivery goroutine.
func (g *Grabber) RegisterCallback(fn func(*cloud.Cloud)) {
	g.mu.Lock()
	g.cb = fn
	g.mu.Unlock()
}

// ProvidesColor implements the one-time capability probe.
func (g *Grabber) ProvidesColor() bool {
	return g.cfg.Color
}

// Delivered returns the number of clouds handed to the callback so far.
func (g *Grabber) Delivered() uint64 {
	return g.delivered.Load()
}

// Start begins delivery. Returns an error if already running.
func (g *Grabber) Start() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running {
		return errors.New("synthetic: already started")
	}
	ctx, cancel := context.WithCancel(context.Background())
	g.cancel = cancel
	g.running = true

	g.wg.Add(1)
	go g.deliveryLoop(ctx)
	return nil
}

// Stop halts delivery and waits for the delivery goroutine to exit.
// Synchronous by contract: after Stop returns, the callback is never
// invoked again. Idempotent.
func (g *Grabber) Stop() error {
	g.mu.Lock()
	if !g.running {
		g.mu.Unlock()
		return nil
	}
	g.running = false
	cancel := g.cancel
	g.mu.Unlock()

	cancel()
	g.wg.Wait()
	return nil
}

func (g *Grabber) deliveryLoop(ctx context.Context) {
	defer g.wg.Done()

	interval := time.Duration(float64(time.Second) / g.cfg.FPS)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.mu.Lock()
			cb := g.cb
			g.mu.Unlock()
			if cb == nil {
				continue
			}
			c := g.generate(g.seq.Add(1))
			cb(c)
			g.delivered.Add(1)
		}
	}
}

// generate renders one frame of the animated surface. Geometry follows a
// pinhole model with focal length = Width pixels (~53 degree fov), so the
// cloud projects sensibly in any perspective viewer.
func (g *Grabber) generate(seq uint64) *cloud.Cloud {
	cfg := g.cfg
	c := cloud.New(cfg.Width, cfg.Height)
	c.Seq = seq
	c.Timestamp = time.Now()
	c.TraceID = uuid.New().String()
	if cfg.Color {
		c.Colors = make([]cloud.RGB, c.Size())
	}

	phase := float32(seq) * 0.08
	focal := float32(cfg.Width)
	cx := float32(cfg.Width) / 2
	cy := float32(cfg.Height) / 2

	// Moving features, in grid columns.
	stepCol := int((0.5 + 0.3*math32.Sin(phase*0.5)) * float32(cfg.Width))
	dropCol := int((0.5 + 0.45*math32.Cos(phase*0.3)) * float32(cfg.Width))
	dropHalf := cfg.Width / 40

	for row := 0; row < cfg.Height; row++ {
		v := float32(row) / float32(cfg.Height)
		for col := 0; col < cfg.Width; col++ {
			if cfg.Dropout && col >= dropCol-dropHalf && col <= dropCol+dropHalf {
				continue // leave the NaN hole from cloud.New
			}
			u := float32(col) / float32(cfg.Width)

			z := cfg.BaseDepth +
				cfg.Amplitude*math32.Sin(2*math32.Pi*u+phase)*math32.Cos(2*math32.Pi*v)
			if cfg.StepDepth > 0 && col > stepCol {
				z += cfg.StepDepth
			}

			idx := c.Index(col, row)
			c.Points[idx] = cloud.Point{
				X: (float32(col) - cx) * z / focal,
				Y: (float32(row) - cy) * z / focal,
				Z: z,
			}
			if cfg.Color {
				shade := (z - cfg.BaseDepth + cfg.Amplitude + cfg.StepDepth) /
					(2*cfg.Amplitude + cfg.StepDepth + 1e-6)
				c.Colors[idx] = cloud.RGB{
					R: uint8(55 + 200*clamp01(shade)),
					G: uint8(220 - 160*clamp01(shade)),
					B: 96,
				}
			}
		}
	}
	return c
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
