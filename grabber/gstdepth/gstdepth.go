// Package gstdepth implements the acquisition contract on top of a
// GStreamer capture pipeline.
//
// The source is anything uridecodebin can open (a file://, rtsp:// or
// v4l2:// uri) whose video decodes to 16-bit grayscale depth images.
// Frames are converted to organized clouds with a pinhole model and
// handed to the registered callback on the GStreamer streaming thread.
// The appsink keeps at most one buffer and drops the rest, so a slow
// consumer sees fresh depth, not a backlog.
package gstdepth

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"

	"github.com/e7canasta/meshview/cloud"
)

// Config describes one capture source.
type Config struct {
	// URI is the capture source, in any scheme uridecodebin accepts.
	URI string
	// Width and Height of the organized grid (default 320x240). The
	// pipeline scales the decoded video to this grid.
	Width  int
	Height int
	// FPS caps the delivery rate (default 30).
	FPS float64
	// Intrinsics back-project depth pixels. The zero value selects
	// DefaultIntrinsics for the configured grid.
	Intrinsics Intrinsics
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.Width <= 0 {
		out.Width = 320
	}
	if out.Height <= 0 {
		out.Height = 240
	}
	if out.FPS <= 0 {
		out.FPS = 30
	}
	if out.Intrinsics == (Intrinsics{}) {
		out.Intrinsics = DefaultIntrinsics(out.Width, out.Height)
	}
	return out
}

// Grabber captures depth video over GStreamer and delivers organized
// clouds. It implements grabber.Provider.
type Grabber struct {
	cfg Config

	// mu serializes lifecycle transitions against the streaming-thread
	// sample callback. Holding it across the callback is what makes
	// Stop synchronous: once Stop flips running under mu, no further
	// delivery can be in flight.
	mu       sync.Mutex
	cb       func(*cloud.Cloud)
	elements *pipelineElements
	running  bool

	seq          atomic.Uint64
	delivered    atomic.Uint64
	decodeFaults atomic.Uint64
}

// New creates a grabber; the pipeline is not built until Start.
func New(cfg Config) (*Grabber, error) {
	if cfg.URI == "" {
		return nil, errors.New("gstdepth: config needs a capture URI")
	}
	return &Grabber{cfg: cfg.withDefaults()}, nil
}

// RegisterCallback implements grabber.Provider. Must be called before
// Start; the callback runs on the GStreamer streaming thread.
func (g *Grabber) RegisterCallback(fn func(*cloud.Cloud)) {
	g.mu.Lock()
	g.cb = fn
	g.mu.Unlock()
}

// ProvidesColor implements the capability probe. Depth video carries no
// color plane.
func (g *Grabber) ProvidesColor() bool {
	return false
}

// Delivered returns the number of clouds handed to the callback so far.
func (g *Grabber) Delivered() uint64 {
	return g.delivered.Load()
}

// DecodeFaults returns the number of frames skipped because the buffer
// could not be read or converted.
func (g *Grabber) DecodeFaults() uint64 {
	return g.decodeFaults.Load()
}

// Start builds the pipeline and moves it to PLAYING. Frames arrive
// asynchronously once decoding begins.
func (g *Grabber) Start() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running {
		return errors.New("gstdepth: already started")
	}

	elements, err := createPipeline(g.cfg.URI, g.cfg.Width, g.cfg.Height, g.cfg.FPS)
	if err != nil {
		return fmt.Errorf("gstdepth: failed to create pipeline: %w", err)
	}

	elements.AppSink.SetCallbacks(&app.SinkCallbacks{
		NewSampleFunc: g.onNewSample,
	})

	if err := elements.Pipeline.SetState(gst.StatePlaying); err != nil {
		destroyPipeline(elements)
		return fmt.Errorf("gstdepth: failed to start pipeline: %w", err)
	}

	g.elements = elements
	g.running = true

	slog.Info("gstdepth: capture started",
		"uri", g.cfg.URI,
		"grid", fmt.Sprintf("%dx%d", g.cfg.Width, g.cfg.Height),
		"fps", g.cfg.FPS,
	)
	return nil
}

// Stop tears the pipeline down. Synchronous by contract: the running
// flag flips under the same mutex the sample callback delivers under,
// so after Stop returns the callback is never invoked again. Idempotent.
func (g *Grabber) Stop() error {
	g.mu.Lock()
	if !g.running {
		g.mu.Unlock()
		return nil
	}
	g.running = false
	elements := g.elements
	g.elements = nil
	g.mu.Unlock()

	if err := destroyPipeline(elements); err != nil {
		return fmt.Errorf("gstdepth: teardown failed: %w", err)
	}
	slog.Info("gstdepth: capture stopped",
		"delivered", g.delivered.Load(),
		"decode_faults", g.decodeFaults.Load(),
	)
	return nil
}

// onNewSample runs on the GStreamer streaming thread for every frame the
// appsink retains. A frame that fails to read or convert is skipped; one
// corrupt buffer must not kill the stream.
func (g *Grabber) onNewSample(sink *app.Sink) gst.FlowReturn {
	sample := sink.PullSample()
	if sample == nil {
		slog.Warn("gstdepth: failed to pull sample from appsink, skipping frame")
		g.decodeFaults.Add(1)
		return gst.FlowOK
	}

	buffer := sample.GetBuffer()
	if buffer == nil {
		slog.Warn("gstdepth: failed to get buffer from sample, skipping frame")
		g.decodeFaults.Add(1)
		return gst.FlowOK
	}

	mapInfo := buffer.Map(gst.MapRead)
	data := mapInfo.Bytes()
	if len(data) == 0 {
		buffer.Unmap()
		slog.Warn("gstdepth: empty buffer received")
		g.decodeFaults.Add(1)
		return gst.FlowOK
	}

	c, err := CloudFromDepth(data, g.cfg.Width, g.cfg.Height, g.cfg.Intrinsics)
	buffer.Unmap()
	if err != nil {
		slog.Warn("gstdepth: dropping undecodable frame", "error", err)
		g.decodeFaults.Add(1)
		return gst.FlowOK
	}

	c.Seq = g.seq.Add(1)
	c.Timestamp = time.Now()
	c.TraceID = uuid.New().String()

	g.mu.Lock()
	if g.running && g.cb != nil {
		g.cb(c)
		g.delivered.Add(1)
		slog.Debug("gstdepth: frame delivered",
			"seq", c.Seq,
			"trace_id", c.TraceID,
		)
	}
	g.mu.Unlock()

	return gst.FlowOK
}
