package pipeline

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/e7canasta/meshview/cloud"
	"github.com/e7canasta/meshview/frameslot"
	"github.com/e7canasta/meshview/grabber"
	"github.com/e7canasta/meshview/mesh"
	"github.com/e7canasta/meshview/ratemon"
	"github.com/e7canasta/meshview/viewer"
)

// Mesher turns an organized cloud into a surface mesh. mesh.Reconstructor
// satisfies it; tests inject counting or failing implementations.
type Mesher interface {
	Reconstruct(c *cloud.Cloud) (*mesh.Mesh, error)
}

// State is the pipeline lifecycle state.
type State int32

const (
	StateCreated State = iota
	StateRunning
	StateStopping
	StateStopped
)

// String returns the lifecycle state name.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Config tunes the pipeline. The zero value is usable; unset fields fall
// back to the defaults below.
type Config struct {
	// SurfaceID names the displayed surface (default "surface"). Updating
	// the same id replaces the previous surface on the display.
	SurfaceID string
	// Representation is the rendering mode pushed with every update
	// (default Wireframe, the classic live-mesh look).
	Representation viewer.Representation
	// IdleWait bounds the consumer's sleep when no new data is ready
	// (default 1ms). Keeps the render callback from busy-spinning before
	// the first frame without adding visible latency.
	IdleWait time.Duration
	// RateWindow is the sample window of both frame-rate monitors
	// (default ratemon.DefaultWindow).
	RateWindow int
	// RateSink receives emitted stage rates; nil logs via slog.
	RateSink ratemon.Sink
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Stats is a snapshot of pipeline activity.
type Stats struct {
	// Slot carries the shared-slot counters (publishes, takes, drops).
	Slot frameslot.Stats
	// CloudsDelivered counts every frame the grabber handed to OnCloud.
	CloudsDelivered uint64
	// Reconstructions counts frames actually triangulated.
	Reconstructions uint64
	// Skips counts frames whose reconstruction was skipped because the
	// consumer had not caught up (reconstruct-if-idle policy).
	Skips uint64
	// Faults counts reconstruction failures (frame dropped, pipeline
	// continued).
	Faults uint64
	// Renders counts surface updates pushed to the display.
	Renders uint64
	// ComputeHz / RenderHz are the last emitted window rates.
	ComputeHz float64
	RenderHz  float64
}

// Pipeline owns the shared frame slot and the two handlers, and drives the
// collaborator lifecycle. Create with New, run with Run.
type Pipeline struct {
	cfg     Config
	source  grabber.Provider
	display viewer.Display
	mesher  Mesher
	slot    *frameslot.Slot
	log     *slog.Logger

	// computeRate is owned by the grabber goroutine, renderRate by the
	// display goroutine; they are never shared.
	computeRate *ratemon.Monitor
	renderRate  *ratemon.Monitor

	state atomic.Int32

	cloudsDelivered atomic.Uint64
	reconstructions atomic.Uint64
	skips           atomic.Uint64
	faults          atomic.Uint64
	renders         atomic.Uint64
}

// New assembles a pipeline around the given collaborators. The mesher is
// typically a mesh.Reconstructor value configured from the CLI.
func New(source grabber.Provider, display viewer.Display, mesher Mesher, cfg Config) *Pipeline {
	if cfg.SurfaceID == "" {
		cfg.SurfaceID = "surface"
	}
	if cfg.IdleWait <= 0 {
		cfg.IdleWait = time.Millisecond
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	p := &Pipeline{
		cfg:         cfg,
		source:      source,
		display:     display,
		mesher:      mesher,
		slot:        frameslot.New(),
		log:         cfg.Logger,
		computeRate: ratemon.New("computation", cfg.RateWindow, cfg.RateSink),
		renderRate:  ratemon.New("visualization", cfg.RateWindow, cfg.RateSink),
	}
	p.state.Store(int32(StateCreated))
	return p
}

// State returns the current lifecycle state.
func (p *Pipeline) State() State {
	return State(p.state.Load())
}

// Stats returns an operational snapshot, safe from any goroutine.
func (p *Pipeline) Stats() Stats {
	return Stats{
		Slot:            p.slot.Stats(),
		CloudsDelivered: p.cloudsDelivered.Load(),
		Reconstructions: p.reconstructions.Load(),
		Skips:           p.skips.Load(),
		Faults:          p.faults.Load(),
		Renders:         p.renders.Load(),
		ComputeHz:       p.computeRate.LastRate(),
		RenderHz:        p.renderRate.LastRate(),
	}
}
