package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrAlreadyRan is returned when Run is called on a pipeline that has left
// the created state. A Pipeline runs once; build a new one to restart.
var ErrAlreadyRan = errors.New("pipeline: already ran")

// idlePollInterval paces the driver's wait-for-stop loop. 1ms keeps
// shutdown latency negligible without measurable CPU cost.
const idlePollInterval = time.Millisecond

// Run drives the full lifecycle: created → running → stopping → stopped.
//
// It registers the acquisition callback, attaches the render tick to the
// display's refresh loop, starts the grabber, then idle-waits until the
// display stops or ctx is cancelled. Teardown stops the grabber first;
// the grabber's quiescence guarantee means no handler can run against the
// slot after that point.
//
// Run blocks for the pipeline's whole life and returns once everything is
// torn down. It returns the grabber start/stop error, if any, and
// ctx.Err() when cancellation triggered the shutdown.
func (p *Pipeline) Run(ctx context.Context) error {
	if !p.state.CompareAndSwap(int32(StateCreated), int32(StateRunning)) {
		return ErrAlreadyRan
	}

	p.source.RegisterCallback(p.OnCloud)
	p.display.RunOnRenderThread(p.OnRenderTick)

	if err := p.source.Start(); err != nil {
		p.state.Store(int32(StateStopped))
		return fmt.Errorf("pipeline: starting acquisition: %w", err)
	}
	p.log.Info("pipeline: running",
		"surface", p.cfg.SurfaceID, "representation", p.cfg.Representation.String())

	// Idle-wait: the only thing the driver thread does while the two
	// handlers work is watch for the display to go away.
	for !p.display.HasStopped() && ctx.Err() == nil {
		time.Sleep(idlePollInterval)
	}

	p.state.Store(int32(StateStopping))
	p.log.Info("pipeline: stopping", "reason", stopReason(ctx, p))

	// Stop acquisition first. Stop is synchronous: after it returns no
	// OnCloud invocation can touch the slot, so teardown cannot race a
	// late frame.
	stopErr := p.source.Stop()

	p.state.Store(int32(StateStopped))
	st := p.Stats()
	p.log.Info("pipeline: stopped",
		"clouds", st.CloudsDelivered,
		"reconstructions", st.Reconstructions,
		"skips", st.Skips,
		"faults", st.Faults,
		"renders", st.Renders,
		"slot_drops", st.Slot.Drops,
	)

	if stopErr != nil {
		return fmt.Errorf("pipeline: stopping acquisition: %w", stopErr)
	}
	return ctx.Err()
}

func stopReason(ctx context.Context, p *Pipeline) string {
	if p.display.HasStopped() {
		return "display stopped"
	}
	if ctx.Err() != nil {
		return "context cancelled"
	}
	return "unknown"
}
