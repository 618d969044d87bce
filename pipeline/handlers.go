package pipeline

import (
	"time"

	"github.com/e7canasta/meshview/cloud"
)

// OnCloud is the acquisition callback handler. The grabber invokes it once
// per delivered frame on its own goroutine; it must never block on the
// consumer and never let a fault escape.
func (p *Pipeline) OnCloud(c *cloud.Cloud) {
	p.cloudsDelivered.Add(1)
	p.computeRate.Record()

	// Reconstruct-if-idle: a dirty slot means the renderer has not picked
	// up the previous result yet. Keep the latest raw frame available but
	// skip triangulating it; the in-flight mesh stays current. The check
	// and the refresh are one slot operation, so a take landing in
	// between cannot leave a re-dirtied slot holding a cloud without its
	// mesh.
	if p.slot.RefreshIfDirty(c) {
		p.skips.Add(1)
		return
	}

	// Reconstruction runs outside any lock; only the publish below takes
	// the slot mutex, and only for the pointer swap.
	m, err := p.mesher.Reconstruct(c)
	if err != nil {
		p.faults.Add(1)
		p.log.Warn("pipeline: reconstruction failed, frame dropped",
			"seq", c.Seq, "trace_id", c.TraceID, "error", err)
		return
	}

	p.reconstructions.Add(1)
	p.slot.Publish(m, c)
}

// OnRenderTick is the render tick handler. The display invokes it once per
// refresh tick on its own goroutine. Safe to call with no new data: beyond
// the bounded idle sleep it is a no-op.
func (p *Pipeline) OnRenderTick() {
	m, c, ok := p.slot.TryTake()
	if !ok || m == nil {
		// Nothing new; yield briefly instead of busy-spinning while the
		// first frame (or the next one) is still being produced. The nil
		// check backstops the slot invariant that every taken payload
		// carries a mesh; pushing a meshless update would blank the
		// displayed surface.
		time.Sleep(p.cfg.IdleWait)
		return
	}

	p.display.UpdateSurface(p.cfg.SurfaceID, m, c)
	p.display.SetRepresentation(p.cfg.SurfaceID, p.cfg.Representation)
	p.renders.Add(1)
	p.renderRate.Record()
}
