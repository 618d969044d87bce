// Package viewer defines the contract between the pipeline and a mesh
// display.
//
// The pipeline does not own any rendering loop. A Display runs its own
// refresh loop (vsync-paced window, test harness, headless recorder) and
// invokes the attached callback once per tick; everything the pipeline does
// on the consumer side happens inside that callback.
package viewer

import (
	"fmt"

	"github.com/e7canasta/meshview/cloud"
	"github.com/e7canasta/meshview/mesh"
)

// Representation selects how a displayed surface is drawn.
type Representation int

const (
	// Wireframe draws triangle edges only (the classic live-mesh view).
	Wireframe Representation = iota
	// Solid draws depth-shaded filled triangles.
	Solid
	// PointsOnly draws the raw cloud samples without triangles.
	PointsOnly
)

// String returns the config/log spelling of the representation.
func (r Representation) String() string {
	switch r {
	case Wireframe:
		return "wireframe"
	case Solid:
		return "solid"
	case PointsOnly:
		return "points"
	default:
		return fmt.Sprintf("representation(%d)", int(r))
	}
}

// Display is the visualization collaborator.
//
// Implementations must guarantee:
//   - The render callback is invoked from a single goroutine (the display's
//     own refresh loop), once per display tick.
//   - UpdateSurface has replace-named-surface semantics: updating an id
//     replaces whatever was previously shown under that id.
//   - HasStopped is safe to call from any goroutine and becomes true once
//     the display will never tick again (window closed, loop exited).
type Display interface {
	// RunOnRenderThread attaches the per-tick callback. Must be called
	// before the display's loop starts ticking.
	RunOnRenderThread(fn func())

	// UpdateSurface replaces the surface shown under id. The raw source
	// cloud rides along for point-level diagnostics; implementations may
	// ignore it.
	UpdateSurface(id string, m *mesh.Mesh, c *cloud.Cloud)

	// SetRepresentation sets the rendering mode for the surface id.
	SetRepresentation(id string, rep Representation)

	// HasStopped reports whether the display has shut down. The pipeline
	// driver polls this to trigger teardown.
	HasStopped() bool
}
