package mesh

import (
	"errors"
	"fmt"

	"github.com/e7canasta/meshview/cloud"
)

// TriangulationType selects how grid quads are split into triangles.
type TriangulationType int

const (
	// TriangleRightCut splits every quad along the upper-left to
	// lower-right diagonal.
	TriangleRightCut TriangulationType = iota
	// TriangleLeftCut splits every quad along the upper-right to
	// lower-left diagonal.
	TriangleLeftCut
	// TriangleAdaptiveCut splits each quad along its shorter diagonal,
	// so the cut follows the surface across depth discontinuities.
	TriangleAdaptiveCut
)

// String returns a human-readable mode name (used in logs and config).
func (t TriangulationType) String() string {
	switch t {
	case TriangleRightCut:
		return "right-cut"
	case TriangleLeftCut:
		return "left-cut"
	case TriangleAdaptiveCut:
		return "adaptive-cut"
	default:
		return fmt.Sprintf("triangulation(%d)", int(t))
	}
}

var (
	// ErrUnorganized is returned for clouds without a usable 2D grid layout.
	ErrUnorganized = errors.New("mesh: cloud is not organized")
	// ErrEmptyCloud is returned when the cloud has no samples at all.
	ErrEmptyCloud = errors.New("mesh: cloud is empty")
)

// Reconstructor triangulates organized clouds.
//
// The zero value is usable: unlimited edge length, pixel size 1, right cut.
// A Reconstructor is a pure function of its inputs and keeps no per-frame
// state, so one instance may be reused across frames by a single goroutine.
type Reconstructor struct {
	// MaxEdgeLength cuts triangles with any edge longer than this (meters).
	// Zero or negative disables the cut.
	MaxEdgeLength float32
	// TrianglePixelSize is the grid stride between triangle vertices.
	// 1 meshes every pixel; larger values decimate. Values below 1 are
	// treated as 1.
	TrianglePixelSize int
	// Type selects the quad-splitting strategy.
	Type TriangulationType
}

// Reconstruct triangulates the cloud and returns the surface mesh.
//
// Invalid (NaN) samples never cause an error; they simply fail to
// contribute triangles, leaving holes in the surface. Unorganized or empty
// clouds are rejected: the pipeline treats that as a reconstruction fault
// for the frame, not a crash.
func (r Reconstructor) Reconstruct(c *cloud.Cloud) (*Mesh, error) {
	if c == nil || c.Size() == 0 {
		return nil, ErrEmptyCloud
	}
	if !c.IsOrganized() {
		return nil, ErrUnorganized
	}

	step := r.TrianglePixelSize
	if step < 1 {
		step = 1
	}

	// Upper bound: two triangles per visited quad.
	quadsX := (c.Width - 1) / step
	quadsY := (c.Height - 1) / step
	m := &Mesh{
		Cloud:     c,
		Triangles: make([]Triangle, 0, quadsX*quadsY*2),
	}

	maxEdgeSq := r.MaxEdgeLength * r.MaxEdgeLength
	checkEdges := r.MaxEdgeLength > 0

	for row := 0; row+step < c.Height; row += step {
		for col := 0; col+step < c.Width; col += step {
			// Quad corners: a b
			//               d e
			ia := uint32(c.Index(col, row))
			ib := uint32(c.Index(col+step, row))
			id := uint32(c.Index(col, row+step))
			ie := uint32(c.Index(col+step, row+step))

			pa, pb := c.Points[ia], c.Points[ib]
			pd, pe := c.Points[id], c.Points[ie]
			va, vb := pa.IsFinite(), pb.IsFinite()
			vd, ve := pd.IsFinite(), pe.IsFinite()

			cut := r.Type
			if cut == TriangleAdaptiveCut {
				cut = adaptiveCut(pa, pb, pd, pe, va, vb, vd, ve)
			}

			var t1, t2 Triangle
			var ok1, ok2 bool
			switch cut {
			case TriangleLeftCut:
				// Diagonal b–d.
				t1, ok1 = Triangle{ia, id, ib}, va && vd && vb
				t2, ok2 = Triangle{ib, id, ie}, vb && vd && ve
			default: // TriangleRightCut
				// Diagonal a–e.
				t1, ok1 = Triangle{ia, id, ie}, va && vd && ve
				t2, ok2 = Triangle{ia, ie, ib}, va && ve && vb
			}

			if ok1 && (!checkEdges || edgesWithin(c, t1, maxEdgeSq)) {
				m.Triangles = append(m.Triangles, t1)
			}
			if ok2 && (!checkEdges || edgesWithin(c, t2, maxEdgeSq)) {
				m.Triangles = append(m.Triangles, t2)
			}
		}
	}

	return m, nil
}

// adaptiveCut picks the quad diagonal to split along. With all four corners
// valid the shorter diagonal wins; with three valid corners the cut that
// yields the one fully-valid triangle wins.
func adaptiveCut(pa, pb, pd, pe cloud.Point, va, vb, vd, ve bool) TriangulationType {
	if va && vb && vd && ve {
		if pa.DistanceSquared(pe) <= pb.DistanceSquared(pd) {
			return TriangleRightCut
		}
		return TriangleLeftCut
	}
	// One corner missing: exactly one diagonal still produces a triangle.
	if !va || !ve {
		return TriangleLeftCut
	}
	return TriangleRightCut
}

// edgesWithin reports whether every edge of t is at most sqrt(maxSq) long.
func edgesWithin(c *cloud.Cloud, t Triangle, maxSq float32) bool {
	p0 := c.Points[t[0]]
	p1 := c.Points[t[1]]
	p2 := c.Points[t[2]]
	return p0.DistanceSquared(p1) <= maxSq &&
		p1.DistanceSquared(p2) <= maxSq &&
		p2.DistanceSquared(p0) <= maxSq
}
