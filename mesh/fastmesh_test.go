package mesh_test

import (
	"errors"
	"testing"

	"github.com/e7canasta/meshview/cloud"
	"github.com/e7canasta/meshview/mesh"
)

// planarCloud builds a flat organized cloud at z=1 with 1cm pixel pitch.
func planarCloud(w, h int) *cloud.Cloud {
	c := cloud.New(w, h)
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			c.Set(col, row, cloud.Point{
				X: float32(col) * 0.01,
				Y: float32(row) * 0.01,
				Z: 1.0,
			})
		}
	}
	return c
}

// TestFullGridTriangleCount validates that a fully valid w×h grid meshes
// into (w-1)*(h-1)*2 triangles in every triangulation mode.
func TestFullGridTriangleCount(t *testing.T) {
	modes := []mesh.TriangulationType{
		mesh.TriangleRightCut,
		mesh.TriangleLeftCut,
		mesh.TriangleAdaptiveCut,
	}
	c := planarCloud(4, 4)
	want := 3 * 3 * 2

	for _, mode := range modes {
		r := mesh.Reconstructor{Type: mode}
		m, err := r.Reconstruct(c)
		if err != nil {
			t.Fatalf("%v: Reconstruct failed: %v", mode, err)
		}
		if m.TriangleCount() != want {
			t.Errorf("%v: %d triangles, want %d", mode, m.TriangleCount(), want)
		}
	}
}

// TestNaNHoleContributesNothing validates that an invalid sample produces a
// hole: no triangle may reference it, and the mesh still covers the rest.
func TestNaNHoleContributesNothing(t *testing.T) {
	c := planarCloud(3, 3)
	center := uint32(c.Index(1, 1))
	c.Set(1, 1, cloud.Invalid())

	r := mesh.Reconstructor{Type: mesh.TriangleAdaptiveCut}
	m, err := r.Reconstruct(c)
	if err != nil {
		t.Fatalf("Reconstruct failed on cloud with NaN hole: %v", err)
	}
	if m.TriangleCount() == 0 {
		t.Fatal("hole swallowed the entire mesh")
	}
	for _, tri := range m.Triangles {
		for _, idx := range tri {
			if idx == center {
				t.Fatalf("triangle %v references invalid sample %d", tri, center)
			}
		}
	}
	t.Logf("mesh with hole: %d triangles (full grid would be 8)", m.TriangleCount())
}

// TestMaxEdgeLengthCutsDiscontinuity validates the depth-discontinuity cut:
// triangles bridging a depth step longer than MaxEdgeLength are dropped.
//
// Scenario: 3x3 grid, rightmost column pushed 9m behind the rest. With
// MaxEdgeLength=0.5 only the quads between columns 0 and 1 survive.
func TestMaxEdgeLengthCutsDiscontinuity(t *testing.T) {
	c := planarCloud(3, 3)
	for row := 0; row < 3; row++ {
		p := c.At(2, row)
		p.Z = 10
		c.Set(2, row, p)
	}

	r := mesh.Reconstructor{MaxEdgeLength: 0.5, Type: mesh.TriangleRightCut}
	m, err := r.Reconstruct(c)
	if err != nil {
		t.Fatalf("Reconstruct failed: %v", err)
	}

	// One quad column × two quad rows × two triangles each.
	if m.TriangleCount() != 4 {
		t.Errorf("%d triangles, want 4 (discontinuity not cut)", m.TriangleCount())
	}
	farColumn := map[uint32]bool{
		uint32(c.Index(2, 0)): true,
		uint32(c.Index(2, 1)): true,
		uint32(c.Index(2, 2)): true,
	}
	for _, tri := range m.Triangles {
		for _, idx := range tri {
			if farColumn[idx] {
				t.Fatalf("triangle %v bridges the depth step", tri)
			}
		}
	}
}

// TestAdaptiveCutPicksShortDiagonal validates diagonal selection on a quad
// where the fixed right cut would bridge a fold in the surface.
func TestAdaptiveCutPicksShortDiagonal(t *testing.T) {
	c := cloud.New(2, 2)
	c.Set(0, 0, cloud.Point{X: 0, Y: 0, Z: 0})   // a, index 0
	c.Set(1, 0, cloud.Point{X: 1, Y: 0, Z: 1})   // b, index 1
	c.Set(0, 1, cloud.Point{X: 0, Y: 1, Z: 1})   // d, index 2
	c.Set(1, 1, cloud.Point{X: 1, Y: 1, Z: 2})   // e, index 3

	// |a-e|^2 = 6, |b-d|^2 = 2: the cut must run along b–d.
	r := mesh.Reconstructor{Type: mesh.TriangleAdaptiveCut}
	m, err := r.Reconstruct(c)
	if err != nil {
		t.Fatalf("Reconstruct failed: %v", err)
	}
	if m.TriangleCount() != 2 {
		t.Fatalf("%d triangles, want 2", m.TriangleCount())
	}
	for _, tri := range m.Triangles {
		hasB, hasD := false, false
		for _, idx := range tri {
			hasB = hasB || idx == 1
			hasD = hasD || idx == 2
		}
		if !hasB || !hasD {
			t.Errorf("triangle %v does not lie on the b–d diagonal", tri)
		}
	}
}

// TestAdaptiveCutThreeValidCorners validates that a quad with one invalid
// corner still yields its single valid triangle.
func TestAdaptiveCutThreeValidCorners(t *testing.T) {
	c := planarCloud(2, 2)
	c.Set(1, 0, cloud.Invalid()) // kill b

	r := mesh.Reconstructor{Type: mesh.TriangleAdaptiveCut}
	m, err := r.Reconstruct(c)
	if err != nil {
		t.Fatalf("Reconstruct failed: %v", err)
	}
	if m.TriangleCount() != 1 {
		t.Fatalf("%d triangles, want 1", m.TriangleCount())
	}
	want := mesh.Triangle{0, 2, 3} // a, d, e
	if m.Triangles[0] != want {
		t.Errorf("triangle = %v, want %v", m.Triangles[0], want)
	}
}

// TestTrianglePixelSizeDecimates validates the grid stride: with pixel size
// 2 on a 5x5 grid only every second sample becomes a vertex.
func TestTrianglePixelSizeDecimates(t *testing.T) {
	c := planarCloud(5, 5)

	r := mesh.Reconstructor{TrianglePixelSize: 2, Type: mesh.TriangleRightCut}
	m, err := r.Reconstruct(c)
	if err != nil {
		t.Fatalf("Reconstruct failed: %v", err)
	}
	if m.TriangleCount() != 2*2*2 {
		t.Errorf("%d triangles, want 8", m.TriangleCount())
	}
	for _, tri := range m.Triangles {
		for _, idx := range tri {
			col := int(idx) % 5
			row := int(idx) / 5
			if col%2 != 0 || row%2 != 0 {
				t.Errorf("triangle %v uses off-stride vertex (%d,%d)", tri, col, row)
			}
		}
	}
}

// TestDegenerateCloudsRejected validates the reconstruction-fault contract:
// malformed clouds return an error instead of panicking, so the pipeline
// can drop the frame and continue.
func TestDegenerateCloudsRejected(t *testing.T) {
	r := mesh.Reconstructor{}

	if _, err := r.Reconstruct(nil); !errors.Is(err, mesh.ErrEmptyCloud) {
		t.Errorf("nil cloud: err = %v, want ErrEmptyCloud", err)
	}
	if _, err := r.Reconstruct(&cloud.Cloud{}); !errors.Is(err, mesh.ErrEmptyCloud) {
		t.Errorf("empty cloud: err = %v, want ErrEmptyCloud", err)
	}

	unorganized := &cloud.Cloud{Width: 9, Height: 1, Points: make([]cloud.Point, 9)}
	if _, err := r.Reconstruct(unorganized); !errors.Is(err, mesh.ErrUnorganized) {
		t.Errorf("unorganized cloud: err = %v, want ErrUnorganized", err)
	}
}
