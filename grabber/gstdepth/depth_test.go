package gstdepth

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

// depthImage builds a GRAY16_LE buffer from row-major depth values,
// optionally padding each row to the given stride.
func depthImage(t *testing.T, width, height, stride int, depths []uint16) []byte {
	t.Helper()
	if stride == 0 {
		stride = width * 2
	}
	if len(depths) != width*height {
		t.Fatalf("depthImage: %d values for %dx%d", len(depths), width, height)
	}
	buf := make([]byte, stride*height)
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			binary.LittleEndian.PutUint16(buf[row*stride+col*2:], depths[row*width+col])
		}
	}
	return buf
}

// TestBackProjection validates the pinhole math on hand-checked pixels.
func TestBackProjection(t *testing.T) {
	in := Intrinsics{Fx: 100, Fy: 100, Cx: 2, Cy: 1.5, DepthScale: 0.001}

	depths := make([]uint16, 4*3)
	for i := range depths {
		depths[i] = 2000 // 2m everywhere
	}
	c, err := CloudFromDepth(depthImage(t, 4, 3, 0, depths), 4, 3, in)
	if err != nil {
		t.Fatalf("CloudFromDepth failed: %v", err)
	}
	if !c.IsOrganized() || c.Width != 4 || c.Height != 3 {
		t.Fatalf("cloud not organized as 4x3: %dx%d", c.Width, c.Height)
	}

	// Pixel at the principal point projects straight down the optical axis.
	center := c.At(2, 1)
	if center.Z != 2.0 {
		t.Errorf("center Z = %v, want 2.0", center.Z)
	}
	if math.Abs(float64(center.X)) > 1e-6 || math.Abs(float64(center.Y)) > 1e-6 {
		t.Errorf("center point = (%v, %v), want the optical axis", center.X, center.Y)
	}

	// One pixel right of the principal point: X = (3-2)*z/fx = 0.02.
	right := c.At(3, 1)
	if math.Abs(float64(right.X)-0.02) > 1e-6 {
		t.Errorf("X at (3,1) = %v, want 0.02", right.X)
	}
	// One row below: Y = (2-1.5)*z/fy = 0.01.
	below := c.At(2, 2)
	if math.Abs(float64(below.Y)-0.01) > 1e-6 {
		t.Errorf("Y at (2,2) = %v, want 0.01", below.Y)
	}
}

// TestZeroDepthBecomesHole validates that no-return pixels turn into
// invalid samples the triangulation will skip.
func TestZeroDepthBecomesHole(t *testing.T) {
	depths := []uint16{
		1000, 1000, 1000,
		1000, 0, 1000,
		1000, 1000, 1000,
	}
	c, err := CloudFromDepth(depthImage(t, 3, 3, 0, depths), 3, 3, DefaultIntrinsics(3, 3))
	if err != nil {
		t.Fatalf("CloudFromDepth failed: %v", err)
	}
	if c.At(1, 1).IsFinite() {
		t.Error("zero-depth pixel produced a finite point")
	}
	valid := 0
	for _, p := range c.Points {
		if p.IsFinite() {
			valid++
		}
	}
	if valid != 8 {
		t.Errorf("valid samples = %d, want 8", valid)
	}
}

// TestRowStridePadding validates that padded rows do not shear the grid.
func TestRowStridePadding(t *testing.T) {
	depths := []uint16{
		1000, 2000, 3000,
		4000, 5000, 6000,
	}
	// 3 columns = 6 bytes per row, padded to 8.
	c, err := CloudFromDepth(depthImage(t, 3, 2, 8, depths), 3, 2, DefaultIntrinsics(3, 2))
	if err != nil {
		t.Fatalf("CloudFromDepth failed: %v", err)
	}
	wantZ := [][]float32{{1.0, 2.0, 3.0}, {4.0, 5.0, 6.0}}
	for row := range wantZ {
		for col, z := range wantZ[row] {
			if got := c.At(col, row).Z; got != z {
				t.Errorf("Z at (%d,%d) = %v, want %v", col, row, got, z)
			}
		}
	}
}

// TestRejectsBadBuffers validates the malformed-frame guardrails.
func TestRejectsBadBuffers(t *testing.T) {
	in := DefaultIntrinsics(4, 4)

	if _, err := CloudFromDepth(make([]byte, 10), 4, 4, in); !errors.Is(err, ErrBadFrame) {
		t.Errorf("short buffer: err = %v, want ErrBadFrame", err)
	}
	if _, err := CloudFromDepth(make([]byte, 32), 4, 1, in); !errors.Is(err, ErrBadFrame) {
		t.Errorf("unorganized grid: err = %v, want ErrBadFrame", err)
	}
}

// TestDefaultIntrinsicsScale validates the VGA-derived focal scaling.
func TestDefaultIntrinsicsScale(t *testing.T) {
	in := DefaultIntrinsics(320, 240)
	if in.Fx != 262.5 || in.Fy != 262.5 {
		t.Errorf("focal = (%v, %v), want 262.5", in.Fx, in.Fy)
	}
	if in.Cx != 160 || in.Cy != 120 {
		t.Errorf("principal point = (%v, %v), want (160, 120)", in.Cx, in.Cy)
	}
	if in.DepthScale != 0.001 {
		t.Errorf("depth scale = %v, want millimeters", in.DepthScale)
	}
}
