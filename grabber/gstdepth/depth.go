package gstdepth

import (
	"errors"
	"fmt"

	"github.com/e7canasta/meshview/cloud"
)

// Intrinsics is the pinhole camera model used to back-project depth
// pixels into the camera frame.
type Intrinsics struct {
	// Fx, Fy are the focal lengths in pixels.
	Fx, Fy float32
	// Cx, Cy locate the principal point in pixel coordinates.
	Cx, Cy float32
	// DepthScale converts a raw 16-bit depth unit to meters.
	// Structured-light sensors typically report millimeters (0.001).
	DepthScale float32
}

// DefaultIntrinsics returns VGA structured-light intrinsics (fx=fy=525 at
// 640x480) scaled to the given grid, with millimeter depth units.
func DefaultIntrinsics(width, height int) Intrinsics {
	f := 525.0 * float32(width) / 640.0
	return Intrinsics{
		Fx: f, Fy: f,
		Cx: float32(width) / 2, Cy: float32(height) / 2,
		DepthScale: 0.001,
	}
}

// ErrBadFrame is wrapped by CloudFromDepth for buffers that cannot carry
// a width x height 16-bit depth image.
var ErrBadFrame = errors.New("gstdepth: malformed depth frame")

// CloudFromDepth back-projects one GRAY16_LE depth image into an
// organized cloud.
//
// The buffer holds height rows of little-endian uint16 samples; rows may
// carry trailing stride padding, which is skipped. Zero depth means the
// sensor saw nothing at that pixel and becomes an invalid (NaN) sample,
// so downstream triangulation treats it as a hole.
func CloudFromDepth(raw []byte, width, height int, in Intrinsics) (*cloud.Cloud, error) {
	if width < 2 || height < 2 {
		return nil, fmt.Errorf("%w: grid %dx%d", ErrBadFrame, width, height)
	}
	rowBytes := width * 2
	if len(raw) < rowBytes*height {
		return nil, fmt.Errorf("%w: %d bytes for %dx%d (need %d)",
			ErrBadFrame, len(raw), width, height, rowBytes*height)
	}
	stride := len(raw) / height
	if stride < rowBytes {
		return nil, fmt.Errorf("%w: row stride %d < %d", ErrBadFrame, stride, rowBytes)
	}

	c := cloud.New(width, height)
	for row := 0; row < height; row++ {
		line := raw[row*stride:]
		for col := 0; col < width; col++ {
			d := uint16(line[col*2]) | uint16(line[col*2+1])<<8
			if d == 0 {
				continue // invalid sample, keep the NaN from cloud.New
			}
			z := float32(d) * in.DepthScale
			c.Set(col, row, cloud.Point{
				X: (float32(col) - in.Cx) * z / in.Fx,
				Y: (float32(row) - in.Cy) * z / in.Fy,
				Z: z,
			})
		}
	}
	return c, nil
}
