package cloud

import (
	"time"

	"github.com/chewxy/math32"
)

// Point is a single 3D sample in the sensor's camera frame (meters).
// Invalid samples carry NaN in all three coordinates.
type Point struct {
	X, Y, Z float32
}

// IsFinite reports whether the point is a valid surface sample.
func (p Point) IsFinite() bool {
	return !math32.IsNaN(p.X) && !math32.IsNaN(p.Y) && !math32.IsNaN(p.Z) &&
		!math32.IsInf(p.X, 0) && !math32.IsInf(p.Y, 0) && !math32.IsInf(p.Z, 0)
}

// DistanceSquared returns the squared Euclidean distance to q.
// Squared form avoids the sqrt on the triangulation hot path.
func (p Point) DistanceSquared(q Point) float32 {
	dx := p.X - q.X
	dy := p.Y - q.Y
	dz := p.Z - q.Z
	return dx*dx + dy*dy + dz*dz
}

// Distance returns the Euclidean distance to q.
func (p Point) Distance(q Point) float32 {
	return math32.Sqrt(p.DistanceSquared(q))
}

// Invalid returns the canonical invalid sample (NaN coordinates).
func Invalid() Point {
	nan := math32.NaN()
	return Point{X: nan, Y: nan, Z: nan}
}

// RGB is a per-point color sample for color-capable devices.
type RGB struct {
	R, G, B uint8
}

// Cloud is one organized point-cloud frame.
//
// Points is row-major: index = row*Width + col. Colors is either nil
// (geometry-only device) or parallel to Points.
type Cloud struct {
	Width  int
	Height int
	Points []Point
	Colors []RGB

	// Seq is the monotonic sequence number assigned by the acquisition source.
	Seq uint64
	// Timestamp is the capture time (source time, not processing time).
	Timestamp time.Time
	// TraceID is a unique identifier for tracing a frame through the pipeline.
	TraceID string
}

// New allocates an organized cloud of the given grid size with all points
// marked invalid.
func New(width, height int) *Cloud {
	c := &Cloud{
		Width:  width,
		Height: height,
		Points: make([]Point, width*height),
	}
	inv := Invalid()
	for i := range c.Points {
		c.Points[i] = inv
	}
	return c
}

// IsOrganized reports whether the cloud carries a usable 2D grid layout.
func (c *Cloud) IsOrganized() bool {
	return c.Height > 1 && c.Width > 1 && len(c.Points) == c.Width*c.Height
}

// Size returns the number of grid cells (valid or not).
func (c *Cloud) Size() int {
	return len(c.Points)
}

// HasColor reports whether per-point color is present.
func (c *Cloud) HasColor() bool {
	return len(c.Colors) == len(c.Points) && len(c.Colors) > 0
}

// Index returns the flat index of grid cell (col, row). No bounds check;
// callers iterate within Width/Height.
func (c *Cloud) Index(col, row int) int {
	return row*c.Width + col
}

// At returns the point at grid cell (col, row).
func (c *Cloud) At(col, row int) Point {
	return c.Points[row*c.Width+col]
}

// Set stores a point at grid cell (col, row).
func (c *Cloud) Set(col, row int, p Point) {
	c.Points[row*c.Width+col] = p
}
