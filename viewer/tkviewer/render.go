package tkviewer

import (
	"image"
	"image/color"
	"sort"

	"github.com/e7canasta/meshview/cloud"
	"github.com/e7canasta/meshview/mesh"
	"github.com/e7canasta/meshview/viewer"
)

// screenPoint is one projected vertex in pixel coordinates.
type screenPoint struct {
	X, Y int
	// Z is the camera-frame depth, kept for shading and painter sorting.
	Z  float32
	OK bool
}

// viewportMargin leaves a border around the projected cloud so the mesh
// never touches the window edge.
const viewportMargin = 0.05

var background = color.RGBA{R: 12, G: 12, B: 20, A: 255}

// projectCloud perspective-projects every valid sample into a w x h
// viewport and returns the screen points plus the depth range.
//
// The camera sits at the sensor origin looking down +Z, so projection is
// u = X/Z, v = Y/Z. The projected extent is then fit to the viewport with
// uniform scale, which keeps the aspect ratio regardless of the sensor's
// focal length.
func projectCloud(c *cloud.Cloud, w, h int) (pts []screenPoint, zmin, zmax float32) {
	pts = make([]screenPoint, len(c.Points))

	const minDepth = 1e-6
	var minU, maxU, minV, maxV float32
	first := true
	for _, p := range c.Points {
		if !p.IsFinite() || p.Z < minDepth {
			continue
		}
		u := p.X / p.Z
		v := p.Y / p.Z
		if first {
			minU, maxU, minV, maxV = u, u, v, v
			zmin, zmax = p.Z, p.Z
			first = false
			continue
		}
		if u < minU {
			minU = u
		}
		if u > maxU {
			maxU = u
		}
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
		if p.Z < zmin {
			zmin = p.Z
		}
		if p.Z > zmax {
			zmax = p.Z
		}
	}
	if first {
		return pts, 0, 0 // nothing valid, all points stay !OK
	}

	spanU := maxU - minU
	spanV := maxV - minV
	if spanU <= 0 {
		spanU = 1
	}
	if spanV <= 0 {
		spanV = 1
	}
	usableW := float32(w) * (1 - 2*viewportMargin)
	usableH := float32(h) * (1 - 2*viewportMargin)
	scale := usableW / spanU
	if s := usableH / spanV; s < scale {
		scale = s
	}
	// Center the projected extent.
	offX := (float32(w) - spanU*scale) / 2
	offY := (float32(h) - spanV*scale) / 2

	for i, p := range c.Points {
		if !p.IsFinite() || p.Z < minDepth {
			continue
		}
		pts[i] = screenPoint{
			X:  int((p.X/p.Z-minU)*scale + offX),
			Y:  int((p.Y/p.Z-minV)*scale + offY),
			Z:  p.Z,
			OK: true,
		}
	}
	return pts, zmin, zmax
}

// shade maps a depth to a near-bright gray ramp over [zmin, zmax].
func shade(z, zmin, zmax float32) color.RGBA {
	t := float32(1)
	if zmax > zmin {
		t = (zmax - z) / (zmax - zmin)
	}
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	v := uint8(40 + t*215)
	return color.RGBA{R: v, G: v, B: v, A: 255}
}

// vertexColor picks the display color for a vertex: the source color when
// the device delivered one, a depth shade otherwise.
func vertexColor(c *cloud.Cloud, idx int, z, zmin, zmax float32) color.RGBA {
	if c.HasColor() {
		rgb := c.Colors[idx]
		return color.RGBA{R: rgb.R, G: rgb.G, B: rgb.B, A: 255}
	}
	return shade(z, zmin, zmax)
}

// newCanvas allocates a background-filled RGBA frame.
func newCanvas(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = background.R
		img.Pix[i+1] = background.G
		img.Pix[i+2] = background.B
		img.Pix[i+3] = background.A
	}
	return img
}

// renderFrame rasterizes one surface into a fresh RGBA image.
func renderFrame(m *mesh.Mesh, rep viewer.Representation, w, h int) *image.RGBA {
	img := newCanvas(w, h)
	rasterize(img, m, rep)
	return img
}

// rasterize draws one surface over whatever the image already holds, so
// multiple surfaces can stack on a shared canvas.
func rasterize(img *image.RGBA, m *mesh.Mesh, rep viewer.Representation) {
	if m == nil || m.Cloud == nil {
		return
	}
	w := img.Rect.Dx()
	h := img.Rect.Dy()

	pts, zmin, zmax := projectCloud(m.Cloud, w, h)

	switch rep {
	case viewer.PointsOnly:
		for i, sp := range pts {
			if sp.OK {
				setPixel(img, sp.X, sp.Y, vertexColor(m.Cloud, i, sp.Z, zmin, zmax))
			}
		}

	case viewer.Solid:
		// Painter's algorithm: far triangles first.
		order := make([]int, len(m.Triangles))
		for i := range order {
			order[i] = i
		}
		depth := func(t mesh.Triangle) float32 {
			return pts[t[0]].Z + pts[t[1]].Z + pts[t[2]].Z
		}
		sort.Slice(order, func(a, b int) bool {
			return depth(m.Triangles[order[a]]) > depth(m.Triangles[order[b]])
		})
		for _, ti := range order {
			t := m.Triangles[ti]
			a, b, c := pts[t[0]], pts[t[1]], pts[t[2]]
			if !a.OK || !b.OK || !c.OK {
				continue
			}
			mid := (a.Z + b.Z + c.Z) / 3
			fillTriangle(img, a, b, c, shade(mid, zmin, zmax))
		}

	default: // Wireframe
		for _, t := range m.Triangles {
			a, b, c := pts[t[0]], pts[t[1]], pts[t[2]]
			if !a.OK || !b.OK || !c.OK {
				continue
			}
			col := vertexColor(m.Cloud, int(t[0]), a.Z, zmin, zmax)
			drawLine(img, a.X, a.Y, b.X, b.Y, col)
			drawLine(img, b.X, b.Y, c.X, c.Y, col)
			drawLine(img, c.X, c.Y, a.X, a.Y, col)
		}
	}
}

func setPixel(img *image.RGBA, x, y int, c color.RGBA) {
	if x < 0 || y < 0 || x >= img.Rect.Dx() || y >= img.Rect.Dy() {
		return
	}
	img.SetRGBA(x, y, c)
}

// drawLine rasterizes a clipped Bresenham line.
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	dx := x1 - x0
	if dx < 0 {
		dx = -dx
	}
	dy := y1 - y0
	if dy < 0 {
		dy = -dy
	}
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	err := dx - dy
	for {
		setPixel(img, x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// fillTriangle rasterizes a flat-shaded triangle with half-space tests
// over its bounding box. Either winding is accepted.
func fillTriangle(img *image.RGBA, a, b, c screenPoint, col color.RGBA) {
	minX := min3(a.X, b.X, c.X)
	maxX := max3(a.X, b.X, c.X)
	minY := min3(a.Y, b.Y, c.Y)
	maxY := max3(a.Y, b.Y, c.Y)
	if minX < 0 {
		minX = 0
	}
	if minY < 0 {
		minY = 0
	}
	if maxX >= img.Rect.Dx() {
		maxX = img.Rect.Dx() - 1
	}
	if maxY >= img.Rect.Dy() {
		maxY = img.Rect.Dy() - 1
	}

	area := edge(a.X, a.Y, b.X, b.Y, c.X, c.Y)
	if area == 0 {
		return // degenerate, contributes nothing
	}

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			w0 := edge(b.X, b.Y, c.X, c.Y, x, y)
			w1 := edge(c.X, c.Y, a.X, a.Y, x, y)
			w2 := edge(a.X, a.Y, b.X, b.Y, x, y)
			if area > 0 {
				if w0 >= 0 && w1 >= 0 && w2 >= 0 {
					img.SetRGBA(x, y, col)
				}
			} else {
				if w0 <= 0 && w1 <= 0 && w2 <= 0 {
					img.SetRGBA(x, y, col)
				}
			}
		}
	}
}

// edge is the signed doubled area of triangle (ax,ay)(bx,by)(px,py).
func edge(ax, ay, bx, by, px, py int) int {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

func max3(a, b, c int) int {
	if b > a {
		a = b
	}
	if c > a {
		a = c
	}
	return a
}
