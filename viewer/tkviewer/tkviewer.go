// Package tkviewer implements the display contract as a live Tk window.
//
// Meshes are software-rasterized into an RGBA frame, PNG-encoded and
// blitted onto a photo label. The render tick is driven by the Tk event
// loop (TclAfter), so the attached pipeline callback and all drawing run
// on a single thread, which is exactly what the display contract asks
// for. Closing the window (or the Exit button) flips HasStopped and the
// pipeline tears itself down.
package tkviewer

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"

	"github.com/e7canasta/meshview/cloud"
	"github.com/e7canasta/meshview/mesh"
	"github.com/e7canasta/meshview/viewer"
)

// Config shapes the window. The zero value is usable.
type Config struct {
	// Title of the window (default "meshview").
	Title string
	// Width and Height of the render canvas in pixels (default 960x720).
	Width  int
	Height int
	// TickInterval paces the render loop (default 33ms, ~30 Hz).
	TickInterval time.Duration
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.Title == "" {
		out.Title = "meshview"
	}
	if out.Width <= 0 {
		out.Width = 960
	}
	if out.Height <= 0 {
		out.Height = 720
	}
	if out.TickInterval <= 0 {
		out.TickInterval = 33 * time.Millisecond
	}
	return out
}

// surface is one named displayed mesh.
type surface struct {
	mesh  *mesh.Mesh
	cloud *cloud.Cloud
	rep   viewer.Representation
	dirty bool
}

// Viewer is a Tk window implementing viewer.Display.
//
// Run must be called from the main goroutine and blocks until the window
// closes. All Display methods other than HasStopped are only ever called
// from the render tick itself, per the contract, so they touch state
// without crossing threads; the mutex exists for the out-of-band
// RequestClose path.
type Viewer struct {
	cfg Config

	mu       sync.Mutex
	tickFn   func()
	surfaces map[string]*surface

	stopped      atomic.Bool
	closeRequest atomic.Bool

	afterID string
	canvas  *LabelWidget
	status  *LabelWidget
	photo   *Img

	frames uint64
}

// New creates the viewer. The window is not built until Run.
func New(cfg Config) *Viewer {
	return &Viewer{
		cfg:      cfg.withDefaults(),
		surfaces: make(map[string]*surface),
	}
}

// RunOnRenderThread implements viewer.Display. The callback is invoked
// once per tick on the Tk event loop.
func (v *Viewer) RunOnRenderThread(fn func()) {
	v.mu.Lock()
	v.tickFn = fn
	v.mu.Unlock()
}

// UpdateSurface implements viewer.Display with replace semantics.
func (v *Viewer) UpdateSurface(id string, m *mesh.Mesh, c *cloud.Cloud) {
	v.mu.Lock()
	s := v.surfaces[id]
	if s == nil {
		s = &surface{rep: viewer.Wireframe}
		v.surfaces[id] = s
	}
	s.mesh = m
	s.cloud = c
	s.dirty = true
	v.mu.Unlock()
}

// SetRepresentation implements viewer.Display.
func (v *Viewer) SetRepresentation(id string, rep viewer.Representation) {
	v.mu.Lock()
	s := v.surfaces[id]
	if s == nil {
		s = &surface{}
		v.surfaces[id] = s
	}
	if s.rep != rep {
		s.rep = rep
		s.dirty = true
	}
	v.mu.Unlock()
}

// HasStopped implements viewer.Display. Safe from any goroutine.
func (v *Viewer) HasStopped() bool {
	return v.stopped.Load()
}

// RequestClose asks the window to close from outside the Tk thread, for
// example when the pipeline fails to start. The next tick honors it.
func (v *Viewer) RequestClose() {
	v.closeRequest.Store(true)
}

// Run builds the window and enters the Tk event loop. It blocks until the
// window is closed and must run on the main goroutine.
func (v *Viewer) Run() {
	defer v.stopped.Store(true)

	App.WmTitle(v.cfg.Title)
	WmProtocol(App, "WM_DELETE_WINDOW", v.exitHandler)

	v.photo = NewPhoto(Data(encodePNG(newCanvas(v.cfg.Width, v.cfg.Height))))
	v.canvas = Label(Image(v.photo), Borderwidth(1), Relief("sunken"))
	Pack(v.canvas, Padx("1m"), Pady("1m"))

	v.status = Label(Txt("waiting for first frame"), Borderwidth(1), Relief("ridge"))
	Pack(v.status, Padx("1m"), Pady("1m"))

	Pack(Button(Txt("Exit"), Command(v.exitHandler)))

	v.scheduleTick()
	App.Wait()
}

func (v *Viewer) scheduleTick() {
	v.afterID = TclAfter(v.cfg.TickInterval, func() { v.tick() })
}

// tick runs on the Tk event loop: drive the pipeline callback, redraw if
// anything changed, reschedule.
func (v *Viewer) tick() {
	if v.stopped.Load() {
		return
	}
	if v.closeRequest.Load() {
		v.exitHandler()
		return
	}

	v.mu.Lock()
	fn := v.tickFn
	v.mu.Unlock()
	if fn != nil {
		fn()
	}

	v.redrawIfDirty()
	v.scheduleTick()
}

func (v *Viewer) redrawIfDirty() {
	v.mu.Lock()
	dirty := false
	ids := make([]string, 0, len(v.surfaces))
	for id, s := range v.surfaces {
		ids = append(ids, id)
		if s.dirty {
			dirty = true
			s.dirty = false
		}
	}
	if !dirty {
		v.mu.Unlock()
		return
	}

	sort.Strings(ids) // stable stacking order
	img := newCanvas(v.cfg.Width, v.cfg.Height)
	triangles := 0
	var seq uint64
	for _, id := range ids {
		s := v.surfaces[id]
		rasterize(img, s.mesh, s.rep)
		if s.mesh != nil {
			triangles += s.mesh.TriangleCount()
		}
		if s.cloud != nil && s.cloud.Seq > seq {
			seq = s.cloud.Seq
		}
	}
	rep := viewer.Wireframe
	if len(ids) > 0 {
		rep = v.surfaces[ids[0]].rep
	}
	v.frames++
	frames := v.frames
	v.mu.Unlock()

	// Widget calls can land on a half-destroyed window during shutdown.
	defer func() { _ = recover() }()

	if v.photo != nil {
		v.photo.Delete()
	}
	v.photo = NewPhoto(Data(encodePNG(img)))
	v.canvas.Configure(Image(v.photo))
	v.status.Configure(Txt(fmt.Sprintf(
		"frame %d: %d triangles, %s, %d redraws", seq, triangles, rep, frames)))
}

func (v *Viewer) exitHandler() {
	if v.afterID != "" {
		TclAfterCancel(v.afterID)
		v.afterID = ""
	}
	v.stopped.Store(true)
	Destroy(App)
}

// encodePNG converts the frame to PNG bytes for the Tk photo image.
// On error it returns an empty slice, which Tk renders as a blank photo.
func encodePNG(img image.Image) []byte {
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}
