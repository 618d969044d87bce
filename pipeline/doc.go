// Package pipeline wires an acquisition source, the fast-mesh
// reconstructor and a display into a live surface-streaming loop.
//
// # Topology
//
// Exactly two goroutines matter:
//
//	grabber goroutine ──► OnCloud ──► frameslot.Slot ──► OnRenderTick ──► display
//	(producer, device-paced)                             (consumer, vsync-paced)
//
// The two handlers never call each other; they rendezvous only through the
// shared slot. The pipeline spawns no goroutines of its own beyond the
// driver's idle-wait loop in Run.
//
// # Reconstruct-if-idle
//
// Triangulating every incoming frame is wasted work when the renderer
// cannot keep up. Before reconstructing, OnCloud checks the slot's dirty
// flag: a dirty slot means the previous result was never consumed, so the
// handler only refreshes the raw cloud and skips triangulation for that
// frame. The renderer therefore always shows the newest mesh it was fast
// enough to take, and acquisition never stalls.
//
// # Fault policy
//
// Reconstruction faults (degenerate or empty frames) are logged and
// counted, the frame is dropped, and the pipeline continues. Nothing in
// the hot path panics or propagates an error across a callback boundary.
package pipeline
