// Package frameslot implements the single-slot mailbox that carries the
// latest reconstructed surface from the acquisition goroutine to the
// render goroutine.
//
// # Philosophy
//
// "Drop frames, never queue. Latency > Completeness."
//
// The slot is the only mutable state shared between the two sides of the
// pipeline. It holds at most one (mesh, cloud) pair plus a dirty flag:
//
//	dirty == true  iff the contents have not been consumed since the last
//	               publish
//
// A publish against a still-dirty slot overwrites the previous payload
// (last-write-wins); nothing is ever queued, so memory stays bounded no
// matter how far the consumer falls behind.
//
// # Exclusion
//
// Every operation runs under one mutex held only for the pointer swap.
// Reconstruction and rendering always execute outside the lock, so neither
// side can stall the other for longer than a couple of assignments. A
// TryTake observes either nothing or exactly the most recent publish,
// never a mix of two publishes' fields.
//
// # Skip-on-lag support
//
// When the consumer lags, the producer skips reconstruction but still
// refreshes the raw cloud through RefreshIfDirty, so the newest points
// remain available for diagnostics while the previous mesh stays on screen
// until a fresh reconstruction lands. The lag check and the refresh are a
// single slot operation; a refresh can only land while a mesh is in
// flight, so a take never observes a cloud without its mesh.
package frameslot
