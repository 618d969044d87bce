// Package mesh implements fast surface triangulation for organized point
// clouds.
//
// # Approach
//
// The reconstructor never searches for neighbours: it walks the cloud's
// pixel grid and emits triangles between adjacent samples. That keeps the
// cost linear in the number of pixels and fast enough to run per-frame
// inside a live pipeline.
//
// Each candidate triangle is validated before it is emitted:
//
//   - all three vertices must be finite (NaN samples contribute nothing)
//   - with MaxEdgeLength set, no edge may exceed it; long edges bridge
//     depth discontinuities between unrelated surfaces and are cut away
//
// # Triangulation modes
//
// A grid quad can be split along either diagonal. TriangleRightCut and
// TriangleLeftCut use a fixed diagonal; TriangleAdaptiveCut picks the
// shorter diagonal per quad, which follows the surface across depth steps
// instead of cutting at a fixed pixel direction.
//
// # Ownership
//
// The returned Mesh references the input cloud as its vertex buffer
// (zero-copy). The cloud must therefore stay immutable for the lifetime of
// the mesh, which the pipeline's frame-handoff contract already guarantees.
package mesh
