package mesh

import "github.com/e7canasta/meshview/cloud"

// Triangle indexes three vertices in the source cloud (flat indices).
type Triangle [3]uint32

// Mesh is a triangulated surface over an organized cloud.
//
// Vertices are not copied: Triangle indices refer into Cloud.Points. The
// source cloud is shared read-only with the mesh for its whole lifetime.
type Mesh struct {
	Cloud     *cloud.Cloud
	Triangles []Triangle
}

// TriangleCount returns the number of emitted triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Triangles)
}

// Vertex returns the i-th corner of triangle t.
func (m *Mesh) Vertex(t Triangle, i int) cloud.Point {
	return m.Cloud.Points[t[i]]
}
