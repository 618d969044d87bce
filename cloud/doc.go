// Package cloud defines the organized point-cloud data model shared by the
// acquisition, reconstruction and visualization stages.
//
// # Organized clouds
//
// An organized cloud keeps its points in a fixed Width×Height grid matching
// the sensor's pixel layout. Grid adjacency is what makes fast surface
// triangulation possible: neighbouring pixels are neighbouring surface
// samples, so no spatial search is needed.
//
// Invalid samples (no depth return, saturation, occlusion) are encoded as
// NaN coordinates, exactly as the sensor delivers them. Consumers must
// treat NaN points as holes, never as geometry.
//
// # Immutability contract
//
// A Cloud is shared by reference across goroutines (acquisition → slot →
// renderer) without copying. After it has been handed to a callback, neither
// the producer nor any consumer may modify Points or Colors.
package cloud
