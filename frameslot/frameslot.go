package frameslot

import (
	"sync"

	"github.com/e7canasta/meshview/cloud"
	"github.com/e7canasta/meshview/mesh"
)

// Slot is a mutex-guarded single-slot mailbox for the most recent
// reconstructed mesh and its source cloud.
//
// Exactly one producer goroutine publishes and exactly one consumer
// goroutine takes; both always go through the same mutex. The zero value
// is ready to use.
type Slot struct {
	mu    sync.Mutex
	cloud *cloud.Cloud
	mesh  *mesh.Mesh
	dirty bool

	// Operational counters, read via Stats.
	publishes      uint64
	cloudRefreshes uint64
	takes          uint64
	drops          uint64
}

// Stats is a snapshot of slot activity.
type Stats struct {
	// Publishes counts full (mesh, cloud) publications.
	Publishes uint64
	// CloudRefreshes counts raw-cloud-only updates (skip-on-lag path).
	CloudRefreshes uint64
	// Takes counts successful TryTake calls.
	Takes uint64
	// Drops counts publishes that overwrote a never-consumed payload.
	// Non-zero drops mean the renderer is slower than acquisition, which
	// is expected and healthy under load.
	Drops uint64
}

// New returns an empty slot.
func New() *Slot {
	return &Slot{}
}

// Publish stores a freshly reconstructed mesh with its source cloud and
// marks the slot dirty. Never blocks waiting for the consumer: an
// unconsumed previous payload is discarded (last-write-wins).
func (s *Slot) Publish(m *mesh.Mesh, c *cloud.Cloud) {
	s.mu.Lock()
	if s.dirty {
		s.drops++
	}
	s.mesh = m
	s.cloud = c
	s.dirty = true
	s.publishes++
	s.mu.Unlock()
}

// RefreshIfDirty refreshes only the raw cloud reference when the slot
// still holds an unconsumed payload, leaving the in-flight mesh untouched,
// and reports whether it did. On a clean slot it mutates nothing and
// returns false: the producer must reconstruct and Publish instead.
//
// The lag check and the refresh share one critical section. Splitting
// them would let a TryTake slip in between, and the refresh would then
// re-dirty a drained slot, handing the consumer a cloud with no mesh, a
// payload no publish ever produced.
func (s *Slot) RefreshIfDirty(c *cloud.Cloud) bool {
	s.mu.Lock()
	if !s.dirty {
		s.mu.Unlock()
		return false
	}
	s.cloud = c
	s.cloudRefreshes++
	s.mu.Unlock()
	return true
}

// TryTake drains the slot without blocking.
//
// When the slot is clean it returns (nil, nil, false) immediately. When
// dirty it clears the flag, releases the slot's own references and
// transfers ownership of the payload to the caller. A second TryTake with
// no intervening publish returns no data.
func (s *Slot) TryTake() (*mesh.Mesh, *cloud.Cloud, bool) {
	s.mu.Lock()
	if !s.dirty {
		s.mu.Unlock()
		return nil, nil, false
	}
	m, c := s.mesh, s.cloud
	s.mesh = nil
	s.cloud = nil
	s.dirty = false
	s.takes++
	s.mu.Unlock()
	return m, c, true
}

// Dirty reports whether the slot holds data not yet consumed. A dirty
// slot means the renderer is lagging. Producers deciding whether to skip
// reconstruction must use RefreshIfDirty instead of checking this and
// then refreshing, so the decision and the refresh stay atomic.
func (s *Slot) Dirty() bool {
	s.mu.Lock()
	d := s.dirty
	s.mu.Unlock()
	return d
}

// Stats returns a consistent snapshot of the slot's counters.
func (s *Slot) Stats() Stats {
	s.mu.Lock()
	st := Stats{
		Publishes:      s.publishes,
		CloudRefreshes: s.cloudRefreshes,
		Takes:          s.takes,
		Drops:          s.drops,
	}
	s.mu.Unlock()
	return st
}
