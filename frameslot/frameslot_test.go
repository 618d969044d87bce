package frameslot_test

import (
	"sync"
	"testing"

	"github.com/e7canasta/meshview/cloud"
	"github.com/e7canasta/meshview/frameslot"
	"github.com/e7canasta/meshview/mesh"
)

func testPayload(seq uint64) (*mesh.Mesh, *cloud.Cloud) {
	c := cloud.New(2, 2)
	c.Seq = seq
	return &mesh.Mesh{Cloud: c}, c
}

// TestTryTakeOnEmptySlot validates the non-blocking no-data path.
func TestTryTakeOnEmptySlot(t *testing.T) {
	s := frameslot.New()

	m, c, ok := s.TryTake()
	if ok || m != nil || c != nil {
		t.Errorf("TryTake on empty slot = (%v, %v, %v), want (nil, nil, false)", m, c, ok)
	}
	if s.Dirty() {
		t.Error("empty slot reports dirty")
	}
}

// TestPublishThenTake validates payload integrity: a take returns exactly
// the pair of the preceding publish, never a mix.
func TestPublishThenTake(t *testing.T) {
	s := frameslot.New()
	m1, c1 := testPayload(1)

	s.Publish(m1, c1)
	if !s.Dirty() {
		t.Fatal("slot not dirty after Publish")
	}

	gotM, gotC, ok := s.TryTake()
	if !ok {
		t.Fatal("TryTake returned no data after Publish")
	}
	if gotM != m1 || gotC != c1 {
		t.Errorf("TryTake = (%p, %p), want (%p, %p)", gotM, gotC, m1, c1)
	}
}

// TestTakeClearsDirty validates that a successful take clears the dirty
// flag: another take with no intervening publish yields no data.
func TestTakeClearsDirty(t *testing.T) {
	s := frameslot.New()
	s.Publish(testPayload(1))

	if _, _, ok := s.TryTake(); !ok {
		t.Fatal("first TryTake returned no data")
	}
	if s.Dirty() {
		t.Error("slot still dirty after take")
	}
	if _, _, ok := s.TryTake(); ok {
		t.Error("second TryTake returned data with no intervening publish")
	}
}

// TestOverwriteKeepsOnlyLatest validates last-write-wins: with no consumer,
// repeated publishes retain exactly one payload and count the overwrites as
// drops. The first publish is unobservable afterwards.
func TestOverwriteKeepsOnlyLatest(t *testing.T) {
	s := frameslot.New()

	var lastM *mesh.Mesh
	var lastC *cloud.Cloud
	const publishes = 1000
	for i := 1; i <= publishes; i++ {
		lastM, lastC = testPayload(uint64(i))
		s.Publish(lastM, lastC)
	}

	gotM, gotC, ok := s.TryTake()
	if !ok {
		t.Fatal("TryTake returned no data after publishes")
	}
	if gotM != lastM || gotC != lastC {
		t.Errorf("TryTake returned stale payload (seq %d), want seq %d", gotC.Seq, lastC.Seq)
	}

	st := s.Stats()
	if st.Drops != publishes-1 {
		t.Errorf("Drops = %d, want %d", st.Drops, publishes-1)
	}
	if st.Publishes != publishes || st.Takes != 1 {
		t.Errorf("Publishes/Takes = %d/%d, want %d/1", st.Publishes, st.Takes, publishes)
	}
	// And the slot is drained: nothing else is retained.
	if _, _, ok := s.TryTake(); ok {
		t.Error("slot retained more than one payload")
	}
}

// TestRefreshKeepsMesh validates the skip-on-lag refresh: the raw cloud
// advances while the in-flight mesh stays, and the slot remains dirty.
func TestRefreshKeepsMesh(t *testing.T) {
	s := frameslot.New()
	m1, c1 := testPayload(1)
	s.Publish(m1, c1)

	c2 := cloud.New(2, 2)
	c2.Seq = 2
	if !s.RefreshIfDirty(c2) {
		t.Fatal("RefreshIfDirty declined on a dirty slot")
	}

	if !s.Dirty() {
		t.Fatal("slot not dirty after refresh")
	}
	gotM, gotC, ok := s.TryTake()
	if !ok {
		t.Fatal("TryTake returned no data")
	}
	if gotM != m1 {
		t.Error("refresh replaced the in-flight mesh")
	}
	if gotC != c2 {
		t.Errorf("TryTake cloud seq = %d, want 2 (latest raw frame)", gotC.Seq)
	}
	if st := s.Stats(); st.CloudRefreshes != 1 {
		t.Errorf("CloudRefreshes = %d, want 1", st.CloudRefreshes)
	}
}

// TestRefreshDeclinedOnCleanSlot validates that a refresh cannot land on a
// drained slot. A take between the producer's lag decision and its refresh
// used to leave the slot re-dirtied with a cloud and no mesh, a payload no
// publish ever produced; the refresh must refuse instead.
func TestRefreshDeclinedOnCleanSlot(t *testing.T) {
	s := frameslot.New()
	s.Publish(testPayload(1))

	if _, _, ok := s.TryTake(); !ok {
		t.Fatal("TryTake returned no data after Publish")
	}

	c2 := cloud.New(2, 2)
	c2.Seq = 2
	if s.RefreshIfDirty(c2) {
		t.Fatal("RefreshIfDirty landed on a drained slot")
	}
	if s.Dirty() {
		t.Error("declined refresh re-dirtied the slot")
	}

	m, c, ok := s.TryTake()
	if ok || m != nil || c != nil {
		t.Errorf("TryTake after declined refresh = (%v, %v, %v), want (nil, nil, false)", m, c, ok)
	}
	if st := s.Stats(); st.CloudRefreshes != 0 {
		t.Errorf("CloudRefreshes = %d, want 0", st.CloudRefreshes)
	}
}

// TestConcurrentPublishTake hammers the slot from one producer and one
// consumer goroutine and checks that every observed payload is internally
// consistent (mesh always paired with its own cloud). Run with -race.
func TestConcurrentPublishTake(t *testing.T) {
	s := frameslot.New()
	const rounds = 10000

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 1; i <= rounds; i++ {
			m, c := testPayload(uint64(i))
			s.Publish(m, c)
		}
	}()

	var taken uint64
	var lastSeq uint64
	go func() {
		defer wg.Done()
		for taken < rounds {
			m, c, ok := s.TryTake()
			if !ok {
				if s.Stats().Publishes == rounds {
					return // producer done, slot drained
				}
				continue
			}
			taken++
			if m.Cloud != c {
				t.Errorf("torn payload: mesh cloud %p, slot cloud %p", m.Cloud, c)
				return
			}
			if c.Seq <= lastSeq {
				t.Errorf("stale payload: seq %d after %d", c.Seq, lastSeq)
				return
			}
			lastSeq = c.Seq
		}
	}()

	wg.Wait()
	st := s.Stats()
	t.Logf("publishes=%d takes=%d drops=%d", st.Publishes, st.Takes, st.Drops)
	if st.Takes+st.Drops < st.Publishes-1 {
		t.Errorf("accounting leak: %d publishes but %d takes + %d drops",
			st.Publishes, st.Takes, st.Drops)
	}
}
