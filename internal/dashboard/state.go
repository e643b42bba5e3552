// Package dashboard implements the terminal UI: the navigation/filter
// state machine (spec.md §4.9), a renderer, and a raw-mode keyboard
// reader. Free-form globals the source shows for current_filter/
// current_vehicle are folded into one DashboardState value guarded by a
// single mutex, per spec.md §9's explicit re-architecture guidance.
package dashboard

import (
	"sync"

	"github.com/juanbelieni/highwaysim/internal/etl"
	"github.com/juanbelieni/highwaysim/internal/vehicle"
)

// Cursor locates the current entry across the N worker buckets
// (vehicle_i selects the bucket, vehicle_j the offset within it).
type Cursor struct {
	BucketIdx int
	Offset    int
}

// State is the dashboard's entire mutable surface: navigation cursor,
// active filter, the published snapshot, and the shutdown/redraw flags
// — all guarded by one mutex (spec.md §9's `load_mutex`).
type State struct {
	mu sync.Mutex

	filter   vehicle.VehicleFilter
	cursor   Cursor
	absolute int // 1-based ordinal within the current filter; 0 = no match

	snapshot   etl.Result
	numVehicle etl.Counts

	shouldDraw bool
	shouldExit bool
	cond       *sync.Cond
}

// New returns a State with filter=ALL and an empty snapshot.
func New() *State {
	s := &State{filter: vehicle.FilterAll}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Publish installs a new snapshot (the orchestrator's publish handoff,
// spec.md §4.7/§4.8), resets the navigation cursor to the first
// matching entry under the current filter, and wakes the redraw loop.
func (s *State) Publish(r etl.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = r
	s.numVehicle = r.Counts
	s.resetCursorLocked()
	s.shouldDraw = true
	s.cond.Broadcast()
}

// resetCursorLocked relocates the cursor to the first entry matching
// the active filter, or (0,0) with absolute=0 if none match. Caller
// must hold s.mu.
func (s *State) resetCursorLocked() {
	for bi, bucket := range s.snapshot.Buckets {
		for oi, pv := range bucket {
			if pv.Vehicle.Flags[s.filter] {
				s.cursor = Cursor{BucketIdx: bi, Offset: oi}
				s.absolute = 1
				return
			}
		}
	}
	s.cursor = Cursor{}
	s.absolute = 0
}

// HandleKey applies one input key's effect (spec.md §4.9) and reports
// whether it triggered a redraw.
func (s *State) HandleKey(key rune) (redraw bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch key {
	case keyLeft:
		return s.findPreviousLocked()
	case keyRight:
		return s.findNextLocked()
	case 't':
		return s.switchFilterLocked(vehicle.FilterAll)
	case 'r':
		return s.switchFilterLocked(vehicle.FilterCollisionRisk)
	case 'v':
		return s.switchFilterLocked(vehicle.FilterAboveSpeedLimit)
	case 'q':
		s.shouldExit = true
		s.shouldDraw = true
		s.cond.Broadcast()
		return true
	default:
		return false
	}
}

// Sentinel rune values the input reader maps arrow-key escape sequences
// onto before calling HandleKey; chosen outside the printable ASCII
// range so they never collide with a real keystroke.
const (
	keyLeft  rune = -1
	keyRight rune = -2
)

// switchFilterLocked implements the 't'/'r'/'v' keys: switch filter and
// reset the cursor to the first matching entry.
func (s *State) switchFilterLocked(f vehicle.VehicleFilter) bool {
	s.filter = f
	s.resetCursorLocked()
	s.shouldDraw = true
	s.cond.Broadcast()
	return true
}

// findPreviousLocked implements LEFT: scan buckets right-to-left from
// the current position for the previous entry whose flags[filter] is
// true.
func (s *State) findPreviousLocked() bool {
	bi, oi := s.cursor.BucketIdx, s.cursor.Offset
	for bi >= 0 {
		bucket := s.snapshot.Buckets[bi]
		for oi--; oi >= 0; oi-- {
			if bucket[oi].Vehicle.Flags[s.filter] {
				s.cursor = Cursor{BucketIdx: bi, Offset: oi}
				if s.absolute > 1 {
					s.absolute--
				}
				s.shouldDraw = true
				s.cond.Broadcast()
				return true
			}
		}
		bi--
		if bi >= 0 {
			oi = len(s.snapshot.Buckets[bi])
		}
	}
	return false
}

// findNextLocked implements RIGHT: the symmetric scan, incrementing.
func (s *State) findNextLocked() bool {
	bi, oi := s.cursor.BucketIdx, s.cursor.Offset
	for bi < len(s.snapshot.Buckets) {
		bucket := s.snapshot.Buckets[bi]
		for oi++; oi < len(bucket); oi++ {
			if bucket[oi].Vehicle.Flags[s.filter] {
				s.cursor = Cursor{BucketIdx: bi, Offset: oi}
				s.absolute++
				s.shouldDraw = true
				s.cond.Broadcast()
				return true
			}
		}
		bi++
		oi = -1
	}
	return false
}

// Current returns the vehicle at the cursor, if any (an empty
// snapshot, or a filter with no matches, yields ok=false).
func (s *State) Current() (etl.ProcessedVehicle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.absolute == 0 {
		return etl.ProcessedVehicle{}, false
	}
	bucket := s.snapshot.Buckets[s.cursor.BucketIdx]
	if s.cursor.Offset < 0 || s.cursor.Offset >= len(bucket) {
		return etl.ProcessedVehicle{}, false
	}
	return bucket[s.cursor.Offset], true
}

// WaitForDraw blocks until should_draw is set, atomically clears it,
// and returns whether the caller should also stop (should_exit).
func (s *State) WaitForDraw() (stop bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for !s.shouldDraw {
		s.cond.Wait()
	}
	s.shouldDraw = false
	return s.shouldExit
}

// Quit implements shutdown (spec.md §4.10): sets should_exit and
// should_draw and wakes the redraw loop.
func (s *State) Quit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shouldExit = true
	s.shouldDraw = true
	s.cond.Broadcast()
}

// ShouldExit reports the current shutdown flag without waiting.
func (s *State) ShouldExit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shouldExit
}

// Snapshot returns a read-only copy of the header counts and active
// filter for the renderer.
func (s *State) Snapshot() (counts etl.Counts, filter vehicle.VehicleFilter, absolute int, current etl.ProcessedVehicle, hasCurrent bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts = s.numVehicle
	filter = s.filter
	absolute = s.absolute
	if s.absolute > 0 {
		bucket := s.snapshot.Buckets[s.cursor.BucketIdx]
		if s.cursor.Offset >= 0 && s.cursor.Offset < len(bucket) {
			current = bucket[s.cursor.Offset]
			hasCurrent = true
		}
	}
	return
}
