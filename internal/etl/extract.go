package etl

import (
	"sync"

	"github.com/juanbelieni/highwaysim/internal/plate"
	"github.com/juanbelieni/highwaysim/internal/vehicle"
)

// extract runs the two-phase Extract stage (spec.md §4.5) over batch,
// fanning out across r.Workers goroutines sharing one barrier, and
// returns each worker's final state (modified list populated) for
// Transform to consume.
func (r *Runner) extract(batch *Batch) []*workerState {
	n := r.Workers
	total := batch.Len()
	states := make([]*workerState, n)
	for t := 0; t < n; t++ {
		start, end := partition(total, n, t)
		states[t] = &workerState{start: start, end: end}
	}

	// Barrier 1: after every worker finishes Phase A's count, one
	// coordinator reserves the index exactly once (I6), then Phase B
	// proceeds for all workers.
	b := newBarrier(n, func() {
		newTotal := 0
		for _, st := range states {
			newTotal += st.newPlates
		}
		r.Index.Reserve(r.Index.Len() + newTotal)
	})

	var wg sync.WaitGroup
	wg.Add(n)
	for t := 0; t < n; t++ {
		go func(t int) {
			defer wg.Done()
			st := states[t]
			r.extractPhaseA(batch, st)
			b.arrive()
			r.extractPhaseB(batch, st)
		}(t)
	}
	wg.Wait()
	return states
}

// extractPhaseA counts new plates in st's partition (spec.md §4.5 Phase
// A). Lookup takes only the shard's read lock: it happens before
// reserve, and the barrier prevents any concurrent resize.
func (r *Runner) extractPhaseA(batch *Batch, st *workerState) {
	for i := st.start; i < st.end; i++ {
		k, err := plate.Parse(batch.entries[i].vehicle.Plate)
		if err != nil {
			continue
		}
		if _, ok := r.Index.Find(k); !ok {
			st.newPlates++
		}
	}
}

// extractPhaseB inserts/updates positions for st's partition (spec.md
// §4.5 Phase B), appending each touched plate to st.modified.
func (r *Runner) extractPhaseB(batch *Batch, st *workerState) {
	st.modified = st.modified[:0]
	for i := st.start; i < st.end; i++ {
		e := batch.entries[i]
		k, err := plate.Parse(e.vehicle.Plate)
		if err != nil {
			continue
		}
		data, _ := r.Index.InsertIfAbsent(k)

		hw := r.Reg.Get(e.highwayIdx)
		lane := canonicalLane(e.vehicle.Lane, e.vehicle.Direction, hw.Lanes)
		pos := vehicle.Position{Lane: lane, Distance: e.vehicle.Distance, Cycle: e.cycle}

		// No lock: by I3 this plate is touched by exactly one worker
		// within the batch, and batches never overlap (the orchestrator
		// starts batch k+1 only after k's ETL run completes).
		data.Positions = append(data.Positions, pos)
		data.Vehicle.LastPos = pos
		data.Vehicle.HighwayIndex = e.highwayIdx

		st.modified = append(st.modified, k)
	}
}

// canonicalLane derives the canonical lane index from a (physical lane,
// direction) pair (spec.md §3): `lane = physical + direction*(lanes/2)`.
func canonicalLane(physical, direction, lanes int) int {
	return physical + direction*(lanes/2)
}
