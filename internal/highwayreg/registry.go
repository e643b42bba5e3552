// Package highwayreg implements the HighwayRegistry: the mapping from
// highway name to its lane/speed-limit configuration and observed cycle
// history (spec.md §3/§4.4).
package highwayreg

import (
	"sync"
	"time"
)

// Data is the per-highway record. Cycles/Times have equal length and
// strictly increasing cycle numbers (spec.md invariant I5).
type Data struct {
	Name        string
	Lanes       int
	SpeedLimit  float64
	Cycles      []uint64
	Times       []time.Time
	TimeElapsed time.Duration
}

// Registry maps highway name to index and Data, created on first
// observation and never removed (spec.md §3 Lifecycles).
type Registry struct {
	mu      sync.RWMutex
	byName  map[string]int
	records []*Data
}

func New() *Registry {
	return &Registry{byName: make(map[string]int)}
}

// Resolve returns the index for name, inserting a new record if this is
// the first time name has been observed.
func (r *Registry) Resolve(name string, lanes int, speedLimit float64) int {
	r.mu.RLock()
	if idx, ok := r.byName[name]; ok {
		r.mu.RUnlock()
		return idx
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if idx, ok := r.byName[name]; ok {
		return idx
	}
	idx := len(r.records)
	r.records = append(r.records, &Data{Name: name, Lanes: lanes, SpeedLimit: speedLimit})
	r.byName[name] = idx
	return idx
}

// Append records that cycle was observed for highway idx at ts. A cycle
// number that does not strictly increase the highway's history is
// rejected (the caller should log it once) rather than breaking I5.
func (r *Registry) Append(idx int, cycle uint64, ts time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	d := r.records[idx]
	if n := len(d.Cycles); n > 0 && cycle <= d.Cycles[n-1] {
		return false
	}
	d.Cycles = append(d.Cycles, cycle)
	d.Times = append(d.Times, ts)
	return true
}

// Get returns a snapshot copy of the highway's data (safe to read
// concurrently with further Appends).
func (r *Registry) Get(idx int) Data {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d := *r.records[idx]
	d.Cycles = append([]uint64(nil), d.Cycles...)
	d.Times = append([]time.Time(nil), d.Times...)
	return d
}

// SetTimeElapsed records the most recently measured ingest-to-dashboard
// latency for highway idx.
func (r *Registry) SetTimeElapsed(idx int, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[idx].TimeElapsed = d
}

// Len returns the number of highways observed so far.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}
