// Package vehicleindex implements the process-wide, resizable mapping
// from plate to vehicle.Data shared by all ETL workers (spec.md §4.3).
//
// The index is split into a fixed number of shards, one per ETL worker,
// to keep lock contention local: a worker that owns a plate for the
// duration of a batch (spec.md invariant I3) almost always only
// contends with itself. Shard assignment is computed on every lookup via
// rendezvous hashing over the plate, so a plate always maps to the same
// shard, and a change of shard count moves only the plates whose
// winning shard changes.
package vehicleindex

import (
	"hash/fnv"
	"sync"

	"github.com/dgryski/go-rendezvous"

	"github.com/juanbelieni/highwaysim/internal/plate"
	"github.com/juanbelieni/highwaysim/internal/vehicle"
)

type shard struct {
	mu      sync.RWMutex
	entries map[plate.Key]*vehicle.Data
}

// Index is the VehicleIndex. It must only be resized (Reserve) while no
// worker is executing an Extract body, per spec.md invariant I6 — the
// two-phase barrier in package etl enforces that externally.
type Index struct {
	shards []*shard
	rv     *rendezvous.Rendezvous
	names  []string
}

// New creates an Index with the given number of shards (normally equal
// to the ETL worker fan-out N).
func New(shardCount int) *Index {
	if shardCount < 1 {
		shardCount = 1
	}
	names := make([]string, shardCount)
	shards := make([]*shard, shardCount)
	for i := range shards {
		names[i] = shardName(i)
		shards[i] = &shard{entries: make(map[plate.Key]*vehicle.Data)}
	}
	return &Index{
		shards: shards,
		rv:     rendezvous.New(names, hashNode),
		names:  names,
	}
}

func shardName(i int) string {
	// small fixed alphabet, never user-controlled, allocation is fine here:
	// this only runs once at construction.
	const hex = "0123456789abcdef"
	return "shard-" + string(hex[i%16]) + string(hex[(i/16)%16])
}

func hashNode(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

func (x *Index) shardFor(k plate.Key) *shard {
	name := x.rv.Lookup(k.String())
	for i, n := range x.names {
		if n == name {
			return x.shards[i]
		}
	}
	// Unreachable in practice: Lookup only returns names we registered.
	return x.shards[0]
}

// Find returns the record for k, if present. Lock-free contention aside,
// this is safe to call concurrently with Reserve because Reserve is only
// invoked at the barrier, when no worker calls Find.
func (x *Index) Find(k plate.Key) (*vehicle.Data, bool) {
	s := x.shardFor(k)
	s.mu.RLock()
	d, ok := s.entries[k]
	s.mu.RUnlock()
	return d, ok
}

// InsertIfAbsent inserts a fresh vehicle.Data for k if none exists yet,
// returning the (possibly pre-existing) record and whether it was this
// call that created it.
func (x *Index) InsertIfAbsent(k plate.Key) (*vehicle.Data, bool) {
	s := x.shardFor(k)
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.entries[k]; ok {
		return d, false
	}
	d := vehicle.NewData()
	s.entries[k] = d
	return d, true
}

// Reserve grows every shard's backing map so it can hold at least
// capacity/len(shards) entries without triggering Go's incremental
// map-growth rehashing mid-batch. Go maps expose no capacity-reservation
// API, so "reserve" is implemented as an allocate-and-copy swap into a
// map sized for capacity/len(shards) entries. Capacity is not doubled:
// every call reallocates each shard holding fewer entries than that
// target, and a shard already at or above it is left unchanged.
//
// Must only be called while no worker is executing an Extract body
// (spec.md invariant I6); the caller (the ETL barrier) is responsible
// for that exclusion.
func (x *Index) Reserve(capacity int) {
	perShard := capacity / len(x.shards)
	if perShard < 1 {
		perShard = 1
	}
	for _, s := range x.shards {
		s.mu.Lock()
		if len(s.entries) < perShard {
			grown := make(map[plate.Key]*vehicle.Data, perShard)
			for k, v := range s.entries {
				grown[k] = v
			}
			s.entries = grown
		}
		s.mu.Unlock()
	}
}

// Len returns the total number of plates currently tracked.
func (x *Index) Len() int {
	total := 0
	for _, s := range x.shards {
		s.mu.RLock()
		total += len(s.entries)
		s.mu.RUnlock()
	}
	return total
}

// ShardCount returns the number of shards (equal to the ETL fan-out N).
func (x *Index) ShardCount() int { return len(x.shards) }
