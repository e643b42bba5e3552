// Package etl implements one ETL run (spec.md §2 control flow): the
// two-phase Extract barrier, Transform, publish, and Enrich stages over
// a batch of coalesced SimulationCycles.
package etl

import (
	"time"

	"github.com/juanbelieni/highwaysim/internal/highwayreg"
	"github.com/juanbelieni/highwaysim/internal/plate"
	"github.com/juanbelieni/highwaysim/internal/transport"
	"github.com/juanbelieni/highwaysim/internal/vehicle"
	"github.com/juanbelieni/highwaysim/internal/vehicleindex"
)

// rawEntry is one RawVehicle flattened against its owning cycle, used
// to build the concatenated-list partitioning spec.md §4.5 describes
// (I3: partitioning is by index into the concatenated RawVehicle list
// across pending cycles).
type rawEntry struct {
	highwayIdx int
	cycle      uint64
	vehicle    transport.RawVehicle
}

// Batch is one coalesced set of cycles handed from the
// IngestOrchestrator to a single ETL run.
type Batch struct {
	entries []rawEntry
}

// NewBatch resolves each cycle's highway (inserting HighwayData on
// first observation) and appends its cycle/timestamp to the registry,
// then flattens all cycles into one concatenated RawVehicle list.
func NewBatch(cycles []transport.SimulationCycle, reg *highwayreg.Registry) *Batch {
	b := &Batch{}
	for _, cyc := range cycles {
		idx := reg.Resolve(cyc.Highway.Name, cyc.Highway.Lanes, cyc.Highway.SpeedLimit)
		ts := time.Unix(0, int64(cyc.Timestamp*float64(time.Second)))
		reg.Append(idx, cyc.Cycle, ts)
		for _, rv := range cyc.Vehicles {
			b.entries = append(b.entries, rawEntry{highwayIdx: idx, cycle: cyc.Cycle, vehicle: rv})
		}
	}
	return b
}

// Len is the total RawVehicle count across all cycles in the batch.
func (b *Batch) Len() int { return len(b.entries) }

// partition returns the [start, end) index range for worker t of n,
// extending the last worker's end to the true last index to absorb the
// integer-division remainder (spec.md §4.5 partitioning detail).
func partition(total, n, t int) (start, end int) {
	chunk := total / n
	start = t * chunk
	if t == n-1 {
		end = total
	} else {
		end = start + chunk
	}
	return
}

// Counts mirrors spec.md §4.6's vehicle_counts aggregation.
type Counts struct {
	All       int
	Collision int
	Speeding  int
}

// Result is what one ETL run produces for the orchestrator/dashboard to
// consume: vehicles_processed as the per-worker buckets the dashboard's
// (vehicle_i, vehicle_j) cursor addresses (spec.md §4.9), a flattened
// view for callers that don't care about bucket boundaries, and the
// aggregated counts (I4).
type Result struct {
	Buckets   [][]ProcessedVehicle
	Processed []ProcessedVehicle
	Counts    Counts
}

// ProcessedVehicle pairs a plate with the Vehicle snapshot Transform (and
// later Enrich) computed for it in this batch.
type ProcessedVehicle struct {
	Plate   plate.Key
	Vehicle vehicle.Vehicle
}

// workerState is the per-worker scratch space threaded through
// Extract/Transform/Enrich for one batch.
type workerState struct {
	start, end int
	newPlates  int
	modified   []plate.Key
	processed  []ProcessedVehicle
}

// Runner owns the shared resources one ETL run operates over: the
// VehicleIndex, HighwayRegistry, and worker fan-out N.
type Runner struct {
	Index   *vehicleindex.Index
	Reg     *highwayreg.Registry
	Workers int
}

// NewRunner constructs a Runner over shared state with workers workers.
func NewRunner(index *vehicleindex.Index, reg *highwayreg.Registry, workers int) *Runner {
	if workers <= 0 {
		workers = 1
	}
	return &Runner{Index: index, Reg: reg, Workers: workers}
}
