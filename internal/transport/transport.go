// Package transport defines the transport-agnostic SimulationCycle
// contract (spec.md §6) and the Source interface the IngestOrchestrator
// consumes. Two reference transports satisfy it: the file-drop transport
// (file.go) and the gRPC streaming transport (grpc.go).
package transport

import "context"

// HighwayDescriptor names a highway and its static geometry, as
// reported alongside every cycle (spec.md §6).
type HighwayDescriptor struct {
	Name       string
	Lanes      int
	SpeedLimit float64
}

// RawVehicle is one vehicle observation within a cycle.
type RawVehicle struct {
	Plate     string
	Lane      int
	Direction int
	Distance  int
}

// SimulationCycle is the logical, transport-agnostic record both
// reference transports converge on before handing off to the
// IngestOrchestrator (spec.md §3/§6).
type SimulationCycle struct {
	Highway   HighwayDescriptor
	Cycle     uint64
	Timestamp float64
	Vehicles  []RawVehicle
}

// Source delivers SimulationCycles to the orchestrator. Receive blocks
// until a cycle is available or ctx is done; it returns
// (SimulationCycle{}, false, nil) on a plain timeout (not an error, per
// spec.md §7 TransportTimeout) and a non-nil error only for fatal
// transport faults.
type Source interface {
	Receive(ctx context.Context) (SimulationCycle, bool, error)
	Close() error
}
