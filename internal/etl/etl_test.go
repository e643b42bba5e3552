package etl

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juanbelieni/highwaysim/internal/enrichment"
	"github.com/juanbelieni/highwaysim/internal/highwayreg"
	"github.com/juanbelieni/highwaysim/internal/transport"
	"github.com/juanbelieni/highwaysim/internal/vehicleindex"
)

type recordingPublisher struct {
	results []Result
}

func (p *recordingPublisher) Publish(r Result) { p.results = append(p.results, r) }

func newRunner(workers int) *Runner {
	idx := vehicleindex.New(workers)
	reg := highwayreg.New()
	return NewRunner(idx, reg, workers)
}

func cycleFor(highway string, lanes int, speedLimit float64, cycle uint64, ts float64, vehicles ...transport.RawVehicle) transport.SimulationCycle {
	return transport.SimulationCycle{
		Highway:   transport.HighwayDescriptor{Name: highway, Lanes: lanes, SpeedLimit: speedLimit},
		Cycle:     cycle,
		Timestamp: ts,
		Vehicles:  vehicles,
	}
}

func findProcessed(t *testing.T, res Result, plateStr string) ProcessedVehicle {
	t.Helper()
	for _, pv := range res.Processed {
		if pv.Plate.String() == plateStr {
			return pv
		}
	}
	require.Failf(t, "plate not found in processed results", "plate %s not found", plateStr)
	return ProcessedVehicle{}
}

// S1: single vehicle, insufficient samples.
func TestScenarioS1InsufficientSamples(t *testing.T) {
	r := newRunner(2)
	svc := enrichment.New(enrichment.Options{QueueSize: 1}, nil)
	svc.Start()
	defer svc.Stop()
	pub := &recordingPublisher{}

	cyc := cycleFor("H1", 4, 20, 1, 1, transport.RawVehicle{Plate: "ABC1234", Lane: 0, Direction: 0, Distance: 10})
	res := r.FromCycles(context.Background(), []transport.SimulationCycle{cyc}, svc, pub, nil)

	pv := findProcessed(t, res, "ABC1234")
	assert.Equal(t, -1.0, pv.Vehicle.Speed)
	assert.Equal(t, 0.0, pv.Vehicle.Acceleration)
	assert.Equal(t, -1.0, pv.Vehicle.Risk)
	assert.Equal(t, Counts{All: 1, Collision: 0, Speeding: 0}, res.Counts)
}

// S2: speed computation across two cycles.
func TestScenarioS2SpeedComputation(t *testing.T) {
	r := newRunner(2)
	svc := enrichment.New(enrichment.Options{QueueSize: 1}, nil)
	svc.Start()
	defer svc.Stop()
	pub := &recordingPublisher{}

	c1 := cycleFor("H1", 4, 20, 1, 1, transport.RawVehicle{Plate: "ABC1234", Lane: 0, Direction: 0, Distance: 0})
	r.FromCycles(context.Background(), []transport.SimulationCycle{c1}, svc, pub, nil)

	c2 := cycleFor("H1", 4, 20, 2, 2, transport.RawVehicle{Plate: "ABC1234", Lane: 0, Direction: 0, Distance: 15})
	res := r.FromCycles(context.Background(), []transport.SimulationCycle{c2}, svc, pub, nil)

	pv := findProcessed(t, res, "ABC1234")
	assert.Equal(t, 15.0, pv.Vehicle.Speed)
	assert.Equal(t, 0.0, pv.Vehicle.Acceleration, "expected acceleration=0 with only two samples")
	assert.False(t, pv.Vehicle.Flags[2], "expected ABOVE_SPEED_LIMIT=false for speed 15 <= limit 20")
}

// S4: over-limit speeding across four cycles.
func TestScenarioS4OverLimitSpeeding(t *testing.T) {
	r := newRunner(1)
	svc := enrichment.New(enrichment.Options{QueueSize: 1}, nil)
	svc.Start()
	defer svc.Stop()
	pub := &recordingPublisher{}

	dist := 0
	for i := uint64(1); i <= 4; i++ {
		c := cycleFor("H1", 4, 20, i, float64(i), transport.RawVehicle{Plate: "ABC1234", Lane: 0, Direction: 0, Distance: dist})
		r.FromCycles(context.Background(), []transport.SimulationCycle{c}, svc, pub, nil)
		dist += 30
	}

	last := pub.results[len(pub.results)-1]
	pv := findProcessed(t, last, "ABC1234")
	assert.Equal(t, 30.0, pv.Vehicle.Speed)
	assert.True(t, pv.Vehicle.Flags[2], "expected ABOVE_SPEED_LIMIT=true for speed 30 > limit 20")
	assert.Equal(t, 1, last.Counts.Speeding, "expected 1 speeding vehicle in the final batch")
}

// P2: partitioning covers the universe of RawVehicles exactly once.
func TestPartitionCoversEveryVehicleExactlyOnce(t *testing.T) {
	r := newRunner(4)
	svc := enrichment.New(enrichment.Options{QueueSize: 16}, nil)
	svc.Start()
	defer svc.Stop()
	pub := &recordingPublisher{}

	var vehicles []transport.RawVehicle
	for i := 0; i < 23; i++ {
		vehicles = append(vehicles, transport.RawVehicle{
			Plate:     plateFor(i),
			Lane:      0,
			Direction: 0,
			Distance:  i,
		})
	}
	cyc := cycleFor("H1", 4, 20, 1, 1, vehicles...)
	res := r.FromCycles(context.Background(), []transport.SimulationCycle{cyc}, svc, pub, nil)

	assert.Len(t, res.Processed, len(vehicles))
	assert.Equal(t, len(vehicles), res.Counts.All)
}

func plateFor(i int) string {
	digits := [7]byte{}
	for j := range digits {
		digits[j] = byte('A' + (i+j)%26)
	}
	return string(digits[:])
}
