package ingest

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/juanbelieni/highwaysim/internal/enrichment"
	"github.com/juanbelieni/highwaysim/internal/etl"
	"github.com/juanbelieni/highwaysim/internal/highwayreg"
	"github.com/juanbelieni/highwaysim/internal/logging"
	"github.com/juanbelieni/highwaysim/internal/transport"
	"github.com/juanbelieni/highwaysim/internal/vehicleindex"
)

// fakeSource delivers a fixed sequence of cycles, then blocks (as a
// real transport would when nothing new has arrived) until ctx expires.
type fakeSource struct {
	mu     sync.Mutex
	cycles []transport.SimulationCycle
	sent   int
	closed bool
}

func (f *fakeSource) Receive(ctx context.Context) (transport.SimulationCycle, bool, error) {
	f.mu.Lock()
	if f.sent < len(f.cycles) {
		cyc := f.cycles[f.sent]
		f.sent++
		f.mu.Unlock()
		return cyc, true, nil
	}
	f.mu.Unlock()
	<-ctx.Done()
	return transport.SimulationCycle{}, false, nil
}

func (f *fakeSource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

type recordingPublisher struct {
	mu      sync.Mutex
	results []etl.Result
}

func (p *recordingPublisher) Publish(r etl.Result) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.results = append(p.results, r)
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.results)
}

func TestOrchestratorProcessesASingleCycle(t *testing.T) {
	src := &fakeSource{cycles: []transport.SimulationCycle{
		{
			Highway:  transport.HighwayDescriptor{Name: "H1", Lanes: 4, SpeedLimit: 20},
			Cycle:    1,
			Vehicles: []transport.RawVehicle{{Plate: "ABC1234", Lane: 0, Direction: 0, Distance: 10}},
		},
	}}
	idx := vehicleindex.New(2)
	reg := highwayreg.New()
	runner := etl.NewRunner(idx, reg, 2)
	svc := enrichment.New(enrichment.Options{QueueSize: 4}, nil)
	pub := &recordingPublisher{}
	log := logging.New(slog.Default())

	o := New(src, runner, svc, pub, log, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		o.Run(ctx)
		close(done)
	}()

	deadline := time.After(1500 * time.Millisecond)
	for pub.count() == 0 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for a published result")
		case <-time.After(10 * time.Millisecond):
		}
	}

	o.Stop()
	cancel()
	<-done

	assert.Equal(t, 1, idx.Len())
}

func TestOrchestratorTracksRepeatedPlateOnce(t *testing.T) {
	// Two cycles for H1 report the same plate. Whether they are
	// coalesced into one batch or run in two depends on timing, so this
	// only checks that the plate ends up tracked exactly once.
	src := &fakeSource{cycles: []transport.SimulationCycle{
		{
			Highway:  transport.HighwayDescriptor{Name: "H1", Lanes: 4, SpeedLimit: 20},
			Cycle:    1,
			Vehicles: []transport.RawVehicle{{Plate: "AAA0001", Lane: 0, Direction: 0, Distance: 0}},
		},
		{
			Highway:  transport.HighwayDescriptor{Name: "H1", Lanes: 4, SpeedLimit: 20},
			Cycle:    2,
			Vehicles: []transport.RawVehicle{{Plate: "AAA0001", Lane: 0, Direction: 0, Distance: 15}},
		},
	}}
	idx := vehicleindex.New(2)
	reg := highwayreg.New()
	runner := etl.NewRunner(idx, reg, 2)
	svc := enrichment.New(enrichment.Options{QueueSize: 4}, nil)
	pub := &recordingPublisher{}
	log := logging.New(slog.Default())

	o := New(src, runner, svc, pub, log, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		o.Run(ctx)
		close(done)
	}()

	deadline := time.After(1500 * time.Millisecond)
	for pub.count() == 0 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for a published result")
		case <-time.After(10 * time.Millisecond):
		}
	}
	time.Sleep(50 * time.Millisecond) // let any second batch settle

	o.Stop()
	cancel()
	<-done

	assert.Equal(t, 1, idx.Len(), "expected exactly 1 plate tracked")
}
