// Package ingest implements the IngestOrchestrator (spec.md §4.4): a
// single actor that receives SimulationCycles from a transport.Source,
// coalesces consecutive cycles for the same highway, and launches an
// ETL run when none is active. Grounded on the teacher's
// single-owner-goroutine-plus-channels shape
// (engine/internal/pipeline.Pipeline.startStages/monitorResults), with
// the teacher's multi-stage channel pipeline collapsed into one
// receive loop since this engine's batching unit is a highway-coalesced
// cycle set, not a per-item worker queue.
package ingest

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/juanbelieni/highwaysim/internal/enrichment"
	"github.com/juanbelieni/highwaysim/internal/etl"
	"github.com/juanbelieni/highwaysim/internal/logging"
	"github.com/juanbelieni/highwaysim/internal/metrics"
	"github.com/juanbelieni/highwaysim/internal/transport"
)

// ReceiveTimeout is the transport receive deadline per loop iteration
// (spec.md §4.4 step 3).
const ReceiveTimeout = 500 * time.Millisecond

// Orchestrator is the single-actor IngestOrchestrator.
type Orchestrator struct {
	source transport.Source
	runner *etl.Runner
	svc    *enrichment.Service
	pub    etl.Publisher
	log    logging.Logger
	metric metrics.Provider

	toProcess map[string]transport.SimulationCycle // coalescing buffer, keyed by highway name

	// etlRunning and shouldExit are written from the batch goroutine
	// (etlRunning) and from Stop() (shouldExit), and read from Run's
	// loop on a separate goroutine — atomic.Bool is this package's
	// equivalent of the original's load_mutex-guarded should_exit
	// (_examples/original_source/ETL/ETL.hpp).
	etlRunning atomic.Bool
	shouldExit atomic.Bool

	wg sync.WaitGroup
}

// New constructs an Orchestrator over source, using runner to execute
// each batch's ETL run and publishing results to pub.
func New(source transport.Source, runner *etl.Runner, svc *enrichment.Service, pub etl.Publisher, log logging.Logger, metric metrics.Provider) *Orchestrator {
	if metric == nil {
		metric = metrics.Noop()
	}
	return &Orchestrator{
		source:    source,
		runner:    runner,
		svc:       svc,
		pub:       pub,
		log:       log,
		metric:    metric,
		toProcess: make(map[string]transport.SimulationCycle),
	}
}

// Run executes the receive loop until ctx is done or Stop is called
// (spec.md §4.4). It blocks the calling goroutine; callers typically
// run it in its own goroutine (spec.md §5: one thread for ingest
// orchestration).
func (o *Orchestrator) Run(ctx context.Context) {
	for {
		if o.shouldExit.Load() {
			o.wg.Wait()
			return
		}

		if len(o.toProcess) > 0 && !o.etlRunning.Load() {
			o.startBatch(ctx)
		}

		rctx, cancel := context.WithTimeout(ctx, ReceiveTimeout)
		cyc, ok, err := o.source.Receive(rctx)
		cancel()

		if err != nil {
			o.log.WarnCtx(ctx, "transport receive error", "error", err)
			continue
		}
		if !ok {
			if ctx.Err() != nil {
				o.shouldExit.Store(true)
			}
			continue
		}

		// Coalescing (spec.md §4.4 step 5): the freshest snapshot
		// supersedes any older queued cycle for the same highway.
		o.toProcess[cyc.Highway.Name] = cyc
	}
}

// startBatch moves to_process into processing and launches the batch
// runner goroutine, projecting total new plates across all cycles and
// reserving index capacity ahead of Extract (spec.md §4.4 step 2).
func (o *Orchestrator) startBatch(ctx context.Context) {
	cycles := make([]transport.SimulationCycle, 0, len(o.toProcess))
	projected := 0
	for _, cyc := range o.toProcess {
		cycles = append(cycles, cyc)
		projected += len(cyc.Vehicles)
	}
	o.toProcess = make(map[string]transport.SimulationCycle)

	o.runner.Index.Reserve(o.runner.Index.Len() + projected)

	o.etlRunning.Store(true)
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer o.etlRunning.Store(false)
		o.runner.FromCycles(ctx, cycles, o.svc, o.pub, o.metric)
	}()
}

// Stop requests shutdown (spec.md §4.10): the receive loop observes it
// at its next scheduling point and returns after any in-flight batch
// completes.
func (o *Orchestrator) Stop() {
	o.shouldExit.Store(true)
}
