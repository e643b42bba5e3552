package etl

import (
	"context"
	"time"

	"github.com/juanbelieni/highwaysim/internal/enrichment"
	"github.com/juanbelieni/highwaysim/internal/metrics"
	"github.com/juanbelieni/highwaysim/internal/transport"
)

// Publisher receives the two handoffs one ETL run produces: the
// Transform-complete snapshot (fast path) and the Enrich-complete
// snapshot (slow path fill-in), per spec.md §4.7/§4.8's split publish.
type Publisher interface {
	Publish(Result)
}

type runMetrics struct {
	batches  metrics.Counter
	duration metrics.Histogram
}

func newRunMetrics(provider metrics.Provider) runMetrics {
	if provider == nil {
		provider = metrics.Noop()
	}
	return runMetrics{
		batches: provider.NewCounter(metrics.CounterOpts{
			CommonOpts: metrics.CommonOpts{Namespace: "highwaysim", Subsystem: "etl", Name: "batches_total", Help: "ETL runs completed"},
		}),
		duration: provider.NewHistogram(metrics.HistogramOpts{
			CommonOpts: metrics.CommonOpts{Namespace: "highwaysim", Subsystem: "etl", Name: "batch_seconds", Help: "wall-clock duration of one ETL run"},
		}),
	}
}

// Run executes one full ETL run for batch (spec.md §2's control flow:
// Extract barrier → Transform → publish → Enrich → second publish
// nudge). It publishes twice: once after Transform (fast, CPU-bound
// path), once after Enrich (may block on the artificially slow
// service), matching spec.md §4.8's rationale for splitting the two.
func (r *Runner) Run(ctx context.Context, batch *Batch, svc *enrichment.Service, pub Publisher, provider metrics.Provider) Result {
	rm := newRunMetrics(provider)
	start := time.Now()
	defer func() { rm.duration.Observe(time.Since(start).Seconds()); rm.batches.Inc() }()

	states := r.extract(batch)
	counts := r.transform(states)

	result := snapshotResult(states, counts)
	pub.Publish(result)

	r.enrich(ctx, svc, states)

	result = snapshotResult(states, counts)
	pub.Publish(result)

	return result
}

func snapshotResult(states []*workerState, counts Counts) Result {
	buckets := make([][]ProcessedVehicle, len(states))
	total := 0
	for i, st := range states {
		buckets[i] = append([]ProcessedVehicle(nil), st.processed...)
		total += len(st.processed)
	}
	flat := make([]ProcessedVehicle, 0, total)
	for _, b := range buckets {
		flat = append(flat, b...)
	}
	return Result{Buckets: buckets, Processed: flat, Counts: counts}
}

// FromCycles is a convenience that resolves cycles into highways
// (updating the registry) and runs Extract→Transform→publish→Enrich in
// one call, used by callers that don't need to inspect the
// intermediate Batch (e.g. tests and the orchestrator's batch runner).
func (r *Runner) FromCycles(ctx context.Context, cycles []transport.SimulationCycle, svc *enrichment.Service, pub Publisher, provider metrics.Provider) Result {
	batch := NewBatch(cycles, r.Reg)
	return r.Run(ctx, batch, svc, pub, provider)
}
