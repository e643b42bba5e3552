package etl

import (
	"context"
	"sync"

	"github.com/juanbelieni/highwaysim/internal/enrichment"
)

// enrich runs the Enrich stage (spec.md §4.8): the same worker fan-out
// iterates its processed entries, requesting a lookup for every
// vehicle still unenriched, and updates both the per-worker processed
// list (what the dashboard will see next redraw) and the central
// VehicleIndex.
func (r *Runner) enrich(ctx context.Context, svc *enrichment.Service, states []*workerState) {
	var wg sync.WaitGroup
	wg.Add(len(states))
	for _, st := range states {
		go func(st *workerState) {
			defer wg.Done()
			for i := range st.processed {
				pv := &st.processed[i]
				if pv.Vehicle.Enriched() {
					continue
				}
				res, ok := svc.Query(ctx, pv.Plate)
				if !ok {
					// EnrichmentUnavailable (spec.md §7): leave
					// unenriched, dashboard renders "-" placeholders.
					continue
				}
				pv.Vehicle.Name = res.Owner
				pv.Vehicle.Model = res.Model
				pv.Vehicle.Year = res.Year

				if data, found := r.Index.Find(pv.Plate); found {
					data.Vehicle.Name = res.Owner
					data.Vehicle.Model = res.Model
					data.Vehicle.Year = res.Year
				}
			}
		}(st)
	}
	wg.Wait()
}
