// Package enrichment implements the external lookup slow-path: a bounded
// FIFO queue drained by a single serialized worker, following the
// single-worker-over-bounded-channel shape of etalazz-vsa's
// plugin/tfd/sservice.go, generalized from compression flushing to
// per-plate vehicle-record lookups.
package enrichment

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/juanbelieni/highwaysim/internal/metrics"
	"github.com/juanbelieni/highwaysim/internal/plate"
)

// Result is what a lookup yields: the registration year and model name
// for a previously-unseen plate. Owner is decorative flavor matching the
// kind of record a real DMV lookup would return.
type Result struct {
	Plate plate.Key
	Year  int
	Model string
	Owner string
}

// request pairs a plate with the channel its answer is delivered on.
type request struct {
	plate plate.Key
	reply chan<- Result
}

// Options configure the bounded queue and the artificial lookup latency
// that stands in for a real external service's round trip.
type Options struct {
	// QueueSize bounds the number of requests waiting to be served.
	// The request whose lookup is in progress is not counted, so up to
	// QueueSize+1 requests can be outstanding at once. Default 16.
	QueueSize int
	// Delay is how long a lookup takes to simulate network/service cost.
	// Default 50ms.
	Delay time.Duration
	// Rand supplies the synthetic lookup's pseudo-randomness. Defaults to
	// a package-private source seeded at construction if nil.
	Rand *rand.Rand
}

// Service is the SlowService: a single background goroutine draining a
// bounded FIFO queue of lookup requests, one at a time, each taking
// Options.Delay. Full queues drop new requests rather than block the
// ETL pipeline (spec.md: enrichment must never stall extract/transform).
type Service struct {
	in      chan request
	stopCh  chan struct{}
	doneCh  chan struct{}
	once    sync.Once
	opts    Options
	rng     *rand.Rand
	metrics serviceMetrics
}

type serviceMetrics struct {
	attempts metrics.Counter
	drops    metrics.Counter
	latency  metrics.Histogram
}

// names and models are small in-memory dictionaries a synthetic lookup
// draws from; a real implementation would call out to a DMV-style API.
var names = []string{"Alves", "Bianchi", "Correa", "Duarte", "Esposito", "Ferreira", "Gomes", "Haddad", "Ibarra", "Jardim"}
var models = []string{"Civic", "Corolla", "Onix", "HB20", "Gol", "Polo", "Sandero", "Kicks", "Compass", "Tracker"}

// New constructs a Service. The background worker is not started until
// Start is called.
func New(opts Options, provider metrics.Provider) *Service {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 16
	}
	if opts.Delay <= 0 {
		opts.Delay = 50 * time.Millisecond
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	if provider == nil {
		provider = metrics.Noop()
	}
	return &Service{
		in:     make(chan request, opts.QueueSize),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
		opts:   opts,
		rng:    rng,
		metrics: serviceMetrics{
			attempts: provider.NewCounter(metrics.CounterOpts{
				CommonOpts: metrics.CommonOpts{Namespace: "highwaysim", Subsystem: "enrichment", Name: "attempts_total", Help: "enrichment lookups submitted"},
				Labels:     []string{"outcome"},
			}),
			drops: provider.NewCounter(metrics.CounterOpts{
				CommonOpts: metrics.CommonOpts{Namespace: "highwaysim", Subsystem: "enrichment", Name: "drops_total", Help: "enrichment lookups dropped because the queue was full"},
			}),
			latency: provider.NewHistogram(metrics.HistogramOpts{
				CommonOpts: metrics.CommonOpts{Namespace: "highwaysim", Subsystem: "enrichment", Name: "lookup_seconds", Help: "synthetic lookup latency"},
			}),
		},
	}
}

// Start launches the background worker. Safe to call multiple times;
// only the first call has effect.
func (s *Service) Start() {
	s.once.Do(func() {
		go s.run()
	})
}

// Stop asks the worker to drain and exit, then waits for it to finish.
func (s *Service) Stop() {
	close(s.stopCh)
	<-s.doneCh
}

// Submit enqueues k for lookup, delivering the result on the returned
// channel (buffered, capacity 1) once ready. It returns false without
// enqueuing if the queue is full; the caller should retry on a later
// batch rather than block the ETL pipeline.
func (s *Service) Submit(k plate.Key) (<-chan Result, bool) {
	reply := make(chan Result, 1)
	select {
	case s.in <- request{plate: k, reply: reply}:
		s.metrics.attempts.Inc("queued")
		return reply, true
	default:
		s.metrics.drops.Inc()
		s.metrics.attempts.Inc("dropped")
		return nil, false
	}
}

// Query is a blocking convenience wrapper over Submit for callers that
// can afford to wait (bounded by ctx). Returns ok=false if the queue was
// full or ctx expired before an answer arrived.
func (s *Service) Query(ctx context.Context, k plate.Key) (Result, bool) {
	reply, ok := s.Submit(k)
	if !ok {
		return Result{}, false
	}
	select {
	case r := <-reply:
		return r, true
	case <-ctx.Done():
		return Result{}, false
	}
}

func (s *Service) run() {
	defer close(s.doneCh)
	for {
		select {
		case req := <-s.in:
			s.answer(req)
		case <-s.stopCh:
			for {
				select {
				case req := <-s.in:
					s.answer(req)
				default:
					return
				}
			}
		}
	}
}

func (s *Service) answer(req request) {
	start := time.Now()
	time.Sleep(s.opts.Delay)
	r := Result{
		Plate: req.plate,
		Year:  1990 + s.rng.Intn(36),
		Model: models[s.rng.Intn(len(models))],
		Owner: names[s.rng.Intn(len(names))],
	}
	s.metrics.latency.Observe(time.Since(start).Seconds())
	req.reply <- r
}
