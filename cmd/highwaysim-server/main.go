// Command highwaysim-server runs the engine against the gRPC transport:
// an IngestServer listening for ReportCycle RPCs (spec.md §6), serving
// /metrics over HTTP for the duration of the run when the Prometheus
// backend is selected. Grounded on the
// teacher's flag-based CLI and signal-driven graceful shutdown
// (cli/cmd/ariadne/main.go), with the numeric positional argument
// convention (run timeout in seconds) from spec.md §6.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/juanbelieni/highwaysim/internal/config"
	"github.com/juanbelieni/highwaysim/internal/dashboard"
	"github.com/juanbelieni/highwaysim/internal/enrichment"
	"github.com/juanbelieni/highwaysim/internal/etl"
	"github.com/juanbelieni/highwaysim/internal/highwayreg"
	"github.com/juanbelieni/highwaysim/internal/ingest"
	"github.com/juanbelieni/highwaysim/internal/logging"
	"github.com/juanbelieni/highwaysim/internal/metrics"
	"github.com/juanbelieni/highwaysim/internal/transport"
	"github.com/juanbelieni/highwaysim/internal/vehicleindex"
)

func main() {
	var (
		addr           string
		workers        int
		configPath     string
		metricsAddr    string
		metricsBackend string
	)

	flag.StringVar(&addr, "addr", "", "gRPC listen address (empty=use config default)")
	flag.IntVar(&workers, "workers", 0, "Extract/Transform/Enrich worker fan-out (0=use config default)")
	flag.StringVar(&configPath, "config", "", "Optional YAML config file")
	flag.StringVar(&metricsAddr, "metrics", ":9090", "Address to serve /metrics on")
	flag.StringVar(&metricsBackend, "metrics-backend", "prom", "Metrics backend: prom|otel")
	flag.Parse()

	// Positional argument: run timeout in seconds (0 = run until 'q').
	runTimeout := 0
	if flag.NArg() > 0 {
		secs, err := strconv.Atoi(flag.Arg(0))
		if err != nil {
			log.Fatalf("run timeout argument must be an integer number of seconds: %v", err)
		}
		runTimeout = secs
	}

	cfg := config.Defaults()
	var err error
	cfg, err = config.LoadFile(cfg, configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	cfg.Transport = config.TransportGRPC
	if addr != "" {
		cfg.GRPCAddr = addr
	}
	if workers > 0 {
		cfg.Workers = workers
	}
	if runTimeout > 0 {
		cfg.RunTimeoutSeconds = runTimeout
	}
	cfg.MetricsEnabled = true
	cfg.MetricsBackend = metricsBackend
	cfg.MetricsAddr = metricsAddr

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger := logging.New(slog.Default())

	var provider metrics.Provider
	var promProvider *metrics.PrometheusProvider
	switch cfg.MetricsBackend {
	case "otel":
		provider = metrics.NewOTelProvider()
	default:
		promProvider = metrics.NewPrometheusProvider(nil)
		provider = promProvider
	}

	if promProvider != nil {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promProvider.MetricsHandler())
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
		go func() {
			log.Printf("metrics listening on %s", cfg.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("metrics server: %v", err)
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
	}

	source, err := transport.NewGRPCSource(cfg.GRPCAddr, cfg.Workers*4)
	if err != nil {
		log.Fatalf("start grpc transport: %v", err)
	}

	idx := vehicleindex.New(cfg.Workers)
	reg := highwayreg.New()
	runner := etl.NewRunner(idx, reg, cfg.Workers)

	svc := enrichment.New(enrichment.Options{QueueSize: cfg.EnrichmentQueueSize, Delay: cfg.EnrichmentDelay}, provider)
	svc.Start()
	defer svc.Stop()

	state := dashboard.New()
	renderer := dashboard.NewRenderer()

	input, err := dashboard.OpenInput()
	if err != nil {
		log.Fatalf("open terminal input: %v", err)
	}
	defer func() { _ = input.Close() }()

	orch := ingest.New(source, runner, svc, state, logger, provider)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.RunTimeoutSeconds > 0 {
		go func() {
			select {
			case <-time.After(time.Duration(cfg.RunTimeoutSeconds) * time.Second):
				orch.Stop()
				state.Quit()
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		log.Println("signal received; initiating graceful shutdown...")
		orch.Stop()
		state.Quit()
		cancel()
		<-sigCh
		log.Println("second signal received; forcing exit")
		os.Exit(1)
	}()

	go renderer.RunRedrawLoop(state)

	go func() {
		_ = input.Run(state)
		orch.Stop()
		cancel()
	}()

	orch.Run(ctx)

	if err := source.Close(); err != nil {
		log.Printf("close grpc transport: %v", err)
	}

	fmt.Println("highwaysim-server: shut down")
}
