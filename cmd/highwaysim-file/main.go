// Command highwaysim-file runs the engine against the file-drop
// transport: CSV simulation cycles dropped as a rotating set of numbered
// files into one or more input directories (spec.md §6), watched via
// fsnotify. Grounded on the
// teacher's flag-based CLI and signal-driven graceful shutdown
// (cli/cmd/ariadne/main.go).
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
	"strings"
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
		dirsFlag   string
		workers    int
		nFiles     int
		configPath string
		metricsAddr string
		enableMetrics bool
		metricsBackend string
		runTimeout int
	)

	flag.StringVar(&dirsFlag, "dirs", "", "Comma-separated input directories (default: data/)")
	flag.IntVar(&workers, "workers", 0, "Extract/Transform/Enrich worker fan-out (0=use config default)")
	flag.IntVar(&nFiles, "file-count", 0, "Rotating input file count per directory (0=use config default)")
	flag.StringVar(&configPath, "config", "", "Optional YAML config file")
	flag.StringVar(&metricsAddr, "metrics", "", "Expose /metrics on address (e.g. :9090)")
	flag.BoolVar(&enableMetrics, "enable-metrics", false, "Enable the metrics provider")
	flag.StringVar(&metricsBackend, "metrics-backend", "prom", "Metrics backend: prom|otel")
	flag.IntVar(&runTimeout, "run-timeout", 0, "Seconds to run before exiting (0=run until 'q')")
	flag.Parse()

	cfg := config.Defaults()
	var err error
	cfg, err = config.LoadFile(cfg, configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	cfg.Transport = config.TransportFile
	if dirsFlag != "" {
		cfg.FileDirs = strings.Split(dirsFlag, ",")
	}
	if workers > 0 {
		cfg.Workers = workers
	}
	if nFiles > 0 {
		cfg.FileCount = nFiles
	}
	if runTimeout > 0 {
		cfg.RunTimeoutSeconds = runTimeout
	}
	if enableMetrics {
		cfg.MetricsEnabled = true
		cfg.MetricsBackend = metricsBackend
	}
	if metricsAddr != "" {
		cfg.MetricsAddr = metricsAddr
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger := logging.New(slog.Default())

	var provider metrics.Provider
	if cfg.MetricsEnabled {
		switch cfg.MetricsBackend {
		case "otel":
			provider = metrics.NewOTelProvider()
		default:
			provider = metrics.NewPrometheusProvider(nil)
		}
	} else {
		provider = metrics.Noop()
	}

	if cfg.MetricsEnabled && cfg.MetricsAddr != "" {
		if prom, ok := provider.(*metrics.PrometheusProvider); ok {
			mux := http.NewServeMux()
			mux.Handle("/metrics", prom.MetricsHandler())
			go func() {
				log.Printf("metrics listening on %s", cfg.MetricsAddr)
				_ = http.ListenAndServe(cfg.MetricsAddr, mux)
			}()
		}
	}

	source, err := transport.NewFileSource(cfg.FileDirs, cfg.FileCount, logger)
	if err != nil {
		log.Fatalf("open file transport: %v", err)
	}
	defer func() { _ = source.Close() }()

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

	fmt.Println("highwaysim: shut down")
}
