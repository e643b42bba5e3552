// Package config loads the engine's layered configuration: compiled-in
// defaults, overridden by an optional YAML file, overridden by CLI flags
// (spec.md §4.11/§6), following the teacher's flag-based CLI plus a
// minimal file-config layer (cli/cmd/ariadne/main.go), generalized with
// YAML instead of the teacher's placeholder JSON subset.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Transport selects which reference transport feeds the orchestrator.
type Transport string

const (
	TransportFile Transport = "file"
	TransportGRPC Transport = "grpc"
)

// Config is the full set of tunables for one engine run.
type Config struct {
	// Worker fan-out N shared by Extract/Transform/Enrich (spec.md §5:
	// minimum thread count is 5 overall).
	Workers int `yaml:"workers"`

	// SlowService bounded queue and artificial per-lookup delay.
	EnrichmentQueueSize int           `yaml:"enrichment_queue_size"`
	EnrichmentDelay     time.Duration `yaml:"enrichment_delay"`

	// Receive timeout setting. The IngestOrchestrator does not read this
	// field; it always uses the fixed ingest.ReceiveTimeout (500ms).
	ReceiveTimeout time.Duration `yaml:"receive_timeout"`

	// Transport selection and parameters.
	Transport    Transport `yaml:"transport"`
	FileDirs     []string  `yaml:"file_dirs"`
	FileCount    int       `yaml:"file_count"` // N_FILES, default 5
	GRPCAddr     string    `yaml:"grpc_addr"`

	// Run timeout in seconds; 0 means run until 'q' (spec.md §6).
	RunTimeoutSeconds int `yaml:"run_timeout_seconds"`

	// Observability.
	MetricsEnabled bool   `yaml:"metrics_enabled"`
	MetricsBackend string `yaml:"metrics_backend"` // prom|otel (any other value selects prom)
	MetricsAddr    string `yaml:"metrics_addr"`
	LogLevel       string `yaml:"log_level"`
}

// MinWorkers is the minimum Extract/Transform/Enrich worker fan-out.
// Together with the ingest, dashboard render and keyboard input
// goroutines it gives a floor of five threads overall. Falling below
// this is a ConfigError (spec.md §7) and must fail fast before any input
// is accepted.
const MinWorkers = 2

// Defaults returns the engine's compiled-in defaults.
func Defaults() Config {
	return Config{
		Workers:             4,
		EnrichmentQueueSize: 16,
		EnrichmentDelay:     50 * time.Millisecond,
		ReceiveTimeout:      500 * time.Millisecond,
		Transport:           TransportFile,
		FileDirs:            []string{"data/"},
		FileCount:           5,
		GRPCAddr:            "localhost:50051",
		RunTimeoutSeconds:   0,
		MetricsEnabled:      false,
		MetricsBackend:      "prom",
		LogLevel:            "info",
	}
}

// LoadFile merges a YAML file's contents onto base, returning the result.
// A missing file is not an error (defaults stand); a malformed file is.
func LoadFile(base Config, path string) (Config, error) {
	if path == "" {
		return base, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return base, nil
		}
		return base, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &base); err != nil {
		return base, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return base, nil
}

// ErrConfig reports a configuration fault that must abort startup before
// any input is accepted (spec.md §7 ConfigError).
type ErrConfig struct {
	Field  string
	Reason string
}

func (e *ErrConfig) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// Validate enforces the minimum thread count and other startup
// invariants. Call before accepting any input (spec.md §7).
func (c Config) Validate() error {
	if c.Workers < MinWorkers {
		return &ErrConfig{Field: "workers", Reason: fmt.Sprintf("must be >= %d", MinWorkers)}
	}
	if c.EnrichmentQueueSize < 1 {
		return &ErrConfig{Field: "enrichment_queue_size", Reason: "must be >= 1"}
	}
	if c.Transport != TransportFile && c.Transport != TransportGRPC {
		return &ErrConfig{Field: "transport", Reason: "must be \"file\" or \"grpc\""}
	}
	if c.Transport == TransportFile && len(c.FileDirs) == 0 {
		return &ErrConfig{Field: "file_dirs", Reason: "at least one directory required for the file transport"}
	}
	return nil
}
