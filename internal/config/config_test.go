package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsValidate(t *testing.T) {
	assert.NoError(t, Defaults().Validate())
}

func TestLoadFileMissingIsNotError(t *testing.T) {
	cfg, err := LoadFile(Defaults(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Defaults().Workers, cfg.Workers)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workers: 8\ntransport: grpc\n"), 0o644))

	cfg, err := LoadFile(Defaults(), path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, TransportGRPC, cfg.Transport)
}

func TestValidateRejectsBadWorkerCount(t *testing.T) {
	cfg := Defaults()
	cfg.Workers = 0
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsUnknownTransport(t *testing.T) {
	cfg := Defaults()
	cfg.Transport = "carrier-pigeon"
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsFileTransportWithoutDirs(t *testing.T) {
	cfg := Defaults()
	cfg.FileDirs = nil
	assert.Error(t, cfg.Validate())
}
