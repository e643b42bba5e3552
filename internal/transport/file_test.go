package transport

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juanbelieni/highwaysim/internal/logging"
)

func writeCycle(t *testing.T, dir string, n int, csv string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, strconv.Itoa(n)+".csv"), []byte(csv), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, strconv.Itoa(n)+".tmp"), nil, 0o644))
}

func TestFileSourceReceivesParsedCycle(t *testing.T) {
	dir := t.TempDir()
	log := logging.New(slog.Default())
	fs, err := NewFileSource([]string{dir}, 5, log)
	require.NoError(t, err)
	defer fs.Close()

	csv := "1 10.5 4 H1 20\nABC1234 0 0 10\nXYZ9999 1 1 20\n"
	writeCycle(t, dir, 0, csv)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cyc, ok, err := fs.Receive(ctx)
	require.NoError(t, err)
	require.True(t, ok, "expected a cycle")

	assert.Equal(t, filepath.Base(dir), cyc.Highway.Name)
	assert.Equal(t, 4, cyc.Highway.Lanes)
	assert.Equal(t, 20.0, cyc.Highway.SpeedLimit)
	assert.Equal(t, uint64(1), cyc.Cycle)
	assert.Equal(t, 10.5, cyc.Timestamp)
	require.Len(t, cyc.Vehicles, 2)
	assert.Equal(t, "ABC1234", cyc.Vehicles[0].Plate)
	assert.Equal(t, 10, cyc.Vehicles[0].Distance)

	_, err = os.Stat(filepath.Join(dir, "0.tmp"))
	assert.True(t, os.IsNotExist(err), "expected the .tmp sentinel to be removed after reading")
}

func TestFileSourceSkipsMalformedHeaderAndAdvances(t *testing.T) {
	dir := t.TempDir()
	log := logging.New(slog.Default())
	fs, err := NewFileSource([]string{dir}, 2, log)
	require.NoError(t, err)
	defer fs.Close()

	writeCycle(t, dir, 0, "not a valid header\n")
	writeCycle(t, dir, 1, "2 1.0 2 H2 10\nAAA0000 0 0 5\n")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cyc, ok, err := fs.Receive(ctx)
	require.NoError(t, err)
	require.True(t, ok, "expected the well-formed second file to be returned")
	assert.Equal(t, filepath.Base(dir), cyc.Highway.Name)
}
