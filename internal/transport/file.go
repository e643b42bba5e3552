package transport

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/juanbelieni/highwaysim/internal/logging"
)

// ParseError is spec.md §7's ParseError: a malformed header or
// truncated row. It never tears down the pipeline; the file transport
// skips the offending file and advances its file index.
type ParseError struct {
	Path string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("transport/file: %s:%d: %v", e.Path, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// FileSource implements Source by watching one or more per-highway
// directories for `<n>.csv`/`<n>.tmp` sentinel pairs (spec.md §6a),
// using fsnotify instead of polling, following the teacher's
// HotReloadSystem watcher-goroutine shape
// (engine/internal/runtime.HotReloadSystem.WatchConfigChanges).
type FileSource struct {
	dirs      []string
	nFiles    int
	log       logging.Logger
	watcher   *fsnotify.Watcher
	events    chan fsnotify.Event
	errs      chan error
	next      map[string]int // per-directory next file index
	mu        sync.Mutex
	closeOnce sync.Once
}

// NewFileSource constructs a FileSource watching dirs. nFiles is the
// N_FILES cycle length (default 5 per spec.md §6a).
func NewFileSource(dirs []string, nFiles int, log logging.Logger) (*FileSource, error) {
	if nFiles <= 0 {
		nFiles = 5
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("transport/file: create watcher: %w", err)
	}
	next := make(map[string]int, len(dirs))
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("transport/file: mkdir %s: %w", d, err)
		}
		if err := watcher.Add(d); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("transport/file: watch %s: %w", d, err)
		}
		next[d] = 0
	}
	fs := &FileSource{
		dirs:    dirs,
		nFiles:  nFiles,
		log:     log,
		watcher: watcher,
		next:    next,
	}
	return fs, nil
}

// Receive blocks until a `.tmp` sentinel appears for the next expected
// file index in any watched directory, parses the matching `.csv`, and
// returns its SimulationCycle. It also polls each directory's expected
// file directly on every call (cheap stat) so a sentinel written before
// the watch was established is not missed.
func (fs *FileSource) Receive(ctx context.Context) (SimulationCycle, bool, error) {
	for {
		if cyc, ok := fs.scanReady(ctx); ok {
			return cyc, true, nil
		}
		select {
		case e, ok := <-fs.watcher.Events:
			if !ok {
				return SimulationCycle{}, false, nil
			}
			if e.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if cyc, ok := fs.tryRead(e.Name); ok {
				return cyc, true, nil
			}
		case err, ok := <-fs.watcher.Errors:
			if !ok {
				return SimulationCycle{}, false, nil
			}
			return SimulationCycle{}, false, fmt.Errorf("transport/file: watcher error: %w", err)
		case <-ctx.Done():
			return SimulationCycle{}, false, nil
		}
	}
}

// scanReady checks each directory's currently-expected `<n>.tmp`
// sentinel directly, in case it landed before the watch was set up or
// between events.
func (fs *FileSource) scanReady(ctx context.Context) (SimulationCycle, bool) {
	for _, d := range fs.dirs {
		fs.mu.Lock()
		n := fs.next[d]
		fs.mu.Unlock()
		tmp := filepath.Join(d, fmt.Sprintf("%d.tmp", n))
		if _, err := os.Stat(tmp); err == nil {
			if cyc, ok := fs.tryRead(tmp); ok {
				return cyc, true
			}
		}
		select {
		case <-ctx.Done():
			return SimulationCycle{}, false
		default:
		}
	}
	return SimulationCycle{}, false
}

// tryRead consumes the `.tmp` sentinel at tmpPath: parses the sibling
// `.csv`, deletes the sentinel, and advances that directory's file
// index modulo nFiles. A ParseError is logged once and the file is
// skipped (index still advances) rather than torn down.
func (fs *FileSource) tryRead(tmpPath string) (SimulationCycle, bool) {
	if filepath.Ext(tmpPath) != ".tmp" {
		return SimulationCycle{}, false
	}
	dir := filepath.Dir(tmpPath)
	base := strings.TrimSuffix(filepath.Base(tmpPath), ".tmp")
	n, err := strconv.Atoi(base)
	if err != nil {
		return SimulationCycle{}, false
	}

	fs.mu.Lock()
	expected, watched := fs.next[dir]
	fs.mu.Unlock()
	if !watched || n != expected {
		return SimulationCycle{}, false
	}

	csvPath := filepath.Join(dir, fmt.Sprintf("%d.csv", n))
	cyc, err := parseCSV(csvPath)
	os.Remove(tmpPath)

	fs.mu.Lock()
	fs.next[dir] = (expected + 1) % fs.nFiles
	fs.mu.Unlock()

	if err != nil {
		fs.log.WarnCtx(context.Background(), "skipping malformed cycle file", "path", csvPath, "error", err)
		return SimulationCycle{}, false
	}
	return cyc, true
}

// parseCSV reads one cycle file: header "cycle ts lanes extent
// speed_limit\n" followed by data lines "PLATE000 D L distance\n"
// (spec.md §6a).
func parseCSV(path string) (SimulationCycle, error) {
	f, err := os.Open(path)
	if err != nil {
		return SimulationCycle{}, &ParseError{Path: path, Line: 0, Err: err}
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return SimulationCycle{}, &ParseError{Path: path, Line: 1, Err: fmt.Errorf("empty file")}
	}
	header := strings.Fields(scanner.Text())
	if len(header) != 5 {
		return SimulationCycle{}, &ParseError{Path: path, Line: 1, Err: fmt.Errorf("expected 5 header fields, got %d", len(header))}
	}
	cycle, err := strconv.ParseUint(header[0], 10, 64)
	if err != nil {
		return SimulationCycle{}, &ParseError{Path: path, Line: 1, Err: fmt.Errorf("cycle: %w", err)}
	}
	ts, err := strconv.ParseFloat(header[1], 64)
	if err != nil {
		return SimulationCycle{}, &ParseError{Path: path, Line: 1, Err: fmt.Errorf("ts: %w", err)}
	}
	lanes, err := strconv.Atoi(header[2])
	if err != nil {
		return SimulationCycle{}, &ParseError{Path: path, Line: 1, Err: fmt.Errorf("lanes: %w", err)}
	}
	// header[3] is the extent; the highway is named after the
	// per-highway directory the file was dropped into.
	highwayName := filepath.Base(filepath.Dir(path))
	speedLimit, err := strconv.ParseFloat(header[4], 64)
	if err != nil {
		return SimulationCycle{}, &ParseError{Path: path, Line: 1, Err: fmt.Errorf("speed_limit: %w", err)}
	}

	cyc := SimulationCycle{
		Highway:   HighwayDescriptor{Name: highwayName, Lanes: lanes, SpeedLimit: speedLimit},
		Cycle:     cycle,
		Timestamp: ts,
	}

	line := 1
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) != 4 {
			return SimulationCycle{}, &ParseError{Path: path, Line: line, Err: fmt.Errorf("expected 4 data fields, got %d", len(fields))}
		}
		direction, err := strconv.Atoi(fields[1])
		if err != nil {
			return SimulationCycle{}, &ParseError{Path: path, Line: line, Err: fmt.Errorf("direction: %w", err)}
		}
		lane, err := strconv.Atoi(fields[2])
		if err != nil {
			return SimulationCycle{}, &ParseError{Path: path, Line: line, Err: fmt.Errorf("lane: %w", err)}
		}
		distance, err := strconv.Atoi(fields[3])
		if err != nil {
			return SimulationCycle{}, &ParseError{Path: path, Line: line, Err: fmt.Errorf("distance: %w", err)}
		}
		cyc.Vehicles = append(cyc.Vehicles, RawVehicle{
			Plate:     fields[0],
			Lane:      lane,
			Direction: direction,
			Distance:  distance,
		})
	}
	if err := scanner.Err(); err != nil {
		return SimulationCycle{}, &ParseError{Path: path, Line: line, Err: err}
	}
	return cyc, nil
}

// Close stops watching and releases the underlying watcher.
func (fs *FileSource) Close() error {
	var err error
	fs.closeOnce.Do(func() {
		err = fs.watcher.Close()
	})
	return err
}
