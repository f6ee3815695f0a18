package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/san-kum/picsim/internal/config"
	"github.com/san-kum/picsim/internal/metrics"
	"github.com/san-kum/picsim/internal/pic"
	"github.com/san-kum/picsim/internal/sim"
)

const (
	metadataFile    = "metadata.json"
	diagnosticsFile = "diagnostics.csv"
	configFile      = "config.yaml"
	snapshotDir     = "snapshots"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Scenario  string             `json:"scenario"`
	Timestamp time.Time          `json:"timestamp"`
	Seed      int64              `json:"seed"`
	Dim       int                `json:"dim"`
	Lengths   [3]int             `json:"lengths"`
	CFL       float64            `json:"cfl"`
	Steps     int                `json:"steps"`
	Tiles     int                `json:"tiles"`
	Backend   string             `json:"backend"`
	Filters   []string           `json:"filters"`
	Elapsed   float64            `json:"elapsed_seconds"`
	Metrics   map[string]float64 `json:"metrics"`
	Status    string             `json:"status"`
	Error     string             `json:"error,omitempty"`
}

const (
	StatusComplete = "complete"
	StatusFailed   = "failed"
)

// Row is one line of diagnostics.csv.
type Row struct {
	Tile int `csv:"tile" json:"tile"`
	metrics.Summary
}

// Run is an open run directory. Recorders from every tile append to the
// same diagnostics file.
type Run struct {
	ID  string
	dir string
	cfg *config.Config

	mu            sync.Mutex
	diag          *os.File
	headerWritten bool
	err           error
}

// Create opens a new run directory and writes its config.
func (s *Store) Create(cfg *config.Config) (*Run, error) {
	runID := fmt.Sprintf("%s_%d", cfg.Scenario, time.Now().UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, err
	}
	if err := config.Save(filepath.Join(runDir, configFile), cfg); err != nil {
		return nil, fmt.Errorf("writing config: %w", err)
	}

	f, err := os.Create(filepath.Join(runDir, diagnosticsFile))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", diagnosticsFile, err)
	}

	return &Run{ID: runID, dir: runDir, cfg: cfg, diag: f}, nil
}

func (r *Run) Dir() string { return r.dir }

func (r *Run) write(row Row) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return
	}

	records := []Row{row}
	var err error
	if !r.headerWritten {
		err = gocsv.Marshal(records, r.diag)
		r.headerWritten = true
	} else {
		err = gocsv.MarshalWithoutHeaders(records, r.diag)
	}
	if err != nil {
		r.err = fmt.Errorf("writing diagnostics: %w", err)
	}
}

func (r *Run) fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err == nil {
		r.err = err
	}
}

// Err returns the first write error of any recorder.
func (r *Run) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

type recorder struct {
	run  *Run
	tile int
	t    *pic.Tile
}

// Recorder returns an observer that logs tile i's diagnostics and, every
// output.snapshot_every steps, a compressed snapshot of its fields.
func (r *Run) Recorder(i int, t *pic.Tile) sim.Observer {
	return &recorder{run: r, tile: i, t: t}
}

func (rec *recorder) OnStep(s metrics.Summary) {
	rec.run.write(Row{Tile: rec.tile, Summary: s})

	every := rec.run.cfg.Output.SnapshotEvery
	if every <= 0 || s.Step%every != 0 {
		return
	}
	path := filepath.Join(rec.run.dir, snapshotDir, snapshotName(rec.tile, s.Step))
	if err := WriteSnapshot(path, rec.t.Lattice, rec.run.cfg.Output.Fields); err != nil {
		rec.run.fail(err)
	}
}

func snapshotName(tile, step int) string {
	return fmt.Sprintf("tile%d_step%06d.pics.zst", tile, step)
}

// Finish writes metadata.json from the per-tile results. Metrics are
// averaged over tiles. A diagnostics or snapshot write error still produces
// metadata, marked failed, and is returned.
func (r *Run) Finish(results []*sim.Result, elapsed time.Duration) (*RunMetadata, error) {
	meta, err := r.close(results, elapsed, nil)
	if err != nil {
		return nil, err
	}
	if meta.Status == StatusFailed {
		return meta, r.Err()
	}
	return meta, nil
}

// Abort closes a run that stopped early, recording cause in its metadata so
// the directory stays listable.
func (r *Run) Abort(results []*sim.Result, elapsed time.Duration, cause error) (*RunMetadata, error) {
	return r.close(results, elapsed, cause)
}

func (r *Run) close(results []*sim.Result, elapsed time.Duration, cause error) (*RunMetadata, error) {
	closeErr := r.diag.Close()
	if cause == nil {
		cause = r.Err()
	}
	if cause == nil && closeErr != nil {
		r.fail(closeErr)
		cause = closeErr
	}

	meta := &RunMetadata{
		ID:        r.ID,
		Scenario:  r.cfg.Scenario,
		Timestamp: time.Now(),
		Seed:      r.cfg.Seed,
		Dim:       r.cfg.Dim,
		Lengths:   r.cfg.Lengths(),
		CFL:       r.cfg.CFL,
		Steps:     r.cfg.Steps,
		Tiles:     r.cfg.Tiles,
		Backend:   r.cfg.Deposit.Backend,
		Elapsed:   elapsed.Seconds(),
		Metrics:   make(map[string]float64),
		Status:    StatusComplete,
	}
	if cause != nil {
		meta.Status = StatusFailed
		meta.Error = cause.Error()
	}
	for _, f := range r.cfg.Filters {
		meta.Filters = append(meta.Filters, f.Name)
	}

	n := 0
	for _, res := range results {
		if res == nil {
			continue
		}
		n++
		for k, v := range res.Metrics {
			meta.Metrics[k] += v
		}
	}
	for k := range meta.Metrics {
		meta.Metrics[k] /= float64(n)
	}

	if err := writeJSON(filepath.Join(r.dir, metadataFile), meta); err != nil {
		return nil, err
	}
	return meta, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// Latest returns the most recent run ID.
func (s *Store) Latest() (string, error) {
	runs, err := s.List()
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "", fmt.Errorf("no runs in %s", s.baseDir)
	}
	return runs[len(runs)-1].ID, nil
}

func (s *Store) LoadDiagnostics(runID string) ([]Row, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, diagnosticsFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rows []Row
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("reading diagnostics: %w", err)
	}
	return rows, nil
}

// Snapshots lists the snapshot files of a run in name order.
func (s *Store) Snapshots(runID string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.baseDir, runID, snapshotDir, "*.pics.zst"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}
