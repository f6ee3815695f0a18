package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/san-kum/picsim/internal/config"
	"github.com/san-kum/picsim/internal/mesh"
	"github.com/san-kum/picsim/internal/metrics"
	"github.com/san-kum/picsim/internal/pic"
	"github.com/san-kum/picsim/internal/sim"
)

func TestStoreRunLifecycle(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.Seed = 42
	cfg.Output.SnapshotEvery = 2

	tile, err := pic.NewTile(pic.Dim2, [3]int{4, 4, 1}, [3]float64{}, 0.45, 3)
	if err != nil {
		t.Fatal(err)
	}
	tile.Lattice.Jx.Set(1, 2, 0, 0.75)

	run, err := st.Create(cfg)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	rec := run.Recorder(0, tile)
	for step := 0; step < 3; step++ {
		rec.OnStep(metrics.Summary{Step: step, JxSum: float64(step) * 0.5, Particles: 10})
	}

	result := &sim.Result{Metrics: map[string]float64{"peak_current": 1.5}}
	if _, err := run.Finish([]*sim.Result{result}, time.Second); err != nil {
		t.Fatalf("finish failed: %v", err)
	}

	meta, err := st.Load(run.ID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Seed != 42 {
		t.Errorf("expected seed 42, got %d", meta.Seed)
	}
	if meta.Status != StatusComplete || meta.Error != "" {
		t.Errorf("expected complete run, got status %q error %q", meta.Status, meta.Error)
	}
	if meta.Metrics["peak_current"] != 1.5 {
		t.Errorf("expected peak 1.5, got %f", meta.Metrics["peak_current"])
	}
	if meta.Lengths != [3]int{32, 32, 1} {
		t.Errorf("unexpected lengths %v", meta.Lengths)
	}

	rows, err := st.LoadDiagnostics(run.ID)
	if err != nil {
		t.Fatalf("load diagnostics failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[2].Step != 2 || rows[2].JxSum != 1.0 || rows[2].Particles != 10 {
		t.Errorf("unexpected row %+v", rows[2])
	}

	snaps, err := st.Snapshots(run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(snaps) != 2 {
		t.Fatalf("expected snapshots at steps 0 and 2, got %v", snaps)
	}
	fields, err := ReadSnapshot(snaps[1])
	if err != nil {
		t.Fatal(err)
	}
	if fields["jx"].At(1, 2, 0) != 0.75 {
		t.Errorf("expected jx(1,2)=0.75, got %f", fields["jx"].At(1, 2, 0))
	}

	latest, err := st.Latest()
	if err != nil || latest != run.ID {
		t.Errorf("expected latest %s, got %s (%v)", run.ID, latest, err)
	}
}

func TestAbortKeepsRunListable(t *testing.T) {
	st := New(t.TempDir())
	cfg := config.DefaultConfig()
	cfg.Output.SnapshotEvery = 0

	tile, err := pic.NewTile(pic.Dim1, [3]int{8, 1, 1}, [3]float64{}, 0.45, 3)
	if err != nil {
		t.Fatal(err)
	}
	run, err := st.Create(cfg)
	if err != nil {
		t.Fatal(err)
	}
	run.Recorder(0, tile).OnStep(metrics.Summary{Step: 0, Particles: 4})

	cause := errors.New("tile 0: step 1: canceled")
	if _, err := run.Abort([]*sim.Result{nil}, time.Millisecond, cause); err != nil {
		t.Fatalf("abort failed: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].ID != run.ID {
		t.Fatalf("expected the aborted run to be listed, got %+v", runs)
	}
	if runs[0].Status != StatusFailed || runs[0].Error != cause.Error() {
		t.Errorf("expected failed status with cause, got %q %q", runs[0].Status, runs[0].Error)
	}
	if len(runs[0].Metrics) != 0 {
		t.Errorf("expected no metrics, got %v", runs[0].Metrics)
	}

	// the diagnostics written before the failure survive
	rows, err := st.LoadDiagnostics(run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Particles != 4 {
		t.Errorf("unexpected rows %+v", rows)
	}
}

func TestListEmpty(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "missing"))
	runs, err := st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
	if _, err := st.Latest(); err == nil {
		t.Error("expected error with no runs")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	l := mesh.NewLattice(3, 2, 2, 1)
	data := l.Rho.Data()
	for i := range data {
		data[i] = float64(i) * 0.25
	}
	l.Ez.Fill(-2)

	path := filepath.Join(t.TempDir(), "nested", "snap.pics.zst")
	if err := WriteSnapshot(path, l, []string{"rho", "ez"}); err != nil {
		t.Fatal(err)
	}

	fields, err := ReadSnapshot(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(fields))
	}
	if !fields["rho"].SameShape(l.Rho) {
		t.Errorf("shape mismatch: %v", fields["rho"])
	}
	for i, v := range fields["rho"].Data() {
		if v != data[i] {
			t.Fatalf("rho[%d]: expected %f, got %f", i, data[i], v)
		}
	}
	if fields["ez"].Sum() != -2*float64(len(data)) {
		t.Errorf("unexpected ez sum %f", fields["ez"].Sum())
	}
}

func TestSnapshotErrors(t *testing.T) {
	dir := t.TempDir()
	l := mesh.NewLattice(2, 2, 1, 1)
	if err := WriteSnapshot(filepath.Join(dir, "a.zst"), l, []string{"psi"}); err == nil {
		t.Error("expected error for unknown field")
	}

	bogus := filepath.Join(dir, "bogus.zst")
	if err := os.WriteFile(bogus, []byte("not compressed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadSnapshot(bogus); err == nil {
		t.Error("expected error for corrupt snapshot")
	}
}

func TestExportJSON(t *testing.T) {
	st := New(t.TempDir())
	cfg := config.DefaultConfig()
	run, err := st.Create(cfg)
	if err != nil {
		t.Fatal(err)
	}
	tile, _ := pic.NewTile(pic.Dim1, [3]int{4, 1, 1}, [3]float64{}, 0.45, 3)
	run.Recorder(1, tile).OnStep(metrics.Summary{Step: 0, JzSum: 2})
	if _, err := run.Finish(nil, 0); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := st.ExportJSON(&buf, run.ID); err != nil {
		t.Fatal(err)
	}

	var out ExportData
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Metadata.ID != run.ID || len(out.Diagnostics) != 1 {
		t.Fatalf("unexpected export %+v", out)
	}
	if out.Diagnostics[0].Tile != 1 || out.Diagnostics[0].JzSum != 2 {
		t.Errorf("unexpected row %+v", out.Diagnostics[0])
	}
}
