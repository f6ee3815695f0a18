package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/picsim/internal/particles"
	"github.com/san-kum/picsim/internal/pic"
)

func TestSummarize(t *testing.T) {
	tile, err := pic.NewTile(pic.Dim2, [3]int{4, 4, 1}, [3]float64{}, 0.45, 3)
	if err != nil {
		t.Fatal(err)
	}
	l := tile.Lattice
	l.Jx.Set(1, 1, 0, 2)
	l.Jx.Set(2, 1, 0, -3)
	l.Jy.Set(0, 0, 0, 1)
	l.Jz.Set(-1, 0, 0, 100) // halo, ignored
	l.Rho.Set(3, 3, 0, 0.5)

	c := particles.New("e-", -1, 0.45)
	c.Add([3]float64{1, 1, 0}, [3]float64{0, 0, 0})
	c.Add([3]float64{2, 2, 0}, [3]float64{0, 2, 2}) // gamma = 3
	tile.AddContainer(c)

	s := Summarize(7, tile)

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"jx", s.JxSum, -1},
		{"jy", s.JySum, 1},
		{"jz", s.JzSum, 0},
		{"rho", s.RhoSum, 0.5},
		{"energy", s.CurrentEnergy, 0.5 * (4 + 9 + 1)},
		{"peak", s.PeakCurrent, 3},
		{"kinetic", s.Kinetic, 2},
	}
	for _, tt := range tests {
		if math.Abs(tt.got-tt.want) > 1e-12 {
			t.Errorf("%s: expected %f, got %f", tt.name, tt.want, tt.got)
		}
	}
	if s.Step != 7 || s.Particles != 2 {
		t.Errorf("unexpected step/particles: %d/%d", s.Step, s.Particles)
	}
	if !s.Valid() {
		t.Error("expected valid summary")
	}
}

func TestSummaryValid(t *testing.T) {
	s := Summary{JxSum: math.NaN()}
	if s.Valid() {
		t.Error("expected NaN to be invalid")
	}
	s = Summary{PeakCurrent: math.Inf(1)}
	if s.Valid() {
		t.Error("expected Inf to be invalid")
	}
}

func TestSummaryColumn(t *testing.T) {
	s := Summary{Step: 3, JzSum: 1.5}
	for _, name := range Columns() {
		if _, ok := s.Column(name); !ok {
			t.Errorf("column %s not found", name)
		}
	}
	if v, _ := s.Column("jz_sum"); v != 1.5 {
		t.Errorf("expected 1.5, got %f", v)
	}
	if _, ok := s.Column("bogus"); ok {
		t.Error("expected unknown column to fail")
	}
}

func TestMetrics(t *testing.T) {
	rows := []Summary{
		{JxSum: 1, CurrentEnergy: 2, PeakCurrent: 0.5},
		{JxSum: 3, CurrentEnergy: 4, PeakCurrent: 2.5},
		{JxSum: math.NaN(), CurrentEnergy: 6, PeakCurrent: 1},
	}

	energy := NewMeanCurrentEnergy()
	peak := NewPeakCurrent()
	stab := NewStability(2.0)
	for _, r := range rows {
		energy.Observe(r)
		peak.Observe(r)
		stab.Observe(r)
	}

	if math.Abs(energy.Value()-4) > 1e-12 {
		t.Errorf("expected mean energy 4, got %f", energy.Value())
	}
	if peak.Value() != 2.5 {
		t.Errorf("expected peak 2.5, got %f", peak.Value())
	}
	if math.Abs(stab.Value()-1.0/3.0) > 1e-12 {
		t.Errorf("expected stability 1/3, got %f", stab.Value())
	}

	stab.Reset()
	if stab.Value() != 1.0 {
		t.Error("expected stability 1 after reset")
	}
}

func TestCurrentFluctuation(t *testing.T) {
	m := NewCurrentFluctuation()
	m.Observe(Summary{JxSum: 1})
	if m.Value() != 0 {
		t.Error("expected zero with one sample")
	}
	m.Observe(Summary{JxSum: 3})
	// sample standard deviation of {1, 3}
	if math.Abs(m.Value()-math.Sqrt2) > 1e-12 {
		t.Errorf("expected sqrt(2), got %f", m.Value())
	}
}
