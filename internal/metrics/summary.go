package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/picsim/internal/mesh"
	"github.com/san-kum/picsim/internal/pic"
)

// Summary is the per-step diagnostic row of one tile. The csv tags define
// the diagnostics file columns.
type Summary struct {
	Step          int     `csv:"step" json:"step"`
	Particles     int     `csv:"particles" json:"particles"`
	JxSum         float64 `csv:"jx_sum" json:"jx_sum"`
	JySum         float64 `csv:"jy_sum" json:"jy_sum"`
	JzSum         float64 `csv:"jz_sum" json:"jz_sum"`
	RhoSum        float64 `csv:"rho_sum" json:"rho_sum"`
	CurrentEnergy float64 `csv:"current_energy" json:"current_energy"`
	PeakCurrent   float64 `csv:"peak_current" json:"peak_current"`
	Kinetic       float64 `csv:"kinetic" json:"kinetic"`
}

// Columns lists the numeric columns by csv name.
func Columns() []string {
	return []string{"jx_sum", "jy_sum", "jz_sum", "rho_sum", "current_energy", "peak_current", "kinetic"}
}

// Column returns the value of a named column.
func (s Summary) Column(name string) (float64, bool) {
	switch name {
	case "step":
		return float64(s.Step), true
	case "particles":
		return float64(s.Particles), true
	case "jx_sum":
		return s.JxSum, true
	case "jy_sum":
		return s.JySum, true
	case "jz_sum":
		return s.JzSum, true
	case "rho_sum":
		return s.RhoSum, true
	case "current_energy":
		return s.CurrentEnergy, true
	case "peak_current":
		return s.PeakCurrent, true
	case "kinetic":
		return s.Kinetic, true
	}
	return 0, false
}

// Valid reports whether every field is finite.
func (s Summary) Valid() bool {
	for _, v := range []float64{s.JxSum, s.JySum, s.JzSum, s.RhoSum, s.CurrentEnergy, s.PeakCurrent, s.Kinetic} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Summarize reduces the tile's interior sources and particle energies.
func Summarize(step int, t *pic.Tile) Summary {
	l := t.Lattice
	s := Summary{
		Step:      step,
		Particles: t.NumParticles(),
		JxSum:     l.Jx.InteriorSum(),
		JySum:     l.Jy.InteriorSum(),
		JzSum:     l.Jz.InteriorSum(),
		RhoSum:    l.Rho.InteriorSum(),
	}

	for _, m := range l.Currents() {
		e, peak := rowStats(m)
		s.CurrentEnergy += e
		s.PeakCurrent = math.Max(s.PeakCurrent, peak)
	}

	for _, c := range t.Containers {
		for n := 0; n < c.Size(); n++ {
			s.Kinetic += c.Gamma(n) - 1.0
		}
	}
	return s
}

// rowStats returns half the sum of squares and the largest magnitude over
// the interior.
func rowStats(m *mesh.Mesh) (energy, peak float64) {
	for k := 0; k < m.Nz; k++ {
		for j := 0; j < m.Ny; j++ {
			row := m.Row(j, k)
			energy += 0.5 * floats.Dot(row, row)
			peak = math.Max(peak, math.Max(floats.Max(row), -floats.Min(row)))
		}
	}
	return energy, peak
}
