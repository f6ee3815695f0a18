package metrics

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Metric folds a run's summaries into one number.
type Metric interface {
	Name() string
	Observe(s Summary)
	Value() float64
	Reset()
}

// Defaults returns the metrics every run reports.
func Defaults() []Metric {
	return []Metric{
		NewMeanCurrentEnergy(),
		NewPeakCurrent(),
		NewCurrentFluctuation(),
		NewStability(1e6),
	}
}

type MeanCurrentEnergy struct {
	samples []float64
}

func NewMeanCurrentEnergy() *MeanCurrentEnergy { return &MeanCurrentEnergy{} }

func (m *MeanCurrentEnergy) Name() string { return "mean_current_energy" }

func (m *MeanCurrentEnergy) Observe(s Summary) {
	m.samples = append(m.samples, s.CurrentEnergy)
}

func (m *MeanCurrentEnergy) Value() float64 {
	if len(m.samples) == 0 {
		return 0
	}
	return stat.Mean(m.samples, nil)
}

func (m *MeanCurrentEnergy) Reset() { m.samples = m.samples[:0] }

type PeakCurrent struct {
	peak float64
}

func NewPeakCurrent() *PeakCurrent { return &PeakCurrent{} }

func (p *PeakCurrent) Name() string      { return "peak_current" }
func (p *PeakCurrent) Observe(s Summary) { p.peak = math.Max(p.peak, s.PeakCurrent) }
func (p *PeakCurrent) Value() float64    { return p.peak }
func (p *PeakCurrent) Reset()            { p.peak = 0 }

// CurrentFluctuation is the standard deviation of the net jx over the run.
type CurrentFluctuation struct {
	samples []float64
}

func NewCurrentFluctuation() *CurrentFluctuation { return &CurrentFluctuation{} }

func (c *CurrentFluctuation) Name() string { return "jx_fluctuation" }

func (c *CurrentFluctuation) Observe(s Summary) {
	c.samples = append(c.samples, s.JxSum)
}

func (c *CurrentFluctuation) Value() float64 {
	if len(c.samples) < 2 {
		return 0
	}
	_, std := stat.MeanStdDev(c.samples, nil)
	return std
}

func (c *CurrentFluctuation) Reset() { c.samples = c.samples[:0] }

// Stability is the fraction of steps whose peak current stayed finite and
// below the threshold.
type Stability struct {
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{threshold: threshold}
}

func (s *Stability) Name() string { return "stability" }

func (s *Stability) Observe(sum Summary) {
	s.samples++
	if !sum.Valid() || sum.PeakCurrent > s.threshold {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
