package experiment

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/san-kum/picsim/internal/config"
	"github.com/san-kum/picsim/internal/filter"
	"github.com/san-kum/picsim/internal/metrics"
	"github.com/san-kum/picsim/internal/particles"
	"github.com/san-kum/picsim/internal/pic"
)

// Loader populates a freshly built tile with particles.
type Loader func(t *pic.Tile, cfg *config.Config, rng *rand.Rand) error

type Registry struct {
	filters   map[string]func(fc config.FilterConfig, dim pic.Dim) (filter.Filter, error)
	scenarios map[string]Loader
}

func NewRegistry() *Registry {
	r := &Registry{
		filters:   make(map[string]func(config.FilterConfig, pic.Dim) (filter.Filter, error)),
		scenarios: make(map[string]Loader),
	}

	r.filters["general3p"] = func(fc config.FilterConfig, _ pic.Dim) (filter.Filter, error) {
		return filter.NewGeneral3p(fc.Alpha)
	}
	r.filters["compensator2"] = func(config.FilterConfig, pic.Dim) (filter.Filter, error) {
		return filter.NewCompensator2(), nil
	}
	r.filters["general3p_strided"] = func(fc config.FilterConfig, _ pic.Dim) (filter.Filter, error) {
		return filter.NewGeneral3pStrided(fc.Alpha, fc.Stride)
	}
	r.filters["binomial2_strided2"] = func(config.FilterConfig, pic.Dim) (filter.Filter, error) {
		return filter.NewBinomial2Strided2(), nil
	}
	r.filters["binomial2"] = func(_ config.FilterConfig, dim pic.Dim) (filter.Filter, error) {
		if dim == pic.Dim1 {
			// the 2D stencil collapses to [1,2,1]/4 along x
			return filter.NewBinomial2(pic.Dim2)
		}
		return filter.NewBinomial2(dim)
	}
	r.filters["opt_binomial2"] = func(fc config.FilterConfig, _ pic.Dim) (filter.Filter, error) {
		return filter.NewOptBinomial2(fc.Subcycles)
	}

	r.scenarios["turbulence"] = loadPairPlasma
	r.scenarios["beam"] = loadBeam
	r.scenarios["rest"] = loadRest

	return r
}

func (r *Registry) GetFilter(fc config.FilterConfig, dim pic.Dim) (filter.Filter, error) {
	fn, ok := r.filters[fc.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", pic.ErrUnknownFilter, fc.Name)
	}
	f, err := fn(fc, dim)
	if err != nil {
		return nil, fmt.Errorf("filter %s: %w", fc.Name, err)
	}
	return f, nil
}

// GetChain builds the configured filters in order.
func (r *Registry) GetChain(fcs []config.FilterConfig, dim pic.Dim) (*filter.Chain, error) {
	chain := filter.NewChain()
	for _, fc := range fcs {
		f, err := r.GetFilter(fc, dim)
		if err != nil {
			return nil, err
		}
		chain.Add(f, fc.Passes)
	}
	return chain, nil
}

func (r *Registry) GetScenario(name string) (Loader, error) {
	fn, ok := r.scenarios[name]
	if !ok {
		return nil, fmt.Errorf("unknown scenario: %s", name)
	}
	return fn, nil
}

func (r *Registry) ListFilters() []string {
	return sortedKeys(r.filters)
}

func (r *Registry) ListScenarios() []string {
	return sortedKeys(r.scenarios)
}

func (r *Registry) DefaultMetrics() []metrics.Metric {
	return metrics.Defaults()
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// loadPairPlasma loads co-located electrons and positrons from thermal
// distributions.
func loadPairPlasma(t *pic.Tile, cfg *config.Config, rng *rand.Rand) error {
	d := cfg.Derived()
	e := particles.New("e-", d.Qe, t.CFL)
	p := particles.New("e+", d.Qi, t.CFL)
	if err := particles.LoadPlasma(t.Region(), []*particles.Container{e, p}, cfg.Plasma.PPC, []float64{d.DelgamE, d.DelgamI}, rng); err != nil {
		return err
	}
	t.AddContainer(e)
	t.AddContainer(p)
	return nil
}

// loadBeam drifts the electrons along x through a thermal positron
// background sitting on top of them.
func loadBeam(t *pic.Tile, cfg *config.Config, rng *rand.Rand) error {
	d := cfg.Derived()
	e := particles.New("e-", d.Qe, t.CFL)
	p := particles.New("e+", d.Qi, t.CFL)

	particles.LoadBeam(t.Region(), e, cfg.Plasma.PPC, cfg.Plasma.BeamU, rng)
	p.Reserve(e.Size())
	for n := 0; n < e.Size(); n++ {
		p.Add(e.Position(n), particles.SampleJuttner(d.DelgamI, rng))
	}

	t.AddContainer(e)
	t.AddContainer(p)
	return nil
}

// loadRest places one unit charge at rest on the center node of the tile.
func loadRest(t *pic.Tile, _ *config.Config, _ *rand.Rand) error {
	c := particles.New("charge", 1.0, t.CFL)
	var x [3]float64
	for a := 0; a < 3; a++ {
		x[a] = t.Mins[a]
		if t.Dim.Active(a) {
			x[a] += float64(t.Lengths[a] / 2)
		}
	}
	c.Add(x, [3]float64{})
	t.AddContainer(c)
	return nil
}
