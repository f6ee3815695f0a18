package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/san-kum/picsim/internal/compute"
	"github.com/san-kum/picsim/internal/config"
	"github.com/san-kum/picsim/internal/deposit"
	"github.com/san-kum/picsim/internal/pic"
	"github.com/san-kum/picsim/internal/sim"
)

// Experiment turns a config into tiles and one simulator per tile. Tiles
// are laid side by side along x.
type Experiment struct {
	cfg      *config.Config
	registry *Registry
	logger   *slog.Logger

	tiles      []*pic.Tile
	simulators []*sim.Simulator
}

func New(cfg *config.Config, logger *slog.Logger) *Experiment {
	if logger == nil {
		logger = slog.Default()
	}
	return &Experiment{cfg: cfg, registry: NewRegistry(), logger: logger}
}

func (e *Experiment) Setup() error {
	cfg := e.cfg
	if err := cfg.Validate(); err != nil {
		return err
	}
	load, err := e.registry.GetScenario(cfg.Scenario)
	if err != nil {
		return err
	}

	dim := pic.Dim(cfg.Dim)
	lengths := cfg.Lengths()

	e.tiles = make([]*pic.Tile, cfg.Tiles)
	e.simulators = make([]*sim.Simulator, cfg.Tiles)
	for i := range e.tiles {
		mins := cfg.Mins
		mins[0] += float64(i * lengths[0])

		t, err := pic.NewTile(dim, lengths, mins, cfg.CFL, cfg.Mesh.Halo)
		if err != nil {
			return err
		}
		rng := rand.New(rand.NewPCG(uint64(cfg.Seed), uint64(i)))
		if err := load(t, cfg, rng); err != nil {
			return fmt.Errorf("tile %d: %w", i, err)
		}

		s, err := e.buildSimulator(dim)
		if err != nil {
			return err
		}
		e.tiles[i] = t
		e.simulators[i] = s
	}

	e.logger.Info("experiment ready", "scenario", cfg.Scenario, "tiles", len(e.tiles), "dim", dim.String(), "lengths", lengths)
	return nil
}

func (e *Experiment) buildSimulator(dim pic.Dim) (*sim.Simulator, error) {
	cfg := e.cfg

	var backend compute.Backend
	if cfg.Deposit.Backend != "auto" && cfg.Deposit.Backend != "" {
		b, err := compute.ByName(cfg.Deposit.Backend, cfg.Workers)
		if err != nil {
			return nil, err
		}
		backend = b
	}

	opts := []deposit.Option{deposit.WithContraction(cfg.Deposit.Contraction), deposit.WithLogger(e.logger)}
	s := sim.New(deposit.NewZigZag2nd(backend, opts...), sim.Drift{})
	s.SetLogger(e.logger)
	if cfg.Deposit.Charge {
		s.SetCharge(deposit.NewChargeDensity(backend, opts...))
	}

	chain, err := e.registry.GetChain(cfg.Filters, dim)
	if err != nil {
		return nil, err
	}
	if chain.Len() > 0 {
		s.AddFilter(chain)
	}

	for _, m := range e.registry.DefaultMetrics() {
		s.AddMetric(m)
	}
	return s, nil
}

func (e *Experiment) Run(ctx context.Context) ([]*sim.Result, error) {
	if e.simulators == nil {
		return nil, fmt.Errorf("experiment not setup")
	}

	simCfg := sim.Config{Steps: e.cfg.Steps, ValidateFields: true}
	if len(e.tiles) == 1 {
		res, err := e.simulators[0].Run(ctx, e.tiles[0], simCfg)
		return []*sim.Result{res}, err
	}
	return sim.RunTiles(ctx, e.tiles, func(i int) *sim.Simulator { return e.simulators[i] }, simCfg)
}

// Simulator returns the simulator of tile i for adding observers.
func (e *Experiment) Simulator(i int) *sim.Simulator { return e.simulators[i] }

func (e *Experiment) Tile(i int) *pic.Tile { return e.tiles[i] }

func (e *Experiment) NumTiles() int { return len(e.tiles) }

func (e *Experiment) Config() *config.Config { return e.cfg }
