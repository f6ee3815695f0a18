package sim

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/san-kum/picsim/internal/filter"
	"github.com/san-kum/picsim/internal/metrics"
	"github.com/san-kum/picsim/internal/pic"
)

// Simulator runs the per-tile step: move, exchange, deposit, filter,
// diagnose.
type Simulator struct {
	depositer Depositer
	charge    Depositer
	mover     Mover
	exchanger Exchanger
	filters   []filter.Filter
	metrics   []metrics.Metric
	observers []Observer
	logger    *slog.Logger
}

func New(depositer Depositer, mover Mover) *Simulator {
	return &Simulator{
		depositer: depositer,
		mover:     mover,
		filters:   make([]filter.Filter, 0),
		metrics:   make([]metrics.Metric, 0),
		observers: make([]Observer, 0),
		logger:    slog.Default(),
	}
}

func (s *Simulator) AddFilter(f filter.Filter)  { s.filters = append(s.filters, f) }
func (s *Simulator) AddMetric(m metrics.Metric) { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer)     { s.observers = append(s.observers, o) }

// SetCharge enables a charge-density pass after the current deposit.
func (s *Simulator) SetCharge(d Depositer) {
	s.charge = d
}

func (s *Simulator) SetExchanger(e Exchanger) {
	s.exchanger = e
}

func (s *Simulator) SetLogger(l *slog.Logger) {
	s.logger = l
}

// Step advances the tile once and returns its diagnostics.
func (s *Simulator) Step(t *pic.Tile, step int) metrics.Summary {
	if s.mover != nil {
		s.mover.Move(t)
	}
	if s.exchanger != nil {
		s.exchanger.Exchange(t)
	}

	s.depositer.Solve(t)
	if s.charge != nil {
		s.charge.Solve(t)
	}
	for _, f := range s.filters {
		f.Solve(t)
	}

	return metrics.Summarize(step, t)
}

func (s *Simulator) Run(ctx context.Context, t *pic.Tile, cfg Config) (*Result, error) {
	if err := s.validateConfig(t, cfg); err != nil {
		return nil, err
	}

	result := &Result{
		Summaries: make([]metrics.Summary, 0, cfg.Steps),
		Metrics:   make(map[string]float64),
	}
	for _, m := range s.metrics {
		m.Reset()
	}

	s.logger.Info("run started", "dim", t.Dim.String(), "lengths", t.Lengths, "particles", t.NumParticles(), "steps", cfg.Steps, "depositer", s.depositer.Name())
	start := time.Now()

	for i := 0; i < cfg.Steps; i++ {
		select {
		case <-ctx.Done():
			result.Elapsed = time.Since(start)
			return result, ctx.Err()
		default:
		}

		sum := s.Step(t, i)

		if cfg.ValidateFields && !sum.Valid() {
			result.Elapsed = time.Since(start)
			return result, &pic.StepError{Step: i, Wrapped: pic.ErrNonFinite}
		}

		for _, m := range s.metrics {
			m.Observe(sum)
		}
		for _, obs := range s.observers {
			obs.OnStep(sum)
		}

		result.Summaries = append(result.Summaries, sum)
		result.StepsTaken++
		s.logger.Debug("step", "step", i, "jx", sum.JxSum, "jy", sum.JySum, "jz", sum.JzSum, "peak", sum.PeakCurrent)
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	result.Elapsed = time.Since(start)
	s.logger.Info("run finished", "steps", result.StepsTaken, "elapsed", result.Elapsed)

	return result, nil
}

func (s *Simulator) validateConfig(t *pic.Tile, cfg Config) error {
	if cfg.Steps <= 0 {
		return fmt.Errorf("%w: steps must be positive, got %d", pic.ErrInvalidParam, cfg.Steps)
	}
	if s.depositer == nil {
		return fmt.Errorf("%w: no depositer", pic.ErrInvalidParam)
	}
	if t == nil || t.Lattice == nil {
		return fmt.Errorf("%w: nil tile", pic.ErrInvalidParam)
	}
	for _, f := range s.filters {
		if r, ok := f.(filter.Reacher); ok && r.Reach() > t.Halo() {
			return fmt.Errorf("%w: filter %s reads %d cells, halo is %d", pic.ErrHaloTooSmall, f.Name(), r.Reach(), t.Halo())
		}
	}
	return nil
}

// RunWithCallback steps until the callback returns false, the context ends
// or cfg.Steps is reached.
func (s *Simulator) RunWithCallback(ctx context.Context, t *pic.Tile, cfg Config, callback func(metrics.Summary) bool) error {
	if err := s.validateConfig(t, cfg); err != nil {
		return err
	}

	for i := 0; i < cfg.Steps; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		sum := s.Step(t, i)
		if cfg.ValidateFields && !sum.Valid() {
			return &pic.StepError{Step: i, Wrapped: pic.ErrNonFinite}
		}
		if !callback(sum) {
			return nil
		}
	}

	return nil
}
