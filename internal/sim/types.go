package sim

import (
	"time"

	"github.com/san-kum/picsim/internal/metrics"
	"github.com/san-kum/picsim/internal/pic"
)

// Depositer scatters particle sources onto a tile's lattice.
type Depositer interface {
	Name() string
	Solve(t *pic.Tile)
}

// Mover advances particles by one step. Pushers live outside this module;
// Drift is the free-streaming stand-in.
type Mover interface {
	Move(t *pic.Tile)
}

// Exchanger refreshes halo cells and migrates particles between tiles.
type Exchanger interface {
	Exchange(t *pic.Tile)
}

type Observer interface {
	OnStep(s metrics.Summary)
}

type Config struct {
	Steps          int
	ValidateFields bool
}

type Result struct {
	Summaries  []metrics.Summary
	Metrics    map[string]float64
	StepsTaken int
	Elapsed    time.Duration
}

// Last returns the final summary, or the zero summary for an empty run.
func (r *Result) Last() metrics.Summary {
	if len(r.Summaries) == 0 {
		return metrics.Summary{}
	}
	return r.Summaries[len(r.Summaries)-1]
}
