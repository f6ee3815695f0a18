package sim

import (
	"math"

	"github.com/san-kum/picsim/internal/pic"
)

// Drift moves particles along straight lines at their current velocity and
// wraps positions periodically on active axes.
type Drift struct{}

func (Drift) Move(t *pic.Tile) {
	c := t.CFL
	for _, con := range t.Containers {
		pic.ParallelFor(con.Size(), 1024, func(start, end int) {
			for n := start; n < end; n++ {
				invgam := 1.0 / con.Gamma(n)
				for a := 0; a < 3; a++ {
					if !t.Dim.Active(a) {
						continue
					}
					x := con.Loc(a, n) + con.Vel(a, n)*invgam*c
					con.SetLoc(a, n, wrap(x, t.Mins[a], float64(t.Lengths[a])))
				}
			}
		})
	}
}

func wrap(x, lo, length float64) float64 {
	r := math.Mod(x-lo, length)
	if r < 0 {
		r += length
	}
	return lo + r
}
