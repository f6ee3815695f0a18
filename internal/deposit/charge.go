package deposit

import (
	"log/slog"
	"math"

	"github.com/san-kum/picsim/internal/compute"
	"github.com/san-kum/picsim/internal/mesh"
	"github.com/san-kum/picsim/internal/particles"
	"github.com/san-kum/picsim/internal/pic"
)

// ChargeDensity accumulates rho with the same quadratic kernel and cell
// convention the current depositer uses: a particle at x contributes to
// nodes floor(x)-1 .. floor(x)+1 with W2nd(x - floor(x)). It only adds; the
// caller clears rho.
type ChargeDensity struct {
	backend     compute.Backend
	contraction bool
	logger      *slog.Logger
}

func NewChargeDensity(backend compute.Backend, opts ...Option) *ChargeDensity {
	z := NewZigZag2nd(backend, opts...)
	return &ChargeDensity{backend: z.backend, contraction: z.contraction, logger: z.logger}
}

func (cd *ChargeDensity) Name() string { return "charge_2nd" }

func (cd *ChargeDensity) Solve(t *pic.Tile) {
	l := t.Lattice
	for _, con := range t.Containers {
		n := con.Size()
		if n == 0 {
			continue
		}
		backend := cd.backend
		if backend == nil {
			backend = compute.AutoSelect(n)
		}
		cd.logger.Debug("charge", "species", con.Species, "particles", n)

		backend.Accumulate(l.Rho, n, func(start, end int, rho mesh.Adder) {
			for p := start; p < end; p++ {
				cd.particle(t, con, p, rho)
			}
		})
	}
}

func (cd *ChargeDensity) particle(t *pic.Tile, con *particles.Container, n int, rho mesh.Adder) {
	var idx [3]int
	var w [3][3]float64

	u := con.Velocity(n)
	gam := math.Sqrt(1.0 + u[0]*u[0] + u[1]*u[1] + u[2]*u[2])
	var beta2 float64
	for a := 0; a < 3; a++ {
		beta2 += (u[a] / gam) * (u[a] / gam)
	}

	for a := 0; a < 3; a++ {
		if !t.Dim.Active(a) {
			w[a] = pinned
			continue
		}
		x := con.Loc(a, n) - t.Mins[a]
		i := math.Floor(x)
		d := x - i
		if cd.contraction {
			d /= contraction(gam, (u[a]/gam)*(u[a]/gam), beta2)
		}
		idx[a] = int(i)
		w[a] = W2nd(d)
	}

	kl, jl, il := lim(t.Dim.Active(2)), lim(t.Dim.Active(1)), lim(t.Dim.Active(0))
	for ok := -kl; ok <= kl; ok++ {
		for oj := -jl; oj <= jl; oj++ {
			for oi := -il; oi <= il; oi++ {
				v := con.Q * w[0][oi+1] * w[1][oj+1] * w[2][ok+1]
				rho.Add(idx[0]+oi, idx[1]+oj, idx[2]+ok, v)
			}
		}
	}
}
