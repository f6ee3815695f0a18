// Package deposit scatters particle currents and charge onto the lattice.
//
// [ZigZag2nd] is the charge-conserving second-order zig-zag scheme: each
// particle's trajectory over one step is split at a relay point into two
// segments that each stay within one cell, and every segment's current is
// spread with quadratic shape factors in the transverse directions.
//
// All indices are tile-local; the caller guarantees that particles lie within
// one cell of the tile interior so every write lands inside the halo.
package deposit

import (
	"log/slog"
	"math"

	"github.com/san-kum/picsim/internal/compute"
	"github.com/san-kum/picsim/internal/mesh"
	"github.com/san-kum/picsim/internal/particles"
	"github.com/san-kum/picsim/internal/pic"
)

type ZigZag2nd struct {
	backend     compute.Backend
	contraction bool
	logger      *slog.Logger
}

type Option func(*ZigZag2nd)

// WithContraction toggles the relativistic contraction of the shape offsets.
func WithContraction(on bool) Option {
	return func(z *ZigZag2nd) { z.contraction = on }
}

func WithLogger(l *slog.Logger) Option {
	return func(z *ZigZag2nd) { z.logger = l }
}

// NewZigZag2nd builds a depositer. A nil backend picks one per container
// with compute.AutoSelect.
func NewZigZag2nd(backend compute.Backend, opts ...Option) *ZigZag2nd {
	z := &ZigZag2nd{backend: backend, contraction: true, logger: slog.Default()}
	for _, opt := range opts {
		opt(z)
	}
	return z
}

func (z *ZigZag2nd) Name() string { return "zigzag_2nd" }

// Solve clears jx, jy, jz and rho and deposits the current of every particle
// in the tile.
func (z *ZigZag2nd) Solve(t *pic.Tile) {
	l := t.Lattice
	l.ClearSources()

	for _, con := range t.Containers {
		n := con.Size()
		if n == 0 {
			continue
		}
		backend := z.backend
		if backend == nil {
			backend = compute.AutoSelect(n)
		}
		z.logger.Debug("deposit", "species", con.Species, "particles", n, "backend", backend.Name())

		backend.Scatter(l, n, func(start, end int, jx, jy, jz mesh.Adder) {
			j := [3]mesh.Adder{jx, jy, jz}
			for p := start; p < end; p++ {
				z.particle(t, con, p, j)
			}
		})
	}
}

// segment is one leg of the zig-zag path.
type segment struct {
	idx [3]int
	d   [3]float64
	qv  [3]float64
	w   [3][3]float64
}

func (z *ZigZag2nd) particle(t *pic.Tile, con *particles.Container, n int, j [3]mesh.Adder) {
	c := t.CFL
	q := con.Q

	u := con.Velocity(n)
	gam := math.Sqrt(1.0 + u[0]*u[0] + u[1]*u[1] + u[2]*u[2])
	invgam := 1.0 / gam

	var beta2 float64
	var betaAxis2 [3]float64
	for a := 0; a < 3; a++ {
		b := u[a] * invgam
		betaAxis2[a] = b * b
		beta2 += betaAxis2[a]
	}

	var s1, s2 segment
	for a := 0; a < 3; a++ {
		if !t.Dim.Active(a) {
			s1.d[a], s2.d[a] = 0.5, 0.5
			s1.qv[a], s2.qv[a] = q*c, q*c
			s1.w[a], s2.w[a] = pinned, pinned
			continue
		}

		x2 := con.Loc(a, n) - t.Mins[a]
		x1 := x2 - u[a]*invgam*c
		i1 := int(math.Floor(x1))
		i2 := int(math.Floor(x2))
		xr := math.Min(float64(min(i1, i2)+1), math.Max(float64(i1+i2)*0.5, 0.5*(x1+x2)))

		d1 := 0.5*(x1+xr) - float64(i1)
		d2 := 0.5*(x2+xr) - float64(i2)
		if z.contraction {
			f := contraction(gam, betaAxis2[a], beta2)
			d1 /= f
			d2 /= f
		}

		s1.idx[a], s2.idx[a] = i1, i2
		s1.d[a], s2.d[a] = d1, d2
		s1.qv[a], s2.qv[a] = q*(xr-x1), q*(x2-xr)
		s1.w[a], s2.w[a] = W2nd(d1), W2nd(d2)
	}

	active := [3]bool{t.Dim.Active(0), t.Dim.Active(1), t.Dim.Active(2)}
	scatter(s1, active, j)
	scatter(s2, active, j)
}

// scatter writes one segment's current into all three components. Along the
// deposition axis the current straddles nodes idx-1 and idx; the idx-1 write
// exists only when that axis is resolved. Transverse axes use the 3-point
// weights, or the single node on unresolved axes.
func scatter(s segment, active [3]bool, j [3]mesh.Adder) {
	for a := 0; a < 3; a++ {
		b, c := (a+1)%3, (a+2)%3
		lo := 0.5 - s.d[a]
		hi := 0.5 + s.d[a]

		bl, cl := lim(active[b]), lim(active[c])
		for oc := -cl; oc <= cl; oc++ {
			for ob := -bl; ob <= bl; ob++ {
				w := s.qv[a] * s.w[b][ob+1] * s.w[c][oc+1]

				var idx [3]int
				idx[a] = s.idx[a]
				idx[b] = s.idx[b] + ob
				idx[c] = s.idx[c] + oc

				if active[a] {
					j[a].Add(idx[0]-e(a, 0), idx[1]-e(a, 1), idx[2]-e(a, 2), lo*w)
				}
				j[a].Add(idx[0], idx[1], idx[2], hi*w)
			}
		}
	}
}

func lim(active bool) int {
	if active {
		return 1
	}
	return 0
}

// e is the unit vector component: 1 when a == b.
func e(a, b int) int {
	if a == b {
		return 1
	}
	return 0
}
