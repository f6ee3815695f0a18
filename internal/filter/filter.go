// Package filter smooths the deposited currents before the field solve.
//
// Every filter acts on jx, jy and jz of a tile. Stencil filters read the
// current field, write the interior of a scratch mesh owned by the filter,
// and copy the interior back; halo cells are never written. Stencil offsets
// along axes the tile does not resolve collapse onto the row itself, so a
// 2D stencil on a 1D tile reduces to its x-profile.
package filter

import (
	"sync"

	"github.com/san-kum/picsim/internal/mesh"
	"github.com/san-kum/picsim/internal/pic"
)

type Filter interface {
	Name() string
	Solve(t *pic.Tile)
}

// Reacher reports how many halo cells a filter reads past the interior.
type Reacher interface {
	Reach() int
}

// minRows is the smallest row chunk handed to a worker.
const minRows = 4

// tap is one stencil coefficient at an offset.
type tap struct {
	off [3]int
	w   float64
}

type kernel []tap

// outer builds the kernel of a separable stencil. Profiles along x, y and z
// are centered; spacing multiplies every offset. A nil profile means the
// stencil does not extend along that axis.
func outer(px, py, pz []float64, spacing int) kernel {
	one := []float64{1}
	if py == nil {
		py = one
	}
	if pz == nil {
		pz = one
	}
	var k kernel
	for c, wz := range pz {
		for b, wy := range py {
			for a, wx := range px {
				k = append(k, tap{
					off: [3]int{
						spacing * (a - len(px)/2),
						spacing * (b - len(py)/2),
						spacing * (c - len(pz)/2),
					},
					w: wx * wy * wz,
				})
			}
		}
	}
	return k
}

func (k kernel) reach() int {
	r := 0
	for _, t := range k {
		for _, o := range t.off {
			r = max(r, o, -o)
		}
	}
	return r
}

// collapse zeroes offsets along inactive axes.
func (k kernel) collapse(d pic.Dim) kernel {
	out := make(kernel, len(k))
	for n, t := range k {
		for a := 0; a < 3; a++ {
			if !d.Active(a) {
				t.off[a] = 0
			}
		}
		out[n] = t
	}
	return out
}

// scratch is the second buffer of a filter's double-buffering.
type scratch struct {
	mu  sync.Mutex
	tmp *mesh.Mesh
}

func (s *scratch) buffer(like *mesh.Mesh) *mesh.Mesh {
	if s.tmp == nil || !s.tmp.SameShape(like) {
		s.tmp = mesh.New(like.Nx, like.Ny, like.Nz, like.H)
	}
	return s.tmp
}

// convolve writes the interior of dst from src.
func convolve(src, dst *mesh.Mesh, k kernel) {
	rows := src.Ny * src.Nz
	pic.ParallelFor(rows, minRows, func(start, end int) {
		for r := start; r < end; r++ {
			j, kk := r%src.Ny, r/src.Ny
			for i := 0; i < src.Nx; i++ {
				sum := 0.0
				for _, t := range k {
					sum += t.w * src.At(i+t.off[0], j+t.off[1], kk+t.off[2])
				}
				dst.Set(i, j, kk, sum)
			}
		}
	})
}

// stencil is a filter made of one or more convolution passes.
type stencil struct {
	name   string
	passes []kernel
	buf    scratch
}

func (s *stencil) Name() string { return s.name }

func (s *stencil) Reach() int {
	r := 0
	for _, k := range s.passes {
		r = max(r, k.reach())
	}
	return r
}

func (s *stencil) Solve(t *pic.Tile) {
	s.buf.mu.Lock()
	defer s.buf.mu.Unlock()

	passes := make([]kernel, len(s.passes))
	for n, k := range s.passes {
		passes[n] = k.collapse(t.Dim)
	}
	for _, m := range t.Lattice.Currents() {
		tmp := s.buf.buffer(m)
		for _, k := range passes {
			convolve(m, tmp, k)
			m.CopyInterior(tmp)
		}
	}
}
