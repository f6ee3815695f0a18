package filter

import (
	"fmt"

	"github.com/san-kum/picsim/internal/mesh"
	"github.com/san-kum/picsim/internal/pic"
)

// OptBinomial2 is the in-place [1,2,1]/4 sweep along x. Each subcycle also
// filters the halo, shrinking the updated region by one cell per side.
type OptBinomial2 struct {
	subcycles int
}

func NewOptBinomial2(subcycles int) (*OptBinomial2, error) {
	if subcycles < 1 {
		return nil, fmt.Errorf("%w: subcycles %d", pic.ErrInvalidParam, subcycles)
	}
	return &OptBinomial2{subcycles: subcycles}, nil
}

func (f *OptBinomial2) Name() string { return "opt_binomial2" }
func (f *OptBinomial2) Reach() int   { return 1 }

func (f *OptBinomial2) Solve(t *pic.Tile) {
	for _, m := range t.Lattice.Currents() {
		sweepX(m, t.Dim, f.subcycles)
	}
}

// sweepX keeps the two unfiltered neighbours of cell i in registers so every
// update reads only values the pass has not overwritten yet.
func sweepX(m *mesh.Mesh, dim pic.Dim, subcycles int) {
	h := m.H
	for p := 1; p <= subcycles; p++ {
		imin, imax := -h+p, m.Nx+h-1-p
		if imin > imax {
			return
		}
		jlo, jhi := rowRange(dim.Active(1), m.Ny, h, p)
		klo, khi := rowRange(dim.Active(2), m.Nz, h, p)
		ny := jhi - jlo

		pic.ParallelFor(ny*(khi-klo), minRows, func(start, end int) {
			for r := start; r < end; r++ {
				j, k := jlo+r%ny, klo+r/ny
				left := m.At(imin-1, j, k)
				center := m.At(imin, j, k)
				for i := imin; i <= imax; i++ {
					right := m.At(i+1, j, k)
					m.Set(i, j, k, 0.25*left+0.5*center+0.25*right)
					left, center = center, right
				}
			}
		})
	}
}

func rowRange(active bool, n, h, p int) (int, int) {
	if !active {
		return 0, n
	}
	return -h + p, n + h - p
}
