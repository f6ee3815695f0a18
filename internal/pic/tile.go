package pic

import (
	"fmt"

	"github.com/san-kum/picsim/internal/mesh"
	"github.com/san-kum/picsim/internal/particles"
)

// Dim is the spatial dimensionality of a tile. Velocities are always
// three-dimensional.
type Dim int

const (
	Dim1 Dim = 1
	Dim2 Dim = 2
	Dim3 Dim = 3
)

func (d Dim) Valid() bool { return d >= Dim1 && d <= Dim3 }

// Active reports whether axis (0=x, 1=y, 2=z) is resolved by the grid.
func (d Dim) Active(axis int) bool { return axis < int(d) }

func (d Dim) String() string { return fmt.Sprintf("%dD3V", int(d)) }

// DefaultHalo is the halo depth the filters and the depositer are written
// against.
const DefaultHalo = 3

// Tile owns one lattice and the particles resident in it. All indices used by
// the depositer and filters are tile-local.
type Tile struct {
	Dim        Dim
	Mins       [3]float64
	Lengths    [3]int
	CFL        float64
	Lattice    *mesh.Lattice
	Containers []*particles.Container
}

func NewTile(dim Dim, lengths [3]int, mins [3]float64, cfl float64, halo int) (*Tile, error) {
	if !dim.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDim, int(dim))
	}
	for axis, n := range lengths {
		if n < 1 {
			return nil, fmt.Errorf("%w: axis %d has length %d", ErrInvalidExtent, axis, n)
		}
		if !dim.Active(axis) && n != 1 {
			return nil, fmt.Errorf("%w: inactive axis %d must have length 1, got %d", ErrInvalidExtent, axis, n)
		}
	}
	if cfl <= 0 {
		return nil, fmt.Errorf("%w: %g", ErrInvalidCFL, cfl)
	}
	if halo < 1 {
		return nil, fmt.Errorf("%w: %d", ErrHaloTooSmall, halo)
	}

	return &Tile{
		Dim:     dim,
		Mins:    mins,
		Lengths: lengths,
		CFL:     cfl,
		Lattice: mesh.NewLattice(lengths[0], lengths[1], lengths[2], halo),
	}, nil
}

func (t *Tile) Halo() int { return t.Lattice.H }

func (t *Tile) AddContainer(c *particles.Container) {
	t.Containers = append(t.Containers, c)
}

// NumParticles is the total over all species.
func (t *Tile) NumParticles() int {
	n := 0
	for _, c := range t.Containers {
		n += c.Size()
	}
	return n
}

// Region describes the tile's extent for particle loaders.
func (t *Tile) Region() particles.Region {
	r := particles.Region{Mins: t.Mins, Lengths: t.Lengths}
	for axis := 0; axis < 3; axis++ {
		r.Active[axis] = t.Dim.Active(axis)
	}
	return r
}
