package particles

import (
	"fmt"
	"math/rand/v2"
)

// Region is the extent of one tile as seen by the loaders. Cells have unit
// width; inactive axes hold a single cell and particles keep the axis
// minimum there.
type Region struct {
	Active  [3]bool
	Mins    [3]float64
	Lengths [3]int
}

func (r Region) Cells() int {
	return r.Lengths[0] * r.Lengths[1] * r.Lengths[2]
}

// LoadPlasma fills each container with ppc particles per cell at a uniformly
// random offset inside the cell. Every odd-indexed species is placed on top
// of the preceding species so the initial charge density vanishes.
// delgam holds one temperature per species.
func LoadPlasma(r Region, species []*Container, ppc int, delgam []float64, rng *rand.Rand) error {
	if ppc < 0 {
		return fmt.Errorf("particles: negative ppc %d", ppc)
	}
	if len(delgam) != len(species) {
		return fmt.Errorf("particles: %d temperatures for %d species", len(delgam), len(species))
	}

	for _, c := range species {
		c.Reserve(ppc * r.Cells())
	}

	for s, c := range species {
		if s%2 == 1 {
			prev := species[s-1]
			for n := 0; n < prev.Size(); n++ {
				c.Add(prev.Position(n), SampleJuttner(delgam[s], rng))
			}
			continue
		}

		for k := 0; k < r.Lengths[2]; k++ {
			for j := 0; j < r.Lengths[1]; j++ {
				for i := 0; i < r.Lengths[0]; i++ {
					cell := [3]int{i, j, k}
					for p := 0; p < ppc; p++ {
						c.Add(r.position(cell, rng), SampleJuttner(delgam[s], rng))
					}
				}
			}
		}
	}
	return nil
}

// LoadBeam adds ppc cold particles per cell drifting along x with
// four-velocity u.
func LoadBeam(r Region, c *Container, ppc int, u float64, rng *rand.Rand) {
	c.Reserve(ppc * r.Cells())
	for k := 0; k < r.Lengths[2]; k++ {
		for j := 0; j < r.Lengths[1]; j++ {
			for i := 0; i < r.Lengths[0]; i++ {
				for p := 0; p < ppc; p++ {
					c.Add(r.position([3]int{i, j, k}, rng), [3]float64{u, 0, 0})
				}
			}
		}
	}
}

func (r Region) position(cell [3]int, rng *rand.Rand) [3]float64 {
	var x [3]float64
	for d := 0; d < 3; d++ {
		x[d] = r.Mins[d]
		if r.Active[d] {
			x[d] += float64(cell[d]) + rng.Float64()
		}
	}
	return x
}
