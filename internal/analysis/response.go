package analysis

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/san-kum/picsim/internal/filter"
	"github.com/san-kum/picsim/internal/pic"
)

type Spectrum struct {
	K    []float64 // wavenumber in radians per cell
	Gain []float64
}

// Response measures the x-direction transfer function of f on an n-cell
// tile. n must leave room for the impulse response to decay before the
// tile edges.
func Response(f filter.Filter, n int) (*Spectrum, error) {
	if n < 8 {
		return nil, fmt.Errorf("%w: response needs at least 8 cells, got %d", pic.ErrInvalidParam, n)
	}
	t, err := pic.NewTile(pic.Dim1, [3]int{n, 1, 1}, [3]float64{}, 1.0, pic.DefaultHalo)
	if err != nil {
		return nil, err
	}

	center := n / 2
	t.Lattice.Jx.Set(center, 0, 0, 1.0)
	f.Solve(t)

	row := t.Lattice.Jx.Row(0, 0)
	bins := fft.FFTReal(row)

	out := &Spectrum{
		K:    make([]float64, n/2+1),
		Gain: make([]float64, n/2+1),
	}
	for m := 0; m <= n/2; m++ {
		out.K[m] = 2 * math.Pi * float64(m) / float64(n)
		out.Gain[m] = cmplx.Abs(bins[m])
	}
	return out, nil
}

// Gain3p is the transfer function of the three-point stencil with center
// weight alpha.
func Gain3p(alpha, k float64) float64 {
	return alpha + (1-alpha)*math.Cos(k)
}

// CutoffIndex returns the first wavenumber index whose gain drops below
// level, or -1.
func (s *Spectrum) CutoffIndex(level float64) int {
	for i, g := range s.Gain {
		if g < level {
			return i
		}
	}
	return -1
}
