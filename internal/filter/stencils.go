package filter

import (
	"fmt"

	"github.com/san-kum/picsim/internal/pic"
)

// profile3 is the 1D three-point profile whose outer product is the
// General3p stencil.
func profile3(alpha float64) []float64 {
	side := 0.5 * (1.0 - alpha)
	return []float64{side, alpha, side}
}

func checkAlpha(alpha float64) error {
	if alpha < 0 || alpha > 1 {
		return fmt.Errorf("%w: alpha %g not in [0,1]", pic.ErrInvalidParam, alpha)
	}
	return nil
}

// NewGeneral3p returns the 3x3 filter with center alpha^2, sides
// alpha(1-alpha)/2 and corners (1-alpha)^2/4. alpha = 0.5 is the binomial
// filter.
func NewGeneral3p(alpha float64) (Filter, error) {
	if err := checkAlpha(alpha); err != nil {
		return nil, err
	}
	p := profile3(alpha)
	return &stencil{
		name:   "general3p",
		passes: []kernel{outer(p, p, nil, 1)},
	}, nil
}

// NewCompensator2 returns the 3x3 compensator that undoes the damping of a
// binomial pass at long wavelengths.
func NewCompensator2() Filter {
	const m, s = 20.0 / 12.0, -1.0 / 12.0
	var k kernel
	for b := -1; b <= 1; b++ {
		for a := -1; a <= 1; a++ {
			w := s
			if a == 0 && b == 0 {
				w = m
			}
			k = append(k, tap{off: [3]int{a, b, 0}, w: w})
		}
	}
	return &stencil{name: "compensator2", passes: []kernel{k}}
}

// NewGeneral3pStrided applies General3p stride times, pass s reading
// neighbours s cells away.
func NewGeneral3pStrided(alpha float64, stride int) (Filter, error) {
	if err := checkAlpha(alpha); err != nil {
		return nil, err
	}
	if stride < 1 {
		return nil, fmt.Errorf("%w: stride %d", pic.ErrInvalidParam, stride)
	}
	p := profile3(alpha)
	passes := make([]kernel, 0, stride)
	for s := 1; s <= stride; s++ {
		passes = append(passes, outer(p, p, nil, s))
	}
	return &stencil{name: "general3p_strided", passes: passes}, nil
}

// binomialStrided2 is [1,2,1]/4 convolved with its stride-2 copy.
var binomialStrided2 = []float64{1. / 16, 2. / 16, 3. / 16, 4. / 16, 3. / 16, 2. / 16, 1. / 16}

// NewBinomial2Strided2 returns the single-pass 7x7 equivalent of two binomial
// passes with strides 1 and 2.
func NewBinomial2Strided2() Filter {
	p := binomialStrided2
	return &stencil{name: "binomial2_strided2", passes: []kernel{outer(p, p, nil, 1)}}
}

// NewBinomial2 returns the [1,2,1]/4 binomial filter in 2 or 3 dimensions.
func NewBinomial2(dim pic.Dim) (Filter, error) {
	p := profile3(0.5)
	switch dim {
	case pic.Dim2:
		return &stencil{name: "binomial2", passes: []kernel{outer(p, p, nil, 1)}}, nil
	case pic.Dim3:
		return &stencil{name: "binomial2", passes: []kernel{outer(p, p, p, 1)}}, nil
	default:
		return nil, fmt.Errorf("%w: binomial2 needs 2 or 3 dimensions, got %d", pic.ErrInvalidDim, int(dim))
	}
}
