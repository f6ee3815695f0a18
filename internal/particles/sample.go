package particles

import (
	"math"
	"math/rand/v2"
)

// sobolThreshold is the temperature above which the Sobol rejection method
// is used; colder plasmas are sampled from a non-relativistic Maxwellian.
const sobolThreshold = 0.2

// SampleJuttner draws a four-velocity from an isotropic Maxwell-Jüttner
// distribution of temperature theta (in units of mc²).
func SampleJuttner(theta float64, rng *rand.Rand) [3]float64 {
	if theta <= 0 {
		return [3]float64{}
	}
	if theta <= sobolThreshold {
		s := math.Sqrt(theta)
		return [3]float64{s * rng.NormFloat64(), s * rng.NormFloat64(), s * rng.NormFloat64()}
	}

	var u float64
	for {
		x1, x2, x3, x4 := open(rng), open(rng), open(rng), open(rng)
		u = -theta * math.Log(x1*x2*x3)
		eta := -theta * math.Log(x1*x2*x3*x4)
		if eta*eta-u*u > 1.0 {
			break
		}
	}
	return Isotropic(u, rng)
}

// Isotropic spreads magnitude u uniformly over the unit sphere.
func Isotropic(u float64, rng *rand.Rand) [3]float64 {
	x1 := rng.Float64()
	x2 := rng.Float64()
	sinT := 2.0 * math.Sqrt(x1*(1.0-x1))
	phi := 2.0 * math.Pi * x2
	return [3]float64{
		u * (2.0*x1 - 1.0),
		u * sinT * math.Cos(phi),
		u * sinT * math.Sin(phi),
	}
}

// open returns a uniform sample in (0, 1].
func open(rng *rand.Rand) float64 {
	return 1.0 - rng.Float64()
}
