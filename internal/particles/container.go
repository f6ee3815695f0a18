// Package particles stores per-species particle phase space for one tile.
//
// A [Container] is an ordered, index-stable sequence of particles kept as
// structure-of-arrays: three location slices and three velocity slices. The
// velocity is the spatial part of the four-velocity (u = gamma*beta), so the
// Lorentz factor of particle n is sqrt(1 + u^2 + v^2 + w^2).
//
// Containers are filled by loaders and mutated by pushers; the deposition
// core only reads them.
package particles

import "math"

type Container struct {
	Species string
	Q       float64 // charge per particle
	CFL     float64 // speed of light in grid units per step

	loc [3][]float64
	vel [3][]float64
}

func New(species string, q, cfl float64) *Container {
	return &Container{Species: species, Q: q, CFL: cfl}
}

// Reserve grows capacity for n more particles.
func (c *Container) Reserve(n int) {
	for d := 0; d < 3; d++ {
		c.loc[d] = grow(c.loc[d], n)
		c.vel[d] = grow(c.vel[d], n)
	}
}

func grow(s []float64, n int) []float64 {
	if cap(s)-len(s) >= n {
		return s
	}
	out := make([]float64, len(s), len(s)+n)
	copy(out, s)
	return out
}

func (c *Container) Add(loc, vel [3]float64) {
	for d := 0; d < 3; d++ {
		c.loc[d] = append(c.loc[d], loc[d])
		c.vel[d] = append(c.vel[d], vel[d])
	}
}

func (c *Container) Size() int { return len(c.loc[0]) }

func (c *Container) Loc(dim, n int) float64 { return c.loc[dim][n] }
func (c *Container) Vel(dim, n int) float64 { return c.vel[dim][n] }

func (c *Container) SetLoc(dim, n int, v float64) { c.loc[dim][n] = v }
func (c *Container) SetVel(dim, n int, v float64) { c.vel[dim][n] = v }

// Gamma returns the Lorentz factor of particle n.
func (c *Container) Gamma(n int) float64 {
	u, v, w := c.vel[0][n], c.vel[1][n], c.vel[2][n]
	return math.Sqrt(1.0 + u*u + v*v + w*w)
}

// Position returns the location of particle n as an array.
func (c *Container) Position(n int) [3]float64 {
	return [3]float64{c.loc[0][n], c.loc[1][n], c.loc[2][n]}
}

// Velocity returns the four-velocity of particle n as an array.
func (c *Container) Velocity(n int) [3]float64 {
	return [3]float64{c.vel[0][n], c.vel[1][n], c.vel[2][n]}
}
