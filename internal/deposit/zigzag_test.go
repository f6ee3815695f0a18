package deposit_test

import (
	"math"
	"math/rand/v2"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/picsim/internal/compute"
	"github.com/san-kum/picsim/internal/deposit"
	"github.com/san-kum/picsim/internal/mesh"
	"github.com/san-kum/picsim/internal/particles"
	"github.com/san-kum/picsim/internal/pic"
)

const tol = 1e-12

// velocityFor returns the four-velocity that moves a particle by disp in one
// step at light speed c.
func velocityFor(disp [3]float64, c float64) [3]float64 {
	var b2 float64
	var beta [3]float64
	for a := 0; a < 3; a++ {
		beta[a] = disp[a] / c
		b2 += beta[a] * beta[a]
	}
	Expect(b2).To(BeNumerically("<", 1.0), "displacement %v is faster than light", disp)
	g := 1.0 / math.Sqrt(1.0-b2)
	return [3]float64{g * beta[0], g * beta[1], g * beta[2]}
}

func newTile(dim pic.Dim, n int, cfl float64) *pic.Tile {
	lengths := [3]int{1, 1, 1}
	for a := 0; a < int(dim); a++ {
		lengths[a] = n
	}
	t, err := pic.NewTile(dim, lengths, [3]float64{}, cfl, pic.DefaultHalo)
	Expect(err).NotTo(HaveOccurred())
	return t
}

// rhoAt deposits the charge of every particle placed at from, returning a
// copy of rho.
func rhoAt(t *pic.Tile, c *particles.Container, n int, pos [3]float64) *mesh.Mesh {
	saved := c.Position(n)
	for a := 0; a < 3; a++ {
		c.SetLoc(a, n, pos[a])
	}
	t.Lattice.Rho.Clear()
	deposit.NewChargeDensity(compute.NewSerial(), deposit.WithContraction(false)).Solve(t)
	out := mesh.New(t.Lattice.Nx, t.Lattice.Ny, t.Lattice.Nz, t.Lattice.H)
	out.CopyFrom(t.Lattice.Rho)
	for a := 0; a < 3; a++ {
		c.SetLoc(a, n, saved[a])
	}
	return out
}

// continuityResidual returns the largest |Δrho + div J| over the lattice
// away from the outermost halo layer.
func continuityResidual(t *pic.Tile, before, after *mesh.Mesh) float64 {
	l := t.Lattice
	worst := 0.0
	lo, hi := -l.H+1, [3]int{l.Nx + l.H - 1, l.Ny + l.H - 1, l.Nz + l.H - 1}
	klo, jlo := lo, lo
	if !t.Dim.Active(2) {
		klo, hi[2] = 0, 1
	}
	if !t.Dim.Active(1) {
		jlo, hi[1] = 0, 1
	}
	for k := klo; k < hi[2]; k++ {
		for j := jlo; j < hi[1]; j++ {
			for i := lo; i < hi[0]; i++ {
				div := l.Jx.At(i, j, k) - l.Jx.At(i-1, j, k)
				if t.Dim.Active(1) {
					div += l.Jy.At(i, j, k) - l.Jy.At(i, j-1, k)
				}
				if t.Dim.Active(2) {
					div += l.Jz.At(i, j, k) - l.Jz.At(i, j, k-1)
				}
				r := math.Abs(after.At(i, j, k) - before.At(i, j, k) + div)
				worst = math.Max(worst, r)
			}
		}
	}
	return worst
}

var _ = Describe("W2nd", func() {
	It("is a partition of unity", func() {
		for d := -1.0; d <= 1.0; d += 0.03125 {
			w := deposit.W2nd(d)
			Expect(w[0] + w[1] + w[2]).To(BeNumerically("~", 1.0, tol))
		}
	})

	It("is symmetric about the center node", func() {
		w := deposit.W2nd(0)
		Expect(w).To(Equal([3]float64{0.125, 0.75, 0.125}))
		a, b := deposit.W2nd(0.3), deposit.W2nd(-0.3)
		Expect(a[0]).To(BeNumerically("~", b[2], tol))
		Expect(a[1]).To(BeNumerically("~", b[1], tol))
	})
})

var _ = Describe("ZigZag2nd", func() {
	var z *deposit.ZigZag2nd

	BeforeEach(func() {
		z = deposit.NewZigZag2nd(compute.NewSerial(), deposit.WithContraction(false))
	})

	DescribeTable("conserves charge for in-cell trajectories",
		func(dim pic.Dim, from, disp [3]float64) {
			t := newTile(dim, 8, 0.45)
			c := particles.New("e-", -1.0, t.CFL)
			to := [3]float64{from[0] + disp[0], from[1] + disp[1], from[2] + disp[2]}
			c.Add(to, velocityFor(disp, t.CFL))
			t.AddContainer(c)

			before := rhoAt(t, c, 0, from)
			z.Solve(t)
			after := rhoAt(t, c, 0, to)

			Expect(continuityResidual(t, before, after)).To(BeNumerically("<", tol))
		},
		Entry("1D forward", pic.Dim1, [3]float64{4.1, 0, 0}, [3]float64{0.3, 0, 0}),
		Entry("1D backward", pic.Dim1, [3]float64{3.9, 0, 0}, [3]float64{-0.35, 0, 0}),
		Entry("1D with transverse velocity", pic.Dim1, [3]float64{2.2, 0.5, 0.5}, [3]float64{0.2, 0.3, -0.1}),
		Entry("2D along x", pic.Dim2, [3]float64{3.2, 4.6, 0}, [3]float64{0.25, 0, 0}),
		Entry("2D along y", pic.Dim2, [3]float64{3.5, 4.1, 0}, [3]float64{0, 0.4, 0}),
		Entry("3D along z", pic.Dim3, [3]float64{3.3, 4.4, 2.05}, [3]float64{0, 0, 0.3}),
		Entry("3D along x", pic.Dim3, [3]float64{5.7, 2.5, 3.5}, [3]float64{-0.4, 0, 0}),
	)

	It("deposits a total jx of q times the displacement", func() {
		rng := rand.New(rand.NewPCG(7, 11))
		zc := deposit.NewZigZag2nd(compute.NewSerial())
		for trial := 0; trial < 50; trial++ {
			t := newTile(pic.Dim3, 8, 0.45)
			c := particles.New("e+", 1.5, t.CFL)
			disp := particles.Isotropic(0.9*t.CFL*rng.Float64(), rng)
			to := [3]float64{2 + 4*rng.Float64(), 2 + 4*rng.Float64(), 2 + 4*rng.Float64()}
			c.Add(to, velocityFor(disp, t.CFL))
			t.AddContainer(c)

			zc.Solve(t)
			Expect(t.Lattice.Jx.Sum()).To(BeNumerically("~", 1.5*disp[0], 1e-10))
			Expect(t.Lattice.Jy.Sum()).To(BeNumerically("~", 1.5*disp[1], 1e-10))
			Expect(t.Lattice.Jz.Sum()).To(BeNumerically("~", 1.5*disp[2], 1e-10))
		}
	})

	It("is linear in the particle charge", func() {
		deposits := make([]*mesh.Lattice, 2)
		for n, q := range []float64{1.0, -3.0} {
			t := newTile(pic.Dim2, 8, 0.45)
			c := particles.New("s", q, t.CFL)
			c.Add([3]float64{3.4, 5.2, 0}, velocityFor([3]float64{0.3, -0.2, 0.1}, t.CFL))
			c.Add([3]float64{4.0, 4.0, 0}, velocityFor([3]float64{-0.1, 0.35, 0}, t.CFL))
			t.AddContainer(c)
			deposit.NewZigZag2nd(compute.NewSerial()).Solve(t)
			deposits[n] = t.Lattice
		}
		for a, m := range deposits[1].Currents() {
			ref := deposits[0].Currents()[a].Data()
			for i, v := range m.Data() {
				Expect(v).To(BeNumerically("~", -3.0*ref[i], 1e-12))
			}
		}
	})

	It("handles a particle at rest without NaN", func() {
		t := newTile(pic.Dim2, 4, 1.0)
		c := particles.New("e-", 1.0, t.CFL)
		c.Add([3]float64{2, 2, 0}, [3]float64{})
		t.AddContainer(c)

		deposit.NewZigZag2nd(compute.NewSerial()).Solve(t)

		l := t.Lattice
		for _, m := range l.Currents() {
			for _, v := range m.Data() {
				Expect(math.IsNaN(v)).To(BeFalse())
			}
		}
		Expect(l.Jx.Data()).To(HaveEach(BeNumerically("==", 0)))
		Expect(l.Jy.Data()).To(HaveEach(BeNumerically("==", 0)))

		// The unresolved z axis carries q*c per segment, shaped by the
		// in-plane weights around the particle's node.
		Expect(l.Jz.Sum()).To(BeNumerically("~", 2.0, tol))
		Expect(l.Jz.At(2, 2, 0)).To(BeNumerically("~", 2*0.75*0.75, tol))
		Expect(l.Jz.At(1, 2, 0)).To(BeNumerically("~", 2*0.125*0.75, tol))
		Expect(l.Jz.At(1, 1, 0)).To(BeNumerically("~", 2*0.125*0.125, tol))
		Expect(l.Jz.At(0, 2, 0)).To(BeNumerically("==", 0))
	})

	It("clears rho and previous currents", func() {
		t := newTile(pic.Dim1, 4, 0.45)
		t.Lattice.Rho.Fill(3)
		t.Lattice.Jx.Fill(1)
		z.Solve(t)
		Expect(t.Lattice.Rho.Sum()).To(BeNumerically("==", 0))
		Expect(t.Lattice.Jx.Sum()).To(BeNumerically("==", 0))
	})

	DescribeTable("accepts particles on cell boundaries",
		func(x2, disp float64) {
			t := newTile(pic.Dim1, 4, 0.45)
			c := particles.New("e-", -1.0, t.CFL)
			c.Add([3]float64{x2, 0, 0}, velocityFor([3]float64{disp, 0, 0}, t.CFL))
			t.AddContainer(c)

			Expect(func() { z.Solve(t) }).NotTo(Panic())
			Expect(t.Lattice.Jx.Sum()).To(BeNumerically("~", -disp, tol))
		},
		Entry("at rest on a node", 2.0, 0.0),
		Entry("leaving a node", 2.2, 0.2),
		Entry("arriving on a node", 3.0, 0.3),
		Entry("at the tile edge", 4.0, 0.1),
		Entry("at the tile origin", 0.0, -0.2),
	)

	It("contracts moving particles only when enabled", func() {
		build := func(on bool) *pic.Tile {
			t := newTile(pic.Dim2, 8, 0.45)
			c := particles.New("e-", -1.0, t.CFL)
			c.Add([3]float64{4.3, 4.6, 0}, velocityFor([3]float64{0.4, 0.1, 0}, t.CFL))
			t.AddContainer(c)
			deposit.NewZigZag2nd(compute.NewSerial(), deposit.WithContraction(on)).Solve(t)
			return t
		}
		on, off := build(true), build(false)
		Expect(on.Lattice.Jx.Sum()).To(BeNumerically("~", off.Lattice.Jx.Sum(), tol))
		Expect(on.Lattice.Jx.At(3, 4, 0)).NotTo(BeNumerically("~", off.Lattice.Jx.At(3, 4, 0), tol))
	})

	It("gives the same currents on every backend", func() {
		rng := rand.New(rand.NewPCG(1, 2))
		fill := func() *pic.Tile {
			t := newTile(pic.Dim2, 16, 0.45)
			e := particles.New("e-", -1.0, t.CFL)
			p := particles.New("e+", 1.0, t.CFL)
			Expect(particles.LoadPlasma(t.Region(), []*particles.Container{e, p}, 8, []float64{0.3, 0.3}, rng)).To(Succeed())
			t.AddContainer(e)
			t.AddContainer(p)
			return t
		}

		ref := fill()
		deposit.NewZigZag2nd(compute.NewSerial()).Solve(ref)

		for _, b := range []compute.Backend{compute.NewAtomic(4), compute.NewReduce(4)} {
			t := newTile(pic.Dim2, 16, 0.45)
			for _, c := range ref.Containers {
				t.AddContainer(c)
			}
			deposit.NewZigZag2nd(b).Solve(t)
			for a, m := range t.Lattice.Currents() {
				want := ref.Lattice.Currents()[a].Data()
				for i, v := range m.Data() {
					Expect(v).To(BeNumerically("~", want[i], 1e-10), "backend %s", b.Name())
				}
			}
		}
	})
})

var _ = Describe("ChargeDensity", func() {
	It("deposits q per particle", func() {
		t := newTile(pic.Dim3, 6, 0.45)
		c := particles.New("i", 2.5, t.CFL)
		c.Add([3]float64{2.3, 3.7, 1.5}, [3]float64{0.2, 0.1, -0.4})
		c.Add([3]float64{4.0, 1.0, 5.9}, [3]float64{})
		t.AddContainer(c)

		deposit.NewChargeDensity(nil).Solve(t)
		Expect(t.Lattice.Rho.Sum()).To(BeNumerically("~", 5.0, 1e-12))
		Expect(t.Lattice.Jx.Sum()).To(BeNumerically("==", 0))
	})

	It("vanishes for co-located pairs", func() {
		t := newTile(pic.Dim2, 8, 0.45)
		e := particles.New("e-", -1.0, t.CFL)
		p := particles.New("e+", 1.0, t.CFL)
		rng := rand.New(rand.NewPCG(9, 9))
		Expect(particles.LoadPlasma(t.Region(), []*particles.Container{e, p}, 2, []float64{0, 0}, rng)).To(Succeed())
		t.AddContainer(e)
		t.AddContainer(p)

		deposit.NewChargeDensity(compute.NewReduce(3)).Solve(t)
		for _, v := range t.Lattice.Rho.Data() {
			Expect(v).To(BeNumerically("~", 0, 1e-12))
		}
	})

	It("leaves the currents alone and agrees on every backend", func() {
		rng := rand.New(rand.NewPCG(4, 11))
		fill := func() *pic.Tile {
			t := newTile(pic.Dim2, 16, 0.45)
			c := particles.New("i", 1.5, t.CFL)
			Expect(particles.LoadPlasma(t.Region(), []*particles.Container{c}, 64, []float64{0.2}, rng)).To(Succeed())
			t.AddContainer(c)
			return t
		}

		ref := fill()
		deposit.NewChargeDensity(compute.NewSerial()).Solve(ref)

		for _, b := range []compute.Backend{compute.NewAtomic(4), compute.NewReduce(4)} {
			t := newTile(pic.Dim2, 16, 0.45)
			for _, c := range ref.Containers {
				t.AddContainer(c)
			}
			t.Lattice.Jy.Fill(3)
			t.Lattice.Jz.Fill(-2)

			deposit.NewChargeDensity(b).Solve(t)
			want := ref.Lattice.Rho.Data()
			for i, v := range t.Lattice.Rho.Data() {
				Expect(v).To(BeNumerically("~", want[i], 1e-10), "backend %s", b.Name())
			}
			for _, v := range t.Lattice.Jy.Data() {
				Expect(v).To(Equal(3.0), "backend %s", b.Name())
			}
			for _, v := range t.Lattice.Jz.Data() {
				Expect(v).To(Equal(-2.0), "backend %s", b.Name())
			}
		}
	})
})
