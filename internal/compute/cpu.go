package compute

import (
	"sync"

	"github.com/san-kum/picsim/internal/mesh"
)

type Serial struct{}

func NewSerial() *Serial { return &Serial{} }

func (s *Serial) Name() string { return "serial" }
func (s *Serial) Workers() int { return 1 }

func (s *Serial) Scatter(l *mesh.Lattice, n int, fn ScatterFunc) {
	if n <= 0 {
		return
	}
	fn(0, n, l.Jx, l.Jy, l.Jz)
}

func (s *Serial) Accumulate(dst *mesh.Mesh, n int, fn AccumulateFunc) {
	if n <= 0 {
		return
	}
	fn(0, n, dst)
}

// Atomic shares the lattice between workers; every add is a CAS loop.
type Atomic struct {
	workers int
}

func NewAtomic(workers int) *Atomic {
	return &Atomic{workers: defaultWorkers(workers)}
}

func (a *Atomic) Name() string { return "atomic" }
func (a *Atomic) Workers() int { return a.workers }

func (a *Atomic) Scatter(l *mesh.Lattice, n int, fn ScatterFunc) {
	jx, jy, jz := mesh.Atomic(l.Jx), mesh.Atomic(l.Jy), mesh.Atomic(l.Jz)

	var wg sync.WaitGroup
	for _, c := range chunks(n, a.workers) {
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			fn(start, end, jx, jy, jz)
		}(c[0], c[1])
	}
	wg.Wait()
}

func (a *Atomic) Accumulate(dst *mesh.Mesh, n int, fn AccumulateFunc) {
	target := mesh.Atomic(dst)

	var wg sync.WaitGroup
	for _, c := range chunks(n, a.workers) {
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			fn(start, end, target)
		}(c[0], c[1])
	}
	wg.Wait()
}

// Reduce gives every worker private partial currents and sums them into the
// lattice after all workers finish. Partials are recycled through a pool
// keyed on the lattice shape.
type Reduce struct {
	workers int

	mu   sync.Mutex
	pool *mesh.Pool
}

func NewReduce(workers int) *Reduce {
	return &Reduce{workers: defaultWorkers(workers)}
}

func (r *Reduce) Name() string { return "reduce" }
func (r *Reduce) Workers() int { return r.workers }

func (r *Reduce) meshes(like *mesh.Mesh) *mesh.Pool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pool == nil || !r.pool.Fits(like) {
		r.pool = mesh.NewPool(like.Nx, like.Ny, like.Nz, like.H)
	}
	return r.pool
}

func (r *Reduce) Scatter(l *mesh.Lattice, n int, fn ScatterFunc) {
	parts := chunks(n, r.workers)
	if len(parts) <= 1 {
		NewSerial().Scatter(l, n, fn)
		return
	}

	pool := r.meshes(l.Jx)
	local := make([][3]*mesh.Mesh, len(parts))
	for w := range local {
		local[w] = [3]*mesh.Mesh{pool.Get(), pool.Get(), pool.Get()}
	}

	var wg sync.WaitGroup
	for w, c := range parts {
		wg.Add(1)
		go func(worker, start, end int) {
			defer wg.Done()
			p := local[worker]
			fn(start, end, p[0], p[1], p[2])
		}(w, c[0], c[1])
	}
	wg.Wait()

	targets := l.Currents()
	for _, p := range local {
		for d := 0; d < 3; d++ {
			targets[d].AddMesh(p[d])
			pool.Put(p[d])
		}
	}
}

func (r *Reduce) Accumulate(dst *mesh.Mesh, n int, fn AccumulateFunc) {
	parts := chunks(n, r.workers)
	if len(parts) <= 1 {
		NewSerial().Accumulate(dst, n, fn)
		return
	}

	pool := r.meshes(dst)
	local := make([]*mesh.Mesh, len(parts))
	for w := range local {
		local[w] = pool.Get()
	}

	var wg sync.WaitGroup
	for w, c := range parts {
		wg.Add(1)
		go func(worker, start, end int) {
			defer wg.Done()
			fn(start, end, local[worker])
		}(w, c[0], c[1])
	}
	wg.Wait()

	for _, p := range local {
		dst.AddMesh(p)
		pool.Put(p)
	}
}
