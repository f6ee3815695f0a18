package mesh

import "sync"

// Pool recycles zeroed meshes of one shape.
type Pool struct {
	pool          sync.Pool
	nx, ny, nz, h int
}

func NewPool(nx, ny, nz, halo int) *Pool {
	return &Pool{
		nx: nx, ny: ny, nz: nz, h: halo,
		pool: sync.Pool{
			New: func() interface{} {
				return New(nx, ny, nz, halo)
			},
		},
	}
}

// Get returns a zeroed mesh.
func (p *Pool) Get() *Mesh {
	return p.pool.Get().(*Mesh)
}

// Put clears m and returns it to the pool. Meshes of another shape are
// dropped.
func (p *Pool) Put(m *Mesh) {
	if m == nil || m.Nx != p.nx || m.Ny != p.ny || m.Nz != p.nz || m.H != p.h {
		return
	}
	m.Clear()
	p.pool.Put(m)
}

// Fits reports whether the pool produces meshes shaped like m.
func (p *Pool) Fits(m *Mesh) bool {
	return p.nx == m.Nx && p.ny == m.Ny && p.nz == m.Nz && p.h == m.H
}
