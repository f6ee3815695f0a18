package mesh

import "sort"

// Lattice holds the staggered field and source components of one tile.
// Every component has the same extents and halo.
type Lattice struct {
	Ex, Ey, Ez *Mesh
	Bx, By, Bz *Mesh

	Jx, Jy, Jz *Mesh
	Jx1        *Mesh // snapshot of jx kept for the field solver

	Rho  *Mesh
	Ekin *Mesh

	Nx, Ny, Nz, H int
}

func NewLattice(nx, ny, nz, halo int) *Lattice {
	return &Lattice{
		Ex: New(nx, ny, nz, halo), Ey: New(nx, ny, nz, halo), Ez: New(nx, ny, nz, halo),
		Bx: New(nx, ny, nz, halo), By: New(nx, ny, nz, halo), Bz: New(nx, ny, nz, halo),
		Jx: New(nx, ny, nz, halo), Jy: New(nx, ny, nz, halo), Jz: New(nx, ny, nz, halo),
		Jx1:  New(nx, ny, nz, halo),
		Rho:  New(nx, ny, nz, halo),
		Ekin: New(nx, ny, nz, halo),
		Nx:   nx, Ny: ny, Nz: nz, H: halo,
	}
}

func (l *Lattice) fields() map[string]*Mesh {
	return map[string]*Mesh{
		"ex": l.Ex, "ey": l.Ey, "ez": l.Ez,
		"bx": l.Bx, "by": l.By, "bz": l.Bz,
		"jx": l.Jx, "jy": l.Jy, "jz": l.Jz,
		"jx1": l.Jx1, "rho": l.Rho, "ekin": l.Ekin,
	}
}

// Field looks a component up by its lowercase name ("jx", "rho", ...).
func (l *Lattice) Field(name string) (*Mesh, bool) {
	m, ok := l.fields()[name]
	return m, ok
}

func FieldNames() []string {
	names := []string{"ex", "ey", "ez", "bx", "by", "bz", "jx", "jy", "jz", "jx1", "rho", "ekin"}
	sort.Strings(names)
	return names
}

// Currents returns jx, jy, jz in axis order.
func (l *Lattice) Currents() [3]*Mesh {
	return [3]*Mesh{l.Jx, l.Jy, l.Jz}
}

// ClearSources zeroes the deposition targets: jx, jy, jz and rho.
func (l *Lattice) ClearSources() {
	l.Jx.Clear()
	l.Jy.Clear()
	l.Jz.Clear()
	l.Rho.Clear()
}
