package mesh

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Mesh is a dense 3D array of float64 indexed over [-H, N+H) on every axis.
// Indices outside the halo are not checked.
type Mesh struct {
	Nx, Ny, Nz int
	H          int

	sx, sy int // strides including halo
	data   []float64
}

// Adder accumulates a value into a cell. Depositers only ever write through
// an Adder so the accumulation strategy can be swapped.
type Adder interface {
	Add(i, j, k int, v float64)
}

func New(nx, ny, nz, halo int) *Mesh {
	if nx < 1 || ny < 1 || nz < 1 {
		panic(fmt.Sprintf("mesh: invalid extents %dx%dx%d", nx, ny, nz))
	}
	if halo < 0 {
		halo = 0
	}
	sx := nx + 2*halo
	sy := ny + 2*halo
	sz := nz + 2*halo
	return &Mesh{
		Nx: nx, Ny: ny, Nz: nz, H: halo,
		sx: sx, sy: sy,
		data: make([]float64, sx*sy*sz),
	}
}

func (m *Mesh) index(i, j, k int) int {
	return (i + m.H) + m.sx*((j+m.H)+m.sy*(k+m.H))
}

func (m *Mesh) At(i, j, k int) float64 {
	return m.data[m.index(i, j, k)]
}

func (m *Mesh) Set(i, j, k int, v float64) {
	m.data[m.index(i, j, k)] = v
}

func (m *Mesh) Add(i, j, k int, v float64) {
	m.data[m.index(i, j, k)] += v
}

func (m *Mesh) Ptr(i, j, k int) *float64 {
	return &m.data[m.index(i, j, k)]
}

func (m *Mesh) Data() []float64 { return m.data }

func (m *Mesh) InBounds(i, j, k int) bool {
	return m.inAxis(i, m.Nx) && m.inAxis(j, m.Ny) && m.inAxis(k, m.Nz)
}

func (m *Mesh) inAxis(i, n int) bool { return i >= -m.H && i < n+m.H }

func (m *Mesh) SameShape(o *Mesh) bool {
	return o != nil && m.Nx == o.Nx && m.Ny == o.Ny && m.Nz == o.Nz && m.H == o.H
}

func (m *Mesh) String() string {
	return fmt.Sprintf("mesh(%dx%dx%d, halo %d)", m.Nx, m.Ny, m.Nz, m.H)
}

// Clear zeroes the whole array, halo included.
func (m *Mesh) Clear() {
	clear(m.data)
}

func (m *Mesh) Fill(v float64) {
	for i := range m.data {
		m.data[i] = v
	}
}

func (m *Mesh) Scale(f float64) {
	floats.Scale(f, m.data)
}

// CopyFrom copies every cell of src, halo included.
func (m *Mesh) CopyFrom(src *Mesh) {
	m.mustMatch(src)
	copy(m.data, src.data)
}

// CopyInterior copies cells [0,N) of every axis from src; the halo of m is
// left untouched.
func (m *Mesh) CopyInterior(src *Mesh) {
	m.mustMatch(src)
	for k := 0; k < m.Nz; k++ {
		for j := 0; j < m.Ny; j++ {
			start := m.index(0, j, k)
			copy(m.data[start:start+m.Nx], src.data[start:start+m.Nx])
		}
	}
}

// AddMesh adds src into m cell by cell, halo included.
func (m *Mesh) AddMesh(src *Mesh) {
	m.mustMatch(src)
	floats.Add(m.data, src.data)
}

// Sum returns the sum over every cell, halo included.
func (m *Mesh) Sum() float64 {
	return floats.Sum(m.data)
}

func (m *Mesh) InteriorSum() float64 {
	sum := 0.0
	for k := 0; k < m.Nz; k++ {
		for j := 0; j < m.Ny; j++ {
			start := m.index(0, j, k)
			sum += floats.Sum(m.data[start : start+m.Nx])
		}
	}
	return sum
}

// Row returns the interior x-row (j, k) as a copy.
func (m *Mesh) Row(j, k int) []float64 {
	start := m.index(0, j, k)
	row := make([]float64, m.Nx)
	copy(row, m.data[start:start+m.Nx])
	return row
}

func (m *Mesh) mustMatch(o *Mesh) {
	if !m.SameShape(o) {
		panic(fmt.Sprintf("mesh: shape mismatch %v vs %v", m, o))
	}
}
