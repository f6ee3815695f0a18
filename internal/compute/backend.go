package compute

import (
	"fmt"
	"runtime"

	"github.com/san-kum/picsim/internal/mesh"
	"github.com/san-kum/picsim/internal/pic"
)

// ScatterFunc deposits particles [start, end) through the given adders.
type ScatterFunc func(start, end int, jx, jy, jz mesh.Adder)

// AccumulateFunc deposits particles [start, end) into one mesh.
type AccumulateFunc func(start, end int, dst mesh.Adder)

type Backend interface {
	Name() string
	Workers() int
	Scatter(l *mesh.Lattice, n int, fn ScatterFunc)
	// Accumulate is Scatter for a single target; no other mesh is touched.
	Accumulate(dst *mesh.Mesh, n int, fn AccumulateFunc)
}

// parallelThreshold is the particle count below which AutoSelect stays
// serial.
const parallelThreshold = 4096

func AutoSelect(n int) Backend {
	if n < parallelThreshold || runtime.GOMAXPROCS(0) == 1 {
		return NewSerial()
	}
	return NewReduce(0)
}

// Names lists the backend names accepted by ByName.
func Names() []string {
	return []string{"auto", "serial", "atomic", "reduce"}
}

// ByName builds a backend. workers <= 0 means one worker per CPU. "auto"
// resolves to the reduction backend, which AutoSelect would pick for any
// non-trivial tile.
func ByName(name string, workers int) (Backend, error) {
	switch name {
	case "serial":
		return NewSerial(), nil
	case "atomic":
		return NewAtomic(workers), nil
	case "reduce", "auto", "":
		return NewReduce(workers), nil
	default:
		return nil, fmt.Errorf("%w: %s", pic.ErrUnknownBackend, name)
	}
}

func defaultWorkers(workers int) int {
	if workers <= 0 {
		return runtime.NumCPU()
	}
	return workers
}

// chunks splits [0,n) into at most workers contiguous ranges.
func chunks(n, workers int) [][2]int {
	if n <= 0 {
		return nil
	}
	if workers > n {
		workers = n
	}
	size := (n + workers - 1) / workers
	out := make([][2]int, 0, workers)
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		out = append(out, [2]int{start, end})
	}
	return out
}
