package mesh

import (
	"math"
	"sync/atomic"
	"unsafe"
)

// AtomicAdd adds v to cell (i,j,k) with a compare-and-swap loop on the
// IEEE-754 bits, so concurrent writers never lose an update.
func (m *Mesh) AtomicAdd(i, j, k int, v float64) {
	p := (*uint64)(unsafe.Pointer(m.Ptr(i, j, k)))
	for {
		old := atomic.LoadUint64(p)
		next := math.Float64bits(math.Float64frombits(old) + v)
		if atomic.CompareAndSwapUint64(p, old, next) {
			return
		}
	}
}

type atomicAdder struct{ m *Mesh }

func (a atomicAdder) Add(i, j, k int, v float64) { a.m.AtomicAdd(i, j, k, v) }

// Atomic returns an Adder that is safe to share between goroutines.
func Atomic(m *Mesh) Adder {
	return atomicAdder{m: m}
}
