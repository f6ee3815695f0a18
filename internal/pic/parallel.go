package pic

import (
	"runtime"
	"sync"
)

// ParallelFor calls fn on contiguous sub-ranges of [0, n), each at least
// minChunk long, using at most GOMAXPROCS goroutines. Ranges too small to
// split run on the calling goroutine.
func ParallelFor(n, minChunk int, fn func(start, end int)) {
	minChunk = max(minChunk, 1)
	workers := min(runtime.GOMAXPROCS(0), n/minChunk)
	if workers <= 1 {
		if n > 0 {
			fn(0, n)
		}
		return
	}

	size := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < n; start += size {
		end := min(start+size, n)
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(start, end)
		}()
	}
	wg.Wait()
}
