// Package parallel contains the bounded-concurrency ForEach primitive used by
// data-parallel training.
package parallel

import (
	"sync"
	"sync/atomic"
)

// ForEach executes body(i) for every i in [0, length) across at most limit
// concurrent goroutines. Workers pull indices from a shared atomic counter, so
// the distribution of indices to workers is dynamic. Returns after all calls
// complete.
func ForEach(length, limit int, body func(i int)) {
	if length <= 0 {
		return
	}
	if limit <= 0 {
		limit = 1
	}
	if limit > length {
		limit = length
	}

	var next int64 = -1
	var wg sync.WaitGroup
	wg.Add(limit)
	for w := 0; w < limit; w++ {
		go func() {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&next, 1))
				if i >= length {
					return
				}
				body(i)
			}
		}()
	}
	wg.Wait()
}
