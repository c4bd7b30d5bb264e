// Package pool implements the bounded-concurrency fetch orchestrator: a
// fixed pool of workers mapping a function over a collection while keeping
// results in input order.
package pool

import (
	"context"
	"sync"
)

// DefaultWorkers is the concurrency ceiling used when none is configured.
const DefaultWorkers = 10

// Map runs fn over every input with at most workers concurrent calls and
// returns exactly len(inputs) outputs in input order. Per-item failures must
// be encoded in O by fn; Map itself never fails and always waits for the
// whole batch to finish.
func Map[I, O any](ctx context.Context, inputs []I, workers int, fn func(context.Context, I) O) []O {
	results := make([]O, len(inputs))
	if len(inputs) == 0 {
		return results
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if workers > len(inputs) {
		workers = len(inputs)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = fn(ctx, inputs[i])
			}
		}()
	}

	for i := range inputs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}
