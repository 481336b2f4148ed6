// Package parallel provides small helpers for fanning independent work items
// out across a bounded number of goroutines. It backs the n-jobs parameter of
// cross-validation and the per-subject preprocessing runners.
package parallel

import (
	"runtime"
	"sync"
)

// Parallelize divides items into contiguous ranges according to the number of
// CPU cores and executes fn for each range (start, end) in parallel.
func Parallelize(items int, fn func(start, end int)) {
	if items == 0 {
		return
	}

	numWorkers := runtime.NumCPU()
	if numWorkers > items {
		numWorkers = items
	}

	// Number of items per worker, ceiling division.
	chunkSize := (items + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup

	for i := 0; i < numWorkers; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > items {
			end = items
		}

		if start >= end {
			continue
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}

	wg.Wait()
}

// ParallelizeWithThreshold parallelizes only when items exceeds threshold,
// otherwise fn runs sequentially over the whole range.
func ParallelizeWithThreshold(items int, threshold int, fn func(start, end int)) {
	if items <= threshold {
		fn(0, items)
		return
	}

	Parallelize(items, fn)
}

// MapN runs fn(i) for i in [0, items) on at most nJobs goroutines. nJobs <= 0
// means one goroutine per CPU core. Item order of execution is unspecified.
func MapN(items, nJobs int, fn func(i int)) {
	if items == 0 {
		return
	}

	if nJobs <= 0 {
		nJobs = runtime.NumCPU()
	}
	if nJobs > items {
		nJobs = items
	}

	work := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < nJobs; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				fn(i)
			}
		}()
	}

	for i := 0; i < items; i++ {
		work <- i
	}
	close(work)

	wg.Wait()
}
