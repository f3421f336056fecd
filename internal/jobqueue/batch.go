package jobqueue

import (
	"context"
	"sync"
)

const defaultBatchConcurrency = 5

// UnitResult is one URL's outcome within a batch job.
type UnitResult struct {
	URL   string
	Ok    bool
	Error string
	Data  any
}

// PeelFunc runs the extraction pipeline for a single URL; batch workers
// never abort the batch on a unit failure, only record it.
type PeelFunc func(ctx context.Context, url string) (any, error)

// RunBatch executes peel over urls with a bounded-concurrency worker
// pool (default 5 in-flight, spec §4.11), checking job cancellation on
// each loop iteration and reporting best-effort per-unit progress via
// the queue's "page" webhook event. The concurrency-limited dispatch
// loop mirrors ncecere-raito's internal/jobs/runner.go Start method,
// which gates goroutine spawns on a buffered semaphore channel.
func (q *Queue) RunBatch(ctx context.Context, jobID string, urls []string, concurrency int, peel PeelFunc) []UnitResult {
	if concurrency <= 0 {
		concurrency = defaultBatchConcurrency
	}

	results := make([]UnitResult, len(urls))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, url := range urls {
		if q.IsCancelled(jobID) {
			results[i] = UnitResult{URL: url, Ok: false, Error: "batch cancelled"}
			continue
		}
		if ctx.Err() != nil {
			results[i] = UnitResult{URL: url, Ok: false, Error: ctx.Err().Error()}
			continue
		}

		sem <- struct{}{}
		wg.Add(1)
		go func(i int, url string) {
			defer wg.Done()
			defer func() { <-sem }()

			data, err := peel(ctx, url)
			if err != nil {
				results[i] = UnitResult{URL: url, Ok: false, Error: err.Error()}
			} else {
				results[i] = UnitResult{URL: url, Ok: true, Data: data}
			}

			q.IncrementCompleted(jobID)
			q.ReportProgress(jobID, results[i])
		}(i, url)
	}

	wg.Wait()
	return results
}
