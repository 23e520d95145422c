// Package batch runs multiple independent rainfall downloads concurrently.
// One fetch stays strictly sequential internally; parallelism only exists
// across stations, bounded by the caller-chosen worker count.
package batch

import (
	"context"
	"sync"

	"github.com/apex/log"
	"github.com/google/uuid"

	"github.com/rossv/rainfalldownload/internal/rainfall"
)

// Job is one queued download.
type Job struct {
	ID      uuid.UUID
	Request rainfall.Request
}

// Result pairs a finished job with its series or its typed error.
type Result struct {
	Job    Job
	Series rainfall.Series
	Err    error
}

// Runner fans jobs out over a fixed worker pool.
type Runner struct {
	fetcher *rainfall.Fetcher
	workers int
	log     *log.Entry
}

// NewRunner creates a runner with the given parallelism.
func NewRunner(fetcher *rainfall.Fetcher, workers int) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{
		fetcher: fetcher,
		workers: workers,
		log:     log.WithField("component", "batch"),
	}
}

// Run fetches every request and returns one result per request, in no
// particular order. Cancellation is cooperative: workers stop picking up
// jobs once ctx is done, and jobs already running fail with the context
// error from the fetch core.
func (r *Runner) Run(ctx context.Context, requests []rainfall.Request) []Result {
	jobs := make(chan Job)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []Result
	)

	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				series, err := r.fetcher.Fetch(ctx, job.Request)
				if err != nil {
					r.log.WithError(err).WithFields(log.Fields{
						"job":     job.ID.String(),
						"station": job.Request.Station,
					}).Warn("batch fetch failed")
				}

				mu.Lock()
				results = append(results, Result{Job: job, Series: series, Err: err})
				mu.Unlock()
			}
		}()
	}

	for _, req := range requests {
		job := Job{ID: uuid.New(), Request: req}
		select {
		case <-ctx.Done():
			mu.Lock()
			results = append(results, Result{Job: job, Err: ctx.Err()})
			mu.Unlock()
		case jobs <- job:
		}
	}
	close(jobs)
	wg.Wait()

	return results
}
