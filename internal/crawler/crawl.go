package crawler

import (
	"context"

	"webpeel/internal/jobqueue"
	"webpeel/internal/model"
)

// CrawlOptions is MapOptions plus the batch concurrency used once
// discovery is done.
type CrawlOptions struct {
	Map         MapOptions
	Concurrency int
}

// Crawl discovers URLs under opts.Map.URL via Map, then runs them
// through the job queue's batch runner under jobID, updating job as
// each unit completes. The starting URL itself is always included
// alongside whatever Map discovers, mirroring raito's crawl/jobs.go.
func Crawl(ctx context.Context, queue *jobqueue.Queue, jobID string, opts CrawlOptions, peel jobqueue.PeelFunc) ([]jobqueue.UnitResult, error) {
	discovered, err := Map(ctx, opts.Map)
	if err != nil {
		failed := model.JobFailed
		errMsg := err.Error()
		_, _ = queue.UpdateJob(jobID, jobqueue.Patch{Status: &failed, Error: &errMsg})
		return nil, err
	}

	urls := make([]string, 0, len(discovered.Links)+1)
	urls = append(urls, opts.Map.URL)
	for _, l := range discovered.Links {
		if l.URL != opts.Map.URL {
			urls = append(urls, l.URL)
		}
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 5
	}

	return queue.RunBatch(ctx, jobID, urls, concurrency, peel), nil
}
