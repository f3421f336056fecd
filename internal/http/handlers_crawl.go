package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"webpeel/internal/crawler"
	"webpeel/internal/jobqueue"
	"webpeel/internal/model"
	"webpeel/internal/quota"
)

// crawlHandler implements POST /v1/crawl (spec §6/supplemental):
// discover a site's URLs via crawler.Map, then batch-fetch them through
// the job queue, accepting immediately with 202.
func (s *Server) crawlHandler(c *fiber.Ctx) error {
	var req CrawlRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false, Code: "BAD_REQUEST_INVALID_JSON", Error: "malformed JSON",
		})
	}
	if req.URL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false, Code: "BAD_REQUEST", Error: "url is required",
		})
	}

	if _, ok := s.enforceQuota(c, quota.ClassBasic); !ok {
		return nil
	}

	job := s.queue.CreateJob(model.JobCrawl, req.Webhook, 0)

	mapOpts := s.crawlerDefaults()
	mapOpts.URL = req.URL
	mapOpts.Limit = req.Limit
	if mapOpts.Limit <= 0 {
		mapOpts.Limit = 100
	}
	mapOpts.IncludeSubdomains = req.IncludeSubdomains
	mapOpts.AllowExternal = req.AllowExternal
	mapOpts.RespectRobots = s.cfg.Robots.Respect && !req.IgnoreRobotsTxt
	mapOpts.SitemapMode = crawler.SitemapInclude

	concurrency := req.Concurrency
	if concurrency <= 0 {
		concurrency = 5
	}

	go s.runCrawlJob(job.ID, mapOpts, concurrency)

	return c.Status(fiber.StatusAccepted).JSON(JobAcceptedResponse{Success: true, ID: job.ID})
}

func (s *Server) runCrawlJob(jobID string, mapOpts crawler.MapOptions, concurrency int) {
	running := model.JobRunning
	s.queue.UpdateJob(jobID, jobqueue.Patch{Status: &running})

	results, err := crawler.Crawl(context.Background(), s.queue, jobID, crawler.CrawlOptions{
		Map:         mapOpts,
		Concurrency: concurrency,
	}, func(ctx context.Context, url string) (any, error) {
		return s.orch.Peel(ctx, url, model.Options{})
	})
	if err != nil {
		return
	}

	completed := model.JobCompleted
	s.queue.UpdateJob(jobID, jobqueue.Patch{
		Status: &completed,
		Data:   map[string]any{"results": results},
	})
}
