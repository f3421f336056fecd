package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"webpeel/internal/jobqueue"
	"webpeel/internal/model"
	"webpeel/internal/quota"
)

const maxBatchURLs = 1000

// batchScrapeHandler implements POST /v1/batch/scrape (spec §6): accepts
// up to 1000 URLs, creates a jobqueue job, and runs RunBatch in the
// background with a bounded worker pool, returning 202 immediately.
func (s *Server) batchScrapeHandler(c *fiber.Ctx) error {
	var req BatchScrapeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false, Code: "BAD_REQUEST_INVALID_JSON", Error: "malformed JSON",
		})
	}
	if len(req.URLs) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false, Code: "BAD_REQUEST", Error: "missing required field 'urls'",
		})
	}
	if len(req.URLs) > maxBatchURLs {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false, Code: "BAD_REQUEST", Error: "too many urls; maximum is 1000",
		})
	}

	if _, ok := s.enforceQuota(c, quota.ClassBasic); !ok {
		return nil
	}

	job := s.queue.CreateJob(model.JobBatch, req.Webhook, len(req.URLs))

	opts := model.Options{Extract: req.Extract}
	if req.Format != "" {
		opts.Format = model.Format(req.Format)
	}

	go s.runBatchJob(job.ID, req.URLs, opts)

	return c.Status(fiber.StatusAccepted).JSON(JobAcceptedResponse{Success: true, ID: job.ID})
}

// runBatchJob drives one batch job to completion, per spec §4.11's
// 120s batch budget.
func (s *Server) runBatchJob(jobID string, urls []string, opts model.Options) {
	running := model.JobRunning
	s.queue.UpdateJob(jobID, jobqueue.Patch{Status: &running})

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	results := s.queue.RunBatch(ctx, jobID, urls, 5, func(ctx context.Context, url string) (any, error) {
		return s.orch.Peel(ctx, url, opts)
	})

	completed := model.JobCompleted
	s.queue.UpdateJob(jobID, jobqueue.Patch{
		Status: &completed,
		Data:   map[string]any{"results": results},
	})
}

// batchScrapeStatusHandler implements GET /v1/batch/scrape/:id.
func (s *Server) batchScrapeStatusHandler(c *fiber.Ctx) error {
	return s.getJobHandler(c)
}

// batchScrapeCancelHandler implements DELETE /v1/batch/scrape/:id.
func (s *Server) batchScrapeCancelHandler(c *fiber.Ctx) error {
	return s.cancelJobHandler(c)
}
