package http

import (
	"github.com/gofiber/fiber/v2"

	"webpeel/internal/jobqueue"
	"webpeel/internal/model"
)

// getJobHandler implements GET /v1/jobs/:id and the batch/crawl status
// aliases, returning the current lifecycle snapshot of an async job
// (§4.11).
func (s *Server) getJobHandler(c *fiber.Ctx) error {
	id := c.Params("id")
	job, err := s.queue.GetJob(id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Success: false, Code: "JOB_NOT_FOUND", Error: "job not found",
		})
	}

	return c.JSON(JobStatusResponse{
		Success:     true,
		ID:          job.ID,
		Status:      string(job.Status),
		Total:       job.Total,
		Completed:   job.Completed,
		CreditsUsed: job.CreditsUsed,
		Data:        job.Data,
		Error:       job.Error,
	})
}

// cancelJobHandler implements DELETE /v1/jobs/:id, cancelling a pending
// or running job; terminal jobs return 409.
func (s *Server) cancelJobHandler(c *fiber.Ctx) error {
	id := c.Params("id")
	ok, err := s.queue.CancelJob(id)
	if err != nil {
		if err == jobqueue.ErrJobNotFound {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
				Success: false, Code: "JOB_NOT_FOUND", Error: "job not found",
			})
		}
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{
			Success: false, Code: "JOB_NOT_CANCELLABLE", Error: err.Error(),
		})
	}
	if !ok {
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{
			Success: false, Code: "JOB_NOT_CANCELLABLE", Error: "job is not pending or running",
		})
	}

	return c.JSON(fiber.Map{"success": true, "id": id, "status": "cancelled"})
}

// listJobsHandler implements GET /v1/jobs, optionally filtered by
// ?type= and ?status=.
func (s *Server) listJobsHandler(c *fiber.Ctx) error {
	filter := jobqueue.Filter{
		Type:   model.JobType(c.Query("type")),
		Status: model.JobStatus(c.Query("status")),
	}

	jobs := s.queue.ListJobs(filter)
	out := make([]JobStatusResponse, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, JobStatusResponse{
			Success:     true,
			ID:          job.ID,
			Status:      string(job.Status),
			Total:       job.Total,
			Completed:   job.Completed,
			CreditsUsed: job.CreditsUsed,
			Data:        job.Data,
			Error:       job.Error,
		})
	}

	return c.JSON(fiber.Map{"success": true, "jobs": out})
}
