package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"webpeel/internal/jobqueue"
	"webpeel/internal/model"
)

func newTestServer() *Server {
	return &Server{queue: jobqueue.New(nil)}
}

func TestGetJobHandler_NotFound(t *testing.T) {
	app := fiber.New()
	s := newTestServer()
	app.Get("/v1/jobs/:id", s.getJobHandler)

	req := httptest.NewRequest(http.MethodGet, "/v1/jobs/does-not-exist", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestGetJobHandler_Found(t *testing.T) {
	app := fiber.New()
	s := newTestServer()
	job := s.queue.CreateJob(model.JobBatch, "", 3)
	app.Get("/v1/jobs/:id", s.getJobHandler)

	req := httptest.NewRequest(http.MethodGet, "/v1/jobs/"+job.ID, nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestCancelJobHandler_NotFound(t *testing.T) {
	app := fiber.New()
	s := newTestServer()
	app.Delete("/v1/jobs/:id", s.cancelJobHandler)

	req := httptest.NewRequest(http.MethodDelete, "/v1/jobs/does-not-exist", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestCancelJobHandler_TerminalJobConflicts(t *testing.T) {
	app := fiber.New()
	s := newTestServer()
	job := s.queue.CreateJob(model.JobBatch, "", 1)
	completed := model.JobCompleted
	if _, err := s.queue.UpdateJob(job.ID, jobqueue.Patch{Status: &completed}); err != nil {
		t.Fatalf("UpdateJob error: %v", err)
	}
	app.Delete("/v1/jobs/:id", s.cancelJobHandler)

	req := httptest.NewRequest(http.MethodDelete, "/v1/jobs/"+job.ID, nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestListJobsHandler_FiltersByType(t *testing.T) {
	app := fiber.New()
	s := newTestServer()
	s.queue.CreateJob(model.JobBatch, "", 1)
	s.queue.CreateJob(model.JobCrawl, "", 1)
	app.Get("/v1/jobs", s.listJobsHandler)

	req := httptest.NewRequest(http.MethodGet, "/v1/jobs?type=crawl", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
