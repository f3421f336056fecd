package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestBatchScrapeHandler_MissingURLs(t *testing.T) {
	app := fiber.New()
	s := newTestServer()
	app.Post("/v1/batch/scrape", s.batchScrapeHandler)

	req := httptest.NewRequest(http.MethodPost, "/v1/batch/scrape", strings.NewReader(`{"urls":[]}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestBatchScrapeHandler_TooManyURLs(t *testing.T) {
	app := fiber.New()
	s := newTestServer()
	app.Post("/v1/batch/scrape", s.batchScrapeHandler)

	urls := make([]string, maxBatchURLs+1)
	for i := range urls {
		urls[i] = `"https://example.com"`
	}
	body := `{"urls":[` + strings.Join(urls, ",") + `]}`

	req := httptest.NewRequest(http.MethodPost, "/v1/batch/scrape", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestBatchScrapeHandler_MalformedJSON(t *testing.T) {
	app := fiber.New()
	s := newTestServer()
	app.Post("/v1/batch/scrape", s.batchScrapeHandler)

	req := httptest.NewRequest(http.MethodPost, "/v1/batch/scrape", strings.NewReader(`{`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}
