package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestCreateWatchHandler_MissingURL(t *testing.T) {
	app := fiber.New()
	s := newTestServer()
	app.Post("/v1/watch", s.createWatchHandler)

	req := httptest.NewRequest(http.MethodPost, "/v1/watch", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestCreateWatchHandler_Unauthenticated(t *testing.T) {
	app := fiber.New()
	s := newTestServer()
	app.Post("/v1/watch", s.createWatchHandler)

	req := httptest.NewRequest(http.MethodPost, "/v1/watch", strings.NewReader(`{"url":"https://example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestListWatchesHandler_Unauthenticated(t *testing.T) {
	app := fiber.New()
	s := newTestServer()
	app.Get("/v1/watch", s.listWatchesHandler)

	req := httptest.NewRequest(http.MethodGet, "/v1/watch", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}
