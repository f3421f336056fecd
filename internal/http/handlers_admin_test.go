package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestCreateAPIKeyHandler_MissingLabel(t *testing.T) {
	app := fiber.New()
	s := newTestServer()
	app.Post("/admin/api-keys", s.createAPIKeyHandler)

	req := httptest.NewRequest(http.MethodPost, "/admin/api-keys", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestCreateAPIKeyHandler_MalformedJSON(t *testing.T) {
	app := fiber.New()
	s := newTestServer()
	app.Post("/admin/api-keys", s.createAPIKeyHandler)

	req := httptest.NewRequest(http.MethodPost, "/admin/api-keys", strings.NewReader(`{`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}
