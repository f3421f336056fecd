package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"webpeel/internal/config"
	"webpeel/internal/crawler"
)

func TestMapHandler_MissingURL(t *testing.T) {
	app := fiber.New()
	s := newTestServer()
	s.cfg = &config.Config{}
	app.Post("/v1/map", s.mapHandler)

	req := httptest.NewRequest(http.MethodPost, "/v1/map", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestMapOptionsFromRequest_SitemapModes(t *testing.T) {
	s := &Server{cfg: &config.Config{}}

	cases := []struct {
		sitemap string
		want    crawler.SitemapMode
	}{
		{"only", crawler.SitemapOnly},
		{"skip", crawler.SitemapSkip},
		{"include", crawler.SitemapInclude},
		{"", crawler.SitemapInclude},
	}

	for _, tc := range cases {
		opts := s.mapOptionsFromRequest(MapRequest{URL: "https://example.com", Sitemap: tc.sitemap})
		if opts.SitemapMode != tc.want {
			t.Errorf("sitemap=%q: got mode %v, want %v", tc.sitemap, opts.SitemapMode, tc.want)
		}
	}
}

func TestMapOptionsFromRequest_LimitOverride(t *testing.T) {
	s := &Server{cfg: &config.Config{}}
	opts := s.mapOptionsFromRequest(MapRequest{URL: "https://example.com", Limit: 50})
	if opts.Limit != 50 {
		t.Errorf("expected limit 50, got %d", opts.Limit)
	}

	opts = s.mapOptionsFromRequest(MapRequest{URL: "https://example.com"})
	if opts.Limit != 0 {
		t.Errorf("expected default limit 0 (crawlerDefaults leaves it unset), got %d", opts.Limit)
	}
}
