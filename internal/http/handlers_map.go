package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"webpeel/internal/crawler"
	"webpeel/internal/quota"
)

// mapHandler implements POST /v1/map (spec §6/supplemental): discover
// URLs under a site without fetching their content.
func (s *Server) mapHandler(c *fiber.Ctx) error {
	var req MapRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(MapResponse{
			Success: false, Code: "BAD_REQUEST_INVALID_JSON", Error: "malformed JSON",
		})
	}
	if req.URL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(MapResponse{
			Success: false, Code: "BAD_REQUEST", Error: "url is required",
		})
	}

	if _, ok := s.enforceQuota(c, quota.ClassBasic); !ok {
		return nil
	}

	opts := s.mapOptionsFromRequest(req)

	result, err := crawler.Map(c.Context(), opts)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(MapResponse{
			Success: false, Code: "MAP_FAILED", Error: err.Error(),
		})
	}

	links := make([]MapLinkEntry, 0, len(result.Links))
	for _, l := range result.Links {
		links = append(links, MapLinkEntry{URL: l.URL, Title: l.Title})
	}

	return c.JSON(MapResponse{Success: true, Links: links, Warning: result.Warning})
}

func (s *Server) mapOptionsFromRequest(req MapRequest) crawler.MapOptions {
	opts := s.crawlerDefaults()
	opts.URL = req.URL
	if req.Limit > 0 {
		opts.Limit = req.Limit
	}
	opts.Search = req.Search
	opts.IncludeSubdomains = req.IncludeSubdomains
	opts.IgnoreQueryParams = req.IgnoreQueryParams
	opts.AllowExternal = req.AllowExternal
	switch req.Sitemap {
	case "only":
		opts.SitemapMode = crawler.SitemapOnly
	case "skip":
		opts.SitemapMode = crawler.SitemapSkip
	case "include", "":
		opts.SitemapMode = crawler.SitemapInclude
	}
	if opts.Timeout == 0 {
		opts.Timeout = 15 * time.Second
	}
	return opts
}
