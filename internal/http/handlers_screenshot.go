package http

import (
	"github.com/gofiber/fiber/v2"

	"webpeel/internal/model"
	"webpeel/internal/peel"
	"webpeel/internal/quota"
)

// screenshotHandler implements POST /v1/screenshot: render the page and
// return its base64 screenshot, forcing render+screenshot regardless of
// what the caller set.
func (s *Server) screenshotHandler(c *fiber.Ctx) error {
	var req ScreenshotRequest
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

	if _, ok := s.enforceQuota(c, quota.ClassStealth); !ok {
		return nil
	}

	opts := model.Options{
		Render:             true,
		Screenshot:         true,
		ScreenshotFullPage: req.FullPage,
	}

	result, err := s.orch.Peel(c.Context(), req.URL, opts)
	if err != nil {
		if err == peel.ErrInvalidURL {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Success: false, Code: "BAD_REQUEST", Error: err.Error(),
			})
		}
		return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{
			Success: false, Code: "FETCH_FAILED", Error: err.Error(),
		})
	}

	return c.JSON(ScreenshotResponse{Success: true, Screenshot: result.Screenshot})
}

// screenshotDesignAnalysisHandler implements POST
// /v1/screenshot/design-analysis: render the page, capture a
// screenshot, and run the configured extractor over the page content
// with a design-analysis prompt. No vision-capable client is wired
// (llmx's three providers send text-only requests), so analysis runs over the extracted text content rather than
// the image itself; the screenshot is still returned alongside it.
func (s *Server) screenshotDesignAnalysisHandler(c *fiber.Ctx) error {
	var req ScreenshotRequest
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

	if _, ok := s.enforceQuota(c, quota.ClassStealth); !ok {
		return nil
	}

	opts := model.Options{
		Render:             true,
		Screenshot:         true,
		ScreenshotFullPage: req.FullPage,
		Extract: &model.ExtractOptions{
			Prompt: "Describe the page's visual layout, color palette, typography, and overall design quality.",
		},
	}

	result, err := s.orch.Peel(c.Context(), req.URL, opts)
	if err != nil {
		if err == peel.ErrInvalidURL {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Success: false, Code: "BAD_REQUEST", Error: err.Error(),
			})
		}
		return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{
			Success: false, Code: "FETCH_FAILED", Error: err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"screenshot": result.Screenshot,
		"analysis":   result.Extracted,
	})
}
