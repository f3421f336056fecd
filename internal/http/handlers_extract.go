package http

import (
	"github.com/gofiber/fiber/v2"

	"webpeel/internal/model"
	"webpeel/internal/peel"
	"webpeel/internal/quota"
)

// extractHandler implements POST /v1/extract: fetch the URL and run the
// structured-extraction step (§4.13 step 9), returning only the
// extracted fields plus light metadata. Per-request llmApiKey/model
// overrides aren't wired — the server's configured LLM provider (or the
// heuristic fallback) always serves the request, the same way the
// orchestrator's Extract option works for /v1/fetch.
func (s *Server) extractHandler(c *fiber.Ctx) error {
	var req ExtractRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false, Code: "BAD_REQUEST", Error: err.Error(),
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

	opts := model.Options{
		Extract: &model.ExtractOptions{Schema: req.Schema, Prompt: req.Prompt},
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

	return c.JSON(ExtractResponse{
		Success: true,
		Data:    result.Extracted,
		Meta: map[string]any{
			"url":    result.URL,
			"title":  result.Title,
			"tokens": result.Tokens,
		},
	})
}
