package http

import (
	"github.com/gofiber/fiber/v2"

	"webpeel/internal/store"
)

// createAPIKeyRequest is the admin payload for minting a new key.
type createAPIKeyRequest struct {
	Label              string `json:"label"`
	IsAdmin            bool   `json:"isAdmin,omitempty"`
	RateLimitPerMinute *int32 `json:"rateLimitPerMinute,omitempty"`
}

// createAPIKeyHandler implements POST /admin/api-keys: mints a new
// random API key, returning the raw value exactly once.
func (s *Server) createAPIKeyHandler(c *fiber.Ctx) error {
	var req createAPIKeyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false, Code: "BAD_REQUEST_INVALID_JSON", Error: "malformed JSON",
		})
	}
	if req.Label == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false, Code: "BAD_REQUEST", Error: "label is required",
		})
	}

	rawKey, apiKey, err := s.store.CreateRandomAPIKey(c.Context(), req.Label, req.IsAdmin, req.RateLimitPerMinute)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Success: false, Code: "INTERNAL_ERROR", Error: err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"key":     rawKey,
		"id":      apiKey.ID,
		"label":   apiKey.Label,
		"isAdmin": apiKey.IsAdmin,
	})
}

// deleteAPIKeyHandler implements DELETE /admin/api-keys/:id: revokes a
// key immediately.
func (s *Server) deleteAPIKeyHandler(c *fiber.Ctx) error {
	id := c.Params("id")

	if err := s.store.DeleteAPIKey(c.Context(), id); err != nil {
		if err == store.ErrNotFound {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
				Success: false, Code: "NOT_FOUND", Error: "api key not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Success: false, Code: "INTERNAL_ERROR", Error: err.Error(),
		})
	}

	return c.JSON(fiber.Map{"success": true, "id": id})
}
