package http

import (
	"github.com/gofiber/fiber/v2"

	"webpeel/internal/store"
)

// createWatchHandler implements POST /v1/watch (spec §4.12): registers
// a persistent watch owned by the authenticated API key.
func (s *Server) createWatchHandler(c *fiber.Ctx) error {
	var req WatchRequest
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

	apiKey, ok := apiKeyFromCtx(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Success: false, Code: "UNAUTHORIZED", Error: "missing API key",
		})
	}

	interval := req.CheckIntervalMinutes
	if interval <= 0 {
		interval = 15
	}

	w, err := s.store.CreateWatch(c.Context(), apiKey.ID, req.URL, req.WebhookURL, req.Selector, int32(interval))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Success: false, Code: "INTERNAL_ERROR", Error: err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(WatchResponse{Success: true, Data: w})
}

// listWatchesHandler implements GET /v1/watch, listing the
// authenticated API key's watches.
func (s *Server) listWatchesHandler(c *fiber.Ctx) error {
	apiKey, ok := apiKeyFromCtx(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Success: false, Code: "UNAUTHORIZED", Error: "missing API key",
		})
	}

	watches, err := s.store.ListWatchesByAccount(c.Context(), apiKey.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Success: false, Code: "INTERNAL_ERROR", Error: err.Error(),
		})
	}

	return c.JSON(WatchListResponse{Success: true, Data: watches})
}

// deleteWatchHandler implements DELETE /v1/watch/:id.
func (s *Server) deleteWatchHandler(c *fiber.Ctx) error {
	id := c.Params("id")

	if err := s.store.DeleteWatch(c.Context(), id); err != nil {
		if err == store.ErrNotFound {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
				Success: false, Code: "NOT_FOUND", Error: "watch not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Success: false, Code: "INTERNAL_ERROR", Error: err.Error(),
		})
	}

	return c.JSON(fiber.Map{"success": true, "id": id})
}
