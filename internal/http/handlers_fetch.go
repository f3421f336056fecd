package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"webpeel/internal/peel"
	"webpeel/internal/quota"
)

// fetchHandler implements GET/POST /v1/fetch (spec §6): fetch a single
// URL through the full orchestrator pipeline and return a PeelResult.
func (s *Server) fetchHandler(c *fiber.Ctx) error {
	req, err := parseFetchRequest(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false,
			Code:    "BAD_REQUEST",
			Error:   err.Error(),
		})
	}
	if req.URL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false,
			Code:    "BAD_REQUEST",
			Error:   "url is required",
		})
	}

	class := quota.ClassBasic
	if req.Stealth {
		class = quota.ClassStealth
	}
	if _, ok := s.enforceQuota(c, class); !ok {
		return nil
	}

	result, err := s.orch.Peel(c.Context(), req.URL, req.toOptions())
	if err != nil {
		if err == peel.ErrInvalidURL {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Success: false,
				Code:    "BAD_REQUEST",
				Error:   err.Error(),
			})
		}
		return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{
			Success: false,
			Code:    "FETCH_FAILED",
			Error:   err.Error(),
		})
	}

	return c.JSON(FetchResponse{Success: true, Data: result})
}

func parseFetchRequest(c *fiber.Ctx) (FetchRequest, error) {
	if c.Method() == fiber.MethodPost {
		var req FetchRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return FetchRequest{}, err
			}
		}
		return req, nil
	}

	req := FetchRequest{
		URL:      c.Query("url"),
		Format:   c.Query("format"),
		Render:   c.QueryBool("render"),
		Stealth:  c.QueryBool("stealth"),
		Selector: c.Query("selector"),
	}
	if v := c.Query("maxTokens"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			req.MaxTokens = &n
		}
	}
	if v := c.Query("timeout"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			req.Timeout = n
		}
	}
	return req, nil
}
