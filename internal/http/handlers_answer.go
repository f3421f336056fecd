package http

import (
	"github.com/gofiber/fiber/v2"

	"webpeel/internal/heuristics"
	"webpeel/internal/model"
	"webpeel/internal/peel"
	"webpeel/internal/quota"
)

// answerHandler implements POST /v1/answer (spec §4.9): fetch a URL and
// return the top BM25-ranked passages answering the given question.
func (s *Server) answerHandler(c *fiber.Ctx) error {
	var req AnswerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false, Code: "BAD_REQUEST_INVALID_JSON", Error: "malformed JSON",
		})
	}
	if req.URL == "" || req.Question == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false, Code: "BAD_REQUEST", Error: "url and question are required",
		})
	}

	if _, ok := s.enforceQuota(c, quota.ClassBasic); !ok {
		return nil
	}

	result, err := s.orch.Peel(c.Context(), req.URL, model.Options{})
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

	answer := heuristics.QuickAnswer(result.Content, req.Question, 3)
	return c.JSON(AnswerResponse{Success: true, Answer: answer})
}

// quickAnswerHandler implements GET /v1/answer/quick, the query-string
// form of answerHandler for cheap one-off lookups.
func (s *Server) quickAnswerHandler(c *fiber.Ctx) error {
	req := AnswerRequest{
		URL:      c.Query("url"),
		Question: c.Query("question"),
	}
	if req.URL == "" || req.Question == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false, Code: "BAD_REQUEST", Error: "url and question are required",
		})
	}

	if _, ok := s.enforceQuota(c, quota.ClassBasic); !ok {
		return nil
	}

	result, err := s.orch.Peel(c.Context(), req.URL, model.Options{})
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

	answer := heuristics.QuickAnswer(result.Content, req.Question, 1)
	return c.JSON(AnswerResponse{Success: true, Answer: answer})
}
