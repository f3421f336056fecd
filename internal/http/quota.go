package http

import (
	"github.com/gofiber/fiber/v2"

	"webpeel/internal/quota"
)

// limitsFor builds the quota.Limits the engine checks against. WebPeel's
// API keys don't carry per-key weekly/burst overrides (spec §9 dropped
// the multi-tenant plan surface along with auth), so every key shares
// the configured defaults — per-key overrides would be a straightforward
// follow-up if a plans table is ever added.
func (s *Server) limitsFor() quota.Limits {
	return quota.Limits{
		WeeklyLimit:       s.cfg.Quota.DefaultWeeklyLimit,
		BurstLimit:        s.cfg.Quota.DefaultBurstLimit,
		ExtraUsageEnabled: s.cfg.Quota.ExtraUsageEnabled,
		Balance:           s.cfg.Quota.DefaultSpendLimit,
		SpendingLimit:     s.cfg.Quota.DefaultSpendLimit,
	}
}

// enforceQuota runs the quota.Engine check for the authenticated API key
// and class, writing a 429 response (burst hard-block) or a 500 (check
// error) and returning ok=false when the request should not proceed.
func (s *Server) enforceQuota(c *fiber.Ctx, class quota.Class) (quota.Decision, bool) {
	if s.quota == nil {
		return quota.Decision{Allowed: true}, true
	}

	apiKey, ok := apiKeyFromCtx(c)
	if !ok {
		return quota.Decision{Allowed: true}, true
	}

	decision, err := s.quota.Check(c.Context(), apiKey.ID, class, s.limitsFor(), timeNowFunc())
	if err != nil {
		c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Success: false,
			Code:    "INTERNAL_ERROR",
			Error:   "quota check failed: " + err.Error(),
		})
		return decision, false
	}

	if decision.HardBlocked {
		c.Status(fiber.StatusTooManyRequests).JSON(ErrorResponse{
			Success: false,
			Code:    "QUOTA_EXCEEDED",
			Error:   "hourly burst limit exceeded",
		})
		return decision, false
	}

	return decision, true
}
