package http

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"webpeel/internal/config"
	"webpeel/internal/model"
	"webpeel/internal/store"
)

// authMiddleware validates the Authorization: Bearer wp_... API key
// against the store and attaches the resolved model.APIKey to the
// request context, the way ncecere-raito's authMiddleware attaches a
// Principal — WebPeel has no session/OIDC surface, so the API key is
// the only principal.
func authMiddleware(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rawAuth := c.Get("Authorization")
		if !strings.HasPrefix(rawAuth, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Success: false,
				Code:    "UNAUTHENTICATED",
				Error:   "missing Authorization: Bearer <api key> header",
			})
		}
		token := strings.TrimSpace(strings.TrimPrefix(rawAuth, "Bearer "))
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Success: false,
				Code:    "UNAUTHENTICATED",
				Error:   "empty API key",
			})
		}

		apiKey, err := st.GetAPIKeyByRawKey(c.Context(), token)
		if err != nil {
			if err == store.ErrNotFound {
				return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
					Success: false,
					Code:    "UNAUTHENTICATED",
					Error:   "invalid or revoked API key",
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
				Success: false,
				Code:    "INTERNAL_ERROR",
				Error:   fmt.Sprintf("API key lookup failed: %v", err),
			})
		}

		c.Locals("apiKey", apiKey)
		return c.Next()
	}
}

// apiKeyFromCtx reads the API key attached by authMiddleware.
func apiKeyFromCtx(c *fiber.Ctx) (model.APIKey, bool) {
	v := c.Locals("apiKey")
	key, ok := v.(model.APIKey)
	return key, ok
}

// rateLimitMiddleware enforces a per-minute fixed-window limit per API
// key using Redis, matching ncecere-raito's rateLimitMiddleware
// (INCR the minute-bucket key, set a 1-minute TTL on the first hit).
// This is distinct from the weekly/hourly quota.Engine check the fetch
// and extract handlers run separately — this one is a cheap abuse
// guard, quota.Engine is the billing-aware gate of spec §4.10.
func rateLimitMiddleware(cfg *config.Config, rdb *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if rdb == nil {
			return c.Next()
		}

		apiKey, ok := apiKeyFromCtx(c)
		if !ok {
			return c.Next()
		}

		limit := 60
		if apiKey.RateLimitPerMinute != nil && *apiKey.RateLimitPerMinute > 0 {
			limit = int(*apiKey.RateLimitPerMinute)
		}

		now := time.Now().UTC()
		window := now.Format("200601021504")
		key := fmt.Sprintf("webpeel:rl:%s:%s", apiKey.ID, window)

		ctx := c.Context()
		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
				Success: false,
				Code:    "INTERNAL_ERROR",
				Error:   fmt.Sprintf("rate limit increment failed: %v", err),
			})
		}
		if count == 1 {
			_ = rdb.Expire(ctx, key, time.Minute)
		}

		if count > int64(limit) {
			return c.Status(fiber.StatusTooManyRequests).JSON(ErrorResponse{
				Success: false,
				Code:    "RATE_LIMIT_EXCEEDED",
				Error:   "rate limit exceeded, try again later",
			})
		}

		return c.Next()
	}
}

// adminOnlyMiddleware requires the authenticated API key to carry the
// admin bit, per spec §9's API-key model.
func adminOnlyMiddleware(c *fiber.Ctx) error {
	apiKey, ok := apiKeyFromCtx(c)
	if !ok || !apiKey.IsAdmin {
		return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{
			Success: false,
			Code:    "FORBIDDEN",
			Error:   "admin privileges required",
		})
	}
	return c.Next()
}
