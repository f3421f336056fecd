// Package http wires WebPeel's REST surface (spec §6) on top of Fiber,
// matching ncecere-raito's router/middleware/handler split
// (internal/http): a Server holds the shared dependencies, a logging
// and metrics-free request middleware attaches a request ID and logs
// via log/slog, and route groups apply auth + rate limiting.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"webpeel/internal/config"
	"webpeel/internal/crawler"
	"webpeel/internal/jobqueue"
	"webpeel/internal/peel"
	"webpeel/internal/quota"
	"webpeel/internal/store"
	"webpeel/internal/watch"
)

var startedAt = timeNowFunc()

// timeNowFunc exists only so tests could override it if ever needed;
// production always calls time.Now.
var timeNowFunc = time.Now

// Server bundles the dependencies every handler needs.
type Server struct {
	app    *fiber.App
	cfg    *config.Config
	store  *store.Store
	orch   *peel.Orchestrator
	queue  *jobqueue.Queue
	quota  *quota.Engine
	watch  *watch.Manager
	logger *slog.Logger
}

// Deps bundles the already-constructed domain objects main() wires up
// (orchestrator, job queue, quota engine, watch manager) so NewServer
// stays a pure composition step.
type Deps struct {
	Config *config.Config
	Store  *store.Store
	Orch   *peel.Orchestrator
	Queue  *jobqueue.Queue
	Quota  *quota.Engine
	Watch  *watch.Manager
	Logger *slog.Logger
	Redis  *redis.Client
}

func NewServer(d Deps) *Server {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	s := &Server{
		app:    app,
		cfg:    d.Config,
		store:  d.Store,
		orch:   d.Orch,
		queue:  d.Queue,
		quota:  d.Quota,
		watch:  d.Watch,
		logger: d.Logger,
	}

	app.Use(func(c *fiber.Ctx) error {
		start := time.Now()

		reqID := c.Get("X-Request-Id")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Locals("request_id", reqID)
		c.Set("X-Request-Id", reqID)

		err := c.Next()

		if s.logger != nil {
			s.logger.Info("request",
				"request_id", reqID,
				"method", c.Method(),
				"path", c.Path(),
				"status", c.Response().StatusCode(),
				"latency_ms", time.Since(start).Milliseconds(),
			)
		}
		return err
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(HealthResponse{
			Status:    "ok",
			Version:   "1.0.0",
			Uptime:    time.Since(startedAt).String(),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	})
	app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.SendString(openapiSpec)
	})

	authMw := authMiddleware(d.Store)
	rateMw := rateLimitMiddleware(d.Config, d.Redis)

	v1 := app.Group("/v1", authMw, rateMw)
	s.registerV1Routes(v1)

	admin := app.Group("/admin", authMw, adminOnlyMiddleware)
	s.registerAdminRoutes(admin)

	return s
}

func (s *Server) registerV1Routes(group fiber.Router) {
	group.Get("/fetch", s.fetchHandler)
	group.Post("/fetch", s.fetchHandler)
	group.Get("/search", s.searchHandler)
	group.Post("/extract", s.extractHandler)
	group.Post("/batch/scrape", s.batchScrapeHandler)
	group.Get("/batch/scrape/:id", s.batchScrapeStatusHandler)
	group.Delete("/batch/scrape/:id", s.batchScrapeCancelHandler)
	group.Post("/answer", s.answerHandler)
	group.Get("/answer/quick", s.quickAnswerHandler)
	group.Post("/screenshot", s.screenshotHandler)
	group.Post("/screenshot/design-analysis", s.screenshotDesignAnalysisHandler)
	group.Post("/watch", s.createWatchHandler)
	group.Get("/watch", s.listWatchesHandler)
	group.Delete("/watch/:id", s.deleteWatchHandler)
	group.Get("/jobs/:id", s.getJobHandler)
	group.Delete("/jobs/:id", s.cancelJobHandler)
	group.Get("/jobs", s.listJobsHandler)
	group.Post("/map", s.mapHandler)
	group.Post("/crawl", s.crawlHandler)
	group.Get("/crawl/:id", s.getJobHandler)
}

func (s *Server) registerAdminRoutes(group fiber.Router) {
	group.Post("/api-keys", s.createAPIKeyHandler)
	group.Delete("/api-keys/:id", s.deleteAPIKeyHandler)
}

func (s *Server) Listen() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// crawlerDefaults is a convenience constructor shared by the map and
// crawl handlers, applying config defaults for unset fields.
func (s *Server) crawlerDefaults() crawler.MapOptions {
	return crawler.MapOptions{
		RespectRobots: s.cfg.Robots.Respect,
		UserAgent:     s.cfg.Scraper.UserAgent,
		Timeout:       s.cfg.ScraperTimeout(),
	}
}
