// Command webpeel-api runs the WebPeel REST server: it loads config,
// runs Postgres migrations, wires the orchestrator/job-queue/quota/watch
// stack, and serves the spec §6 HTTP surface. The composition style
// (load config, migrate, open a pooled *sql.DB, hand dependencies to
// server.NewServer) is grounded on ncecere-raito's cmd/raito-api/main.go.
package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"webpeel/internal/config"
	server "webpeel/internal/http"
	"webpeel/internal/jobqueue"
	"webpeel/internal/migrate"
	"webpeel/internal/model"
	"webpeel/internal/quota"
	"webpeel/internal/store"
	"webpeel/internal/watch"
	"webpeel/internal/wiring"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	cfg := config.Load(*configPath)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	if err := migrate.Run(cfg.Database.DSN); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	db, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		log.Fatalf("open db failed: %v", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	st := store.New(db)

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Auth.InitialAdminKey != "" {
		if _, err := st.EnsureAdminAPIKey(rootCtx, cfg.Auth.InitialAdminKey, "initial-admin"); err != nil {
			log.Fatalf("ensure admin api key failed: %v", err)
		}
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{}))

	orch, err := wiring.BuildOrchestrator(cfg)
	if err != nil {
		log.Fatalf("build orchestrator failed: %v", err)
	}

	webhookLog := logrus.StandardLogger()
	notifier := jobqueue.NewWebhook(cfg.Webhook.Secret, webhookLog)
	queue := jobqueue.New(notifier)

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.URL})
	quotaEngine := quota.NewEngine(quota.NewRedisStore(rdb))

	watchPeel := func(ctx context.Context, url, selector string) (string, string, error) {
		result, err := orch.Peel(ctx, url, model.Options{Selector: selector})
		if err != nil {
			return "", "", err
		}
		return result.Content, result.Fingerprint, nil
	}
	watchManager := watch.NewManager(st, watchPeel, notifier, webhookLog)
	go watchManager.Start(rootCtx)

	srv := server.NewServer(server.Deps{
		Config: cfg,
		Store:  st,
		Orch:   orch,
		Queue:  queue,
		Quota:  quotaEngine,
		Watch:  watchManager,
		Logger: logger,
		Redis:  rdb,
	})
	go srv.RunRetentionLoop(rootCtx)

	if err := srv.Listen(); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
