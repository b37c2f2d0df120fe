package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/bryanwahyu/saringan/internal/application"
	appai "github.com/bryanwahyu/saringan/internal/application/ai"
	appproducer "github.com/bryanwahyu/saringan/internal/application/producer"
	"github.com/bryanwahyu/saringan/internal/config"
	"github.com/bryanwahyu/saringan/internal/domain/analyst"
	"github.com/bryanwahyu/saringan/internal/domain/jobs"
	"github.com/bryanwahyu/saringan/internal/infra/ai/local"
	"github.com/bryanwahyu/saringan/internal/infra/ai/openai"
	mysqldb "github.com/bryanwahyu/saringan/internal/infra/db/mysql"
	postgresdb "github.com/bryanwahyu/saringan/internal/infra/db/postgres"
	"github.com/bryanwahyu/saringan/internal/infra/httpserver"
	"github.com/bryanwahyu/saringan/internal/infra/queue"
	"github.com/bryanwahyu/saringan/internal/logging"
	"github.com/bryanwahyu/saringan/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logger := logging.Setup("api", cfg.Logging.Level, cfg.Logging.Dir)

	// siapkan direktori pipeline
	if err := cfg.EnsureDirs(); err != nil {
		logger.Fatalf("ensure dirs: %v", err)
	}

	ctx := context.Background()

	// init queue store
	store := queue.NewStore(cfg.QueuePath(), logger)

	// init producer
	producer := &appproducer.Service{
		Queue:     store,
		IntakeDir: cfg.IntakeDir(),
		Clock:     application.SystemClock{},
		Log:       logger,
	}

	checkers := map[string]middleware.HealthChecker{
		"queue": &middleware.QueueHealthChecker{Queue: store},
	}

	deps := httpserver.Deps{
		Queue:    store,
		Producer: producer,
		Checkers: checkers,
		Log:      logger,
	}

	// connect database (opsional)
	var analystRepo analyst.Repository
	switch cfg.Database.Driver {
	case "mysql":
		db, err := mysqldb.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			logger.Fatalf("mysql connect error: %v", err)
		}
		defer db.Close()
		deps.Index = mysqldb.NewReportRepository(db)
		deps.Failures = mysqldb.NewJobErrorRepository(db)
		analystRepo = mysqldb.NewAnalystRepository(db)
		checkers["database"] = &middleware.DatabaseHealthChecker{DB: db}
	case "postgres":
		db, err := postgresdb.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			logger.Fatalf("postgres connect error: %v", err)
		}
		defer db.Close()
		deps.Index = postgresdb.NewReportRepository(db)
		deps.Failures = postgresdb.NewJobErrorRepository(db)
		analystRepo = postgresdb.NewAnalystRepository(db)
		checkers["database"] = &middleware.DatabaseHealthChecker{DB: db}
	case "":
		logger.Info("database disabled, report index routes will answer 503")
	default:
		logger.Fatalf("unsupported database driver: %q", cfg.Database.Driver)
	}

	// init AI service (opsional)
	if cfg.AI.Enabled {
		if cfg.AI.APIKey != "" {
			deps.AI = appai.NewService(openai.NewClient(cfg.AI.APIKey, cfg.AI.Model), analystRepo)
		} else {
			logger.Info("ai.api_key not set, using offline summarizer")
			deps.AI = appai.NewService(local.NewClient(), analystRepo)
		}
	}

	// job gauges untuk /metrics
	deps.QueueStats = func(ctx context.Context) (map[string]int, error) {
		entries, err := store.Load(ctx)
		if err != nil {
			return nil, err
		}
		counts := jobs.CountByStatus(entries)
		out := make(map[string]int, len(counts))
		for status, n := range counts {
			out[string(status)] = n
		}
		return out, nil
	}

	// init router
	mux := chi.NewRouter()
	if len(cfg.Server.CORSOrigins) > 0 {
		mux.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.Server.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			MaxAge:         300,
		}))
	}
	mux.Use(middleware.RequestLogger(logger))
	mux.Use(middleware.MetricsMiddleware)
	if len(cfg.Server.APIKeys) > 0 {
		mux.Use(middleware.APIKeyAuth(cfg.Server.APIKeys))
	}
	mux.Use(middleware.RateLimit(cfg.Server.RateLimit.Capacity, cfg.Server.RateLimit.RefillPerSec))
	mux.Mount("/", httpserver.NewRouter(deps))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		logger.Infof("server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		logger.Warnf("shutdown error: %v", err)
	}
}
