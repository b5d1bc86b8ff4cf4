package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/dentalstack/intake-platform/cmd/mainconfig"
	"github.com/dentalstack/intake-platform/internal/api/router"
	"github.com/dentalstack/intake-platform/internal/appointments"
	"github.com/dentalstack/intake-platform/internal/assist"
	appconfig "github.com/dentalstack/intake-platform/internal/config"
	"github.com/dentalstack/intake-platform/internal/dentists"
	"github.com/dentalstack/intake-platform/internal/intake"
	"github.com/dentalstack/intake-platform/internal/notify"
	"github.com/dentalstack/intake-platform/internal/observability/metrics"
	"github.com/dentalstack/intake-platform/pkg/logging"
)

func main() {
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting intake-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	// Session and roster storage. Without a database URL the server runs
	// fully in memory, which is enough for local development.
	var (
		sessionStore intake.SessionStore
		roster       dentists.Repository
		summaryDB    *sql.DB
	)
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to create pgx pool", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		sessionStore = intake.NewPostgresSessionStore(pool)
		roster = dentists.NewPostgresRepository(pool)

		summaryDB, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to open appointments db", "error", err)
			os.Exit(1)
		}
		defer func() { _ = summaryDB.Close() }()
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory stores")
		sessionStore = intake.NewInMemorySessionStore()
		roster = dentists.NewInMemoryRepository()
	}

	if cfg.RedisAddr != "" && !cfg.SessionCacheSkip {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		rdb := redis.NewClient(opts)
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unavailable, session cache disabled", "error", err)
		} else {
			sessionStore = intake.NewCachedSessionStore(sessionStore, rdb, cfg.SessionCacheTTL, logger.Component("session-cache"))
		}
	}

	llm, model, err := buildLLMClient(ctx, cfg, awsCfg, logger)
	if err != nil {
		logger.Error("failed to configure AI backend", "error", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	intakeMetrics := metrics.NewIntakeMetrics(registry)

	svcCfg := intake.Config{
		Store:      sessionStore,
		Roster:     roster,
		Classifier: assist.NewLLMClassifier(llm, model, logger.Component("classifier")),
		Matcher:    assist.NewLLMMatcher(llm, model, logger.Component("matcher")),
		Summarizer: assist.NewLLMSummarizer(llm, model, logger.Component("summarizer")),
		Metrics:    intakeMetrics,
		Logger:     logger.Component("intake"),
	}
	if summaryDB != nil {
		svcCfg.Appointments = appointments.NewRepository(summaryDB)
	}
	if sender := buildEmailSender(cfg, awsCfg, logger); sender != nil {
		svcCfg.Notifier = notify.NewService(sender, logger.Component("notify"))
	}
	service := intake.NewService(svcCfg)

	r := router.New(&router.Config{
		Logger:             logger,
		IntakeHandler:      intake.NewHandler(service, logger.Component("intake-http")),
		AdminAuthSecret:    cfg.AdminJWTSecret,
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitPerSecond: cfg.RateLimitPerSecond,
		RateLimitBurst:     cfg.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
