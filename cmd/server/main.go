package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/linkcut/linkcut/config"
	appcache "github.com/linkcut/linkcut/internal/app/cache"
	appmodel "github.com/linkcut/linkcut/internal/app/model"
	apprepository "github.com/linkcut/linkcut/internal/app/repository"
	appserver "github.com/linkcut/linkcut/internal/app/server"
	appservice "github.com/linkcut/linkcut/internal/app/service"
	"github.com/linkcut/linkcut/internal/infra/logger"
	"github.com/linkcut/linkcut/internal/infra/metrics"
	infraNATS "github.com/linkcut/linkcut/internal/infra/nats"
	infraPostgres "github.com/linkcut/linkcut/internal/infra/postgres"
	infraRedis "github.com/linkcut/linkcut/internal/infra/redis"
	"github.com/linkcut/linkcut/internal/shortener"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	isDev := os.Getenv("APP_ENV") != "production"
	log := logger.MustInit(logger.Config{
		Development: isDev,
		Level:       os.Getenv("LOG_LEVEL"),
	})
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	log.Info("Configuration loaded successfully",
		zap.String("base_url", cfg.App.BaseURL),
		zap.Int("code_length", cfg.ShortCode.Length),
		zap.Int("cache_ttl_seconds", cfg.ShortCode.CacheTTLSeconds),
		zap.String("postgres_host", cfg.Postgres.Host),
		zap.Int("postgres_port", cfg.Postgres.Port),
		zap.String("redis_host", cfg.Redis.Host),
		zap.String("nats_host", cfg.NATS.Host),
	)

	gormDB, err := infraPostgres.NewGorm(cfg.Postgres)
	if err != nil {
		log.Fatal("Failed to open GORM connection", zap.Error(err))
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatal("Failed to access underlying SQL DB", zap.Error(err))
	}
	defer sqlDB.Close()

	if err := infraPostgres.AutoMigrate(ctx, gormDB, &appmodel.Link{}, &appmodel.ClickEvent{}); err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}

	pool, err := infraPostgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal("Failed to connect to Postgres", zap.Error(err))
	}
	defer pool.Close()
	log.Info("Connected to Postgres successfully")

	redisClient, err := infraRedis.NewClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	log.Info("Connected to Redis successfully")

	natsConn, js, err := infraNATS.Connect(cfg.NATS)
	if err != nil {
		log.Fatal("Failed to connect to NATS", zap.Error(err))
	}
	defer natsConn.Drain()
	log.Info("Connected to NATS successfully")

	if !isDev {
		promServer := metrics.NewServer(cfg.Prometheus)
		go func() {
			log.Info("Starting Prometheus metrics server",
				zap.Int("port", cfg.Prometheus.Port))
			if err := promServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Prometheus metrics server stopped unexpectedly", zap.Error(err))
			}
		}()
		defer func() {
			if err := promServer.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn("Failed to close Prometheus server", zap.Error(err))
			}
		}()
	} else {
		log.Info("Skipping Prometheus metrics server in development mode")
	}

	linkRepo := apprepository.NewLinkRepository(gormDB)
	clickRepo := apprepository.NewClickEventRepository(pool)
	resolutionCache := appcache.NewRedisCache(redisClient, log)
	generator := shortener.NewGenerator(cfg.ShortCode.Alphabet, cfg.ShortCode.Length)

	shortenerSvc := appservice.NewShortenerService(appservice.Deps{
		Logger:    log,
		Links:     linkRepo,
		Cache:     resolutionCache,
		Generator: generator,
		BaseURL:   cfg.App.BaseURL,
		CacheTTL:  time.Duration(cfg.ShortCode.CacheTTLSeconds) * time.Second,
	})

	if err := shortenerSvc.WarmCodeFilter(ctx); err != nil {
		// The filter only short-circuits existence checks; the unique
		// index still protects correctness, so boot continues.
		log.Warn("Failed to warm code filter", zap.Error(err))
	}

	clickConsumer := appservice.NewClickConsumer(js, log, linkRepo, clickRepo)
	if err := clickConsumer.Start(); err != nil {
		log.Fatal("Failed to start click consumer", zap.Error(err))
	}
	defer clickConsumer.Stop()

	server := appserver.New(appserver.Dependencies{
		Logger:         log,
		Cache:          resolutionCache,
		Shortener:      shortenerSvc,
		Clicks:         clickRepo,
		ClickPublisher: appservice.NewClickPublisher(js),
		RateLimit:      cfg.RateLimit,
	})

	if err := server.Listen(fmt.Sprintf(":%d", cfg.App.Port)); err != nil {
		log.Fatal("Fiber server exited", zap.Error(err))
	}
}
