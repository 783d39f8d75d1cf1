package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/tesseract-hub/sales-analytics-service/internal/auth"
	"github.com/tesseract-hub/sales-analytics-service/internal/changefeed"
	"github.com/tesseract-hub/sales-analytics-service/internal/config"
	"github.com/tesseract-hub/sales-analytics-service/internal/database"
	"github.com/tesseract-hub/sales-analytics-service/internal/events"
	"github.com/tesseract-hub/sales-analytics-service/internal/handlers"
	"github.com/tesseract-hub/sales-analytics-service/internal/metrics"
	"github.com/tesseract-hub/sales-analytics-service/internal/middleware"
	"github.com/tesseract-hub/sales-analytics-service/internal/realtime"
	"github.com/tesseract-hub/sales-analytics-service/internal/repository"
	"github.com/tesseract-hub/sales-analytics-service/internal/scheduler"
	"github.com/tesseract-hub/sales-analytics-service/internal/services"
)

func main() {
	// Load .env file if present
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	logger := logrus.New()
	if cfg.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{})
	}

	switch cfg.LogLevel {
	case "debug":
		logger.SetLevel(logrus.DebugLevel)
	case "warn":
		logger.SetLevel(logrus.WarnLevel)
	case "error":
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}

	logger.Info("Starting Sales Analytics Service...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := config.InitDB(cfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	logger.Info("Connected to database")

	dbConfig := database.DefaultConfig()
	dbConfig.ChangeFeedEnabled = cfg.ChangeFeedEnabled
	dbManager := database.NewManager(db, dbConfig, logger)
	if err := dbManager.Initialize(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// Redis backs the rate limiter when configured
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.WithError(err).Fatal("Invalid REDIS_URL")
		}
		redisClient = redis.NewClient(opts)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			logger.WithError(err).Warn("Redis unreachable, rate limiting falls back to local counters")
		}
		cancel()
	}

	publisher, err := events.NewPublisher(cfg.NATSURL, logger)
	if err != nil {
		logger.WithError(err).Warn("Failed to initialize events publisher (events won't be published)")
		publisher = nil
	}

	hub := realtime.NewHub(logger, m)
	authenticator := auth.NewTokenAuthenticator(cfg.JWTSecret)

	// Repositories, services and handlers
	analyticsRepo := repository.NewAnalyticsRepository(db)
	reportRepo := repository.NewReportRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	productRepo := repository.NewProductRepository(db)
	saleRepo := repository.NewSaleRepository(db)

	analyticsService := services.NewAnalyticsService(analyticsRepo, reportRepo, hub, publisher, cfg.CacheFreshness, m, logger)
	salesService := services.NewSalesService(saleRepo, customerRepo, productRepo, hub, publisher, logger)
	catalogService := services.NewCatalogService(customerRepo, productRepo, hub, logger)

	rateLimiter := middleware.NewRateLimiter(redisClient, cfg.RateLimitMax, cfg.RateLimitWindow, m, logger)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := handlers.SetupRouter(handlers.RouterConfig{
		Analytics:   handlers.NewAnalyticsHandlers(analyticsService, logger),
		Sales:       handlers.NewSalesHandlers(salesService, logger),
		Catalog:     handlers.NewCatalogHandlers(catalogService, logger),
		Health:      handlers.NewHealthHandler(dbManager, hub, logger),
		WebSocket:   handlers.NewWebSocketHandler(hub, authenticator, realtime.DefaultSessionConfig(), logger),
		Auth:        authenticator,
		RateLimiter: rateLimiter,
		Metrics:     m,
		Gatherer:    registry,
		CORSOrigin:  cfg.CORSOrigin,
		Logger:      logger,
	})

	// Change notifier
	if dbManager.ChangeFeedReady() {
		feed, err := changefeed.Open(ctx, cfg.DSN())
		if err != nil {
			logger.WithError(err).Warn("Change feed unavailable, realtime updates limited to API writes")
		} else {
			notifier := realtime.NewNotifier(hub, feed, repository.NewDocumentRepository(db), logger)
			go func() {
				defer feed.Close()
				if err := notifier.Run(ctx); err != nil {
					logger.WithError(err).Error("Change notifier stopped")
				}
			}()
		}
	} else {
		logger.WithError(changefeed.ErrUnsupported).Warn("Change feed unavailable, realtime updates limited to API writes")
	}

	reaper := scheduler.NewReportReaper(reportRepo, cfg.ReaperSchedule, m, logger)
	if err := reaper.Start(); err != nil {
		logger.WithError(err).Warn("Report reaper not started")
	}

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rateLimiter.Cleanup()
			}
		}
	}()

	srv := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithField("address", srv.Addr).Info("Sales Analytics Service listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	hub.Shutdown("Server is shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	reaper.Stop()
	publisher.Close()
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	logger.Info("Server exited")
}
