package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SAP-F-2025/homework-service/internal/cache"
	"github.com/SAP-F-2025/homework-service/internal/config"
	"github.com/SAP-F-2025/homework-service/internal/events"
	"github.com/SAP-F-2025/homework-service/internal/handlers"
	"github.com/SAP-F-2025/homework-service/internal/repositories"
	"github.com/SAP-F-2025/homework-service/internal/repositories/memory"
	"github.com/SAP-F-2025/homework-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/homework-service/internal/services"
	"github.com/SAP-F-2025/homework-service/internal/utils"
	"github.com/SAP-F-2025/homework-service/pkg"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		os.Exit(1)
	}

	var logger utils.Logger
	if cfg.Environment == "production" {
		logger = utils.NewDefaultLogger()
		gin.SetMode(gin.ReleaseMode)
	} else {
		logger = utils.NewDevelopmentLogger()
	}

	repo, err := buildRepository(cfg, logger)
	if err != nil {
		logger.LogError(err, "failed to initialize store")
		os.Exit(1)
	}

	var cacheService cache.CacheService
	if !cfg.UseMemoryStore {
		redisClient, err := pkg.NewRedisClient(cfg)
		if err != nil {
			logger.Warn("redis unavailable, assignment cache disabled", "error", err)
		} else {
			cacheService = cache.NewRedisCache(redisClient, logger)
			defer redisClient.Close()
		}
	}

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, err := events.NewKafkaPublisher(events.PublisherConfig{
			KafkaBrokers: cfg.KafkaBrokers,
			TopicName:    cfg.AnalyticsTopic,
			Logger:       utils.ToSlogLogger(logger),
		})
		if err != nil {
			logger.Warn("kafka unavailable, analytics disabled", "error", err)
		} else {
			publisher = kafkaPublisher
			defer kafkaPublisher.Close()
		}
	}

	validator := utils.NewValidator()

	assignmentService := services.NewAssignmentService(repo, cacheService, logger)
	sessionService := services.NewSessionService(repo, logger, publisher)
	responseService := services.NewResponseService(repo, logger, validator, publisher)
	progressTracker := services.NewProgressTracker(repo, logger, publisher, cfg.ProgressInterval)
	submissionService := services.NewSubmissionService(repo, logger, validator, progressTracker, publisher)
	reportService := services.NewReportService(assignmentService, responseService, submissionService, logger)

	handler := handlers.NewHomeworkHandler(
		assignmentService,
		sessionService,
		responseService,
		progressTracker,
		submissionService,
		reportService,
		logger,
	)

	router := gin.New()
	handlers.SetupRoutes(router, handler, logger)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("homework service listening", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.LogError(err, "server stopped unexpectedly")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Drain pending progress writes before the process goes away.
	progressTracker.Close()

	if err := server.Shutdown(ctx); err != nil {
		logger.LogError(err, "graceful shutdown failed")
	}
}

func buildRepository(cfg *config.Config, logger utils.Logger) (repositories.Repository, error) {
	if cfg.UseMemoryStore {
		logger.Info("using in-memory store with simulated backend behavior")
		store := memory.NewStore()
		store.SetLatency(500 * time.Millisecond)
		store.SetFailureRate(0.1)
		return store, nil
	}

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		return nil, err
	}
	return postgres.NewRepository(db), nil
}
