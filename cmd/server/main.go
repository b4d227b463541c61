package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/skillstage/skillstage-backend/internal/config"
	"github.com/skillstage/skillstage-backend/internal/database"
	"github.com/skillstage/skillstage-backend/internal/event"
	"github.com/skillstage/skillstage-backend/internal/handler"
	"github.com/skillstage/skillstage-backend/internal/logger"
	"github.com/skillstage/skillstage-backend/internal/middleware"
	"github.com/skillstage/skillstage-backend/internal/repository"
	"github.com/skillstage/skillstage-backend/internal/router"
	"github.com/skillstage/skillstage-backend/internal/scheduler"
	"github.com/skillstage/skillstage-backend/internal/service"
	"github.com/skillstage/skillstage-backend/internal/validator"
	"github.com/skillstage/skillstage-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting SkillStage Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Connect to RabbitMQ ───────────────────────────────────────────
	publisher, err := event.NewPublisher(cfg.AMQPURL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to RabbitMQ")
	}
	defer publisher.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	questionRepo := repository.NewQuestionRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	certificateRepo := repository.NewCertificateRepository(pool)

	// ─── Initialize Scheduler and Notifier ─────────────────────────────
	deadlines := scheduler.NewRedisScheduler(rdb, cfg.DeadlineMaxAttempts, cfg.DeadlineBackoffBase, log)
	notifier := event.NewSessionNotifier(rdb)

	// ─── Initialize Services ──────────────────────────────────────────
	sessionService := service.NewSessionService(
		sessionRepo, questionRepo, userRepo, deadlines, publisher, notifier,
		cfg.QuestionsPerSession, cfg.MinutesPerQuestion, log,
	)
	questionService := service.NewQuestionService(questionRepo, log)
	certificateService := service.NewCertificateService(certificateRepo, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	tokens := middleware.NewTokenValidator(cfg.JWTSecret)
	handlers := &router.Handlers{
		Test:        handler.NewTestHandler(sessionService),
		Question:    handler.NewQuestionHandler(questionService, cfg.QuestionsPerSession),
		Certificate: handler.NewCertificateHandler(certificateService),
		WS:          handler.NewWSHandler(sessionService, notifier, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	deadlineWorker := worker.NewDeadlineWorker(
		deadlines, sessionService,
		cfg.DeadlinePollInterval, cfg.SweepInterval, cfg.SweepGrace, log,
	)
	go deadlineWorker.Start(workerCtx)

	certificateWorker, err := worker.NewCertificateWorker(cfg.AMQPURL, certificateService, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start certificate worker")
	}
	defer certificateWorker.Close()
	if err := certificateWorker.Start(workerCtx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start certificate consumer")
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(tokens, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers. In-flight deadline deliveries re-queue
	//    through the scheduler; nothing is lost.
	workerCancel()
	time.Sleep(2 * time.Second)

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
