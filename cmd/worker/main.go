package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/lmsplatform/backend/internal/models"
	"github.com/lmsplatform/backend/libs/config"
	"github.com/lmsplatform/backend/libs/logger"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer logger.Sync()

	logger.Logger.Info("Starting LMS Reminder Worker")

	sender := NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
	worker := NewWorker(logger.Logger, sender)

	// Create Asynq server
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency:     5,
			Logger:          logger.Logger.Sugar(),
			LogLevel:        asynq.InfoLevel,
			ErrorHandler:    asynq.ErrorHandlerFunc(worker.HandleError),
			ShutdownTimeout: 30 * time.Second,
		},
	)

	// Register task handlers
	mux := asynq.NewServeMux()
	mux.HandleFunc(models.TypeEnrollmentReminder, worker.HandleEnrollmentReminder)

	// Start worker
	if err := srv.Start(mux); err != nil {
		logger.Logger.Fatal("Failed to start worker", zap.Error(err))
	}

	logger.Logger.Info("Worker started")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down worker...")
	srv.Shutdown()
	logger.Logger.Info("Worker exited")
}
