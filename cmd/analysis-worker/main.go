package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/careerpath/careerpath-backend/internal/analysis/orchestrator"
	analysisrepo "github.com/careerpath/careerpath-backend/internal/analysis/repository"
	"github.com/careerpath/careerpath-backend/internal/analysis/worker"
	documentrepo "github.com/careerpath/careerpath-backend/internal/document/repository"
	"github.com/careerpath/careerpath-backend/internal/llm"
	"github.com/careerpath/careerpath-backend/pkg/config"
	"github.com/careerpath/careerpath-backend/pkg/database"
	"github.com/careerpath/careerpath-backend/pkg/httputil"
	"github.com/careerpath/careerpath-backend/pkg/logger"
	"github.com/careerpath/careerpath-backend/pkg/messaging"
	"github.com/careerpath/careerpath-backend/pkg/retry"
)

func main() {
	// Load configuration with validation (fails fast in production if required config is missing)
	cfg, err := config.LoadWithValidation("analysis-worker")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New("analysis-worker", cfg.Server.Environment)
	log.Info().Msg("starting Analysis Worker")

	// Connect to database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Connect to RabbitMQ
	rmq, err := messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer rmq.Close()

	// Dead letter queue for messages that exhaust their retry budget
	if err := rmq.DeclareDeadLetterQueue("analysis-worker"); err != nil {
		log.Fatal().Err(err).Msg("failed to declare dead letter queue")
	}

	// Event publisher for completion and failure events
	analysisEvents, err := messaging.NewPublisher(rmq, messaging.ExchangeAnalysisEvents, "analysis-worker", log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create event publisher")
	}

	// Repositories
	analysisRepo := analysisrepo.NewAnalysisRepository(db)
	documentRepo := documentrepo.NewDocumentRepository(db)

	// Analysis backend
	llmClient := llm.NewClient(cfg.Analysis, log)
	policy := retry.DefaultPolicy()
	if cfg.Analysis.MaxAttempts > 0 {
		policy.MaxAttempts = cfg.Analysis.MaxAttempts
	}
	analyzer := orchestrator.New(llmClient, cfg.Analysis.Model, policy, log)

	// Worker
	w := worker.New(analysisRepo, documentRepo, analyzer, analysisEvents, log)

	// Consumer for analysis request events
	consumer, err := messaging.NewConsumer(rmq, messaging.QueueAnalysisWorker, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create consumer")
	}
	for _, key := range []string{messaging.EventAnalysisRequested, messaging.EventAnalysisRetried} {
		if err := consumer.Subscribe(messaging.ExchangeAnalysisEvents, key); err != nil {
			log.Fatal().Err(err).Msg("failed to subscribe to analysis events")
		}
	}
	worker.RegisterHandlers(consumer, w)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := consumer.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start consumer")
	}

	// Minimal HTTP surface for liveness probes
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr: addr,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/health" {
				http.NotFound(w, r)
				return
			}
			httputil.JSON(w, http.StatusOK, map[string]interface{}{
				"status":   "healthy",
				"service":  "analysis-worker",
				"database": db.Health(r.Context()),
				"rabbitmq": rmq.Health(),
			})
		}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("health endpoint listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("health server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	cancel()
	srv.Close()

	log.Info().Msg("worker stopped")
}
