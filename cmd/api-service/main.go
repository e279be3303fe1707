package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	analysishandler "github.com/careerpath/careerpath-backend/internal/analysis/handler"
	analysisrepo "github.com/careerpath/careerpath-backend/internal/analysis/repository"
	analysissvc "github.com/careerpath/careerpath-backend/internal/analysis/service"
	documenthandler "github.com/careerpath/careerpath-backend/internal/document/handler"
	documentrepo "github.com/careerpath/careerpath-backend/internal/document/repository"
	documentsvc "github.com/careerpath/careerpath-backend/internal/document/service"
	"github.com/careerpath/careerpath-backend/internal/extraction"
	"github.com/careerpath/careerpath-backend/internal/extraction/ocr"
	"github.com/careerpath/careerpath-backend/internal/llm"
	"github.com/careerpath/careerpath-backend/pkg/config"
	"github.com/careerpath/careerpath-backend/pkg/database"
	"github.com/careerpath/careerpath-backend/pkg/httputil"
	"github.com/careerpath/careerpath-backend/pkg/i18n"
	"github.com/careerpath/careerpath-backend/pkg/logger"
	"github.com/careerpath/careerpath-backend/pkg/messaging"
	"github.com/careerpath/careerpath-backend/pkg/objstore"
)

func main() {
	// Load configuration with validation (fails fast in production if required config is missing)
	cfg, err := config.LoadWithValidation("api-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New("api-service", cfg.Server.Environment)
	log.Info().Msg("starting API Service")

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

	// Object storage for uploaded originals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	storage, err := objstore.NewMinioStore(ctx, &cfg.Storage, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to object storage")
	}

	// Event publishers
	documentEvents, err := messaging.NewPublisher(rmq, messaging.ExchangeDocumentEvents, "api-service", log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create document event publisher")
	}
	analysisEvents, err := messaging.NewPublisher(rmq, messaging.ExchangeAnalysisEvents, "api-service", log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create analysis event publisher")
	}

	// Extraction pipeline: native PDF engines first, OCR as the last resort
	llmClient := llm.NewClient(cfg.Analysis, log)
	escalator := ocr.NewEscalator(
		[]ocr.Recognizer{
			ocr.NewTesseractRecognizer(extraction.ExecRunner{}, cfg.OCR.Tesseract, cfg.OCR.TesseractLang),
			ocr.NewVisionRecognizer(llmClient, cfg.Analysis.VisionModel),
		},
		float64(cfg.OCR.DPI),
		cfg.OCR.MaxPages,
		log,
	)
	extractor := extraction.NewChain(
		[]extraction.Engine{
			extraction.NewMuPDFEngine(),
			extraction.NewPDFLibEngine(),
			extraction.NewPopplerEngine(extraction.ExecRunner{}),
		},
		extraction.NewDocxExtractor(),
		escalator,
		log,
	)

	// Repositories
	documentRepo := documentrepo.NewDocumentRepository(db)
	analysisRepo := analysisrepo.NewAnalysisRepository(db)

	// Services
	documentService := documentsvc.NewDocumentService(documentRepo, extractor, storage, documentEvents, cfg.Upload.MaxFileSizeMB, log)
	analysisService := analysissvc.NewAnalysisService(analysisRepo, documentRepo, analysisEvents, log)

	// Handlers
	documentHandler := documenthandler.NewDocumentHandler(documentService, cfg.Upload.MaxFileSizeMB, log)
	analysisHandler := analysishandler.NewAnalysisHandler(analysisService, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(i18n.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Language", "Authorization", "Content-Type", "X-Request-ID", "X-User-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check (no auth required)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"status":   "healthy",
			"service":  "api-service",
			"database": db.Health(r.Context()),
			"rabbitmq": rmq.Health(),
		})
	})

	// API routes (user required)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httputil.UserMiddleware)
		documentHandler.RegisterRoutes(r)
		analysisHandler.RegisterRoutes(r)
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	cancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
