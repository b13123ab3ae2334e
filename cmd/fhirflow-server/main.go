package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/fhirflow/fhirflow/internal/config"
	"github.com/fhirflow/fhirflow/internal/domain/consolidation"
	"github.com/fhirflow/fhirflow/internal/domain/extraction"
	"github.com/fhirflow/fhirflow/internal/domain/gateway"
	"github.com/fhirflow/fhirflow/internal/domain/ingestion"
	"github.com/fhirflow/fhirflow/internal/domain/mapping"
	"github.com/fhirflow/fhirflow/internal/domain/recognition"
	"github.com/fhirflow/fhirflow/internal/domain/validation"
	"github.com/fhirflow/fhirflow/internal/platform/middleware"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fhirflow-server",
		Short: "Clinical document processing pipeline",
	}

	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the pipeline server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	// Patient store, seeded with demo data in development setups
	store := consolidation.NewStore(logger)
	if cfg.SeedDemo {
		store.SeedDemo()
	}

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Content-Type", "X-Request-ID"},
	}))

	// Pipeline stages, hosted on this server and addressed over HTTP so any
	// stage can be split out behind a config change.
	ingestion.NewHandler(logger).RegisterRoutes(e)
	recognition.NewHandler(recognition.NewRecognizer(nil), logger).RegisterRoutes(e)
	extraction.NewHandler(logger).RegisterRoutes(e)
	validation.NewHandler(logger).RegisterRoutes(e)
	mapping.NewHandler(logger).RegisterRoutes(e)

	// Consolidation read API
	consolidation.NewHandler(store, logger).RegisterRoutes(e)

	// Gateway: orchestrator + health aggregator
	stages := gateway.StagesFromConfig(cfg)
	client := gateway.NewClient(cfg.StageTimeout())
	orchestrator := gateway.NewOrchestrator(stages, client, store, logger)
	health := gateway.NewHealthAggregator(stages, client, cfg.StageTimeout(), logger)
	gateway.NewHandler(orchestrator, health, logger).RegisterRoutes(e)

	// Start server with graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
