package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hako/durafmt"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tumeware/SnackBar/config"
	httpDelivery "github.com/tumeware/SnackBar/internal/delivery/http"
	"github.com/tumeware/SnackBar/internal/infrastructure/cache"
	"github.com/tumeware/SnackBar/internal/infrastructure/fetch"
	"github.com/tumeware/SnackBar/internal/infrastructure/gemini"
	"github.com/tumeware/SnackBar/internal/infrastructure/openfoodfacts"
	"github.com/tumeware/SnackBar/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

func main() {
	envPath := flag.String("env", "", "path to an additional .env file")
	flag.Parse()

	// Load the .env file if it is specified
	if *envPath != "" {
		if err := godotenv.Load(*envPath); err != nil {
			log.Fatal().Err(err).Str("env_path", *envPath).Msg("error loading .env file")
		}
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := newLogger(cfg.Log)
	log.Logger = logger
	stdlog.SetFlags(0)
	stdlog.SetOutput(logger)

	logger.Info().
		Str("environment", cfg.Server.Environment).
		Str("port", cfg.Server.Port).
		Msg("starting SnackBar backend")

	// Initialize infrastructure dependencies
	memoryCache := cache.NewMemoryCache(cfg.Cache.TTL)
	logger.Info().Str("ttl", humanize(cfg.Cache.TTL)).Msg("search cache ready")

	fetcher := fetch.New(fetch.Config{
		RateLimit: cfg.Catalog.RateLimit,
		RateBurst: cfg.Catalog.RateBurst,
	}, logger)

	catalogClient := openfoodfacts.NewClient(fetcher, cfg.Catalog.BaseURL, logger)
	logger.Info().
		Str("base_url", cfg.Catalog.BaseURL).
		Str("timeout", humanize(cfg.Catalog.Timeout)).
		Float64("rate_limit", cfg.Catalog.RateLimit).
		Msg("catalog client configured")

	insightClient := gemini.NewClient(fetcher, gemini.Config{
		APIKey:          cfg.Insight.APIKey,
		BaseURL:         cfg.Insight.BaseURL,
		Model:           cfg.Insight.Model,
		MaxOutputTokens: cfg.Insight.MaxOutputTokens,
		Timeout:         cfg.Insight.Timeout,
	}, logger)
	if insightClient.Available() {
		logger.Info().Str("model", cfg.Insight.Model).Str("timeout", humanize(cfg.Insight.Timeout)).Msg("insight generator configured")
	} else {
		logger.Warn().Msgf("insight API key not configured (set %s_INSIGHT_API_KEY); analysis requests will fail", config.EnvPrefix)
	}

	// Initialize usecase layer
	debug := cfg.Server.Environment == "development"
	catalogService := usecase.NewCatalogService(
		memoryCache,
		catalogClient,
		usecase.CatalogServiceConfig{
			Timeout:            cfg.Catalog.Timeout,
			DefaultPageSize:    cfg.Catalog.PageSize,
			EnableDebugLogging: debug,
		},
		logger,
	)
	recommender := usecase.NewRecommender(catalogService, debug, logger)
	analysisService := usecase.NewAnalysisService(insightClient, recommender, logger)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(catalogService, analysisService, logger)
	router := httpDelivery.SetupRouter(cfg, handler, logger)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info().Str("grace_period", humanize(shutdownTimeout)).Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("error during shutdown")
	}
}

// newLogger builds the process logger in the configured format
func newLogger(cfg config.LogConfig) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	var logger zerolog.Logger
	switch cfg.Format {
	case "json":
		logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	default:
		output := zerolog.ConsoleWriter{Out: os.Stdout}
		logger = zerolog.New(output).With().Timestamp().Logger()
	}
	return logger.Level(cfg.LogLevel())
}

func humanize(d time.Duration) string {
	return durafmt.Parse(d).LimitFirstN(2).String()
}
