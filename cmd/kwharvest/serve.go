package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/kwharvest/internal/config"
	"github.com/kailas-cloud/kwharvest/internal/db"
	"github.com/kailas-cloud/kwharvest/internal/db/memory"
	dbRedis "github.com/kailas-cloud/kwharvest/internal/db/redis"
	domprov "github.com/kailas-cloud/kwharvest/internal/domain/provider"
	logpkg "github.com/kailas-cloud/kwharvest/internal/logger"
	"github.com/kailas-cloud/kwharvest/internal/metrics"
	optionsrepo "github.com/kailas-cloud/kwharvest/internal/repository/options"
	runsrepo "github.com/kailas-cloud/kwharvest/internal/repository/runs"
	"github.com/kailas-cloud/kwharvest/internal/repository/suggestcache"
	chiTransport "github.com/kailas-cloud/kwharvest/internal/transport/chi"
	geminiAnalyzer "github.com/kailas-cloud/kwharvest/internal/transport/gemini"
	openaiAnalyzer "github.com/kailas-cloud/kwharvest/internal/transport/openai"
	providerTransport "github.com/kailas-cloud/kwharvest/internal/transport/provider"
	analyzeuc "github.com/kailas-cloud/kwharvest/internal/usecase/analyze"
	"github.com/kailas-cloud/kwharvest/internal/usecase/harvest"
	healthuc "github.com/kailas-cloud/kwharvest/internal/usecase/health"
	optionsuc "github.com/kailas-cloud/kwharvest/internal/usecase/options"
	"github.com/kailas-cloud/kwharvest/internal/version"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long:  "Run the HTTP API server. Configuration is read from config/<ENV>.yaml (ENV defaults to local).",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx)
		},
	}
}

func runServe(ctx context.Context) error {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting kwharvest API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := openStore(cfg.Database)
	if err != nil {
		return fmt.Errorf("create database store: %w", err)
	}
	defer store.Close()

	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		return fmt.Errorf("database not ready: %w", err)
	}
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.RegisterHarvestMetrics()
	metrics.RegisterAnalyzerMetrics()
	metrics.RegisterHTTPMetrics()

	harvestSvc := buildHarvest(cfg, store, logger)

	// Pass nil interface (not typed nil pointer!) if no analyzer is configured.
	completer, checker, err := buildAnalyzer(ctx, cfg.Analyzer, logger)
	if err != nil {
		return err
	}
	analyzeSvc := analyzeuc.New(harvestSvc, completer, logger).WithMaxKeywords(cfg.Analyzer.MaxKeywords)

	optionsSvc := optionsuc.New(
		optionsrepo.New(store).WithKeyPrefix(cfg.Storage.KeyPrefix), logger,
	)
	healthSvc := healthuc.New(store, checker)

	server := chiTransport.NewServer(harvestSvc, optionsSvc, analyzeSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}
	if err := harvestSvc.Shutdown(shutdownCtx); err != nil {
		logger.Error("Runs still active at shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}

func openStore(cfg config.DatabaseConfig) (db.Store, error) {
	switch cfg.Driver {
	case config.DriverRedis, config.DriverValkey:
		// Valkey speaks the Redis protocol.
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Password: cfg.Password,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverMemory:
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// buildHarvest assembles the fetch chain: Registry -> Cached, then the scheduler and run service.
func buildHarvest(cfg config.Config, store db.Store, logger *zap.Logger) *harvest.Service {
	endpoints := make(map[domprov.ID]string, len(cfg.Providers.Endpoints))
	for id, base := range cfg.Providers.Endpoints {
		endpoints[domprov.ID(id)] = base
	}
	registry := providerTransport.NewDefault(providerTransport.Config{
		HTTPClient:        &http.Client{Timeout: time.Duration(cfg.Providers.HTTPTimeoutSec) * time.Second},
		CompletionTimeout: time.Duration(cfg.Providers.CompletionTimeoutMs) * time.Millisecond,
		RelayURL:          cfg.Providers.RelayURL,
		UserAgent:         cfg.Providers.UserAgent,
		Endpoints:         endpoints,
		Logger:            logger,
	})

	var fetcher harvest.Fetcher = registry
	if cfg.Cache.Enabled {
		fetcher = suggestcache.New(
			registry, store, time.Duration(cfg.Cache.TTLMin)*time.Minute, metrics.SuggestionCacheTotal, logger,
		).WithKeyPrefix(cfg.Storage.KeyPrefix)
	}

	sched := harvest.NewScheduler(fetcher, logger).
		WithBatchSize(cfg.Harvest.BatchSize).
		WithPacing(time.Duration(cfg.Harvest.PacingMs) * time.Millisecond)

	snapshots := runsrepo.New(store, time.Duration(cfg.Harvest.SnapshotTTLHrs)*time.Hour).
		WithKeyPrefix(cfg.Storage.KeyPrefix)

	return harvest.New(sched, logger).
		WithSettle(time.Duration(cfg.Harvest.SettleMs) * time.Millisecond).
		WithDeepLimit(cfg.Harvest.DeepLimit).
		WithMaxRuns(cfg.Harvest.MaxRuns).
		WithSnapshots(snapshots)
}

// buildAnalyzer returns nil interfaces when analysis is disabled.
func buildAnalyzer(
	ctx context.Context, cfg config.AnalyzerConfig, logger *zap.Logger,
) (analyzeuc.Completer, healthuc.AnalyzerChecker, error) {
	if cfg.Provider != "" && cfg.APIKey == "" {
		// Harvesting keeps working; analyze calls report ErrAnalyzerNotConfigured.
		logger.Warn("Analyzer has no API key, analysis disabled", zap.String("provider", cfg.Provider))
		return nil, nil, nil
	}
	switch cfg.Provider {
	case config.AnalyzerOpenAI:
		c := openaiAnalyzer.NewCompleter(&openaiAnalyzer.Config{
			APIKey:   cfg.APIKey,
			BaseURL:  cfg.BaseURL,
			Model:    cfg.Model,
			Provider: cfg.Provider,
			Logger:   logger,
		})
		return c, c, nil
	case config.AnalyzerGemini:
		c, err := geminiAnalyzer.NewCompleter(ctx, &geminiAnalyzer.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Logger:  logger,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("create analyzer: %w", err)
		}
		return c, c, nil
	default:
		logger.Info("Analyzer disabled")
		return nil, nil, nil
	}
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
						Code:    chiTransport.ErrorCodeInternalError,
						Message: "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
