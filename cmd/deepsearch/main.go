package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/seekerlab/deepsearch/internal/cache"
	"github.com/seekerlab/deepsearch/internal/config"
	"github.com/seekerlab/deepsearch/internal/db"
	dbRedis "github.com/seekerlab/deepsearch/internal/db/redis"
	logpkg "github.com/seekerlab/deepsearch/internal/logger"
	"github.com/seekerlab/deepsearch/internal/metrics"
	historyrepo "github.com/seekerlab/deepsearch/internal/repository/history"
	"github.com/seekerlab/deepsearch/internal/source"
	"github.com/seekerlab/deepsearch/internal/source/duckduckgo"
	chiTransport "github.com/seekerlab/deepsearch/internal/transport/chi"
	"github.com/seekerlab/deepsearch/internal/usecase/analyze"
	healthuc "github.com/seekerlab/deepsearch/internal/usecase/health"
	searchuc "github.com/seekerlab/deepsearch/internal/usecase/search"
	"github.com/seekerlab/deepsearch/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting deepsearch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	ctx := context.Background()

	// History store is optional: without it events are dropped and the
	// history endpoint serves empty data.
	var store db.Store
	if len(cfg.Database.Addrs) > 0 {
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Username: cfg.Database.Username,
			Password: cfg.Database.Password,
			DB:       cfg.Database.DB,
		})
		if err != nil {
			logger.Fatal("Failed to create database store", zap.Error(err))
		}
		defer store.Close()

		if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Database not ready", zap.Error(err))
		}
		logger.Info("Connected to database")
	} else {
		logger.Warn("No database configured, search history is disabled")
	}

	// Register metrics explicitly (no init())
	metrics.RegisterHTTPMetrics()
	metrics.RegisterSearchMetrics()

	registry := buildRegistry(cfg, logger)
	if len(registry.IDs()) == 0 {
		logger.Fatal("No search sources configured")
	}

	var resultCache searchuc.ResultCache
	if cfg.CacheEnabled() {
		resultCache = cache.New(
			time.Duration(cfg.Cache.TTLSec)*time.Second,
			cfg.Cache.MaxEntries,
		)
	} else {
		logger.Warn("Result cache disabled, every request fans out")
	}

	executor := searchuc.NewExecutor(
		cfg.Search.Workers,
		time.Duration(cfg.Search.GlobalTimeoutSec)*time.Second,
		time.Duration(cfg.Search.ThrottleWaitMs)*time.Millisecond,
	)

	// Config tracking params extend the built-in denylist.
	tracking := searchuc.DefaultTrackingParams
	tracking = append(tracking[:len(tracking):len(tracking)], cfg.Search.TrackingParams...)
	merger := searchuc.NewMerger(searchuc.NewURLNormalizer(tracking))

	// Pass nil interface (not typed nil pointer!) if no store is configured.
	var historyStore *historyrepo.Store
	var sink searchuc.EventSink
	var historyReader chiTransport.HistoryReader
	var dbPinger healthuc.DBPinger
	if store != nil {
		historyStore = historyrepo.New(store, historyrepo.WithMaxLen(cfg.History.MaxEvents))
		sink = historyStore
		historyReader = historyStore
		dbPinger = store
	}

	searchSvc := searchuc.New(registry, resultCache, executor, merger, sink, logger)
	analyzer := analyze.New([]string{duckduckgo.SourceID}, nil)
	healthSvc := healthuc.New(dbPinger, registry)

	server := chiTransport.NewServer(searchSvc, analyzer, healthSvc, historyReader, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildRegistry wires the configured source adapters. Unknown source ids in
// the config are skipped with a warning so a typo cannot keep the whole
// service down.
func buildRegistry(cfg config.Config, logger *zap.Logger) *source.Registry {
	registry := source.NewRegistry()

	sources := cfg.Sources
	if len(sources) == 0 {
		sources = map[string]config.SourceConfig{duckduckgo.SourceID: {}}
	}

	for id, sc := range sources {
		policy := source.Policy{
			Timeout:           time.Duration(sc.TimeoutSec) * time.Second,
			MaxConcurrent:     sc.MaxConcurrent,
			RequestsPerSecond: sc.RequestsPerSecond,
			Enabled:           sc.IsEnabled(),
		}

		switch id {
		case duckduckgo.SourceID:
			var opts []duckduckgo.Option
			if sc.BaseURL != "" {
				opts = append(opts, duckduckgo.WithEndpoint(sc.BaseURL))
			}
			registry.Register(id, duckduckgo.New(opts...), policy)
		default:
			logger.Warn("Unknown source in config, skipping", zap.String("source", id))
			continue
		}

		logger.Info("Registered search source",
			zap.String("source", id),
			zap.Bool("enabled", policy.Enabled),
		)
	}

	return registry
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
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
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

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
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
