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

	"github.com/sideline-ai/sideline/internal/config"
	"github.com/sideline-ai/sideline/internal/db"
	dbRedis "github.com/sideline-ai/sideline/internal/db/redis"
	logpkg "github.com/sideline-ai/sideline/internal/logger"
	"github.com/sideline-ai/sideline/internal/metrics"
	usagerepo "github.com/sideline-ai/sideline/internal/repository/usage"
	chiTransport "github.com/sideline-ai/sideline/internal/transport/chi"
	"github.com/sideline-ai/sideline/internal/transport/espn"
	openaiChat "github.com/sideline-ai/sideline/internal/transport/openai"
	"github.com/sideline-ai/sideline/internal/usecase/advisor"
	chatuc "github.com/sideline-ai/sideline/internal/usecase/chat"
	"github.com/sideline-ai/sideline/internal/usecase/guard"
	healthuc "github.com/sideline-ai/sideline/internal/usecase/health"
	leagueuc "github.com/sideline-ai/sideline/internal/usecase/league"
	usageuc "github.com/sideline-ai/sideline/internal/usecase/usage"
	"github.com/sideline-ai/sideline/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting sideline API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Int("league_id", cfg.ESPN.LeagueID),
		zap.Int("season", cfg.ESPN.SeasonYear),
	)

	// Optional database store. Usage counters survive restarts when set.
	var store db.Store
	if len(cfg.Database.Addrs) > 0 {
		redisStore, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create database store", zap.Error(err))
		}
		defer redisStore.Close()

		ctx := context.Background()
		if err := redisStore.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Database not ready", zap.Error(err))
		}
		logger.Info("Connected to database", zap.Strings("addrs", cfg.Database.Addrs))
		store = redisStore
	}

	// Register AI metrics explicitly (no init())
	metrics.RegisterAIMetrics()

	// Budget guard: single shared instance gating every model call.
	usageGuard, err := guard.New(guard.Config{
		HourlyLimit: cfg.Budget.HourlyLimitUSD,
		Prices:      cfg.PriceTable(),
		Enabled:     !cfg.Budget.Disabled,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create budget guard", zap.Error(err))
	}
	var usageRepo *usagerepo.Store
	if store != nil {
		usageRepo = usagerepo.New(store, cfg.Database.KeyPrefix)
		usageGuard = usageGuard.WithStore(usageRepo)
	}

	// ESPN league client + league services
	espnClient := espn.NewClient(espn.Config{
		LeagueID:   cfg.ESPN.LeagueID,
		SeasonYear: cfg.ESPN.SeasonYear,
		ESPNS2:     cfg.ESPN.ESPNS2,
		SWID:       cfg.ESPN.SWID,
		BaseURL:    cfg.ESPN.BaseURL,
		Timeout:    time.Duration(cfg.ESPN.TimeoutSec) * time.Second,
	}, logger)
	leagueSvc := leagueuc.NewService(espnClient, cfg.ESPN.TeamID, logger)

	// Model client
	modelClient := openaiChat.NewChatClient(&openaiChat.Config{
		APIKey:  cfg.AI.APIKey,
		BaseURL: cfg.AI.BaseURL,
		Model:   cfg.AI.ChatModel,
		Logger:  logger,
	})
	logger.Info("Model client created", zap.String("model", cfg.AI.ChatModel))

	// Use case services
	advisorSvc := advisor.NewService(usageGuard, modelClient, leagueSvc, advisor.LeagueContext{
		SeasonYear: cfg.ESPN.SeasonYear,
	}, logger)
	chatSvc := chatuc.NewService(usageGuard, modelClient, advisorSvc, logger)
	usageSvc := usageuc.New(usageGuard)
	if usageRepo != nil {
		usageSvc = usageSvc.WithDailyStore(usageRepo)
	}

	// Pass nil interface (not typed nil pointer!) if the store is not configured.
	// Go gotcha: (*redis.Store)(nil) wrapped in DBPinger != nil.
	var dbPinger healthuc.DBPinger
	if store != nil {
		dbPinger = store
	}
	healthSvc := healthuc.New(dbPinger, modelClient)

	// Create chi server
	server := chiTransport.NewServer(leagueSvc, advisorSvc, chatSvc, usageSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.RegisterRoutes(r)

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
