package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/store-auditor/backend/audit"
	"github.com/store-auditor/backend/config"
	"github.com/store-auditor/backend/gemini"
	"github.com/store-auditor/backend/history"
	"github.com/store-auditor/backend/metrics"
	"github.com/store-auditor/backend/middleware"
	"github.com/store-auditor/backend/server"
	"github.com/store-auditor/backend/session"
	"github.com/store-auditor/backend/stats"
)

const (
	housekeepingInterval = 5 * time.Minute
	shutdownTimeout      = 15 * time.Second
	statsRetainMonths    = 12
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, logger)
		},
	}
}

// newGenerator builds the Gemini client wrapped with timeout and retry
func newGenerator(ctx context.Context, cfg *config.Config) (audit.Generator, error) {
	client, err := gemini.New(ctx, gemini.Config{
		APIKey:  cfg.Gemini.APIKey,
		BaseURL: cfg.Gemini.BaseURL,
	})
	if err != nil {
		return nil, err
	}

	return gemini.NewResilientGenerator(client, gemini.ResilienceConfig{
		MaxAttempts: cfg.Gemini.MaxAttempts,
		RetryDelay:  cfg.Gemini.RetryDelay,
		Timeout:     cfg.Gemini.Timeout,
	}), nil
}

// newHistory uses Redis when an address is configured, memory otherwise
func newHistory(ctx context.Context, cfg *config.Config, logger *zap.Logger) (history.Store, error) {
	if cfg.Redis.Address == "" {
		logger.Info("audit history kept in memory",
			zap.Duration("ttl", cfg.History.TTL),
			zap.Int("maxSize", cfg.History.MaxSize))
		return history.NewMemoryStore(cfg.History.TTL, cfg.History.MaxSize), nil
	}

	store := history.NewRedisStore(history.NewRedisClient(cfg.Redis), cfg.History.TTL)
	if err := store.Ping(ctx); err != nil {
		store.Close()
		return nil, err
	}
	logger.Info("audit history kept in redis", zap.String("address", cfg.Redis.Address))
	return store, nil
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	setupGinMode(cfg.Server.GinMode)

	generator, err := newGenerator(ctx, cfg)
	if err != nil {
		return err
	}

	monthly, err := stats.NewStorage(cfg.Stats.DataDir, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize stats storage: %w", err)
	}
	defer func() {
		if err := monthly.Shutdown(); err != nil {
			logger.Error("failed to flush statistics", zap.Error(err))
		}
	}()

	store, err := newHistory(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	auditor := audit.NewAuditor(generator, logger,
		audit.WithModel(cfg.Gemini.Model),
		audit.WithRecorder(monthly),
		audit.WithRecorder(metrics.Recorder{}),
	)

	sessions := session.NewStore(logger)
	requests := stats.NewRequests()
	limiter := middleware.NewRateLimiter(cfg.RateLimit.Rate, cfg.RateLimit.Burst)

	srv := server.New(server.Deps{
		Auditor:     auditor,
		History:     store,
		Sessions:    sessions,
		Requests:    requests,
		Monthly:     monthly,
		RateLimiter: limiter,
		Logger:      logger,
		DevMode:     cfg.Server.DevMode,
	})

	go sessions.RunSweeper(ctx, time.Minute, cfg.Sessions.IdleTTL)
	go housekeeping(ctx, limiter, requests, monthly)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", "http://localhost:"+cfg.Server.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// housekeeping prunes idle rate limit buckets and stale statistics
func housekeeping(ctx context.Context, limiter *middleware.RateLimiter, requests *stats.Requests, monthly *stats.Storage) {
	ticker := time.NewTicker(housekeepingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			limiter.Prune(time.Hour)
			requests.PruneVisitors()
			monthly.Cleanup(statsRetainMonths)
		}
	}
}
