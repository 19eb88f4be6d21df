package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/Rhymond/go-money"

	"tandas/backend/internal/cache"
	"tandas/backend/internal/config"
	"tandas/backend/internal/httpapi"
	"tandas/backend/internal/logger"
	"tandas/backend/internal/pricing"
	"tandas/backend/internal/service"
	"tandas/backend/internal/store"
	"tandas/backend/internal/store/memory"
	pgstore "tandas/backend/internal/store/postgres"
)

func main() {
	cfg := config.Load()
	logger.SetLevel(cfg.LogLevel)
	if err := validateConfig(cfg); err != nil {
		logger.Log.Fatal().Err(err).Msg("invalid configuration")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var repo store.Repository
	closers := make([]func() error, 0, 2)

	if cfg.DatabaseURL != "" {
		pg, err := pgstore.New(ctx, cfg.DatabaseURL, cfg.DBMaxOpenConns)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("postgres unavailable and DATABASE_URL is set; refusing to start with in-memory fallback")
		}
		repo = pg
		closers = append(closers, pg.Close)
		logger.Log.Info().Str("repository", "postgres").Msg("store ready")
	} else {
		repo = memory.NewSeeded()
		logger.Log.Info().Str("repository", "in-memory").Msg("store ready")
	}

	sheets := cache.PricingSheetCache(cache.NoopPricingSheetCache{})
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisPricingSheetCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			logger.Log.Warn().Err(err).Msg("redis unavailable, using noop cache")
			_ = redisCache.Close()
		} else {
			sheets = redisCache
			closers = append(closers, redisCache.Close)
			logger.Log.Info().Str("cache", "redis").Msg("cache ready")
		}
	} else {
		logger.Log.Info().Str("cache", "noop").Msg("cache ready")
	}

	svc := service.New(repo, sheets, service.Options{
		CacheTTL:        time.Duration(cfg.PricingCacheTTLSeconds) * time.Second,
		Currencies:      pricing.Currencies{Cost: cfg.CostCurrency, Local: cfg.LocalCurrency},
		CrossBatchCodes: cfg.CrossBatchCodes,
	})
	api := httpapi.New(svc, cfg.AllowedOrigin)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Log.Info().Str("addr", cfg.Address()).Msg("batch pricing backend listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal().Err(err).Msg("server error")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error().Err(err).Msg("shutdown error")
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			logger.Log.Error().Err(err).Msg("close error")
		}
	}

	logger.Log.Info().Msg("server stopped")
}

// validateConfig rejects settings the pricing views cannot render with.
func validateConfig(cfg config.Config) error {
	port, err := strconv.Atoi(cfg.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be a number between 1 and 65535, got %q", cfg.Port)
	}
	if money.GetCurrency(cfg.CostCurrency) == nil {
		return fmt.Errorf("COST_CURRENCY %q is not a known currency", cfg.CostCurrency)
	}
	if money.GetCurrency(cfg.LocalCurrency) == nil {
		return fmt.Errorf("LOCAL_CURRENCY %q is not a known currency", cfg.LocalCurrency)
	}
	return nil
}
