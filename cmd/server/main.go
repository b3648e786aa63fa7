package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/zakupnik/backend/config"
	httpDelivery "github.com/zakupnik/backend/internal/delivery/http"
	"github.com/zakupnik/backend/internal/domain"
	"github.com/zakupnik/backend/internal/infrastructure/cache"
	"github.com/zakupnik/backend/internal/infrastructure/cartstore"
	"github.com/zakupnik/backend/internal/infrastructure/catalog"
	"github.com/zakupnik/backend/internal/observability"
	"github.com/zakupnik/backend/internal/search"
	"github.com/zakupnik/backend/internal/usecase"
)

func main() {
	// .env is optional; deployments set real environment variables.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: "zakupnik-backend",
	})

	logger.Info().
		Str("environment", cfg.Server.Environment).
		Str("port", cfg.Server.Port).
		Str("cache", cfg.Cache.Type).
		Msg("starting zakupnik backend")

	for _, path := range []string{cfg.Catalog.Path, cfg.Cart.Path} {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			logger.Fatal().Err(err).Str("path", path).Msg("create data directory")
		}
	}

	catalogStore, err := catalog.Open(cfg.Catalog.Path, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.Catalog.Path).Msg("open catalog store")
	}
	defer catalogStore.Close()

	cartStore, err := cartstore.Open(cfg.Cart.Path, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.Cart.Path).Msg("open cart store")
	}
	defer cartStore.Close()

	cacheRepo, err := newCache(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect cache")
	}

	rules, err := usecase.NewRuleProvider(cfg.Rules.Path, search.Options{
		StrictThreshold:        cfg.Matching.StrictThreshold,
		BrandCriticalThreshold: cfg.Matching.BrandThreshold,
		RescueThreshold:        cfg.Matching.RescueThreshold,
		TopAlternates:          cfg.Matching.TopAlternates,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.Rules.Path).Msg("compile matching rules")
	}

	searchService := usecase.NewSearchService(catalogStore, cacheRepo, rules, usecase.SearchServiceConfig{
		CacheTTL: cfg.Cache.TTL,
	}, logger)
	cartService := usecase.NewCartService(cartStore, catalogStore, usecase.CartServiceConfig{
		TopUpFraction: cfg.Cart.TopUpFraction,
		MaxTopUpSteps: cfg.Cart.MaxTopUpSteps,
	}, logger)

	handler := httpDelivery.NewHandler(searchService, cartService, rules, cacheRepo, logger)
	router := httpDelivery.SetupRouter(cfg, handler, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// newCache selects the decision cache backend from configuration.
func newCache(cfg *config.Config) (domain.CacheRepository, error) {
	switch cfg.Cache.Type {
	case "redis":
		return cache.NewRedisCache(cache.RedisConfig{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
	default:
		return cache.NewMemoryCache(), nil
	}
}
