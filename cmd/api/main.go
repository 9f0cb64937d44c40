package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"adsnap-server/internal/http/handlers"
	httpapi "adsnap-server/internal/http/httpapi"
	"adsnap-server/internal/infra"
	"adsnap-server/internal/infra/geoip"
	"adsnap-server/internal/middleware"
	"adsnap-server/internal/poller"
	"adsnap-server/internal/providers/bria"
	"adsnap-server/internal/providers/prompt"
	"adsnap-server/internal/session"
	"adsnap-server/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip database unavailable, locale falls back to headers")
	}
	defer func() {
		_ = resolver.Close()
	}()
	var lookup middleware.CountryLookup
	if resolver != nil {
		lookup = resolver.CountryCode
	}

	store, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare storage")
	}

	briaClient := bria.NewClient(bria.Options{
		APIKey:  cfg.BriaAPIKey,
		BaseURL: cfg.BriaBaseURL,
		Logger:  &logger,
	})
	if !briaClient.HasCredentials() {
		logger.Warn().Msg("BRIA_API_KEY not set, requests must carry X-Api-Key")
	}

	var enhancer prompt.Enhancer = prompt.Passthrough{}
	if cfg.OpenRouterAPIKey != "" {
		enhancer = prompt.NewOpenRouterEnhancer(prompt.OpenRouterOptions{
			APIKey:  cfg.OpenRouterAPIKey,
			Model:   cfg.OpenRouterModel,
			BaseURL: cfg.OpenRouterBaseURL,
			Referer: cfg.OpenRouterReferer,
			Title:   cfg.OpenRouterTitle,
			OnFallback: func(reason string, err error) {
				logger.Warn().Err(err).Str("reason", reason).Msg("prompt enhancement fell back to original")
			},
		})
	}

	app := &handlers.App{
		Config:     cfg,
		Logger:     &logger,
		Bria:       briaClient,
		Enhancer:   enhancer,
		Sessions:   session.NewManager(cfg.SessionTTL),
		Poller:     poller.New(poller.Options{Logger: &logger}),
		Store:      store,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}

	router := httpapi.NewRouter(app, lookup)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Str("addr", server.Addr()).Msg("API listening")
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
