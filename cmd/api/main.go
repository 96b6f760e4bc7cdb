package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"donorhub/internal/domain"
	"donorhub/internal/http/handlers"
	httpapi "donorhub/internal/http/httpapi"
	"donorhub/internal/infra"
	"donorhub/internal/infra/geoip"
	"donorhub/internal/store"
	"donorhub/internal/syncer"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()

	// The local store always exists; remote backends are layered on top.
	local, err := store.NewLocalStore(cfg.DataDir, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open data directory")
	}

	// Settings live next to the data blobs. On the very first boot the
	// cloud environment variables seed the file; afterwards the
	// persisted settings win.
	settingsPath := filepath.Join(cfg.DataDir, "settings.json")
	settingsStore := store.NewSettingsStore(settingsPath, logger)
	if _, err := os.Stat(settingsPath); errors.Is(err, os.ErrNotExist) {
		seed := store.Settings{Cloud: store.CloudConfig{
			Mode:        store.CloudMode(cfg.CloudMode),
			DatabaseURL: cfg.CloudDatabaseURL,
			Endpoint:    cfg.CloudEndpoint,
			APIKey:      cfg.CloudAPIKey,
			Active:      cfg.CloudActive,
		}}
		if err := settingsStore.Save(seed); err != nil {
			logger.Warn().Err(err).Msg("could not seed settings from environment")
		}
	}
	settings, err := settingsStore.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load settings")
	}

	gateway := domain.Store(local)
	if settings.Cloud.Remote() {
		gateway, err = store.Open(ctx, settings.Cloud, cfg.DataDir, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to open cloud gateway")
		}
	}

	ctrl := syncer.New(local, gateway, logger,
		syncer.WithMetrics(syncer.NewMetrics()),
		syncer.WithReconcile(true),
	)
	if err := ctrl.Refresh(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to load working set")
	}
	logger.Info().
		Str("backend", ctrl.GatewayKind()).
		Int("donors", len(ctrl.Donors())).
		Int("groups", len(ctrl.Groups())).
		Msg("directory loaded")

	resolver, err := geoip.Open(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip database unavailable, country detection downgraded")
	}
	defer resolver.Close()

	app := handlers.NewApp(ctrl, settingsStore, cfg, logger)
	router := httpapi.NewRouter(app, resolver.Country)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
