package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"donorhub/internal/infra"
	"donorhub/internal/store"
	"donorhub/internal/syncer"
)

// syncpush copies every local donor and group to the configured remote
// backend once and exits, for migrations and cron-driven mirroring.
func main() {
	var timeoutFlag time.Duration
	flag.DurationVar(&timeoutFlag, "timeout", 2*time.Minute, "overall deadline for the push")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		exitWithError(err)
	}
	logger := infra.NewLogger("cli").With().Str("cmd", "syncpush").Logger()

	ctx, cancel := context.WithTimeout(context.Background(), timeoutFlag)
	defer cancel()

	local, err := store.NewLocalStore(cfg.DataDir, logger)
	if err != nil {
		exitWithError(err)
	}

	settingsStore := store.NewSettingsStore(filepath.Join(cfg.DataDir, "settings.json"), logger)
	settings, err := settingsStore.Load()
	if err != nil {
		exitWithError(err)
	}
	cloud := settings.Cloud
	if !cloud.Remote() {
		// Allow pushing with only env configuration, before the API has
		// ever persisted settings.
		cloud = store.CloudConfig{
			Mode:        store.CloudMode(cfg.CloudMode),
			DatabaseURL: cfg.CloudDatabaseURL,
			Endpoint:    cfg.CloudEndpoint,
			APIKey:      cfg.CloudAPIKey,
			Active:      cfg.CloudActive,
		}
	}
	if !cloud.Remote() {
		exitWithError(errors.New("no active remote backend in settings or environment"))
	}

	gateway, err := store.Open(ctx, cloud, cfg.DataDir, logger)
	if err != nil {
		exitWithError(err)
	}

	ctrl := syncer.New(local, gateway, logger)
	report, err := ctrl.PushLocal(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "push failed after %d/%d groups and %d/%d donors: %v\n",
			report.GroupsPushed, report.GroupsTotal, report.DonorsPushed, report.DonorsTotal, err)
		os.Exit(1)
	}

	fmt.Printf("pushed %d groups and %d donors to %s\n",
		report.GroupsPushed, report.DonorsPushed, gateway.Kind())
}

func exitWithError(err error) {
	fmt.Fprintf(os.Stderr, "syncpush: %v\n", err)
	os.Exit(1)
}
