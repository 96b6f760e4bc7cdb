package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"donorhub/internal/infra"
	"donorhub/internal/storage"
	"donorhub/internal/store"
	"donorhub/internal/transfer"
)

const defaultSnapshotInterval = time.Hour

// backupWorker periodically snapshots the local blobs into dated
// archive files, one per day at most since the filename carries the
// date.
type backupWorker struct {
	ctx       context.Context
	local     *store.LocalStore
	files     *storage.FileStore
	logger    infra.Logger
	interval  time.Duration
	retention time.Duration
}

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	local, err := store.NewLocalStore(cfg.DataDir, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("backup: data directory unavailable")
	}

	backupDir := cfg.BackupDir
	if backupDir == "" {
		backupDir = "./backups"
	}
	if !filepath.IsAbs(backupDir) {
		if abs, err := filepath.Abs(backupDir); err == nil {
			backupDir = abs
		}
	}
	files, err := storage.NewFileStore(backupDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("backup: failed to configure storage")
	}

	interval := cfg.BackupInterval
	if interval <= 0 {
		interval = defaultSnapshotInterval
	}

	worker := &backupWorker{
		ctx:       ctx,
		local:     local,
		files:     files,
		logger:    logger,
		interval:  interval,
		retention: cfg.BackupRetention,
	}

	if err := worker.Run(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("backup: stopped with error")
	}
	logger.Info().Msg("backup: stopped")
}

func (w *backupWorker) Run() error {
	w.logger.Info().Dur("interval", w.interval).Msg("backup: started")
	w.cycle()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-w.ctx.Done():
			return w.ctx.Err()
		case <-ticker.C:
			w.cycle()
		}
	}
}

func (w *backupWorker) cycle() {
	if err := w.snapshot(); err != nil {
		w.logger.Error().Err(err).Msg("backup: snapshot failed")
		return
	}
	if w.retention <= 0 {
		return
	}
	removed, err := w.files.Prune(w.ctx, w.retention)
	if err != nil {
		w.logger.Warn().Err(err).Msg("backup: prune failed")
		return
	}
	if removed > 0 {
		w.logger.Info().Int("files", removed).Msg("backup: expired snapshots pruned")
	}
}

func (w *backupWorker) snapshot() error {
	donors, err := w.local.FetchDonors(w.ctx)
	if err != nil {
		return fmt.Errorf("read donors: %w", err)
	}
	groups, err := w.local.FetchGroups(w.ctx)
	if err != nil {
		return fmt.Errorf("read groups: %w", err)
	}

	now := time.Now()
	archive, err := transfer.Archive(donors, groups, now)
	if err != nil {
		return fmt.Errorf("build archive: %w", err)
	}
	key, err := w.files.Write(w.ctx, transfer.ArchiveFilename(now), archive)
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	w.logger.Info().
		Str("file", key).
		Int("donors", len(donors)).
		Int("groups", len(groups)).
		Msg("backup: snapshot written")
	return nil
}
