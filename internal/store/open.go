package store

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"donorhub/internal/domain"
	"donorhub/internal/infra"
)

// Open builds the persistence gateway for the given cloud
// configuration. Inactive or local configurations yield the local blob
// store; postgres mode also brings the schema up to date before the
// first query.
func Open(ctx context.Context, cfg CloudConfig, dataDir string, logger zerolog.Logger) (domain.Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !cfg.Remote() {
		return NewLocalStore(dataDir, logger)
	}
	switch cfg.Mode {
	case ModePostgres:
		if err := EnsureSchema(cfg.DatabaseURL, logger); err != nil {
			return nil, remoteErr("postgres", "migrate", err)
		}
		pool, err := infra.NewDBPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, remoteErr("postgres", "connect", err)
		}
		runner := infra.NewSQLRunner(pool, logger)
		return NewPostgresStore(runner, logger, pool.Close), nil
	case ModeRest:
		return NewRestStore(cfg.Endpoint, cfg.APIKey, logger), nil
	}
	return nil, fmt.Errorf("unknown cloud mode %q", cfg.Mode)
}
