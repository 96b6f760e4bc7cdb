package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"donorhub/internal/domain"
	"donorhub/internal/infra"
	"donorhub/internal/store"
	"donorhub/internal/syncer"
)

// App bundles the dependencies every handler needs. Handlers stay
// thin: decode, call the controller, translate the error, encode.
type App struct {
	Sync     *syncer.Controller
	Settings *store.SettingsStore
	Config   *infra.Config
	Logger   zerolog.Logger

	// Now is the handler time source; tests pin it.
	Now func() time.Time
}

func NewApp(sync *syncer.Controller, settings *store.SettingsStore, cfg *infra.Config, logger zerolog.Logger) *App {
	return &App{Sync: sync, Settings: settings, Config: cfg, Logger: logger, Now: time.Now}
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]string{"code": code, "message": message})
}

// fail maps an error from the lower layers onto the JSON envelope.
// Remote gateway failures are checked first so a wrapped sentinel
// inside a RemoteError still reads as a connectivity problem.
func (a *App) fail(w http.ResponseWriter, err error) {
	if remote, ok := store.AsRemote(err); ok {
		a.Logger.Error().Err(err).
			Str("backend", remote.Backend).
			Str("op", remote.Op).
			Msg("remote gateway failure")
		a.error(w, http.StatusBadGateway, "remote_unavailable", "cloud backend unavailable")
		return
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrValidation):
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, domain.ErrCloudDisabled):
		a.error(w, http.StatusConflict, "cloud_disabled", "cloud sync is not active")
	case errors.Is(err, domain.ErrProviderFailure):
		a.error(w, http.StatusBadGateway, "assistant_unavailable", "assistant provider unavailable")
	default:
		a.Logger.Error().Err(err).Msg("request failed")
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}
