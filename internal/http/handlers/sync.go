package handlers

import (
	"errors"
	"net/http"

	"donorhub/internal/domain"
)

// SyncPush copies every local record to the active remote backend. A
// partial failure still reports how far the push got, because records
// pushed before the error stay remote.
func (a *App) SyncPush(w http.ResponseWriter, r *http.Request) {
	report, err := a.Sync.PushLocal(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrCloudDisabled) {
			a.error(w, http.StatusConflict, "cloud_disabled", "cloud sync is not active")
			return
		}
		a.Logger.Error().Err(err).Msg("bulk push failed")
		a.json(w, http.StatusBadGateway, map[string]any{
			"code":    "remote_unavailable",
			"message": "push did not complete",
			"report":  report,
		})
		return
	}
	a.json(w, http.StatusOK, report)
}
