package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"donorhub/internal/transfer"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (a *App) ExportJSON(w http.ResponseWriter, r *http.Request) {
	now := a.now()
	doc := transfer.Export(a.Sync.Donors(), a.Sync.Groups(), now)
	raw, err := doc.Encode()
	if err != nil {
		a.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", transfer.Filename(now)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

func (a *App) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	now := a.now()
	raw, err := transfer.Workbook(a.Sync.Donors(), a.Sync.Groups(), now)
	if err != nil {
		a.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", transfer.WorkbookFilename(now)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

func (a *App) ExportArchive(w http.ResponseWriter, r *http.Request) {
	now := a.now()
	raw, err := transfer.Archive(a.Sync.Donors(), a.Sync.Groups(), now)
	if err != nil {
		a.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", transfer.ArchiveFilename(now)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

// Import loads a previously exported document into the local blobs.
// The ?mode= query parameter wins over the mode field in the body.
func (a *App) Import(w http.ResponseWriter, r *http.Request) {
	var req transfer.ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if mode := r.URL.Query().Get("mode"); mode != "" {
		req.Mode = transfer.Mode(mode)
	}
	summary, err := transfer.Import(r.Context(), a.Sync.Local(), req)
	if err != nil {
		a.fail(w, err)
		return
	}
	// Imports target the local blobs. With the local gateway active the
	// working set must pick the new records up immediately; a remote
	// gateway keeps serving its own state until the next push.
	if a.Sync.GatewayKind() == "local" {
		if err := a.Sync.Refresh(r.Context()); err != nil {
			a.fail(w, err)
			return
		}
	}
	a.json(w, http.StatusOK, summary)
}
