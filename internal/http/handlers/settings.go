package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"donorhub/internal/domain"
	"donorhub/internal/store"
)

// cloudSettingsDTO is the redacted view of the cloud configuration.
// Credentials never round-trip; the booleans only say whether one is
// on file.
type cloudSettingsDTO struct {
	Mode           store.CloudMode `json:"mode"`
	Endpoint       string          `json:"endpoint"`
	Active         bool            `json:"active"`
	HasDatabaseURL bool            `json:"has_database_url"`
	HasAPIKey      bool            `json:"has_api_key"`
}

type settingsDTO struct {
	Cloud              cloudSettingsDTO `json:"cloud"`
	HasAssistantAPIKey bool             `json:"has_assistant_api_key"`
	Backend            string           `json:"backend"`
}

func settingsView(s store.Settings, backend string) settingsDTO {
	mode := s.Cloud.Mode
	if mode == "" {
		mode = store.ModeLocal
	}
	return settingsDTO{
		Cloud: cloudSettingsDTO{
			Mode:           mode,
			Endpoint:       s.Cloud.Endpoint,
			Active:         s.Cloud.Active,
			HasDatabaseURL: s.Cloud.DatabaseURL != "",
			HasAPIKey:      s.Cloud.APIKey != "",
		},
		HasAssistantAPIKey: s.AssistantAPIKey != "",
		Backend:            backend,
	}
}

func (a *App) SettingsCloudGet(w http.ResponseWriter, r *http.Request) {
	settings, err := a.Settings.Load()
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, settingsView(settings, a.Sync.GatewayKind()))
}

type settingsRequest struct {
	Cloud struct {
		Mode        store.CloudMode `json:"mode"`
		DatabaseURL string          `json:"database_url"`
		Endpoint    string          `json:"endpoint"`
		APIKey      string          `json:"api_key"`
		Active      bool            `json:"active"`
	} `json:"cloud"`
	AssistantAPIKey *string `json:"assistant_api_key"`
}

// SettingsCloudPut persists the cloud configuration and re-targets the
// gateway in one step. With ?probe=1 the new backend must answer a
// ping before anything is saved, so a typo cannot strand the app on an
// unreachable store.
func (a *App) SettingsCloudPut(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	current, err := a.Settings.Load()
	if err != nil {
		a.fail(w, err)
		return
	}
	next := current
	next.Cloud.Mode = req.Cloud.Mode
	next.Cloud.Endpoint = strings.TrimSpace(req.Cloud.Endpoint)
	next.Cloud.Active = req.Cloud.Active
	// Credentials are write-only: an empty field keeps the stored value.
	if v := strings.TrimSpace(req.Cloud.DatabaseURL); v != "" {
		next.Cloud.DatabaseURL = v
	}
	if v := strings.TrimSpace(req.Cloud.APIKey); v != "" {
		next.Cloud.APIKey = v
	}
	if req.AssistantAPIKey != nil {
		next.AssistantAPIKey = strings.TrimSpace(*req.AssistantAPIKey)
	}
	if err := next.Cloud.Validate(); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	gw := domain.Store(a.Sync.Local())
	if next.Cloud.Remote() {
		gw, err = store.Open(r.Context(), next.Cloud, a.Config.DataDir, a.Logger)
		if err != nil {
			a.fail(w, err)
			return
		}
	}
	if r.URL.Query().Get("probe") == "1" {
		if err := gw.Ping(r.Context()); err != nil {
			if closer, ok := gw.(interface{ Close() }); ok && gw != domain.Store(a.Sync.Local()) {
				closer.Close()
			}
			a.fail(w, err)
			return
		}
	}

	if err := a.Settings.Save(next); err != nil {
		a.fail(w, err)
		return
	}
	if err := a.Sync.SwitchGateway(r.Context(), gw); err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, settingsView(next, a.Sync.GatewayKind()))
}
