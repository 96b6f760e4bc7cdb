package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

// CloudMode selects which backend Open builds.
type CloudMode string

const (
	ModeLocal    CloudMode = "local"
	ModePostgres CloudMode = "postgres"
	ModeRest     CloudMode = "rest"
)

// CloudConfig describes the optional remote backend. Active reports
// whether the remote gateway should be used; with Active false the
// settings are kept but the app stays on the local store.
type CloudConfig struct {
	Mode        CloudMode `json:"mode"`
	DatabaseURL string    `json:"database_url"`
	Endpoint    string    `json:"endpoint"`
	APIKey      string    `json:"api_key"`
	Active      bool      `json:"active"`
}

// Validate checks that an active configuration has everything its
// backend needs. Inactive configurations are always valid.
func (c CloudConfig) Validate() error {
	switch c.Mode {
	case "", ModeLocal, ModePostgres, ModeRest:
	default:
		return fmt.Errorf("unknown cloud mode %q", c.Mode)
	}
	if !c.Active {
		return nil
	}
	switch c.Mode {
	case ModePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("postgres mode requires a database url")
		}
	case ModeRest:
		if c.Endpoint == "" {
			return fmt.Errorf("rest mode requires an endpoint")
		}
	default:
		return fmt.Errorf("cloud sync cannot be active in %q mode", c.Mode)
	}
	return nil
}

// Remote reports whether the configuration selects a remote backend.
func (c CloudConfig) Remote() bool {
	return c.Active && (c.Mode == ModePostgres || c.Mode == ModeRest)
}

// Settings is everything the app persists outside the donor data:
// the cloud backend configuration and the assistant credential.
type Settings struct {
	Cloud           CloudConfig `json:"cloud"`
	AssistantAPIKey string      `json:"assistant_api_key"`
}

// SettingsStore persists Settings in a single JSON file next to the
// data blobs. The file holds credentials, so it is written 0600.
type SettingsStore struct {
	path   string
	logger zerolog.Logger

	mu sync.Mutex
}

func NewSettingsStore(path string, logger zerolog.Logger) *SettingsStore {
	return &SettingsStore{path: path, logger: logger}
}

// Load returns the persisted settings, or zero settings when the file
// does not exist yet or cannot be parsed.
func (s *SettingsStore) Load() (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Settings{}, nil
		}
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}
	var settings Settings
	if err := json.Unmarshal(raw, &settings); err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("corrupt settings file, starting fresh")
		return Settings{}, nil
	}
	return settings, nil
}

func (s *SettingsStore) Save(settings Settings) error {
	if err := settings.Cloud.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("store settings: %w", err)
	}
	return nil
}
