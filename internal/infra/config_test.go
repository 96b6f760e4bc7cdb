package infra

import (
	"testing"
	"time"
)

func clearCloudEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"CLOUD_MODE", "CLOUD_DATABASE_URL", "CLOUD_ENDPOINT", "CLOUD_API_KEY", "CLOUD_ACTIVE"} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearCloudEnv(t)
	t.Setenv("PORT", "")
	t.Setenv("DATA_DIR", "")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	t.Setenv("BACKUP_INTERVAL_MINUTES", "")
	t.Setenv("BACKUP_RETENTION_DAYS", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.DataDir != "./data" {
		t.Fatalf("DataDir = %q, want ./data", cfg.DataDir)
	}
	if cfg.CloudMode != "local" || cfg.CloudActive {
		t.Fatalf("cloud defaults mismatch: mode=%q active=%v", cfg.CloudMode, cfg.CloudActive)
	}
	if cfg.GeminiModel != "gemini-1.5-flash" {
		t.Fatalf("GeminiModel = %q", cfg.GeminiModel)
	}
	if cfg.RateLimitPerMin != 120 {
		t.Fatalf("RateLimitPerMin = %d, want 120", cfg.RateLimitPerMin)
	}
	if cfg.HTTPReadTimeout != 15*time.Second {
		t.Fatalf("HTTPReadTimeout = %v", cfg.HTTPReadTimeout)
	}
	if cfg.BackupInterval != time.Hour || cfg.BackupRetention != 30*24*time.Hour {
		t.Fatalf("backup defaults mismatch: interval=%v retention=%v", cfg.BackupInterval, cfg.BackupRetention)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "http://localhost:5173" {
		t.Fatalf("CORSAllowedOrigins mismatch: %#v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadConfigActivePostgresRequiresURL(t *testing.T) {
	clearCloudEnv(t)
	t.Setenv("CLOUD_ACTIVE", "true")
	t.Setenv("CLOUD_MODE", "postgres")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for active postgres mode without CLOUD_DATABASE_URL")
	}

	t.Setenv("CLOUD_DATABASE_URL", "postgres://example")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if !cfg.CloudActive || cfg.CloudDatabaseURL != "postgres://example" {
		t.Fatalf("cloud config mismatch: %+v", cfg)
	}
}

func TestLoadConfigActiveRestRequiresEndpoint(t *testing.T) {
	clearCloudEnv(t)
	t.Setenv("CLOUD_ACTIVE", "1")
	t.Setenv("CLOUD_MODE", "rest")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for active rest mode without CLOUD_ENDPOINT")
	}
}

func TestLoadConfigRejectsActiveLocalMode(t *testing.T) {
	clearCloudEnv(t)
	t.Setenv("CLOUD_ACTIVE", "true")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for CLOUD_ACTIVE without a remote mode")
	}
}

func TestLoadConfigParsesOriginList(t *testing.T) {
	clearCloudEnv(t)
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://donors.example , https://staging.donors.example ,")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	want := []string{"https://donors.example", "https://staging.donors.example"}
	if len(cfg.CORSAllowedOrigins) != len(want) {
		t.Fatalf("CORSAllowedOrigins mismatch: %#v", cfg.CORSAllowedOrigins)
	}
	for i, origin := range want {
		if cfg.CORSAllowedOrigins[i] != origin {
			t.Fatalf("CORSAllowedOrigins[%d] = %q, want %q", i, cfg.CORSAllowedOrigins[i], origin)
		}
	}
}

func TestLoadConfigIgnoresMalformedValues(t *testing.T) {
	clearCloudEnv(t)
	t.Setenv("CLOUD_ACTIVE", "definitely")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "abc")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.CloudActive {
		t.Fatal("malformed CLOUD_ACTIVE should fall back to false")
	}
	if cfg.RateLimitPerMin != 120 {
		t.Fatalf("RateLimitPerMin = %d, want fallback 120", cfg.RateLimitPerMin)
	}
}
