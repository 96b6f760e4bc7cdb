package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment
// variables. Nothing is strictly required: with an empty environment
// the service runs against the local blob store in ./data.
type Config struct {
	AppEnv  string
	Port    string
	DataDir string

	// Cloud* seed the settings blob on first boot; afterwards the
	// persisted settings win.
	CloudMode        string
	CloudDatabaseURL string
	CloudEndpoint    string
	CloudAPIKey      string
	CloudActive      bool

	GeminiAPIKey       string
	GeminiModel        string
	GeminiBaseURL      string
	AssistantMaxDonors int

	GeoIPDBPath        string
	CORSAllowedOrigins []string

	BackupDir       string
	BackupInterval  time.Duration
	BackupRetention time.Duration

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
}

// LoadConfig loads configuration from environment variables and applies
// defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               getEnv("PORT", "8080"),
		DataDir:            getEnv("DATA_DIR", "./data"),
		CloudMode:          getEnv("CLOUD_MODE", "local"),
		CloudDatabaseURL:   os.Getenv("CLOUD_DATABASE_URL"),
		CloudEndpoint:      os.Getenv("CLOUD_ENDPOINT"),
		CloudAPIKey:        os.Getenv("CLOUD_API_KEY"),
		CloudActive:        getEnvBool("CLOUD_ACTIVE", false),
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		GeminiModel:        getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		GeminiBaseURL:      getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		AssistantMaxDonors: getEnvInt("ASSISTANT_MAX_DONORS", 200),
		GeoIPDBPath:        os.Getenv("GEOIP_DB_PATH"),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		BackupDir:          getEnv("BACKUP_DIR", "./backups"),
		BackupInterval:     time.Minute * time.Duration(getEnvInt("BACKUP_INTERVAL_MINUTES", 60)),
		BackupRetention:    24 * time.Hour * time.Duration(getEnvInt("BACKUP_RETENTION_DAYS", 30)),
		HTTPReadTimeout:    time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:   time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:    time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
	}

	if cfg.CloudActive {
		switch cfg.CloudMode {
		case "postgres":
			if cfg.CloudDatabaseURL == "" {
				return nil, fmt.Errorf("CLOUD_ACTIVE with CLOUD_MODE=postgres requires CLOUD_DATABASE_URL")
			}
		case "rest":
			if cfg.CloudEndpoint == "" {
				return nil, fmt.Errorf("CLOUD_ACTIVE with CLOUD_MODE=rest requires CLOUD_ENDPOINT")
			}
		default:
			return nil, fmt.Errorf("CLOUD_ACTIVE requires CLOUD_MODE=postgres or rest, got %q", cfg.CloudMode)
		}
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
