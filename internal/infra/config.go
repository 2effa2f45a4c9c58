package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	HistoryDriverPostgres = "postgres"
	HistoryDriverSQLite   = "sqlite"

	CredentialModeStatic  = "static"
	CredentialModeManaged = "managed"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv             string
	Port               string
	HistoryDriver      string
	DatabaseURL        string
	SQLitePath         string
	RedisURL           string
	GeoIPDBPath        string
	DefaultLocale      string
	CredentialMode     string
	GeminiAPIKey       string
	GeminiBaseURL      string
	GeminiImageModel   string
	GeminiTextModel    string
	GeminiTTSModel     string
	GeminiVideoModel   string
	TTSVoice           string
	VideoPollInterval  time.Duration
	VideoPollTimeout   time.Duration
	ProviderTimeout    time.Duration
	MaxAssetBytes      int64
	CORSAllowedOrigins []string
	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
	RateLimitPerMin    int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               getEnv("PORT", "8080"),
		HistoryDriver:      strings.ToLower(os.Getenv("HISTORY_DRIVER")),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		SQLitePath:         getEnv("SQLITE_PATH", "data/history.sqlite3"),
		RedisURL:           os.Getenv("REDIS_URL"),
		GeoIPDBPath:        os.Getenv("GEOIP_DB_PATH"),
		DefaultLocale:      getEnv("DEFAULT_LOCALE", "en"),
		CredentialMode:     strings.ToLower(getEnv("CREDENTIAL_MODE", CredentialModeStatic)),
		GeminiAPIKey:       strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiBaseURL:      os.Getenv("GEMINI_BASE_URL"),
		GeminiImageModel:   getEnv("GEMINI_IMAGE_MODEL", "gemini-2.5-flash-image-preview"),
		GeminiTextModel:    getEnv("GEMINI_TEXT_MODEL", "gemini-2.5-flash"),
		GeminiTTSModel:     getEnv("GEMINI_TTS_MODEL", "gemini-2.5-flash-preview-tts"),
		GeminiVideoModel:   getEnv("GEMINI_VIDEO_MODEL", "veo-3.0-fast-generate-001"),
		TTSVoice:           getEnv("TTS_VOICE", "Kore"),
		VideoPollInterval:  time.Second * time.Duration(getEnvInt("VIDEO_POLL_INTERVAL_SECONDS", 10)),
		VideoPollTimeout:   time.Second * time.Duration(getEnvInt("VIDEO_POLL_TIMEOUT_SECONDS", 600)),
		ProviderTimeout:    time.Second * time.Duration(getEnvInt("PROVIDER_TIMEOUT_SECONDS", 120)),
		MaxAssetBytes:      int64(getEnvInt("MAX_ASSET_MB", 64)) << 20,
		CORSAllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		HTTPReadTimeout:    time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 30)),
		HTTPWriteTimeout:   time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 900)),
		HTTPIdleTimeout:    time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	if cfg.HistoryDriver == "" {
		cfg.HistoryDriver = HistoryDriverSQLite
		if cfg.DatabaseURL != "" {
			cfg.HistoryDriver = HistoryDriverPostgres
		}
	}

	switch cfg.HistoryDriver {
	case HistoryDriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the postgres history driver")
		}
	case HistoryDriverSQLite:
		if strings.TrimSpace(cfg.SQLitePath) == "" {
			return nil, fmt.Errorf("SQLITE_PATH is required for the sqlite history driver")
		}
	default:
		return nil, fmt.Errorf("unsupported HISTORY_DRIVER %q", cfg.HistoryDriver)
	}

	switch cfg.CredentialMode {
	case CredentialModeStatic, CredentialModeManaged:
	default:
		return nil, fmt.Errorf("unsupported CREDENTIAL_MODE %q", cfg.CredentialMode)
	}

	if cfg.VideoPollInterval <= 0 {
		return nil, fmt.Errorf("VIDEO_POLL_INTERVAL_SECONDS must be positive")
	}
	if cfg.VideoPollTimeout < cfg.VideoPollInterval {
		return nil, fmt.Errorf("VIDEO_POLL_TIMEOUT_SECONDS must be at least the poll interval")
	}

	return cfg, nil
}

// GenerationLockTTL bounds how long one submitter can hold the in-flight guard.
func (c *Config) GenerationLockTTL() time.Duration {
	return c.VideoPollTimeout + 2*c.ProviderTimeout + time.Minute
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

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}
