package infra

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// Ledger drivers.
const (
	LedgerPostgres = "postgres"
	LedgerSQLite   = "sqlite"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv           string
	Port             string
	JWTSecret        string
	ClientURLs       []string
	DefaultLocale    string
	GeoIPDBPath      string
	LedgerDriver     string
	DatabaseURL      string
	SQLitePath       string
	UploadDir        string
	OutputDir        string
	MaxUploadBytes   int64
	TransformBackend string
	TransformTimeout time.Duration
	TransformWorkers int
	MaxPixels        int
	TransformScripts string
	JPEGQuality      int
	VipsCacheSize    int
	MirrorEndpoint   string
	MirrorBucket     string
	MirrorAccessKey  string
	MirrorSecretKey  string
	MirrorRegion     string
	MirrorUseSSL     bool
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             getEnv("PORT", "5000"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		ClientURLs:       splitList(getEnv("CLIENT_URL", "http://localhost:3000")),
		DefaultLocale:    getEnv("DEFAULT_LOCALE", "en"),
		GeoIPDBPath:      os.Getenv("GEOIP_DB_PATH"),
		LedgerDriver:     strings.ToLower(getEnv("LEDGER_DRIVER", LedgerSQLite)),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		SQLitePath:       getEnv("SQLITE_PATH", "stylestudio.db"),
		UploadDir:        getEnv("UPLOAD_DIR", "uploads"),
		OutputDir:        getEnv("OUTPUT_DIR", "outputs"),
		MaxUploadBytes:   int64(getEnvInt("MAX_UPLOAD_BYTES", 10<<20)),
		TransformBackend: getEnv("TRANSFORM_BACKEND", "native"),
		TransformTimeout: time.Second * time.Duration(getEnvInt("TRANSFORM_TIMEOUT_SECONDS", 60)),
		TransformWorkers: getEnvInt("TRANSFORM_CONCURRENCY", runtime.NumCPU()),
		MaxPixels:        getEnvInt("TRANSFORM_MAX_PIXELS", 50_000_000),
		TransformScripts: os.Getenv("TRANSFORM_SCRIPTS"),
		JPEGQuality:      getEnvInt("JPEG_QUALITY", 90),
		VipsCacheSize:    getEnvInt("VIPS_CACHE_SIZE", 100),
		MirrorEndpoint:   os.Getenv("MIRROR_ENDPOINT"),
		MirrorBucket:     os.Getenv("MIRROR_BUCKET"),
		MirrorAccessKey:  os.Getenv("MIRROR_ACCESS_KEY"),
		MirrorSecretKey:  os.Getenv("MIRROR_SECRET_KEY"),
		MirrorRegion:     os.Getenv("MIRROR_REGION"),
		MirrorUseSSL:     getEnvBool("MIRROR_USE_SSL", false),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 30)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 90)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	switch cfg.LedgerDriver {
	case LedgerPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when LEDGER_DRIVER=postgres")
		}
	case LedgerSQLite:
		if cfg.SQLitePath == "" {
			return nil, fmt.Errorf("SQLITE_PATH is required when LEDGER_DRIVER=sqlite")
		}
	default:
		return nil, fmt.Errorf("unsupported LEDGER_DRIVER %q", cfg.LedgerDriver)
	}

	if cfg.MaxUploadBytes <= 0 {
		return nil, fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	if cfg.TransformTimeout <= 0 {
		return nil, fmt.Errorf("TRANSFORM_TIMEOUT_SECONDS must be positive")
	}

	return cfg, nil
}

// MirrorEnabled reports whether an object storage mirror is configured.
func (c *Config) MirrorEnabled() bool {
	return c.MirrorEndpoint != "" && c.MirrorBucket != ""
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

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
