// Package config reads the environment configuration of the commonpass
// binaries.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/tamirms/commonpass/internal/aggregate"
	"github.com/tamirms/commonpass/internal/logging"
	"github.com/tamirms/commonpass/internal/normalize"
)

// Store backends.
const (
	StoreLocal = "local"
	StoreS3    = "s3"
	StoreMinio = "minio"
)

type Config struct {
	Port      string
	LogLevel  slog.Level
	LogFormat string

	Tier          string
	Version       string
	Path          string
	Root          string
	Normalization normalize.Mode

	Store      string
	Bucket     string
	Prefix     string
	S3Endpoint string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioUseSSL    bool

	RateLimitRPS   float64 // 0 disables limiting
	RateLimitBurst int

	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	return LoadFrom(nil)
}

// LoadFrom reads configuration from the provided map. If env is nil, all
// values come from os.Getenv.
func LoadFrom(env map[string]string) (*Config, error) {
	get := func(key string) string {
		if env != nil {
			return env[key]
		}
		return os.Getenv(key)
	}

	cfg := &Config{}
	var err error

	cfg.Port = getOrDefault(get, "PORT", "8090")
	cfg.LogLevel, err = logging.ParseLevel(getOrDefault(get, "LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("invalid value for LOG_LEVEL: %w", err)
	}
	cfg.LogFormat = getOrDefault(get, "LOG_FORMAT", "text")
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("invalid value for LOG_FORMAT: %q (want text or json)", cfg.LogFormat)
	}

	cfg.Tier = getOrDefault(get, "COMMONPASS_TIER", string(aggregate.Tiny))
	if _, err := aggregate.ParseTier(cfg.Tier); err != nil {
		return nil, fmt.Errorf("invalid value for COMMONPASS_TIER: %w", err)
	}
	cfg.Version = get("COMMONPASS_VERSION")
	cfg.Path = get("COMMONPASS_PATH")
	cfg.Root = getOrDefault(get, "COMMONPASS_ROOT", "datasets")
	cfg.Normalization, err = normalize.ParseMode(get("COMMONPASS_NORMALIZATION"))
	if err != nil {
		return nil, fmt.Errorf("invalid value for COMMONPASS_NORMALIZATION: %w", err)
	}

	cfg.Store = getOrDefault(get, "COMMONPASS_STORE", StoreLocal)
	cfg.Bucket = get("COMMONPASS_BUCKET")
	cfg.Prefix = get("COMMONPASS_PREFIX")
	cfg.S3Endpoint = get("COMMONPASS_S3_ENDPOINT")
	cfg.MinioEndpoint = get("MINIO_ENDPOINT")
	cfg.MinioAccessKey = get("MINIO_ACCESS_KEY")
	cfg.MinioSecretKey = get("MINIO_SECRET_KEY")
	cfg.MinioUseSSL = getBoolOrDefault(get, "MINIO_USE_SSL", false)

	switch cfg.Store {
	case StoreLocal:
	case StoreS3, StoreMinio:
		if cfg.Bucket == "" {
			return nil, fmt.Errorf("COMMONPASS_BUCKET is required for COMMONPASS_STORE=%s", cfg.Store)
		}
		if cfg.Store == StoreMinio && cfg.MinioEndpoint == "" {
			return nil, fmt.Errorf("MINIO_ENDPOINT is required for COMMONPASS_STORE=minio")
		}
	default:
		return nil, fmt.Errorf("invalid value for COMMONPASS_STORE: %q (want local, s3 or minio)", cfg.Store)
	}

	cfg.RateLimitRPS, err = getFloatOrDefault(get, "RATE_LIMIT_RPS", 0)
	if err != nil {
		return nil, err
	}
	if cfg.RateLimitRPS < 0 {
		return nil, fmt.Errorf("RATE_LIMIT_RPS must not be negative (got %v)", cfg.RateLimitRPS)
	}
	cfg.RateLimitBurst, err = getIntOrDefault(get, "RATE_LIMIT_BURST", 20)
	if err != nil {
		return nil, err
	}

	secs, err := getIntOrDefault(get, "SHUTDOWN_TIMEOUT", 10)
	if err != nil {
		return nil, err
	}
	if secs <= 0 {
		return nil, fmt.Errorf("SHUTDOWN_TIMEOUT must be positive (got %d)", secs)
	}
	cfg.ShutdownTimeout = time.Duration(secs) * time.Second

	return cfg, nil
}

func getOrDefault(get func(string) string, key, defaultVal string) string {
	if v := get(key); v != "" {
		return v
	}
	return defaultVal
}

func getBoolOrDefault(get func(string) string, key string, defaultVal bool) bool {
	switch get(key) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return defaultVal
}

func getIntOrDefault(get func(string) string, key string, defaultVal int) (int, error) {
	v := get(key)
	if v == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return n, nil
}

func getFloatOrDefault(get func(string) string, key string, defaultVal float64) (float64, error) {
	v := get(key)
	if v == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return f, nil
}
