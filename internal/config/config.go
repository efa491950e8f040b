package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/statforge/statengine/internal/platform/logging"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

// Config stores runtime configuration for the service. Everything is loaded
// from environment variables at startup and validated once.
type Config struct {
	AppEnv         string
	ServiceName    string
	ServiceVersion string
	HTTPAddr       string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration

	// DBURL selects the durable store; empty falls back to the in-memory
	// repositories.
	DBURL string

	CacheLiveTTL     time.Duration
	CacheStandardTTL time.Duration

	SchedulerEnabled          bool
	SchedulerLiveInterval     time.Duration
	SchedulerStandardInterval time.Duration
	SchedulerRecentInterval   time.Duration
	SchedulerTickTimeout      time.Duration
	SchedulerBatchSize        int
	SchedulerWorkers          int
	SchedulerRecentWindow     time.Duration
	SchedulerArchiveAfter     time.Duration

	RetryMaxAttempts int
	RetryBaseDelay   time.Duration

	NotifierMaxConnections int

	CORSAllowedOrigins []string

	UptraceEnabled bool
	UptraceDSN     string

	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration

	PprofEnabled bool
	PprofAddr    string

	LogLevel logging.Level
}

func Load() (Config, error) {
	cfg := Config{}

	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}
	cfg.AppEnv = appEnv
	cfg.ServiceName = getEnv("SERVICE_NAME", "statengine")
	cfg.ServiceVersion = getEnv("SERVICE_VERSION", "dev")
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")
	cfg.DBURL = strings.TrimSpace(getEnv("DB_URL", ""))

	if cfg.ReadTimeout, err = getEnvAsDuration("APP_READ_TIMEOUT", "10s"); err != nil {
		return Config{}, err
	}
	if cfg.WriteTimeout, err = getEnvAsDuration("APP_WRITE_TIMEOUT", "30s"); err != nil {
		return Config{}, err
	}

	if cfg.CacheLiveTTL, err = getEnvAsDuration("CACHE_LIVE_TTL", "30s"); err != nil {
		return Config{}, err
	}
	if cfg.CacheStandardTTL, err = getEnvAsDuration("CACHE_STANDARD_TTL", "2m"); err != nil {
		return Config{}, err
	}
	if cfg.CacheLiveTTL <= 0 || cfg.CacheStandardTTL <= 0 {
		return Config{}, fmt.Errorf("cache TTLs must be > 0")
	}

	if cfg.SchedulerEnabled, err = getEnvAsBool("SCHEDULER_ENABLED", "true"); err != nil {
		return Config{}, err
	}
	if cfg.SchedulerLiveInterval, err = getEnvAsDuration("SCHEDULER_LIVE_INTERVAL", "30s"); err != nil {
		return Config{}, err
	}
	if cfg.SchedulerStandardInterval, err = getEnvAsDuration("SCHEDULER_STANDARD_INTERVAL", "2m"); err != nil {
		return Config{}, err
	}
	if cfg.SchedulerRecentInterval, err = getEnvAsDuration("SCHEDULER_RECENT_INTERVAL", "5m"); err != nil {
		return Config{}, err
	}
	if cfg.SchedulerTickTimeout, err = getEnvAsDuration("SCHEDULER_TICK_TIMEOUT", "90s"); err != nil {
		return Config{}, err
	}
	if cfg.SchedulerBatchSize, err = getEnvAsInt("SCHEDULER_BATCH_SIZE", 25); err != nil {
		return Config{}, err
	}
	if cfg.SchedulerBatchSize < 1 {
		return Config{}, fmt.Errorf("SCHEDULER_BATCH_SIZE must be >= 1")
	}
	if cfg.SchedulerWorkers, err = getEnvAsInt("SCHEDULER_WORKERS", 8); err != nil {
		return Config{}, err
	}
	if cfg.SchedulerWorkers < 1 {
		return Config{}, fmt.Errorf("SCHEDULER_WORKERS must be >= 1")
	}
	if cfg.SchedulerRecentWindow, err = getEnvAsDuration("SCHEDULER_RECENT_WINDOW", "24h"); err != nil {
		return Config{}, err
	}
	if cfg.SchedulerArchiveAfter, err = getEnvAsDuration("SCHEDULER_ARCHIVE_AFTER", "24h"); err != nil {
		return Config{}, err
	}

	if cfg.RetryMaxAttempts, err = getEnvAsInt("RETRY_MAX_ATTEMPTS", 3); err != nil {
		return Config{}, err
	}
	if cfg.RetryMaxAttempts < 1 {
		return Config{}, fmt.Errorf("RETRY_MAX_ATTEMPTS must be >= 1")
	}
	if cfg.RetryBaseDelay, err = getEnvAsDuration("RETRY_BASE_DELAY", "200ms"); err != nil {
		return Config{}, err
	}

	if cfg.NotifierMaxConnections, err = getEnvAsInt("NOTIFIER_MAX_CONNECTIONS", 1000); err != nil {
		return Config{}, err
	}

	cfg.CORSAllowedOrigins = splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*"))

	if cfg.UptraceEnabled, err = getEnvAsBool("UPTRACE_ENABLED", "false"); err != nil {
		return Config{}, err
	}
	cfg.UptraceDSN = strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if cfg.UptraceEnabled && cfg.UptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	if cfg.PyroscopeEnabled, err = getEnvAsBool("PYROSCOPE_ENABLED", "false"); err != nil {
		return Config{}, err
	}
	cfg.PyroscopeServerAddress = getEnv("PYROSCOPE_SERVER_ADDRESS", "")
	cfg.PyroscopeAppName = getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName)
	cfg.PyroscopeAuthToken = getEnv("PYROSCOPE_AUTH_TOKEN", "")
	cfg.PyroscopeBasicAuthUser = getEnv("PYROSCOPE_BASIC_AUTH_USER", "")
	cfg.PyroscopeBasicAuthPassword = getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")
	if cfg.PyroscopeUploadRate, err = getEnvAsDuration("PYROSCOPE_UPLOAD_RATE", "15s"); err != nil {
		return Config{}, err
	}
	if cfg.PyroscopeEnabled && strings.TrimSpace(cfg.PyroscopeServerAddress) == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}

	if cfg.PprofEnabled, err = getEnvAsBool("PPROF_ENABLED", "false"); err != nil {
		return Config{}, err
	}
	cfg.PprofAddr = getEnv("PPROF_ADDR", ":6060")

	cfg.LogLevel = parseLogLevel(getEnv("APP_LOG_LEVEL", "info"))

	return cfg, nil
}

func parseAppEnv(v string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(v))
	switch normalized {
	case EnvDev, EnvStage, EnvProd:
		return normalized, nil
	default:
		return "", fmt.Errorf("APP_ENV must be one of dev, stage, prod")
	}
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return parsed, nil
}

func getEnvAsBool(key, fallback string) (bool, error) {
	parsed, err := strconv.ParseBool(getEnv(key, fallback))
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return parsed, nil
}

func getEnvAsDuration(key, fallback string) (time.Duration, error) {
	parsed, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return parsed, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
