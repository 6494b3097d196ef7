package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "corkboard.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "CORKBOARD_PORT")
	setString(&cfg.Server.CORSOrigin, "CORKBOARD_CORS_ORIGIN")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "CORKBOARD_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "CORKBOARD_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "CORKBOARD_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "CORKBOARD_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "CORKBOARD_PG_HEALTH_CHECK")
	setString(&cfg.NATS.URL, "NATS_URL")
	setInt64(&cfg.Cache.MaxSizeMB, "CORKBOARD_CACHE_SIZE_MB")
	setDuration(&cfg.Cache.AccessTTL, "CORKBOARD_CACHE_ACCESS_TTL")
	setString(&cfg.Logging.Level, "CORKBOARD_LOG_LEVEL")
	setString(&cfg.Logging.Service, "CORKBOARD_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "CORKBOARD_LOG_ASYNC")
	setBool(&cfg.Auth.Enabled, "CORKBOARD_AUTH_ENABLED")
	setString(&cfg.Auth.TokenSecret, "CORKBOARD_TOKEN_SECRET")
	setDuration(&cfg.Auth.TokenExpiry, "CORKBOARD_TOKEN_EXPIRY")
	setInt(&cfg.Auth.BcryptCost, "CORKBOARD_BCRYPT_COST")
	setDuration(&cfg.Activity.DedupeWindow, "CORKBOARD_ACTIVITY_DEDUPE_WINDOW")
	setInt(&cfg.Presence.SendQueueSize, "CORKBOARD_PRESENCE_SEND_QUEUE")
	setFloat64(&cfg.Rate.RequestsPerSecond, "CORKBOARD_RATE_RPS")
	setInt(&cfg.Rate.Burst, "CORKBOARD_RATE_BURST")
	setBool(&cfg.Telemetry.Enabled, "CORKBOARD_OTEL_ENABLED")
	setString(&cfg.Telemetry.Endpoint, "CORKBOARD_OTEL_ENDPOINT")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if cfg.NATS.URL == "" {
		return errors.New("nats.url is required")
	}
	if cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	if cfg.Auth.Enabled && cfg.Auth.TokenSecret == "" {
		return errors.New("auth.token_secret is required when auth is enabled")
	}
	if cfg.Activity.DedupeWindow < 0 {
		return errors.New("activity.dedupe_window must be >= 0")
	}
	if cfg.Presence.SendQueueSize < 1 {
		return errors.New("presence.send_queue_size must be >= 1")
	}
	if cfg.Rate.Burst < 1 {
		return errors.New("rate.burst must be >= 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
