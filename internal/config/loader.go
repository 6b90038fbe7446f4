package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	defaultJWTSecret     = "change-me-in-production"
	defaultAdminPassword = "admin"
)

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/relaygate")

	// Ignore error if config file not found
	_ = v.ReadInConfig()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// Server
	cfg.Server.Host = v.GetString("server_host")
	cfg.Server.Port = v.GetInt("server_port")
	cfg.Server.Env = v.GetString("server_env")
	cfg.Server.BodyLimit = v.GetInt("server_body_limit")

	// Logging
	cfg.Log.Level = v.GetString("log_level")
	cfg.Log.Format = v.GetString("log_format")

	// Auth
	cfg.Auth.AdminUsername = v.GetString("auth_admin_username")
	cfg.Auth.AdminPassword = v.GetString("auth_admin_password")
	cfg.Auth.TokenMode = v.GetString("auth_token_mode")
	cfg.Auth.JWTSecret = v.GetString("auth_jwt_secret")
	cfg.Auth.JWTIssuer = v.GetString("auth_jwt_issuer")
	cfg.Auth.TokenCacheTTL = v.GetDuration("auth_token_cache_ttl")

	// Storage
	cfg.Storage.Driver = v.GetString("storage_driver")

	// PostgreSQL
	cfg.Postgres.Host = v.GetString("postgres_host")
	cfg.Postgres.Port = v.GetInt("postgres_port")
	cfg.Postgres.User = v.GetString("postgres_user")
	cfg.Postgres.Password = v.GetString("postgres_password")
	cfg.Postgres.Database = v.GetString("postgres_db")
	cfg.Postgres.SSLMode = v.GetString("postgres_ssl_mode")
	cfg.Postgres.MaxConns = int32(v.GetInt("postgres_max_conns"))
	cfg.Postgres.MinConns = int32(v.GetInt("postgres_min_conns"))

	// Redis
	cfg.Redis.Enabled = v.GetBool("redis_enabled")
	cfg.Redis.Host = v.GetString("redis_host")
	cfg.Redis.Port = v.GetInt("redis_port")
	cfg.Redis.Password = v.GetString("redis_password")
	cfg.Redis.DB = v.GetInt("redis_db")

	// Rate limiting
	cfg.RateLimit.Enabled = v.GetBool("rate_limit_enabled")
	cfg.RateLimit.RequestsPerSecond = v.GetInt("rate_limit_requests_per_second")
	cfg.RateLimit.Burst = v.GetInt("rate_limit_burst")
	cfg.RateLimit.IdleTTL = v.GetDuration("rate_limit_idle_ttl")

	// Dispatch
	cfg.Dispatch.RequestTimeout = v.GetDuration("dispatch_request_timeout")

	// Worker
	cfg.Worker.Concurrency = v.GetInt("worker_concurrency")
	cfg.Worker.Queue = v.GetString("worker_queue")
	cfg.Worker.MaxRetry = v.GetInt("worker_max_retry")

	// Sentry
	cfg.Sentry.DSN = v.GetString("sentry_dsn")
	cfg.Sentry.SampleRate = v.GetFloat64("sentry_sample_rate")

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server_host", "0.0.0.0")
	v.SetDefault("server_port", 8080)
	v.SetDefault("server_env", "development")
	v.SetDefault("server_body_limit", 4*1024*1024)

	// Logging defaults
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")

	// Auth defaults
	v.SetDefault("auth_admin_username", "admin")
	v.SetDefault("auth_admin_password", defaultAdminPassword)
	v.SetDefault("auth_token_mode", TokenModeStatic)
	v.SetDefault("auth_jwt_secret", defaultJWTSecret)
	v.SetDefault("auth_jwt_issuer", "relaygate")
	v.SetDefault("auth_token_cache_ttl", "5m")

	// Storage defaults
	v.SetDefault("storage_driver", StorageMemory)

	// PostgreSQL defaults
	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_user", "relaygate")
	v.SetDefault("postgres_password", "relaygate")
	v.SetDefault("postgres_db", "relaygate")
	v.SetDefault("postgres_ssl_mode", "disable")
	v.SetDefault("postgres_max_conns", 25)
	v.SetDefault("postgres_min_conns", 5)

	// Redis defaults
	v.SetDefault("redis_enabled", false)
	v.SetDefault("redis_host", "localhost")
	v.SetDefault("redis_port", 6379)
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)

	// Rate limiting defaults
	v.SetDefault("rate_limit_enabled", true)
	v.SetDefault("rate_limit_requests_per_second", 100)
	v.SetDefault("rate_limit_burst", 200)
	v.SetDefault("rate_limit_idle_ttl", "10m")

	// Dispatch defaults
	v.SetDefault("dispatch_request_timeout", "30s")

	// Worker defaults
	v.SetDefault("worker_concurrency", 10)
	v.SetDefault("worker_queue", "batches")
	v.SetDefault("worker_max_retry", 0)

	// Sentry defaults
	v.SetDefault("sentry_dsn", "")
	v.SetDefault("sentry_sample_rate", 1.0)
}

func validate(cfg *Config) error {
	switch cfg.Storage.Driver {
	case StorageMemory, StoragePostgres:
	default:
		return fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	switch cfg.Auth.TokenMode {
	case TokenModeStatic, TokenModeJWT:
	default:
		return fmt.Errorf("unknown token mode %q", cfg.Auth.TokenMode)
	}

	if cfg.Server.BodyLimit <= 0 {
		return fmt.Errorf("server body limit must be positive")
	}

	if cfg.IsProduction() {
		if cfg.Auth.TokenMode == TokenModeJWT && cfg.Auth.JWTSecret == defaultJWTSecret {
			return fmt.Errorf("JWT secret must be changed in production")
		}
		if cfg.Auth.AdminPassword == defaultAdminPassword {
			return fmt.Errorf("admin password must be changed in production")
		}
	}
	return nil
}
