package config

import (
	"fmt"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Auth      AuthConfig
	Storage   StorageConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Dispatch  DispatchConfig
	Worker    WorkerConfig
	Sentry    SentryConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Env       string `mapstructure:"env"`
	BodyLimit int    `mapstructure:"body_limit"`
}

// Addr returns the listen address
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Token validation modes
const (
	TokenModeStatic = "static"
	TokenModeJWT    = "jwt"
)

// AuthConfig holds credential and token validation configuration
type AuthConfig struct {
	AdminUsername string `mapstructure:"admin_username"`
	// AdminPassword is either a bcrypt hash or a plain password
	AdminPassword string        `mapstructure:"admin_password"`
	TokenMode     string        `mapstructure:"token_mode"`
	JWTSecret     string        `mapstructure:"jwt_secret"`
	JWTIssuer     string        `mapstructure:"jwt_issuer"`
	TokenCacheTTL time.Duration `mapstructure:"token_cache_ttl"`
}

// Storage drivers
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// StorageConfig selects the record store
type StorageConfig struct {
	Driver string `mapstructure:"driver"`
}

// PostgresConfig holds PostgreSQL configuration
type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// DSN returns the PostgreSQL connection string
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	RequestsPerSecond int           `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	IdleTTL           time.Duration `mapstructure:"idle_ttl"`
}

// DispatchConfig holds request dispatcher configuration
type DispatchConfig struct {
	// RequestTimeout bounds a single dispatch; zero disables it
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// WorkerConfig holds background worker configuration
type WorkerConfig struct {
	Concurrency int    `mapstructure:"concurrency"`
	Queue       string `mapstructure:"queue"`
	MaxRetry    int    `mapstructure:"max_retry"`
}

// SentryConfig holds error reporting configuration
type SentryConfig struct {
	DSN        string  `mapstructure:"dsn"`
	SampleRate float64 `mapstructure:"sample_rate"`
}

// IsDevelopment returns true if running in development mode
func (c Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c Config) IsProduction() bool {
	return c.Server.Env == "production"
}
