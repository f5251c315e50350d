package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the API server.
type Config struct {
	Server    ServerConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Providers ProviderConfig
	Telemetry TelemetryConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string        `mapstructure:"SERVER_HOST"`
	Port         int           `mapstructure:"SERVER_PORT"`
	ReadTimeout  time.Duration `mapstructure:"SERVER_READ_TIMEOUT"`
	WriteTimeout time.Duration `mapstructure:"SERVER_WRITE_TIMEOUT"`
	IdleTimeout  time.Duration `mapstructure:"SERVER_IDLE_TIMEOUT"`
	AllowOrigin  string        `mapstructure:"SERVER_ALLOW_ORIGIN"`
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `mapstructure:"POSTGRES_HOST"`
	Port     int    `mapstructure:"POSTGRES_PORT"`
	User     string `mapstructure:"POSTGRES_USER"`
	Password string `mapstructure:"POSTGRES_PASSWORD"`
	DBName   string `mapstructure:"POSTGRES_DB"`
	SSLMode  string `mapstructure:"POSTGRES_SSLMODE"`
	MaxConns int32  `mapstructure:"POSTGRES_MAX_CONNS"`
	MinConns int32  `mapstructure:"POSTGRES_MIN_CONNS"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Host     string `mapstructure:"REDIS_HOST"`
	Port     int    `mapstructure:"REDIS_PORT"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
	PoolSize int    `mapstructure:"REDIS_POOL_SIZE"`
}

// ProviderConfig holds upstream credentials and endpoints. Empty or
// placeholder keys disable the corresponding direct provider.
type ProviderConfig struct {
	MapsAPIKey   string        `mapstructure:"MAPS_API_KEY"`
	GenAIAPIKey  string        `mapstructure:"GENAI_API_KEY"`
	GenAIModel   string        `mapstructure:"GENAI_MODEL"`
	GenAIBaseURL string        `mapstructure:"GENAI_BASE_URL"`
	RelayBaseURL string        `mapstructure:"RELAY_BASE_URL"` // empty disables the relay
	Timeout      time.Duration `mapstructure:"PROVIDER_TIMEOUT"`
}

// TelemetryConfig holds logging and error reporting settings.
type TelemetryConfig struct {
	SentryDSN string     `mapstructure:"SENTRY_DSN"`
	Env       string     `mapstructure:"APP_ENV"`
	LogLevel  slog.Level `mapstructure:"LOG_LEVEL"`
}

// DSN returns the PostgreSQL connection string.
func (p *PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.DBName, p.SSLMode,
	)
}

// Addr returns the Redis address in host:port format.
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// ServerAddr returns the HTTP listen address in host:port format.
func (s *ServerConfig) ServerAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Load reads configuration from environment variables and a .env file in
// the working directory.
func Load() (*Config, error) {
	return LoadFrom(".")
}

// LoadFrom is Load with an explicit directory for the .env file.
func LoadFrom(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(dir)
	v.AutomaticEnv()

	// ── Defaults ────────────────────────────────────────
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("SERVER_READ_TIMEOUT", "5s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "30s")
	v.SetDefault("SERVER_IDLE_TIMEOUT", "120s")
	v.SetDefault("SERVER_ALLOW_ORIGIN", "*")

	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", 5432)
	v.SetDefault("POSTGRES_USER", "wayfarer")
	v.SetDefault("POSTGRES_PASSWORD", "wayfarer_secret")
	v.SetDefault("POSTGRES_DB", "wayfarer_db")
	v.SetDefault("POSTGRES_SSLMODE", "disable")
	v.SetDefault("POSTGRES_MAX_CONNS", 20)
	v.SetDefault("POSTGRES_MIN_CONNS", 2)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_POOL_SIZE", 50)

	v.SetDefault("MAPS_API_KEY", "")
	v.SetDefault("GENAI_API_KEY", "")
	v.SetDefault("GENAI_MODEL", "gemini-2.5-flash")
	v.SetDefault("GENAI_BASE_URL", "https://generativelanguage.googleapis.com")
	v.SetDefault("RELAY_BASE_URL", "")
	v.SetDefault("PROVIDER_TIMEOUT", "8s")

	v.SetDefault("SENTRY_DSN", "")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "INFO")

	// A missing .env is fine; plain environment variables are used instead.
	_ = v.ReadInConfig()

	cfg := &Config{}

	// ── Server ──────────────────────────────────────────
	cfg.Server = ServerConfig{
		Host:         v.GetString("SERVER_HOST"),
		Port:         v.GetInt("SERVER_PORT"),
		ReadTimeout:  v.GetDuration("SERVER_READ_TIMEOUT"),
		WriteTimeout: v.GetDuration("SERVER_WRITE_TIMEOUT"),
		IdleTimeout:  v.GetDuration("SERVER_IDLE_TIMEOUT"),
		AllowOrigin:  v.GetString("SERVER_ALLOW_ORIGIN"),
	}

	// ── Postgres ────────────────────────────────────────
	cfg.Postgres = PostgresConfig{
		Host:     v.GetString("POSTGRES_HOST"),
		Port:     v.GetInt("POSTGRES_PORT"),
		User:     v.GetString("POSTGRES_USER"),
		Password: v.GetString("POSTGRES_PASSWORD"),
		DBName:   v.GetString("POSTGRES_DB"),
		SSLMode:  v.GetString("POSTGRES_SSLMODE"),
		MaxConns: v.GetInt32("POSTGRES_MAX_CONNS"),
		MinConns: v.GetInt32("POSTGRES_MIN_CONNS"),
	}

	// ── Redis ───────────────────────────────────────────
	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
		PoolSize: v.GetInt("REDIS_POOL_SIZE"),
	}

	// ── Providers ───────────────────────────────────────
	cfg.Providers = ProviderConfig{
		MapsAPIKey:   v.GetString("MAPS_API_KEY"),
		GenAIAPIKey:  v.GetString("GENAI_API_KEY"),
		GenAIModel:   v.GetString("GENAI_MODEL"),
		GenAIBaseURL: v.GetString("GENAI_BASE_URL"),
		RelayBaseURL: v.GetString("RELAY_BASE_URL"),
		Timeout:      v.GetDuration("PROVIDER_TIMEOUT"),
	}
	if cfg.Providers.Timeout <= 0 {
		return nil, fmt.Errorf("config: PROVIDER_TIMEOUT must be positive, got %q", v.GetString("PROVIDER_TIMEOUT"))
	}

	// ── Telemetry ───────────────────────────────────────
	cfg.Telemetry = TelemetryConfig{
		SentryDSN: v.GetString("SENTRY_DSN"),
		Env:       v.GetString("APP_ENV"),
	}
	if err := cfg.Telemetry.LogLevel.UnmarshalText([]byte(v.GetString("LOG_LEVEL"))); err != nil {
		return nil, fmt.Errorf("config: LOG_LEVEL: %w", err)
	}

	return cfg, nil
}
