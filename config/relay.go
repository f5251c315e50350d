package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

// RelayConfig configures the relay sidecar. The relay holds the provider
// keys so that browser clients never see them.
type RelayConfig struct {
	HTTPAddr     string        `env:"RELAY_HTTP_ADDR" envDefault:":8081"`
	AllowOrigin  string        `env:"RELAY_ALLOW_ORIGIN" envDefault:"*"`
	MapsAPIKey   string        `env:"MAPS_API_KEY"`
	MapsBaseURL  string        `env:"MAPS_BASE_URL" envDefault:"https://maps.googleapis.com"`
	GenAIAPIKey  string        `env:"GENAI_API_KEY"`
	GenAIModel   string        `env:"GENAI_MODEL" envDefault:"gemini-2.5-flash"`
	GenAIBaseURL string        `env:"GENAI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com"`
	Timeout      time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"8s"`
	SentryDSN    string        `env:"SENTRY_DSN"`
	Env          string        `env:"APP_ENV" envDefault:"development"`
	LogLevel     slog.Level    `env:"LOG_LEVEL" envDefault:"INFO"`
}

// LoadRelay reads the relay configuration from the environment.
func LoadRelay() (*RelayConfig, error) {
	cfg, err := env.ParseAs[RelayConfig]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}
