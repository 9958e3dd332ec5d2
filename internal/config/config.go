package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Global singleton so infrastructure packages can reach configuration
// without threading it through every constructor.
var globalConfig *Config

// Config holds all environment backed configuration for the chat backend.
type Config struct {
	// HTTP Server
	HTTPPort       int      `env:"HTTP_PORT" envDefault:"8080"`
	MetricsPort    int      `env:"METRICS_PORT" envDefault:"9091"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://localhost:8080"`
	DatabaseURL    string   `env:"DATABASE_URL,notEmpty"`

	// PostgreSQL read replica (optional)
	DBPostgresReadDSN string `env:"DB_POSTGRES_READ_DSN"`

	// Auth (Clerk-style OIDC bearer tokens)
	JWKSURL             string        `env:"JWKS_URL,notEmpty"`
	Issuer              string        `env:"ISSUER,notEmpty"`
	Audience            string        `env:"AUDIENCE"`
	RefreshJWKSInterval time.Duration `env:"JWKS_REFRESH_INTERVAL" envDefault:"5m"`
	ClockSkew           time.Duration `env:"AUTH_CLOCK_SKEW" envDefault:"30s"`

	// LLM providers
	OpenAIAPIKey     string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	GeminiAPIKey     string `env:"GEMINI_API_KEY"`
	GeminiBaseURL    string `env:"GEMINI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com/v1beta/openai"`
	OpenRouterAPIKey string `env:"OPENROUTER_API_KEY"`
	OpenRouterURL    string `env:"OPENROUTER_BASE_URL" envDefault:"https://openrouter.ai/api/v1"`
	ProviderConfig   string `env:"PROVIDER_CONFIG_FILE"`

	// Title generation
	TitleModelID   string `env:"TITLE_MODEL_ID" envDefault:"gemini-2.0-flash-lite"`
	TitleGenEnable bool   `env:"TITLE_GENERATION_ENABLED" envDefault:"true"`

	// Web search tool
	SearchAPIKey  string        `env:"SEARCH_API_KEY"`
	SearchBaseURL string        `env:"SEARCH_BASE_URL" envDefault:"https://google.serper.dev/search"`
	SearchTimeout time.Duration `env:"SEARCH_TIMEOUT" envDefault:"15s"`

	// Generation
	StreamTimeout  time.Duration `env:"STREAM_TIMEOUT" envDefault:"120s"`
	StaleThreshold time.Duration `env:"STALE_GENERATION_THRESHOLD" envDefault:"10m"`
	ReaperEnabled  bool          `env:"STALE_REAPER_ENABLED" envDefault:"true"`

	// Observability / Logging
	OTLPEndpoint     string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPHeaders      string `env:"OTEL_EXPORTER_OTLP_HEADERS"`
	ServiceName      string `env:"SERVICE_NAME" envDefault:"t3-clone"`
	ServiceNamespace string `env:"SERVICE_NAMESPACE" envDefault:"chat"`
	Environment      string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat        string `env:"LOG_FORMAT" envDefault:"console"`

	// Features
	AutoMigrate bool `env:"AUTO_MIGRATE" envDefault:"true"`

	// Internal
	Providers *ProviderOverrides `env:"-"`
}

// Load parses environment variables into Config and performs minimal validation.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if _, err := url.ParseRequestURI(cfg.JWKSURL); err != nil {
		return nil, fmt.Errorf("invalid JWKS_URL: %w", err)
	}

	if strings.TrimSpace(cfg.Issuer) == "" {
		return nil, errors.New("ISSUER must be provided")
	}

	if file := strings.TrimSpace(cfg.ProviderConfig); file != "" {
		overrides, err := LoadProviderOverrides(file)
		if err != nil {
			return nil, fmt.Errorf("load provider config: %w", err)
		}
		cfg.Providers = overrides
	}

	globalConfig = cfg
	return cfg, nil
}

// GetGlobal returns the config loaded by Load, or nil when Load has not run.
func GetGlobal() *Config {
	return globalConfig
}
