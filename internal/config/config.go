package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"3000"`
	Environment string `envconfig:"ENV" default:"development"`

	// Database
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// Analyzer chain
	ProviderType    string        `envconfig:"PROVIDER_TYPE" default:"cnn"`
	CNNBaseURL      string        `envconfig:"CNN_BASE_URL" default:"http://localhost:8000"`
	CNNTimeout      time.Duration `envconfig:"CNN_TIMEOUT" default:"10s"`
	CNNProbeTimeout time.Duration `envconfig:"CNN_PROBE_TIMEOUT" default:"3s"`
	AWSRegion       string        `envconfig:"AWS_REGION" default:"us-east-1"`

	// Landmark model assets; empty falls back to the built-in mirrors.
	CascadeMirrors []string `envconfig:"CASCADE_MIRRORS"`

	// Rate limiting
	RateLimitPerMinute int `envconfig:"RATE_LIMIT_PER_MINUTE" default:"60"`

	// Model-metrics cache
	ModelMetricsTTL time.Duration `envconfig:"MODEL_METRICS_TTL" default:"5m"`

	// Daily scan rollups
	MetricsRollupInterval time.Duration `envconfig:"METRICS_ROLLUP_INTERVAL" default:"1h"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
