package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port           string   `mapstructure:"PORT"`
	Env            string   `mapstructure:"ENV"`
	IngestionURL   string   `mapstructure:"INGESTION_URL"`
	RecognitionURL string   `mapstructure:"RECOGNITION_URL"`
	ExtractionURL  string   `mapstructure:"EXTRACTION_URL"`
	ValidationURL  string   `mapstructure:"VALIDATION_URL"`
	MappingURL     string   `mapstructure:"MAPPING_URL"`
	StageTimeoutMS int      `mapstructure:"STAGE_TIMEOUT_MS"`
	SeedDemo       bool     `mapstructure:"SEED_DEMO"`
	CORSOrigins    []string `mapstructure:"CORS_ORIGINS"`
	BodyLimit      string   `mapstructure:"BODY_LIMIT"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults. Stage URLs default to the local server so a single process
	// can host the whole pipeline; point them elsewhere to split stages out.
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("STAGE_TIMEOUT_MS", 10000)
	v.SetDefault("SEED_DEMO", true)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("BODY_LIMIT", "5M")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("INGESTION_URL")
	v.BindEnv("RECOGNITION_URL")
	v.BindEnv("EXTRACTION_URL")
	v.BindEnv("VALIDATION_URL")
	v.BindEnv("MAPPING_URL")
	v.BindEnv("STAGE_TIMEOUT_MS")
	v.BindEnv("SEED_DEMO")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("BODY_LIMIT")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	selfURL := "http://127.0.0.1:" + cfg.Port
	if cfg.IngestionURL == "" {
		cfg.IngestionURL = selfURL
	}
	if cfg.RecognitionURL == "" {
		cfg.RecognitionURL = selfURL
	}
	if cfg.ExtractionURL == "" {
		cfg.ExtractionURL = selfURL
	}
	if cfg.ValidationURL == "" {
		cfg.ValidationURL = selfURL
	}
	if cfg.MappingURL == "" {
		cfg.MappingURL = selfURL
	}

	if cfg.StageTimeoutMS <= 0 {
		return nil, fmt.Errorf("STAGE_TIMEOUT_MS must be positive, got %d", cfg.StageTimeoutMS)
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// StageTimeout returns the per-stage call timeout as a duration.
func (c *Config) StageTimeout() time.Duration {
	return time.Duration(c.StageTimeoutMS) * time.Millisecond
}
