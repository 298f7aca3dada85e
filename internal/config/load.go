package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from an optional config.yaml and from MATCHER_*
// environment variables; environment variables take precedence. Returns a
// populated, validated Config or an error.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	// Keys without real defaults still need registering so AutomaticEnv
	// surfaces them to Unmarshal.
	v.SetDefault("database.url", "")
	v.SetDefault("llm.gemini_api_key", "")
	v.SetDefault("llm.openrouter_api_key", "")
	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.gemini_model", "gemini-2.5-flash")
	v.SetDefault("llm.openrouter_model", "openai/gpt-4o-mini")
	v.SetDefault("worker.poll_interval_seconds", 10)
	v.SetDefault("worker.max_attempts", 3)
	v.SetDefault("worker.shutdown_grace_seconds", 30)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("MATCHER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file is fine; env vars and defaults carry it.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}
