package config

// Config holds all application configuration, organized into logical groups.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm" validate:"required"`
	Worker   WorkerConfig   `mapstructure:"worker" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// LLMConfig contains the inference provider settings. Exactly one provider
// is active at a time; its API key is validated at client construction so a
// deployment only needs the key for the provider it selected.
type LLMConfig struct {
	Provider         string `mapstructure:"provider" validate:"required,oneof=gemini openrouter"`
	GeminiAPIKey     string `mapstructure:"gemini_api_key"`
	GeminiModel      string `mapstructure:"gemini_model"`
	OpenRouterAPIKey string `mapstructure:"openrouter_api_key"`
	OpenRouterModel  string `mapstructure:"openrouter_model"`
}

// WorkerConfig tunes the four retry-queue worker loops.
type WorkerConfig struct {
	// PollIntervalSeconds is how often each worker kind polls for eligible
	// items.
	PollIntervalSeconds int `mapstructure:"poll_interval_seconds" validate:"required,gt=0"`

	// MaxAttempts is the retry ceiling; an item failing this many times is
	// parked dormant.
	MaxAttempts int `mapstructure:"max_attempts" validate:"required,gt=0"`

	// ShutdownGraceSeconds bounds how long Stop waits for in-flight cycles
	// before force-exiting.
	ShutdownGraceSeconds int `mapstructure:"shutdown_grace_seconds" validate:"required,gt=0"`
}
