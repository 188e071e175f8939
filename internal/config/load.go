package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable read by Load.
const EnvPrefix = "LEARNFLEX"

// keys lists every configuration key so viper can resolve them from the
// environment during Unmarshal even when no default is set.
var keys = []string{
	"server.port", "server.log_level", "server.allowed_origins",
	"database.url",
	"auth.jwt_secret", "auth.token_lifetime_minutes", "auth.refresh_token_lifetime_minutes", "auth.bcrypt_cost",
	"llm.gemini_api_key", "llm.model_name", "llm.max_retries", "llm.retry_delay_seconds", "llm.temperature",
	"task.worker_count", "task.queue_size", "task.stuck_task_age_minutes",
	"cache.url", "cache.bundle_ttl_minutes",
	"storage.bucket", "storage.region", "storage.endpoint", "storage.access_key_id",
	"storage.secret_access_key", "storage.presign_minutes", "storage.public_base_url",
	"session.ttl_minutes",
	"learning.passing_ratio",
	"telemetry.enabled", "telemetry.endpoint", "telemetry.sample_ratio", "telemetry.service_name",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("auth.token_lifetime_minutes", 60)
	v.SetDefault("auth.refresh_token_lifetime_minutes", 10080)
	v.SetDefault("auth.bcrypt_cost", 10)

	v.SetDefault("llm.model_name", "gemini-2.0-flash")
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_delay_seconds", 2)
	v.SetDefault("llm.temperature", 0.7)

	v.SetDefault("task.worker_count", 2)
	v.SetDefault("task.queue_size", 100)
	v.SetDefault("task.stuck_task_age_minutes", 30)

	v.SetDefault("cache.bundle_ttl_minutes", 30)

	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.presign_minutes", 15)

	v.SetDefault("session.ttl_minutes", 60)
	v.SetDefault("learning.passing_ratio", 0.7)

	v.SetDefault("telemetry.sample_ratio", 0.1)
	v.SetDefault("telemetry.service_name", "learnflex-api")
}

// Load reads configuration from an optional config.yaml in the working
// directory and from LEARNFLEX_* environment variables, which take precedence.
// The result is validated before it is returned.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the struct tags on cfg.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}
