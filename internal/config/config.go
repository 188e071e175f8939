package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"    validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"  validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth"      validate:"required"`
	LLM       LLMConfig       `mapstructure:"llm"       validate:"required"`
	Task      TaskConfig      `mapstructure:"task"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Session   SessionConfig   `mapstructure:"session"`
	Learning  LearningConfig  `mapstructure:"learning"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	// AllowedOrigins are extra websocket origin patterns, such as the web
	// client's host, accepted by the sync stream.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret                   string `mapstructure:"jwt_secret"                     validate:"required,min=32"`
	TokenLifetimeMinutes        int    `mapstructure:"token_lifetime_minutes"         validate:"required,gt=0,lt=1440"`
	RefreshTokenLifetimeMinutes int    `mapstructure:"refresh_token_lifetime_minutes" validate:"required,gt=0,gtfield=TokenLifetimeMinutes"`
	BcryptCost                  int    `mapstructure:"bcrypt_cost"                    validate:"gte=4,lte=31"`
}

// LLMConfig contains all LLM integration related settings.
type LLMConfig struct {
	GeminiAPIKey      string  `mapstructure:"gemini_api_key"      validate:"required"`
	ModelName         string  `mapstructure:"model_name"          validate:"required"`
	MaxRetries        int     `mapstructure:"max_retries"         validate:"gte=0,lte=10"`
	RetryDelaySeconds int     `mapstructure:"retry_delay_seconds" validate:"gte=1,lte=60"`
	Temperature       float32 `mapstructure:"temperature"         validate:"gte=0,lte=2"`
}

// TaskConfig controls the background generation runner.
type TaskConfig struct {
	WorkerCount         int `mapstructure:"worker_count"           validate:"gte=1"`
	QueueSize           int `mapstructure:"queue_size"             validate:"gte=1"`
	StuckTaskAgeMinutes int `mapstructure:"stuck_task_age_minutes" validate:"gte=1"`
}

// CacheConfig configures the bundle cache and the sync status bus.
// An empty URL selects the in-process cache.
type CacheConfig struct {
	URL              string `mapstructure:"url"                validate:"omitempty,url"`
	BundleTTLMinutes int    `mapstructure:"bundle_ttl_minutes" validate:"gte=1"`
}

// StorageConfig configures S3-compatible object storage for profile photos.
// Photo uploads are disabled when Bucket is empty.
type StorageConfig struct {
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"          validate:"omitempty,url"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	PresignMinutes  int    `mapstructure:"presign_minutes"   validate:"gte=1,lte=10080"`
	PublicBaseURL   string `mapstructure:"public_base_url"   validate:"omitempty,url"`
}

// Enabled reports whether photo storage is configured.
func (s StorageConfig) Enabled() bool {
	return s.Bucket != ""
}

// SessionConfig controls how long idle action sessions are kept.
type SessionConfig struct {
	TTLMinutes int `mapstructure:"ttl_minutes" validate:"gte=1"`
}

// LearningConfig holds progress rules.
type LearningConfig struct {
	// PassingRatio is the minimum score/max ratio for an item to count as completed.
	PassingRatio float64 `mapstructure:"passing_ratio" validate:"gt=0,lte=1"`
}

// TelemetryConfig configures OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Endpoint    string  `mapstructure:"endpoint"`
	SampleRatio float64 `mapstructure:"sample_ratio" validate:"gte=0,lte=1"`
	ServiceName string  `mapstructure:"service_name"`
}
