// Package config loads server settings from config.yaml, .env and the environment,
// and the JSON config file accepted by the one-shot CLI commands.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/jonathan/resume-builder/internal/compiler"
	"github.com/jonathan/resume-builder/internal/events"
	"github.com/jonathan/resume-builder/internal/llm"
	"github.com/jonathan/resume-builder/internal/locks"
	"github.com/jonathan/resume-builder/internal/server/ratelimit"
	"github.com/jonathan/resume-builder/internal/storage"
)

// Environments
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// AppConfig holds process-level settings
type AppConfig struct {
	Port          string `mapstructure:"port"`
	Env           string `mapstructure:"env"`
	WorkDir       string `mapstructure:"work_dir"`
	PublicBaseURL string `mapstructure:"public_base_url"`
	// AllowedOrigins lists CORS origins; empty allows any origin
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DBConfig holds the PostgreSQL connection
type DBConfig struct {
	URL string `mapstructure:"url"`
}

// LLMConfig selects the provider and optionally overrides the model per tier
type LLMConfig struct {
	Provider      string `mapstructure:"provider"`
	APIKey        string `mapstructure:"api_key"`
	LiteModel     string `mapstructure:"lite_model"`
	StandardModel string `mapstructure:"standard_model"`
	AdvancedModel string `mapstructure:"advanced_model"`
}

// Config is the full server and worker configuration
type Config struct {
	App       AppConfig         `mapstructure:"app"`
	DB        DBConfig          `mapstructure:"db"`
	LLM       LLMConfig         `mapstructure:"llm"`
	Auth      AuthConfig        `mapstructure:"auth"`
	Storage   storage.Config    `mapstructure:"storage"`
	Redis     locks.RedisConfig `mapstructure:"redis"`
	Kafka     events.Config     `mapstructure:"kafka"`
	Compiler  compiler.Config   `mapstructure:"compiler"`
	RateLimit ratelimit.Settings `mapstructure:"ratelimit"`
}

// envBindings maps every config key to the environment variables that may set it, in priority order
var envBindings = map[string][]string{
	"app.port":            {"APP_PORT", "PORT"},
	"app.env":             {"APP_ENV"},
	"app.work_dir":        {"APP_WORK_DIR"},
	"app.public_base_url": {"APP_PUBLIC_BASE_URL"},
	"app.allowed_origins": {"CORS_ALLOWED_ORIGINS"},

	"db.url": {"DB_URL", "DATABASE_URL"},

	"llm.provider":       {"LLM_PROVIDER"},
	"llm.api_key":        {"LLM_API_KEY", "GEMINI_API_KEY", "ANTHROPIC_API_KEY"},
	"llm.lite_model":     {"LLM_LITE_MODEL"},
	"llm.standard_model": {"LLM_STANDARD_MODEL"},
	"llm.advanced_model": {"LLM_ADVANCED_MODEL"},

	"auth.jwt_secret": {"AUTH_JWT_SECRET", "JWT_SECRET"},
	"auth.issuer":     {"AUTH_ISSUER", "JWT_ISSUER"},
	"auth.audience":   {"AUTH_AUDIENCE", "JWT_AUDIENCE"},
	"auth.leeway":     {"AUTH_LEEWAY"},

	"storage.driver":          {"STORAGE_DRIVER"},
	"storage.bucket":          {"STORAGE_BUCKET"},
	"storage.region":          {"STORAGE_REGION", "AWS_REGION"},
	"storage.endpoint":        {"STORAGE_ENDPOINT"},
	"storage.account_id":      {"STORAGE_ACCOUNT_ID", "R2_ACCOUNT_ID"},
	"storage.access_key":      {"STORAGE_ACCESS_KEY", "AWS_ACCESS_KEY_ID"},
	"storage.secret_key":      {"STORAGE_SECRET_KEY", "AWS_SECRET_ACCESS_KEY"},
	"storage.cloud_name":      {"CLOUDINARY_CLOUD_NAME"},
	"storage.api_key":         {"CLOUDINARY_API_KEY"},
	"storage.api_secret":      {"CLOUDINARY_API_SECRET"},
	"storage.local_dir":       {"STORAGE_LOCAL_DIR"},
	"storage.public_base_url": {"STORAGE_PUBLIC_BASE_URL"},
	"storage.upload_attempts": {"STORAGE_UPLOAD_ATTEMPTS"},

	"redis.addr":     {"REDIS_ADDR"},
	"redis.password": {"REDIS_PASSWORD"},
	"redis.db":       {"REDIS_DB"},

	"kafka.brokers":           {"KAFKA_BROKERS"},
	"kafka.topic":             {"KAFKA_TOPIC"},
	"kafka.group_id":          {"KAFKA_GROUP_ID"},
	"kafka.concurrency":       {"KAFKA_CONCURRENCY"},
	"kafka.max_attempts":      {"KAFKA_MAX_ATTEMPTS"},
	"kafka.retry_backoff":     {"KAFKA_RETRY_BACKOFF"},
	"kafka.dead_letter_topic": {"KAFKA_DEAD_LETTER_TOPIC"},

	"compiler.binary":  {"LATEX_BINARY"},
	"compiler.timeout": {"LATEX_TIMEOUT"},

	"ratelimit.enabled":          {"RATE_LIMIT_ENABLED"},
	"ratelimit.default_limit":    {"RATE_LIMIT_DEFAULT_LIMIT"},
	"ratelimit.default_window":   {"RATE_LIMIT_DEFAULT_WINDOW"},
	"ratelimit.cleanup_interval": {"RATE_LIMIT_CLEANUP_INTERVAL"},
	"ratelimit.idle_ttl":         {"RATE_LIMIT_IDLE_TTL"},
	"ratelimit.allow":            {"RATE_LIMIT_WHITELIST"},
	"ratelimit.deny":             {"RATE_LIMIT_BLACKLIST"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.env", EnvDevelopment)
	v.SetDefault("llm.provider", string(llm.ProviderGemini))
	v.SetDefault("auth.leeway", "30s")
	v.SetDefault("storage.driver", storage.DriverLocal)
	v.SetDefault("storage.local_dir", "data/files")
	v.SetDefault("storage.upload_attempts", 3)
	v.SetDefault("kafka.topic", events.TopicCompileJobs)
	v.SetDefault("kafka.group_id", "resume-compile-workers")
	v.SetDefault("kafka.concurrency", 2)
	v.SetDefault("kafka.max_attempts", events.DefaultMaxAttempts)
	v.SetDefault("kafka.retry_backoff", events.DefaultRetryBackoff.String())
	v.SetDefault("compiler.binary", compiler.DefaultBinary)
	v.SetDefault("compiler.timeout", compiler.DefaultTimeout.String())
	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.default_limit", 1000)
	v.SetDefault("ratelimit.default_window", "1m")
	v.SetDefault("ratelimit.cleanup_interval", "5m")
	v.SetDefault("ratelimit.idle_ttl", "1h")
}

// Load reads .env (if present), then the YAML file at path (or ./config.yaml when path is empty),
// then the environment. Environment values win.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config.yaml: %w", err)
			}
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envBindings {
		args := append([]string{key}, names...)
		if err := v.BindEnv(args...); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// normalize trims list values that arrive as one comma-separated environment variable
func (c *Config) normalize() {
	c.Kafka.Brokers = splitList(c.Kafka.Brokers)
	c.App.AllowedOrigins = splitList(c.App.AllowedOrigins)
	c.RateLimit.Allow = splitList(c.RateLimit.Allow)
	c.RateLimit.Deny = splitList(c.RateLimit.Deny)
	c.App.Env = strings.ToLower(strings.TrimSpace(c.App.Env))
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
}

func splitList(values []string) []string {
	var out []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Validate checks values that every command depends on.
// Connection settings needed only by some commands are checked by those commands.
func (c *Config) Validate() error {
	if c.App.Port == "" {
		return fmt.Errorf("config error: 'app.port' is required")
	}
	switch c.App.Env {
	case EnvDevelopment, EnvProduction, EnvTest:
	default:
		return fmt.Errorf("config error: 'app.env' must be one of development, production, test; got %q", c.App.Env)
	}

	if _, err := llm.ConfigFor(llm.Provider(c.LLM.Provider)); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	switch c.Storage.Driver {
	case storage.DriverS3, "r2":
		if c.Storage.Bucket == "" {
			return fmt.Errorf("config error: 'storage.bucket' is required for the %s driver", c.Storage.Driver)
		}
	case storage.DriverCloudinary:
		if c.Storage.CloudName == "" || c.Storage.APIKey == "" || c.Storage.APISecret == "" {
			return fmt.Errorf("config error: cloudinary storage needs cloud_name, api_key and api_secret")
		}
	case storage.DriverLocal, "":
	default:
		return fmt.Errorf("config error: unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.UploadAttempts < 0 {
		return fmt.Errorf("config error: 'storage.upload_attempts' must be non-negative")
	}

	if c.Compiler.Timeout <= 0 {
		return fmt.Errorf("config error: 'compiler.timeout' must be positive")
	}
	if c.Kafka.Concurrency < 0 {
		return fmt.Errorf("config error: 'kafka.concurrency' must be non-negative")
	}
	if c.Kafka.MaxAttempts < 1 {
		return fmt.Errorf("config error: 'kafka.max_attempts' must be at least 1")
	}
	if c.Kafka.RetryBackoff < 0 {
		return fmt.Errorf("config error: 'kafka.retry_backoff' must be non-negative")
	}
	if c.Auth.Leeway < 0 || c.Auth.Leeway > 5*time.Minute {
		return fmt.Errorf("config error: 'auth.leeway' must be between 0 and 5m")
	}
	return nil
}

// RequireDatabase reports a descriptive error when no database URL is configured
func (c *Config) RequireDatabase() error {
	if c.DB.URL == "" {
		return fmt.Errorf("config error: 'db.url' (DATABASE_URL) is required")
	}
	return nil
}

// RequireLLM reports a descriptive error when no LLM API key is configured
func (c *Config) RequireLLM() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("config error: 'llm.api_key' is required for the %s provider", c.LLM.Provider)
	}
	return nil
}

// ModelConfig builds the llm.Config for the configured provider, applying per-tier overrides
func (c *Config) ModelConfig() (*llm.Config, error) {
	modelCfg, err := llm.ConfigFor(llm.Provider(c.LLM.Provider))
	if err != nil {
		return nil, err
	}
	overrides := map[llm.ModelTier]string{
		llm.TierLite:     c.LLM.LiteModel,
		llm.TierStandard: c.LLM.StandardModel,
		llm.TierAdvanced: c.LLM.AdvancedModel,
	}
	for tier, model := range overrides {
		if model != "" {
			modelCfg = modelCfg.WithModel(tier, model)
		}
	}
	return modelCfg, nil
}

// StorageConfig returns the storage settings with the app public URL as fallback for local files
func (c *Config) StorageConfig() storage.Config {
	cfg := c.Storage
	if cfg.PublicBaseURL == "" && (cfg.Driver == storage.DriverLocal || cfg.Driver == "") && c.App.PublicBaseURL != "" {
		cfg.PublicBaseURL = strings.TrimRight(c.App.PublicBaseURL, "/") + "/files"
	}
	return cfg
}
