package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// History backends.
const (
	HistoryBackendNone        = "none"
	HistoryBackendMemory      = "memory"
	HistoryBackendValkey      = "valkey"
	HistoryBackendPostgres    = "postgres"
	HistoryBackendObjectStore = "objectstore"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	LLM       LLMConfig       `yaml:"llm"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Breaker   BreakerConfig   `yaml:"breaker"`
	History   HistoryConfig   `yaml:"history"`
	Auth      AuthConfig      `yaml:"auth"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Web       WebConfig       `yaml:"web"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
	Retry          RetryConfig     `yaml:"retry"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// RetryConfig configures best-effort retries of failed POST requests.
// Off by default: a retried analysis is a second provider call.
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxAttempts int           `yaml:"maxAttempts"`
	BaseBackoff time.Duration `yaml:"baseBackoff"`
	Exclude     []string      `yaml:"exclude"`
}

// LLMConfig contains Gemini settings.
type LLMConfig struct {
	APIKey      string        `yaml:"apiKey"`
	BaseURL     string        `yaml:"baseUrl"`
	Model       string        `yaml:"model"`
	Temperature float32       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// DiscoveryConfig shapes the profile analysis.
type DiscoveryConfig struct {
	TargetSuggestions int    `yaml:"targetSuggestions"`
	FailureMessage    string `yaml:"failureMessage"`
}

// BreakerConfig configures the optional provider circuit breaker.
type BreakerConfig struct {
	Enabled          bool          `yaml:"enabled"`
	MaxRequests      uint32        `yaml:"maxRequests"`
	Interval         time.Duration `yaml:"interval"`
	Timeout          time.Duration `yaml:"timeout"`
	FailureThreshold float64       `yaml:"failureThreshold"`
	MinRequests      uint32        `yaml:"minRequests"`
}

// HistoryConfig selects where finished analyses are recorded.
type HistoryConfig struct {
	Backend     string            `yaml:"backend"`
	TTL         time.Duration     `yaml:"ttl"`
	RecentLimit int               `yaml:"recentLimit"`
	Redis       RedisConfig       `yaml:"redis"`
	Postgres    PostgresConfig    `yaml:"postgres"`
	ObjectStore ObjectStoreConfig `yaml:"objectStore"`
}

// RedisConfig contains connection information for the Valkey backend.
type RedisConfig struct {
	Addr   string `yaml:"addr"`
	Prefix string `yaml:"prefix"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// ObjectStoreConfig points at an S3 compatible bucket (R2, MinIO, S3).
type ObjectStoreConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Prefix    string `yaml:"prefix"`
}

// AuthConfig enables the bearer token guard when Secret is set.
type AuthConfig struct {
	Secret   string        `yaml:"secret"`
	TokenTTL time.Duration `yaml:"tokenTtl"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// WebConfig controls the server-rendered UI.
type WebConfig struct {
	Enabled    bool          `yaml:"enabled"`
	SessionTTL time.Duration `yaml:"sessionTtl"`
}

// Load reads configuration from a YAML file, a .env file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	if err := loadDotEnv(os.Getenv("ENV_FILE")); err != nil {
		return nil, err
	}
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// loadDotEnv populates missing environment variables from a dotenv file.
// An absent default .env is fine; an explicitly named one must exist.
func loadDotEnv(path string) error {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load env file: %w", err)
		}
		return nil
	}
	if _, err := os.Stat(".env"); err != nil {
		return nil
	}
	if err := godotenv.Load(); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	if v := firstEnv("LLM_API_KEY", "GEMINI_API_KEY", "API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("LLM_TEMPERATURE"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 32); err == nil {
			cfg.LLM.Temperature = float32(parsed)
		}
	}
	if v := os.Getenv("LLM_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.LLM.Timeout = parsed
		}
	}
	if v := os.Getenv("DISCOVERY_TARGET_SUGGESTIONS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Discovery.TargetSuggestions = parsed
		}
	}
	if v := os.Getenv("BREAKER_ENABLED"); v != "" {
		cfg.Breaker.Enabled = parseBool(v)
	}
	if v := os.Getenv("HISTORY_BACKEND"); v != "" {
		cfg.History.Backend = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("HISTORY_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.History.TTL = parsed
		}
	}
	if v := os.Getenv("HISTORY_REDIS_ADDR"); v != "" {
		cfg.History.Redis.Addr = v
	}
	if v := os.Getenv("HISTORY_POSTGRES_DSN"); v != "" {
		cfg.History.Postgres.DSN = v
	}
	if v := os.Getenv("HISTORY_POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.History.Postgres.MaxConns = int32(parsed)
		}
	}
	if v := os.Getenv("HISTORY_S3_ENDPOINT"); v != "" {
		cfg.History.ObjectStore.Endpoint = v
	}
	if v := os.Getenv("HISTORY_S3_ACCESS_KEY"); v != "" {
		cfg.History.ObjectStore.AccessKey = v
	}
	if v := os.Getenv("HISTORY_S3_SECRET_KEY"); v != "" {
		cfg.History.ObjectStore.SecretKey = v
	}
	if v := os.Getenv("HISTORY_S3_BUCKET"); v != "" {
		cfg.History.ObjectStore.Bucket = v
	}
	if v := os.Getenv("HISTORY_S3_REGION"); v != "" {
		cfg.History.ObjectStore.Region = v
	}
	if v := os.Getenv("AUTH_SECRET"); v != "" {
		cfg.Auth.Secret = v
	}
	if v := os.Getenv("METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
	if v := os.Getenv("WEB_ENABLED"); v != "" {
		cfg.Web.Enabled = parseBool(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = parseBool(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_RPM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.RequestsPerMinute = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.Burst = parsed
		}
	}
	if v := os.Getenv("HTTP_RETRY_ENABLED"); v != "" {
		cfg.HTTP.Retry.Enabled = parseBool(v)
	}
	if v := os.Getenv("HTTP_RETRY_MAX_ATTEMPTS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.Retry.MaxAttempts = parsed
		}
	}
	if v := os.Getenv("HTTP_RETRY_BASE_BACKOFF"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.HTTP.Retry.BaseBackoff = parsed
		}
	}
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return ""
}

func parseBool(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 3 * time.Minute,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 30,
				Burst:             10,
			},
			Retry: RetryConfig{
				Enabled:     false,
				MaxAttempts: 2,
				BaseBackoff: 500 * time.Millisecond,
				Exclude: []string{
					"/search",
				},
			},
		},
		LLM: LLMConfig{
			Model: "gemini-3-pro-preview",
		},
		Discovery: DiscoveryConfig{
			TargetSuggestions: 25,
			FailureMessage:    "Failed to map the social galaxy. The network might be too complex or the source profile is private.",
		},
		Breaker: BreakerConfig{
			Enabled:          false,
			MaxRequests:      1,
			Interval:         time.Minute,
			Timeout:          30 * time.Second,
			FailureThreshold: 0.8,
			MinRequests:      5,
		},
		History: HistoryConfig{
			Backend:     HistoryBackendNone,
			TTL:         24 * time.Hour,
			RecentLimit: 20,
			Redis: RedisConfig{
				Prefix: "synergy",
			},
			Postgres: PostgresConfig{
				MaxConns: 4,
			},
			ObjectStore: ObjectStoreConfig{
				Prefix: "analyses",
			},
		},
		Auth: AuthConfig{
			TokenTTL: 30 * 24 * time.Hour,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Web: WebConfig{
			Enabled:    true,
			SessionTTL: 30 * time.Minute,
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if strings.TrimSpace(c.LLM.Model) == "" {
		return errors.New("llm.model cannot be empty")
	}
	if c.LLM.Timeout < 0 {
		return errors.New("llm.timeout cannot be negative")
	}
	if c.Discovery.TargetSuggestions <= 0 {
		return errors.New("discovery.targetSuggestions must be positive")
	}
	if strings.TrimSpace(c.Discovery.FailureMessage) == "" {
		return errors.New("discovery.failureMessage cannot be empty")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if c.HTTP.Retry.Enabled {
		if c.HTTP.Retry.MaxAttempts <= 0 {
			return errors.New("http.retry.maxAttempts must be positive")
		}
		if c.HTTP.Retry.BaseBackoff <= 0 {
			return errors.New("http.retry.baseBackoff must be positive")
		}
	}
	if c.Breaker.Enabled {
		if c.Breaker.FailureThreshold <= 0 || c.Breaker.FailureThreshold > 1 {
			return errors.New("breaker.failureThreshold must be within (0, 1]")
		}
		if c.Breaker.MinRequests == 0 {
			return errors.New("breaker.minRequests must be positive")
		}
	}
	if err := c.History.validate(); err != nil {
		return err
	}
	if c.Auth.Secret != "" && c.Auth.TokenTTL <= 0 {
		return errors.New("auth.tokenTtl must be positive when auth is enabled")
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return errors.New("metrics.path must start with /")
	}
	if c.Web.Enabled && c.Web.SessionTTL <= 0 {
		return errors.New("web.sessionTtl must be positive")
	}
	return nil
}

func (h HistoryConfig) validate() error {
	if h.TTL < 0 {
		return errors.New("history.ttl cannot be negative")
	}
	if h.RecentLimit < 0 {
		return errors.New("history.recentLimit cannot be negative")
	}
	switch h.Backend {
	case "", HistoryBackendNone, HistoryBackendMemory:
		return nil
	case HistoryBackendValkey:
		if strings.TrimSpace(h.Redis.Addr) == "" {
			return errors.New("history.redis.addr cannot be empty when backend is valkey")
		}
	case HistoryBackendPostgres:
		if strings.TrimSpace(h.Postgres.DSN) == "" {
			return errors.New("history.postgres.dsn cannot be empty when backend is postgres")
		}
	case HistoryBackendObjectStore:
		if strings.TrimSpace(h.ObjectStore.Endpoint) == "" || strings.TrimSpace(h.ObjectStore.Bucket) == "" {
			return errors.New("history.objectStore endpoint and bucket are required when backend is objectstore")
		}
	default:
		return fmt.Errorf("history.backend %q is not supported", h.Backend)
	}
	return nil
}
