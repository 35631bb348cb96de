package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Redis       RedisConfig       `mapstructure:"redis"`
	HTTPClient  HTTPClientConfig  `mapstructure:"http_client"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Providers   ProvidersConfig   `mapstructure:"providers"`
	Jobs        JobsConfig        `mapstructure:"jobs"`
	Suggestions SuggestionsConfig `mapstructure:"suggestions"`
	Log         LogConfig         `mapstructure:"log"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Address        string        `mapstructure:"address"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
}

// RedisConfig holds Redis configuration. An empty address disables Redis.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Enabled reports whether a Redis address is configured.
func (c RedisConfig) Enabled() bool {
	return c.Address != ""
}

// HTTPClientConfig holds HTTP client configuration for connection pooling.
type HTTPClientConfig struct {
	MaxIdleConns        int           `mapstructure:"max_idle_conns"`
	MaxIdleConnsPerHost int           `mapstructure:"max_idle_conns_per_host"`
	MaxConnsPerHost     int           `mapstructure:"max_conns_per_host"`
	IdleConnTimeout     time.Duration `mapstructure:"idle_conn_timeout"`
	DialTimeout         time.Duration `mapstructure:"dial_timeout"`
	TLSHandshakeTimeout time.Duration `mapstructure:"tls_handshake_timeout"`
	// ResponseTimeout bounds a whole request, including streamed bodies
	// and downloads of finished videos.
	ResponseTimeout time.Duration `mapstructure:"response_timeout"`
	KeepAlive       time.Duration `mapstructure:"keep_alive"`
}

// RateLimitConfig holds rate limiting for the generate endpoint.
type RateLimitConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	GenerateLimit  int           `mapstructure:"generate_limit"`
	GenerateWindow time.Duration `mapstructure:"generate_window"`
	IdempotencyTTL time.Duration `mapstructure:"idempotency_ttl"`
}

// Storage drivers.
const (
	StorageDriverLocal = "local"
	StorageDriverS3    = "s3"
)

// StorageConfig holds media storage configuration.
type StorageConfig struct {
	Driver    string `mapstructure:"driver"`
	LocalPath string `mapstructure:"local_path"`

	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
}

// ProvidersConfig holds the remote generative services.
type ProvidersConfig struct {
	Video   VideoProviderConfig `mapstructure:"video"`
	Voice   VoiceProviderConfig `mapstructure:"voice"`
	Music   MusicProviderConfig `mapstructure:"music"`
	Text    TextProviderConfig  `mapstructure:"text"`
	Breaker BreakerConfig       `mapstructure:"breaker"`
}

// VideoProviderConfig configures the image-to-video service.
type VideoProviderConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	APIKey       string        `mapstructure:"api_key"`
	Model        string        `mapstructure:"model"`
	Resolution   string        `mapstructure:"resolution"`
	FPS          int           `mapstructure:"fps"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	MaxWait      time.Duration `mapstructure:"max_wait"`
}

// VoiceProviderConfig configures the text-to-speech service.
type VoiceProviderConfig struct {
	BaseURL         string  `mapstructure:"base_url"`
	APIKey          string  `mapstructure:"api_key"`
	DefaultVoiceID  string  `mapstructure:"default_voice_id"`
	ModelID         string  `mapstructure:"model_id"`
	OutputFormat    string  `mapstructure:"output_format"`
	Stability       float64 `mapstructure:"stability"`
	SimilarityBoost float64 `mapstructure:"similarity_boost"`
	Style           float64 `mapstructure:"style"`
	SpeakerBoost    bool    `mapstructure:"speaker_boost"`
}

// MusicProviderConfig configures the music generation service.
type MusicProviderConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	APIKey       string        `mapstructure:"api_key"`
	Style        string        `mapstructure:"style"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	MaxWait      time.Duration `mapstructure:"max_wait"`
}

// Text generation backends.
const (
	TextBackendOpenAI = "openai"
	TextBackendGemini = "gemini"
)

// TextProviderConfig configures suggestion and prompt rewriting.
type TextProviderConfig struct {
	Backend      string `mapstructure:"backend"`
	BaseURL      string `mapstructure:"base_url"`
	APIKey       string `mapstructure:"api_key"`
	Model        string `mapstructure:"model"`
	GeminiAPIKey string `mapstructure:"gemini_api_key"`
	GeminiModel  string `mapstructure:"gemini_model"`
}

// BreakerConfig configures the per-provider circuit breakers.
type BreakerConfig struct {
	FailureThreshold uint32        `mapstructure:"failure_threshold"`
	MaxRequests      uint32        `mapstructure:"max_requests"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
}

// JobsConfig holds job orchestration configuration.
type JobsConfig struct {
	MaxConcurrent   int           `mapstructure:"max_concurrent"`
	Retention       time.Duration `mapstructure:"retention"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	DefaultDuration int           `mapstructure:"default_duration"`
	MinDuration     int           `mapstructure:"min_duration"`
	MaxDuration     int           `mapstructure:"max_duration"`
}

// SuggestionsConfig holds suggestion generation configuration.
type SuggestionsConfig struct {
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig holds prometheus configuration.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	Path      string `mapstructure:"path"`
}

// Load loads configuration from .env, config file and environment.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("/etc/relai")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix("RELAI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applyVendorEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyVendorEnv honours the unprefixed variable names used by the vendors'
// own tooling. Prefixed RELAI_ values win when both are set.
func applyVendorEnv(cfg *Config) {
	setIfEmpty(&cfg.Providers.Video.APIKey, "OPENAI_API_KEY")
	setIfEmpty(&cfg.Providers.Text.APIKey, "OPENAI_API_KEY")
	setIfEmpty(&cfg.Providers.Voice.APIKey, "ELEVENLABS_API_KEY")
	setIfEmpty(&cfg.Providers.Music.APIKey, "SUNO_API_KEY")
	setIfEmpty(&cfg.Providers.Text.GeminiAPIKey, "GEMINI_API_KEY")

	if s := os.Getenv("ALLOWED_ORIGINS"); s != "" && os.Getenv("RELAI_SERVER_ALLOWED_ORIGINS") == "" {
		cfg.Server.AllowedOrigins = parseCommaSeparatedList(s)
	}
	if port := os.Getenv("PORT"); port != "" && os.Getenv("RELAI_SERVER_ADDRESS") == "" {
		cfg.Server.Address = ":" + port
	}
}

func setIfEmpty(dst *string, env string) {
	if *dst != "" {
		return
	}
	if s := os.Getenv(env); s != "" {
		*dst = s
	}
}

// Validate checks values that would otherwise fail later at wiring time.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StorageDriverLocal:
		if c.Storage.LocalPath == "" {
			return errors.New("config: storage.local_path is required for the local driver")
		}
	case StorageDriverS3:
		if c.Storage.Bucket == "" {
			return errors.New("config: storage.bucket is required for the s3 driver")
		}
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}

	switch c.Providers.Text.Backend {
	case TextBackendOpenAI, TextBackendGemini:
	default:
		return fmt.Errorf("config: unknown text backend %q", c.Providers.Text.Backend)
	}

	j := c.Jobs
	if j.MinDuration <= 0 || j.MaxDuration < j.MinDuration {
		return fmt.Errorf("config: invalid job duration range %d..%d", j.MinDuration, j.MaxDuration)
	}
	if j.DefaultDuration < j.MinDuration || j.DefaultDuration > j.MaxDuration {
		return fmt.Errorf("config: default duration %d outside %d..%d", j.DefaultDuration, j.MinDuration, j.MaxDuration)
	}
	if c.Providers.Video.MaxWait <= 0 || c.Providers.Music.MaxWait <= 0 {
		return errors.New("config: provider max_wait must be positive")
	}
	return nil
}

func parseCommaSeparatedList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.read_timeout", 60*time.Second)
	v.SetDefault("server.write_timeout", 5*time.Minute)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.max_upload_bytes", 50<<20)

	// Redis defaults
	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// HTTP client defaults
	v.SetDefault("http_client.max_idle_conns", 100)
	v.SetDefault("http_client.max_idle_conns_per_host", 20)
	v.SetDefault("http_client.max_conns_per_host", 50)
	v.SetDefault("http_client.idle_conn_timeout", 90*time.Second)
	v.SetDefault("http_client.dial_timeout", 30*time.Second)
	v.SetDefault("http_client.tls_handshake_timeout", 10*time.Second)
	v.SetDefault("http_client.response_timeout", 5*time.Minute)
	v.SetDefault("http_client.keep_alive", 30*time.Second)

	// Rate limit defaults
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.generate_limit", 10)
	v.SetDefault("rate_limit.generate_window", time.Minute)
	v.SetDefault("rate_limit.idempotency_ttl", time.Hour)

	// Storage defaults
	v.SetDefault("storage.driver", StorageDriverLocal)
	v.SetDefault("storage.local_path", "uploads")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.region", "auto")
	v.SetDefault("storage.access_key_id", "")
	v.SetDefault("storage.secret_access_key", "")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.prefix", "media/")

	// Video provider defaults
	v.SetDefault("providers.video.base_url", "https://api.openai.com/v1")
	v.SetDefault("providers.video.api_key", "")
	v.SetDefault("providers.video.model", "sora-2.0")
	v.SetDefault("providers.video.resolution", "1080p")
	v.SetDefault("providers.video.fps", 30)
	v.SetDefault("providers.video.poll_interval", 5*time.Second)
	v.SetDefault("providers.video.max_wait", 30*time.Minute)

	// Voice provider defaults
	v.SetDefault("providers.voice.base_url", "https://api.elevenlabs.io")
	v.SetDefault("providers.voice.api_key", "")
	v.SetDefault("providers.voice.default_voice_id", "EXAVITQu4vr4xnSDxMaL")
	v.SetDefault("providers.voice.model_id", "eleven_multilingual_v2")
	v.SetDefault("providers.voice.output_format", "mp3_44100_128")
	v.SetDefault("providers.voice.stability", 0.5)
	v.SetDefault("providers.voice.similarity_boost", 0.75)
	v.SetDefault("providers.voice.style", 0.5)
	v.SetDefault("providers.voice.speaker_boost", true)

	// Music provider defaults
	v.SetDefault("providers.music.base_url", "https://api.suno.ai/v1")
	v.SetDefault("providers.music.api_key", "")
	v.SetDefault("providers.music.style", "modern")
	v.SetDefault("providers.music.poll_interval", 3*time.Second)
	v.SetDefault("providers.music.max_wait", 120*time.Second)

	// Text provider defaults
	v.SetDefault("providers.text.backend", TextBackendOpenAI)
	v.SetDefault("providers.text.base_url", "https://api.openai.com/v1")
	v.SetDefault("providers.text.api_key", "")
	v.SetDefault("providers.text.model", "gpt-4-turbo-preview")
	v.SetDefault("providers.text.gemini_api_key", "")
	v.SetDefault("providers.text.gemini_model", "gemini-2.5-flash")

	// Circuit breaker defaults
	v.SetDefault("providers.breaker.failure_threshold", 5)
	v.SetDefault("providers.breaker.max_requests", 1)
	v.SetDefault("providers.breaker.interval", time.Minute)
	v.SetDefault("providers.breaker.timeout", 60*time.Second)

	// Job defaults
	v.SetDefault("jobs.max_concurrent", 10)
	v.SetDefault("jobs.retention", 24*time.Hour)
	v.SetDefault("jobs.cleanup_interval", 5*time.Minute)
	v.SetDefault("jobs.default_duration", 30)
	v.SetDefault("jobs.min_duration", 5)
	v.SetDefault("jobs.max_duration", 60)

	// Suggestion defaults
	v.SetDefault("suggestions.cache_ttl", 6*time.Hour)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", "relai")
	v.SetDefault("metrics.path", "/metrics")
}
