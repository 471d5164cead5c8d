package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	pkgconfig "github.com/justinloleng/ecommerce/pkg/config"
)

// Config holds all configuration for the storefront BFF.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort           int      `env:"HTTP_PORT" envDefault:"8080"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	CatalogCacheMaxAge int      `env:"CATALOG_CACHE_SECONDS" envDefault:"60"`

	// Storefront API
	APIURL        string        `env:"STOREFRONT_API_URL" envDefault:"http://localhost:5000/api"`
	APITimeout    time.Duration `env:"API_TIMEOUT" envDefault:"10s"`
	APIMaxRetries int           `env:"API_MAX_RETRIES" envDefault:"2"`

	// Circuit breaker around the storefront API
	CBMaxRequests  uint32  `env:"CB_MAX_REQUESTS" envDefault:"1"`
	CBInterval     int     `env:"CB_INTERVAL_SECONDS" envDefault:"60"`
	CBTimeout      int     `env:"CB_TIMEOUT_SECONDS" envDefault:"15"`
	CBFailureRatio float64 `env:"CB_FAILURE_RATIO" envDefault:"0.5"`
	CBMinRequests  uint32  `env:"CB_MIN_REQUESTS" envDefault:"5"`

	// Redis holds per-user cart sessions. Disabled keeps them in process memory.
	RedisEnabled       bool          `env:"REDIS_ENABLED" envDefault:"true"`
	RedisAddr          string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass          string        `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB            int           `env:"REDIS_DB" envDefault:"0"`
	SessionTTL         time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	SlowRedisThreshold time.Duration `env:"SLOW_REDIS_THRESHOLD" envDefault:"50ms"`

	// Kafka. No brokers disables event publishing.
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`

	// Checkout
	ShippingFeeCents    int64 `env:"SHIPPING_FEE_CENTS" envDefault:"500"`
	ShippingOnEmptyCart bool  `env:"SHIPPING_ON_EMPTY_CART" envDefault:"false"`
	MaxProofBytes       int64 `env:"MAX_PROOF_BYTES" envDefault:"5242880"`

	// Tracing
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load(opts ...pkgconfig.Option) (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg, opts...); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if err := validateAPIURL(c.APIURL); err != nil {
		return err
	}
	if c.APITimeout <= 0 {
		return fmt.Errorf("API_TIMEOUT must be positive, got %s", c.APITimeout)
	}
	if c.APIMaxRetries < 0 {
		return fmt.Errorf("API_MAX_RETRIES must not be negative")
	}
	if c.ShippingFeeCents < 0 {
		return fmt.Errorf("SHIPPING_FEE_CENTS must not be negative, got %d", c.ShippingFeeCents)
	}
	if c.CBFailureRatio <= 0 || c.CBFailureRatio > 1 {
		return fmt.Errorf("CB_FAILURE_RATIO must be in (0, 1], got %v", c.CBFailureRatio)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be in [0, 1], got %v", c.OTELSampleRate)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	return nil
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// ClientConfig configures the terminal client. It reads the same variable
// names under the STOREFRONT_CLI_ prefix, e.g. STOREFRONT_CLI_API_URL.
type ClientConfig struct {
	APIURL              string        `env:"API_URL" envDefault:"http://localhost:5000/api"`
	UserID              int64         `env:"USER_ID" envDefault:"0"`
	LogLevel            string        `env:"LOG_LEVEL" envDefault:"warn"`
	Timeout             time.Duration `env:"TIMEOUT" envDefault:"10s"`
	ShippingFeeCents    int64         `env:"SHIPPING_FEE_CENTS" envDefault:"500"`
	ShippingOnEmptyCart bool          `env:"SHIPPING_ON_EMPTY_CART" envDefault:"false"`
	NoColor             bool          `env:"NO_COLOR" envDefault:"false"`
}

// ClientPrefix is the environment prefix of ClientConfig.
const ClientPrefix = "STOREFRONT_CLI_"

// LoadClient reads the terminal client configuration.
func LoadClient(opts ...pkgconfig.Option) (*ClientConfig, error) {
	cfg := &ClientConfig{}
	opts = append([]pkgconfig.Option{pkgconfig.WithPrefix(ClientPrefix)}, opts...)
	if err := pkgconfig.Load(cfg, opts...); err != nil {
		return nil, fmt.Errorf("load client config: %w", err)
	}
	if err := validateAPIURL(cfg.APIURL); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateAPIURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid storefront API URL: %q", raw)
	}
	if strings.HasSuffix(u.Path, "/") && u.Path != "/" {
		return fmt.Errorf("storefront API URL must not end with a slash: %q", raw)
	}
	return nil
}
