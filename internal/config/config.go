package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port           string        `mapstructure:"PORT"`
	Env            string        `mapstructure:"ENV"`
	APIBaseURL     string        `mapstructure:"API_BASE_URL"`
	APITimeout     time.Duration `mapstructure:"API_TIMEOUT"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`

	SessionStore         string        `mapstructure:"SESSION_STORE"`
	SessionTTL           time.Duration `mapstructure:"SESSION_TTL"`
	SessionPurgeInterval time.Duration `mapstructure:"SESSION_PURGE_INTERVAL"`
	CookieSecure         bool          `mapstructure:"COOKIE_SECURE"`
	RedisURL             string        `mapstructure:"REDIS_URL"`
	DatabaseURL          string        `mapstructure:"DATABASE_URL"`
	DBMaxConns           int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns           int32         `mapstructure:"DB_MIN_CONNS"`

	BodyLimit      string  `mapstructure:"BODY_LIMIT"`
	MaxUploadSize  string  `mapstructure:"MAX_UPLOAD_SIZE"`
	LoginRateRPS   float64 `mapstructure:"LOGIN_RATE_RPS"`
	LoginRateBurst int     `mapstructure:"LOGIN_RATE_BURST"`

	TracingEnabled  bool    `mapstructure:"TRACING_ENABLED"`
	OTLPEndpoint    string  `mapstructure:"OTLP_ENDPOINT"`
	TraceSampleRate float64 `mapstructure:"TRACE_SAMPLE_RATE"`
}

var keys = []string{
	"PORT", "ENV", "API_BASE_URL", "API_TIMEOUT", "REQUEST_TIMEOUT",
	"SESSION_STORE", "SESSION_TTL", "SESSION_PURGE_INTERVAL", "COOKIE_SECURE",
	"REDIS_URL", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
	"BODY_LIMIT", "MAX_UPLOAD_SIZE", "LOGIN_RATE_RPS", "LOGIN_RATE_BURST",
	"TRACING_ENABLED", "OTLP_ENDPOINT", "TRACE_SAMPLE_RATE",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("API_BASE_URL", "http://localhost:3000/api")
	v.SetDefault("API_TIMEOUT", "10s")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("SESSION_STORE", "memory")
	v.SetDefault("SESSION_TTL", "24h")
	v.SetDefault("SESSION_PURGE_INTERVAL", "15m")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 1)
	v.SetDefault("BODY_LIMIT", "1M")
	v.SetDefault("MAX_UPLOAD_SIZE", "8M")
	v.SetDefault("LOGIN_RATE_RPS", 0.1)
	v.SetDefault("LOGIN_RATE_BURST", 5)
	v.SetDefault("TRACE_SAMPLE_RATE", 1.0)

	// Bind env vars explicitly so Unmarshal picks them up
	for _, k := range keys {
		v.BindEnv(k)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is usable before anything is
// connected. The session store must be known and have its connection URL,
// and production requires Secure cookies.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("API_BASE_URL must be an absolute http(s) URL, got %q", c.APIBaseURL)
	}
	if c.APITimeout <= 0 {
		return fmt.Errorf("API_TIMEOUT must be positive, got %s", c.APITimeout)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}

	switch c.SessionStore {
	case "memory":
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when SESSION_STORE is \"redis\"")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when SESSION_STORE is \"postgres\"")
		}
		if c.DBMinConns > c.DBMaxConns {
			return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
		}
	default:
		return fmt.Errorf("SESSION_STORE must be \"memory\", \"redis\", or \"postgres\", got %q", c.SessionStore)
	}

	if c.IsProduction() && !c.CookieSecure {
		return fmt.Errorf("COOKIE_SECURE must be true in production")
	}
	if c.TracingEnabled && (c.TraceSampleRate <= 0 || c.TraceSampleRate > 1) {
		return fmt.Errorf("TRACE_SAMPLE_RATE must be in (0, 1], got %v", c.TraceSampleRate)
	}
	return nil
}
