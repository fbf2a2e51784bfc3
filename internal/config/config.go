package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// ProviderEndpoint is one upstream rate API. The base currency code is appended
// to Template verbatim.
type ProviderEndpoint struct {
	Name     string
	Template string
}

// Config holds all configuration for the converter front-ends
type Config struct {
	Port     string `env:"PORT" env-default:"8081" env-description:"HTTP API listen port"`
	LogLevel string `env:"LOG_LEVEL" env-default:"info" env-description:"debug, info, warn or error"`

	// Upstream rate providers, tried in this order
	ProviderURLs           []string      `env:"RATE_PROVIDER_URLS" env-separator:"," env-default:"https://api.exchangerate-api.com/v4/latest/,https://api.frankfurter.app/latest?from="`
	ProviderConnectTimeout time.Duration `env:"PROVIDER_CONNECT_TIMEOUT" env-default:"5s"`
	ProviderReadTimeout    time.Duration `env:"PROVIDER_READ_TIMEOUT" env-default:"5s"`
	ProviderUserAgent      string        `env:"PROVIDER_USER_AGENT" env-default:"currency-converter/1.0"`

	RatesCacheTTL       time.Duration `env:"RATES_CACHE_TTL" env-default:"1h"`
	DefaultBaseCurrency string        `env:"DEFAULT_BASE_CURRENCY" env-default:"USD"`
	Offline             bool          `env:"CONVERTER_OFFLINE" env-default:"false" env-description:"use the built-in static rate table"`

	// Rate limiting for the HTTP API
	RateLimitEnabled  bool          `env:"RATE_LIMIT_ENABLED" env-default:"true"`
	RateLimitRequests int           `env:"RATE_LIMIT_REQUESTS" env-default:"100"`
	RateLimitWindow   time.Duration `env:"RATE_LIMIT_WINDOW" env-default:"60s"`
	RateLimitBurst    int           `env:"RATE_LIMIT_BURST" env-default:"10"`
}

// Load reads an optional dotenv file and then the process environment.
// An empty path means ".env" in the working directory.
func Load(dotenvPath string) (*Config, error) {
	if dotenvPath == "" {
		dotenvPath = ".env"
	}
	// a missing .env file is not an error
	_ = godotenv.Load(dotenvPath)

	cfg := &Config{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.DefaultBaseCurrency = strings.ToUpper(strings.TrimSpace(c.DefaultBaseCurrency))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))

	urls := make([]string, 0, len(c.ProviderURLs))
	for _, u := range c.ProviderURLs {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	c.ProviderURLs = urls
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if len(c.ProviderURLs) == 0 {
		return errors.New("config: RATE_PROVIDER_URLS must list at least one provider")
	}
	for _, raw := range c.ProviderURLs {
		parsed, err := url.Parse(raw)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("config: invalid provider url %q", raw)
		}
	}
	if c.ProviderConnectTimeout <= 0 || c.ProviderReadTimeout <= 0 {
		return errors.New("config: provider timeouts must be positive")
	}
	if c.RatesCacheTTL <= 0 {
		return errors.New("config: RATES_CACHE_TTL must be positive")
	}
	if len(c.DefaultBaseCurrency) != 3 {
		return fmt.Errorf("config: invalid DEFAULT_BASE_CURRENCY %q", c.DefaultBaseCurrency)
	}
	if c.RateLimitEnabled && (c.RateLimitRequests <= 0 || c.RateLimitWindow <= 0 || c.RateLimitBurst <= 0) {
		return errors.New("config: rate limit settings must be positive when enabled")
	}
	return nil
}

// Endpoints returns the provider list in rotation order. Names come from the
// URL host and get a numeric suffix when two endpoints share a host.
func (c *Config) Endpoints() []ProviderEndpoint {
	endpoints := make([]ProviderEndpoint, 0, len(c.ProviderURLs))
	seen := make(map[string]int, len(c.ProviderURLs))

	for i, raw := range c.ProviderURLs {
		name := fmt.Sprintf("provider-%d", i+1)
		if parsed, err := url.Parse(raw); err == nil && parsed.Hostname() != "" {
			name = strings.TrimPrefix(parsed.Hostname(), "api.")
		}
		seen[name]++
		if n := seen[name]; n > 1 {
			name = fmt.Sprintf("%s-%d", name, n)
		}
		endpoints = append(endpoints, ProviderEndpoint{Name: name, Template: raw})
	}
	return endpoints
}

// Usage renders the supported environment variables.
func Usage() string {
	description, err := cleanenv.GetDescription(&Config{}, nil)
	if err != nil {
		return ""
	}
	return description
}
