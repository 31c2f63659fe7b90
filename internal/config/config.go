// Package config reads settings from the environment, after an optional .env
// file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// MemorySecretDB selects the in-memory secret store.
const MemorySecretDB = ":memory:"

type Config struct {
	Env       string
	LogLevel  string
	LogFormat string

	Client  ClientConfig
	Backend BackendConfig
}

type ClientConfig struct {
	BaseURL     string
	HTTPTimeout time.Duration

	SecretDB         string
	SecretPassphrase string

	// RedisAddr enables the shared catalog cache when set.
	RedisAddr     string
	RedisPassword string
	CatalogTTL    time.Duration

	ShippingFee   float64
	PaymentMethod string

	BreakerEnabled  bool
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

type BackendConfig struct {
	Port      string
	JWTSecret string
	AccessTTL time.Duration
}

// Load reads envFiles (default ".env") without overriding variables already
// set, then builds the Config. Missing env files are ignored.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}
	return FromEnv()
}

// FromEnv builds the Config from the process environment only.
func FromEnv() (*Config, error) {
	p := &parser{}

	cfg := &Config{
		Env:       getEnv("APP_ENV", "development"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
		Client: ClientConfig{
			BaseURL:          getEnv("STOREFRONT_BASE_URL", "http://localhost:8080"),
			HTTPTimeout:      p.duration("STOREFRONT_HTTP_TIMEOUT", 0),
			SecretDB:         getEnv("STOREFRONT_SECRET_DB", defaultSecretDB()),
			SecretPassphrase: os.Getenv("STOREFRONT_SECRET_PASSPHRASE"),
			RedisAddr:        os.Getenv("STOREFRONT_REDIS_ADDR"),
			RedisPassword:    os.Getenv("STOREFRONT_REDIS_PASSWORD"),
			CatalogTTL:       p.duration("STOREFRONT_CATALOG_TTL", 15*time.Minute),
			ShippingFee:      p.float("STOREFRONT_SHIPPING_FEE", 15.0),
			PaymentMethod:    getEnv("STOREFRONT_PAYMENT_METHOD", "Cash On Delivery"),
			BreakerEnabled:   p.bool("STOREFRONT_BREAKER_ENABLED", false),
			BreakerFailures:  p.uint32("STOREFRONT_BREAKER_FAILURES", 5),
			BreakerCooldown:  p.duration("STOREFRONT_BREAKER_COOLDOWN", 30*time.Second),
		},
		Backend: BackendConfig{
			Port:      getEnv("MOCK_BACKEND_PORT", "8080"),
			JWTSecret: getEnv("MOCK_BACKEND_JWT_SECRET", "mock-backend-secret"),
			AccessTTL: p.duration("MOCK_BACKEND_ACCESS_TTL", 15*time.Minute),
		},
	}

	if err := p.err(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	u, err := url.Parse(c.Client.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("STOREFRONT_BASE_URL must be an absolute http(s) URL, got %q", c.Client.BaseURL)
	}
	if c.Client.ShippingFee < 0 {
		return errors.New("STOREFRONT_SHIPPING_FEE must not be negative")
	}
	if c.Client.BreakerFailures == 0 {
		return errors.New("STOREFRONT_BREAKER_FAILURES must be at least 1")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func defaultSecretDB() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return MemorySecretDB
	}
	return filepath.Join(dir, "storefront", "secrets.db")
}

// parser collects every malformed value instead of stopping at the first.
type parser struct {
	errs []error
}

func (p *parser) err() error {
	return errors.Join(p.errs...)
}

func (p *parser) fail(key, value string, err error) {
	p.errs = append(p.errs, fmt.Errorf("invalid %s=%q: %w", key, value, err))
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return d
}

func (p *parser) float(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return f
}

func (p *parser) bool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return b
}

func (p *parser) uint32(key string, def uint32) uint32 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return uint32(n)
}
