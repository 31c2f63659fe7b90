package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("STOREFRONT_SECRET_DB", MemorySecretDB)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "http://localhost:8080", cfg.Client.BaseURL)
	assert.Equal(t, MemorySecretDB, cfg.Client.SecretDB)
	assert.Equal(t, 15*time.Minute, cfg.Client.CatalogTTL)
	assert.Equal(t, 15.0, cfg.Client.ShippingFee)
	assert.Equal(t, "Cash On Delivery", cfg.Client.PaymentMethod)
	assert.False(t, cfg.Client.BreakerEnabled)
	assert.EqualValues(t, 5, cfg.Client.BreakerFailures)
	assert.Equal(t, "8080", cfg.Backend.Port)
	assert.Equal(t, 15*time.Minute, cfg.Backend.AccessTTL)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("STOREFRONT_BASE_URL", "https://shop.example.com/api")
	t.Setenv("STOREFRONT_HTTP_TIMEOUT", "3s")
	t.Setenv("STOREFRONT_REDIS_ADDR", "localhost:6379")
	t.Setenv("STOREFRONT_SHIPPING_FEE", "9.5")
	t.Setenv("STOREFRONT_BREAKER_ENABLED", "true")
	t.Setenv("STOREFRONT_BREAKER_FAILURES", "2")
	t.Setenv("MOCK_BACKEND_ACCESS_TTL", "30s")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "https://shop.example.com/api", cfg.Client.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Client.HTTPTimeout)
	assert.Equal(t, "localhost:6379", cfg.Client.RedisAddr)
	assert.Equal(t, 9.5, cfg.Client.ShippingFee)
	assert.True(t, cfg.Client.BreakerEnabled)
	assert.EqualValues(t, 2, cfg.Client.BreakerFailures)
	assert.Equal(t, 30*time.Second, cfg.Backend.AccessTTL)
}

func TestFromEnv_ReportsEveryMalformedValue(t *testing.T) {
	t.Setenv("STOREFRONT_HTTP_TIMEOUT", "soon")
	t.Setenv("STOREFRONT_SHIPPING_FEE", "free")

	_, err := FromEnv()
	require.Error(t, err)
	assert.ErrorContains(t, err, "STOREFRONT_HTTP_TIMEOUT")
	assert.ErrorContains(t, err, "STOREFRONT_SHIPPING_FEE")
}

func TestFromEnv_Validation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		want  string
	}{
		{"relative url", "STOREFRONT_BASE_URL", "/api", "STOREFRONT_BASE_URL"},
		{"bad scheme", "STOREFRONT_BASE_URL", "ftp://host", "STOREFRONT_BASE_URL"},
		{"negative fee", "STOREFRONT_SHIPPING_FEE", "-1", "must not be negative"},
		{"zero failures", "STOREFRONT_BREAKER_FAILURES", "0", "at least 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := FromEnv()
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("LOG_LEVEL=debug\nSTOREFRONT_PAYMENT_METHOD=Card\n"), 0o600))

	// Registered so the variables the file sets are restored afterwards.
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("STOREFRONT_PAYMENT_METHOD", "")
	os.Unsetenv("LOG_LEVEL")
	os.Unsetenv("STOREFRONT_PAYMENT_METHOD")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "Card", cfg.Client.PaymentMethod)
}

func TestLoad_EnvDoesNotOverrideProcess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("LOG_LEVEL=debug\n"), 0o600))
	t.Setenv("LOG_LEVEL", "error")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel)
}

func TestLoad_MissingFileIgnored(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}
