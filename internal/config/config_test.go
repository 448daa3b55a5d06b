package config_test

import (
	"testing"
	"time"

	"storefront/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(config.New())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.AppPort)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, 7*24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, "MLZ", cfg.OrderNumberPrefix)
	assert.Empty(t, cfg.RabbitMQURL)
	assert.Equal(t, 5, cfg.AuthRateBurst)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("APP_PORT", "5050")
	t.Setenv("JWT_TTL", "2h")
	t.Setenv("ORDER_NUMBER_PREFIX", "TST")
	t.Setenv("SEED_DEMO", "true")

	cfg, err := config.Load(config.New())
	require.NoError(t, err)

	assert.Equal(t, ":5050", cfg.AppPort)
	assert.Equal(t, 2*time.Hour, cfg.JWTTTL)
	assert.Equal(t, "TST", cfg.OrderNumberPrefix)
	assert.True(t, cfg.SeedDemo)
}

func TestLoad_InvalidTTL(t *testing.T) {
	t.Setenv("JWT_TTL", "soon")
	_, err := config.Load(config.New())
	assert.Error(t, err)
}

func TestLoadCart(t *testing.T) {
	t.Setenv("CART_API_URL", "http://shop.local/api/")
	t.Setenv("CART_STORAGE", "redis")

	cfg := config.LoadCart(config.New())
	assert.Equal(t, "http://shop.local/api", cfg.APIURL)
	assert.Equal(t, "redis", cfg.Storage)
	assert.Equal(t, "1000", cfg.FreeShippingThreshold)
	assert.Equal(t, "100", cfg.ShippingFee)
}
