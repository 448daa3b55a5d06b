package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every runtime setting of the storefront server.
type Config struct {
	AppEnv            string
	AppPort           string
	DatabaseDriver    string
	DatabaseDSN       string
	JWTSecret         string
	JWTTTL            time.Duration
	RabbitMQURL       string
	FrontendURL       string
	OrderNumberPrefix string
	SeedDemo          bool
	SeedAdminEmail    string
	SeedAdminPassword string
	AuthRateLimit     float64
	AuthRateBurst     int
}

// CartConfig holds the settings of the cartctl client.
type CartConfig struct {
	APIURL                string
	Token                 string
	Storage               string
	Dir                   string
	RedisAddr             string
	RedisPassword         string
	RedisDB               int
	FreeShippingThreshold string
	ShippingFee           string
}

// New returns a viper instance with defaults set and environment lookup enabled.
// A .env file in the working directory is loaded first when present.
func New() *viper.Viper {
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("DATABASE_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "file:storefront.db?cache=shared")
	v.SetDefault("JWT_SECRET", "default-secret-change-me")
	v.SetDefault("JWT_TTL", "168h")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("FRONTEND_URL", "http://127.0.0.1:8080")
	v.SetDefault("ORDER_NUMBER_PREFIX", "MLZ")
	v.SetDefault("SEED_DEMO", false)
	v.SetDefault("SEED_ADMIN_EMAIL", "admin@example.com")
	v.SetDefault("SEED_ADMIN_PASSWORD", "admin123")
	v.SetDefault("AUTH_RATE_LIMIT", 2.0)
	v.SetDefault("AUTH_RATE_BURST", 5)

	v.SetDefault("CART_API_URL", "http://127.0.0.1:8080/api")
	v.SetDefault("CART_TOKEN", "")
	v.SetDefault("CART_STORAGE", "file")
	v.SetDefault("CART_DIR", ".cart")
	v.SetDefault("CART_REDIS_ADDR", "localhost:6379")
	v.SetDefault("CART_REDIS_PASSWORD", "")
	v.SetDefault("CART_REDIS_DB", 0)
	v.SetDefault("CART_FREE_SHIPPING_THRESHOLD", "1000")
	v.SetDefault("CART_SHIPPING_FEE", "100")

	v.AutomaticEnv() // Load environment variables
	return v
}

// Load reads the server configuration.
func Load(v *viper.Viper) (*Config, error) {
	ttl, err := time.ParseDuration(v.GetString("JWT_TTL"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL: %w", err)
	}
	port := v.GetString("APP_PORT")
	if !strings.Contains(port, ":") {
		port = ":" + port
	}

	cfg := &Config{
		AppEnv:            v.GetString("APP_ENV"),
		AppPort:           port,
		DatabaseDriver:    v.GetString("DATABASE_DRIVER"),
		DatabaseDSN:       v.GetString("DATABASE_DSN"),
		JWTSecret:         v.GetString("JWT_SECRET"),
		JWTTTL:            ttl,
		RabbitMQURL:       v.GetString("RABBITMQ_URL"),
		FrontendURL:       v.GetString("FRONTEND_URL"),
		OrderNumberPrefix: v.GetString("ORDER_NUMBER_PREFIX"),
		SeedDemo:          v.GetBool("SEED_DEMO"),
		SeedAdminEmail:    v.GetString("SEED_ADMIN_EMAIL"),
		SeedAdminPassword: v.GetString("SEED_ADMIN_PASSWORD"),
		AuthRateLimit:     v.GetFloat64("AUTH_RATE_LIMIT"),
		AuthRateBurst:     v.GetInt("AUTH_RATE_BURST"),
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET must not be empty")
	}
	return cfg, nil
}

// LoadCart reads the cartctl configuration.
func LoadCart(v *viper.Viper) *CartConfig {
	return &CartConfig{
		APIURL:                strings.TrimRight(v.GetString("CART_API_URL"), "/"),
		Token:                 v.GetString("CART_TOKEN"),
		Storage:               v.GetString("CART_STORAGE"),
		Dir:                   v.GetString("CART_DIR"),
		RedisAddr:             v.GetString("CART_REDIS_ADDR"),
		RedisPassword:         v.GetString("CART_REDIS_PASSWORD"),
		RedisDB:               v.GetInt("CART_REDIS_DB"),
		FreeShippingThreshold: v.GetString("CART_FREE_SHIPPING_THRESHOLD"),
		ShippingFee:           v.GetString("CART_SHIPPING_FEE"),
	}
}
