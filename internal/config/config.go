package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
// Following 12-factor app principles, all config is loaded from environment variables
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Auth      AuthConfig
	Payment   PaymentConfig
	Email     EmailConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Coupons   CouponConfig
	LogLevel  string
}

type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     int
	WriteTimeout    int
	ShutdownTimeout int
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Driver        string // mongo or memory
	MongoURI      string
	MongoDatabase string
}

type AuthConfig struct {
	JWTSecret string
}

// PaymentConfig holds the gateway credentials. With no key id the server
// runs against the offline gateway.
type PaymentConfig struct {
	KeyID     string
	KeySecret string
	Currency  string
}

// EmailConfig enables order emails through Resend when APIKey is set.
type EmailConfig struct {
	ResendAPIKey string
	From         string
	ShopName     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

// RateLimitConfig bounds write requests per client IP.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// CouponConfig controls the coupon code index. MissRate is how many codes
// absent from the index are still checked against the store per second;
// IndexRefresh rebuilds the index periodically, zero disables it.
type CouponConfig struct {
	MissRate     int
	IndexRefresh time.Duration
}

const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			Host:            getEnv("HOST", "0.0.0.0"),
			ReadTimeout:     getEnvAsInt("READ_TIMEOUT", 15),
			WriteTimeout:    getEnvAsInt("WRITE_TIMEOUT", 15),
			ShutdownTimeout: getEnvAsInt("SHUTDOWN_TIMEOUT", 30),
		},
		Store: StoreConfig{
			Driver:        strings.ToLower(getEnv("STORE_DRIVER", DriverMemory)),
			MongoURI:      getEnv("MONGO_URI", ""),
			MongoDatabase: getEnv("MONGO_DATABASE", "storefront"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Payment: PaymentConfig{
			KeyID:     getEnv("RAZORPAY_KEY_ID", ""),
			KeySecret: getEnv("RAZORPAY_KEY_SECRET", ""),
			Currency:  strings.ToUpper(getEnv("CURRENCY", "INR")),
		},
		Email: EmailConfig{
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			From:         getEnv("EMAIL_FROM", "orders@example.com"),
			ShopName:     getEnv("SHOP_NAME", "Handmade Storefront"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		RateLimit: RateLimitConfig{
			Requests: getEnvAsInt("RATE_LIMIT_REQUESTS", 30),
			Window:   getEnvAsDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
		Coupons: CouponConfig{
			MissRate:     getEnvAsInt("COUPON_MISS_RATE", 20),
			IndexRefresh: getEnvAsDuration("COUPON_INDEX_REFRESH", 10*time.Minute),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	switch c.Store.Driver {
	case DriverMemory:
	case DriverMongo:
		if c.Store.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required when STORE_DRIVER is mongo")
		}
		if c.Store.MongoDatabase == "" {
			return fmt.Errorf("MONGO_DATABASE is required when STORE_DRIVER is mongo")
		}
	default:
		return fmt.Errorf("invalid store driver: %s (must be mongo or memory)", c.Store.Driver)
	}

	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("JWT_SECRET must be at least 16 characters")
	}

	if c.Payment.KeySecret == "" {
		return fmt.Errorf("RAZORPAY_KEY_SECRET is required")
	}
	if len(c.Payment.Currency) != 3 {
		return fmt.Errorf("invalid currency: %s", c.Payment.Currency)
	}

	if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate limit must be positive")
	}

	if c.Coupons.MissRate < 0 || c.Coupons.IndexRefresh < 0 {
		return fmt.Errorf("coupon index settings cannot be negative")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// Helper functions for reading environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
