// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/KingdomTeck/multiply/internal/clients/coingecko"
	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port              int
	LogLevel          string
	LogPretty         bool
	DevMode           bool
	CoinGeckoBaseURL  string
	PriceFetchTimeout time.Duration // bounded wait for one remote price lookup
	TickerInterval    time.Duration // price ticker polling period
	CalcCacheMaxItems int64         // 0 disables result memoization
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:              getEnvAsInt("PORT", 8080),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogPretty:         getEnvAsBool("LOG_PRETTY", true),
		DevMode:           getEnvAsBool("DEV_MODE", false),
		CoinGeckoBaseURL:  getEnv("COINGECKO_BASE_URL", coingecko.DefaultBaseURL),
		PriceFetchTimeout: time.Duration(getEnvAsInt("PRICE_FETCH_TIMEOUT_SECONDS", 5)) * time.Second,
		TickerInterval:    time.Duration(getEnvAsInt("TICKER_INTERVAL_SECONDS", 60)) * time.Second,
		CalcCacheMaxItems: int64(getEnvAsInt("CALC_CACHE_MAX_ITEMS", 10000)),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.PriceFetchTimeout <= 0 {
		return fmt.Errorf("price fetch timeout must be positive, got %s", c.PriceFetchTimeout)
	}
	if c.TickerInterval <= 0 {
		return fmt.Errorf("ticker interval must be positive, got %s", c.TickerInterval)
	}
	// Ticks must never overlap.
	if c.TickerInterval <= c.PriceFetchTimeout {
		return fmt.Errorf("ticker interval (%s) must exceed price fetch timeout (%s)", c.TickerInterval, c.PriceFetchTimeout)
	}
	if c.CalcCacheMaxItems < 0 {
		return fmt.Errorf("calculator cache size must not be negative, got %d", c.CalcCacheMaxItems)
	}

	u, err := url.Parse(c.CoinGeckoBaseURL)
	if err != nil {
		return fmt.Errorf("invalid CoinGecko base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("invalid CoinGecko base URL: %q", c.CoinGeckoBaseURL)
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
