package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	// Seniverse API credential and host.
	SeniverseAPIKey  string
	SeniverseAPIHost string

	// CacheTTL is the maximum snapshot age before a lookup refetches.
	CacheTTL time.Duration

	// DBPath is the sqlite file holding the cache and history tables.
	DBPath string

	// ForecastDays is the daily forecast window (free tier supports 3).
	ForecastDays int

	// RefreshInterval controls the background refresh of tracked cities.
	RefreshInterval time.Duration

	// Cities tracked by the scheduler, keyed by their Seniverse location
	// identifier (pinyin name or id).
	Cities []string

	HTTPTimeout time.Duration
	Port        string
	LogLevel    string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	// Best effort; absence of a .env file is not an error.
	_ = godotenv.Load()

	cfg := &AppConfig{}

	cfg.SeniverseAPIKey = os.Getenv("SENIVERSE_API_KEY")
	if cfg.SeniverseAPIKey == "" {
		return nil, fmt.Errorf("SENIVERSE_API_KEY is required")
	}
	cfg.SeniverseAPIHost = getenvDefault("SENIVERSE_API_HOST", "https://api.seniverse.com")

	ttlStr := getenvDefault("CACHE_TTL", "1h")
	ttl, err := time.ParseDuration(ttlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_TTL: %w", err)
	}
	cfg.CacheTTL = ttl

	cfg.DBPath = getenvDefault("DB_PATH", "weather.db")
	cfg.ForecastDays = getenvInt("FORECAST_DAYS", 3)

	intervalStr := getenvDefault("REFRESH_INTERVAL", "30m")
	interval, err := time.ParseDuration(intervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid REFRESH_INTERVAL: %w", err)
	}
	cfg.RefreshInterval = interval

	timeoutStr := getenvDefault("HTTP_TIMEOUT", "10s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	cfg.Cities = splitCities(getenvDefault("WEATHER_CITIES", "beijing"))
	cfg.Port = getenvDefault("PORT", "8080")
	cfg.LogLevel = getenvDefault("LOG_LEVEL", "info")

	return cfg, nil
}

func splitCities(raw string) []string {
	var cities []string
	for _, c := range strings.Split(raw, ",") {
		c = strings.TrimSpace(c)
		if c != "" {
			cities = append(cities, c)
		}
	}
	return cities
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
