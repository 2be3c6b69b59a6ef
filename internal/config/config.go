package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	// Name is the display-name base for created entities.
	Name string

	// Prefix is the stable identifier base (lowercased, underscored).
	Prefix string

	// FetchInterval controls how often the cameras are polled.
	FetchInterval time.Duration

	// HTTPTimeout bounds each outbound tile request.
	HTTPTimeout time.Duration

	// VerifySSL toggles TLS certificate verification for tile fetches.
	VerifySSL bool

	// In-memory state store retention.
	StoreMaxHistory int           // max number of state records per entity (0 = unlimited)
	StoreMaxAge     time.Duration // max age of state records (0 = unlimited)

	Port string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.Name = getenvDefault("CAMERA_NAME", "NEA Weather")
	cfg.Prefix = getenvDefault("CAMERA_PREFIX", "nea")

	// Polling interval: default one bucket.
	intervalStr := getenvDefault("FETCH_INTERVAL", "5m")
	interval, err := time.ParseDuration(intervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid FETCH_INTERVAL: %w", err)
	}
	cfg.FetchInterval = interval

	timeoutStr := getenvDefault("HTTP_TIMEOUT", "30s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	cfg.VerifySSL = getenvBool("VERIFY_SSL", true)

	// State store retention.
	cfg.StoreMaxHistory = getenvInt("STORE_MAX_HISTORY", 96)

	maxAgeStr := getenvDefault("STORE_MAX_AGE", "24h")
	maxAge, err := time.ParseDuration(maxAgeStr)
	if err != nil {
		return nil, fmt.Errorf("invalid STORE_MAX_AGE: %w", err)
	}
	cfg.StoreMaxAge = maxAge
	cfg.Port = getenvDefault("PORT", "8080")

	return cfg, nil
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

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}
