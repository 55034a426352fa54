package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config carries the process configuration. Values come from the
// environment; a .env file in the working directory is loaded first when
// present.
type Config struct {
	Addr       string
	DSN        string
	AuthSecret string

	TokenIssuer string
	TokenTTL    time.Duration

	RatePerSec float64
	RateBurst  int

	DefaultPageSize int
	MaxPageSize     int
}

// Load reads configuration from the environment. The auth secret is the
// only required value.
func Load() (Config, error) {
	// Missing .env is the normal production case.
	_ = godotenv.Load()

	cfg := Config{
		Addr:            getString("TIERDIR_ADDR", ":8080"),
		DSN:             os.Getenv("TIERDIR_PG_DSN"),
		AuthSecret:      strings.TrimSpace(os.Getenv("TIERDIR_AUTH_SECRET")),
		TokenIssuer:     getString("TIERDIR_TOKEN_ISSUER", "tierdir"),
		DefaultPageSize: 10,
		MaxPageSize:     100,
	}

	var err error
	if cfg.TokenTTL, err = getDuration("TIERDIR_TOKEN_TTL", 2*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.RatePerSec, err = getFloat("TIERDIR_RATE_PER_SEC", 5); err != nil {
		return Config{}, err
	}
	if cfg.RateBurst, err = getInt("TIERDIR_RATE_BURST", 10); err != nil {
		return Config{}, err
	}

	if cfg.AuthSecret == "" {
		return Config{}, fmt.Errorf("TIERDIR_AUTH_SECRET is required")
	}
	return cfg, nil
}

func getString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: must be positive", key)
	}
	return d, nil
}
