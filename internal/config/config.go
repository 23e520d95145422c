package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/apex/log"
	"github.com/joho/godotenv"
)

// AppConfig bundles the environment-driven settings shared by the CLI and
// the batch runner.
type AppConfig struct {
	// Token authenticates against the CDO API. The ADS fallback needs no
	// token.
	Token string

	// Endpoint overrides, mainly for tests and the local stub service.
	CDODataURL     string
	CDOMetadataURL string
	ADSURL         string

	// HTTPTimeout applies per HTTP call, not per overall fetch.
	HTTPTimeout time.Duration

	Units     string
	ChunkDays int

	// Metadata cache.
	CachePath       string
	JanitorInterval time.Duration

	// GeocoderAPIKey switches geocoding from Nominatim to the Google API
	// when set.
	GeocoderAPIKey string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Debugf("no .env file loaded: %v", err)
	}

	cfg := &AppConfig{}
	cfg.Token = os.Getenv("NOAA_TOKEN")
	cfg.CDODataURL = os.Getenv("CDO_DATA_URL")
	cfg.CDOMetadataURL = os.Getenv("CDO_METADATA_URL")
	cfg.ADSURL = os.Getenv("ADS_URL")
	cfg.GeocoderAPIKey = os.Getenv("GOOGLE_GEOCODER_API_KEY")

	timeoutStr := getenvDefault("HTTP_TIMEOUT", "30s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	cfg.Units = getenvDefault("RAINFALL_UNITS", "in")
	if cfg.Units != "mm" && cfg.Units != "in" {
		return nil, fmt.Errorf("invalid RAINFALL_UNITS: %q", cfg.Units)
	}
	cfg.ChunkDays = getenvInt("RAINFALL_CHUNK_DAYS", 0)

	cfg.CachePath = os.Getenv("RAINFALL_CACHE_PATH")
	if cfg.CachePath == "" {
		cfg.CachePath = defaultCachePath()
	}

	janitorStr := getenvDefault("CACHE_JANITOR_INTERVAL", "1h")
	janitor, err := time.ParseDuration(janitorStr)
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_JANITOR_INTERVAL: %w", err)
	}
	cfg.JanitorInterval = janitor

	return cfg, nil
}

func defaultCachePath() string {
	root, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "rainfalldownload", "cache.db")
	}
	return filepath.Join(root, "rainfalldownload", "cache.db")
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
