package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("NOAA_TOKEN", "")
	t.Setenv("HTTP_TIMEOUT", "")
	t.Setenv("RAINFALL_UNITS", "")
	t.Setenv("RAINFALL_CHUNK_DAYS", "")
	t.Setenv("RAINFALL_CACHE_PATH", "")
	t.Setenv("CACHE_JANITOR_INTERVAL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HTTPTimeout != 30*time.Second {
		t.Fatalf("HTTPTimeout = %v", cfg.HTTPTimeout)
	}
	if cfg.Units != "in" {
		t.Fatalf("Units = %q", cfg.Units)
	}
	if cfg.ChunkDays != 0 {
		t.Fatalf("ChunkDays = %d", cfg.ChunkDays)
	}
	if cfg.CachePath == "" {
		t.Fatal("CachePath must default to a usable location")
	}
	if cfg.JanitorInterval != time.Hour {
		t.Fatalf("JanitorInterval = %v", cfg.JanitorInterval)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("NOAA_TOKEN", "abc123")
	t.Setenv("HTTP_TIMEOUT", "5s")
	t.Setenv("RAINFALL_UNITS", "mm")
	t.Setenv("RAINFALL_CHUNK_DAYS", "365")
	t.Setenv("CDO_DATA_URL", "http://localhost:8080/cdo-web/api/v2/data")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Token != "abc123" || cfg.HTTPTimeout != 5*time.Second {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Units != "mm" || cfg.ChunkDays != 365 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.CDODataURL != "http://localhost:8080/cdo-web/api/v2/data" {
		t.Fatalf("CDODataURL = %q", cfg.CDODataURL)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("RAINFALL_UNITS", "furlongs")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for bad units")
	}

	t.Setenv("RAINFALL_UNITS", "in")
	t.Setenv("HTTP_TIMEOUT", "soon")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for bad timeout")
	}
}
