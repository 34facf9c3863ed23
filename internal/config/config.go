package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds runtime settings for an analysis run.
type Config struct {
	// Workers bounds the analyzer fan-out. Zero means one worker per CPU.
	Workers int
	// OutputDir receives the report and heatmap artifacts.
	OutputDir string
	// MaxPixels rejects source images above this pixel count before any
	// analyzer runs.
	MaxPixels int64
}

// LoadFromEnv builds a Config from environment variables with defaults.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Workers:   int(parseIntOrDefault("FORENSICLENS_WORKERS", 0)),
		OutputDir: getEnvOrDefault("FORENSICLENS_OUTPUT_DIR", "output"),
		MaxPixels: parseIntOrDefault("FORENSICLENS_MAX_PIXELS", 64*1024*1024),
	}

	if cfg.Workers < 0 {
		return nil, fmt.Errorf("FORENSICLENS_WORKERS must be >= 0 (got %d)", cfg.Workers)
	}
	if cfg.MaxPixels <= 0 {
		return nil, fmt.Errorf("FORENSICLENS_MAX_PIXELS must be > 0 (got %d)", cfg.MaxPixels)
	}
	if strings.TrimSpace(cfg.OutputDir) == "" {
		return nil, fmt.Errorf("FORENSICLENS_OUTPUT_DIR must not be empty")
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
