/*
config.go - Server configuration

PURPOSE:
  Reads server settings from an optional .env file and the process
  environment. Command-line flags in cmd/server override what is loaded here.

VARIABLES:
  PORT              HTTP port (default: 8080)
  DB_PATH           SQLite database path (default: policy.db)
  LOG_LEVEL         debug | info | warn | error (default: info)
  ACCRUAL_INTERVAL  Scheduler tick, Go duration (default: 24h, 0 disables)
  CATALOG_FILE      Catalog JSON seeded at startup (default: built-in presets)
  CORS_ORIGINS      Comma-separated allowed origins
  RATE_CACHE_TTL    Rate lookup cache lifetime (default: 10m)

SEE ALSO:
  - cmd/server/main.go: Flag overrides
  - factory/presets.go: Built-in catalog
*/
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            int
	DBPath          string
	LogLevel        slog.Level
	AccrualInterval time.Duration
	CatalogFile     string
	CORSOrigins     []string
	RateCacheTTL    time.Duration
}

func Default() Config {
	return Config{
		Port:            8080,
		DBPath:          "policy.db",
		LogLevel:        slog.LevelInfo,
		AccrualInterval: 24 * time.Hour,
		CORSOrigins:     []string{"http://localhost:5173", "http://localhost:8080"},
		RateCacheTTL:    10 * time.Minute,
	}
}

// Load reads the given .env files (".env" when none are named) and then the
// environment. A missing .env file is not an error.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from a lookup function over Default.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return Config{}, fmt.Errorf("PORT: invalid port %q", v)
		}
		cfg.Port = port
	}
	if v, ok := lookup("DB_PATH"); ok && v != "" {
		cfg.DBPath = v
	}
	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
		}
	}
	if v, ok := lookup("ACCRUAL_INTERVAL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return Config{}, fmt.Errorf("ACCRUAL_INTERVAL: invalid duration %q", v)
		}
		cfg.AccrualInterval = d
	}
	if v, ok := lookup("CATALOG_FILE"); ok {
		cfg.CatalogFile = v
	}
	if v, ok := lookup("CORS_ORIGINS"); ok && v != "" {
		cfg.CORSOrigins = splitList(v)
	}
	if v, ok := lookup("RATE_CACHE_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return Config{}, fmt.Errorf("RATE_CACHE_TTL: invalid duration %q", v)
		}
		cfg.RateCacheTTL = d
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
