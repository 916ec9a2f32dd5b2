// Package config loads tillsync configuration from a YAML file with
// environment overrides. A .env file in the working directory is folded
// into the environment first, so deployments can keep secrets out of the
// config file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds everything the process needs to wire an engine.
type Config struct {
	// DBPath is the sqlite database file. Defaults to tillsync.db.
	DBPath string `yaml:"db_path"`

	// APIBaseURL is the POS backend root. Empty means permanently
	// offline: every mutation queues and replay is unavailable.
	APIBaseURL string `yaml:"api_base_url"`

	// RedisURL is the broadcast transport. Unreachable or empty degrades
	// the bus to a no-op.
	RedisURL string `yaml:"redis_url"`

	// BroadcastChannel names the pub/sub channel shared by contexts.
	BroadcastChannel string `yaml:"broadcast_channel"`

	// StabilizationDelay is the pause between replay and cache refresh in
	// a sync pass.
	StabilizationDelay time.Duration `yaml:"stabilization_delay"`
}

// Defaults returns the baseline configuration.
func Defaults() Config {
	return Config{
		DBPath:             "tillsync.db",
		RedisURL:           "redis://localhost:6379",
		BroadcastChannel:   "tillsync:changes",
		StabilizationDelay: 2 * time.Second,
	}
}

// Load reads configuration in ascending precedence: defaults, the YAML
// file at path (skipped when empty or absent), then environment variables.
func Load(path string) (Config, error) {
	// Missing .env is fine; a present-but-broken one is not silently ignored.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)

	if cfg.DBPath == "" {
		return Config{}, fmt.Errorf("config: db_path must not be empty")
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TILLSYNC_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("TILLSYNC_API_BASE_URL"); v != "" {
		cfg.APIBaseURL = v
	}
	if v := os.Getenv("TILLSYNC_REDIS_URL"); v != "" {
		cfg.RedisURL = v
	}
	if v := os.Getenv("TILLSYNC_BROADCAST_CHANNEL"); v != "" {
		cfg.BroadcastChannel = v
	}
	if v := os.Getenv("TILLSYNC_STABILIZATION_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.StabilizationDelay = d
		} else if secs, err := strconv.Atoi(v); err == nil {
			cfg.StabilizationDelay = time.Duration(secs) * time.Second
		}
	}
}
