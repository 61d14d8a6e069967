package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Load reads and parses the configuration file. A missing file is not an
// error: the archiver is meant to run in CI with nothing but environment
// variables, so defaults cover the whole config surface.
func Load(configPath string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// Fall through to defaults.
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	applyDefaults(&cfg)

	// The endpoint can be swapped between leetcode.cn and leetcode.com
	// without touching the config file.
	if base := strings.TrimSpace(os.Getenv("LEETCODE_BASE_URL")); base != "" {
		cfg.API.BaseURL = strings.TrimRight(base, "/")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for optional configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Archive.Root == "" {
		cfg.Archive.Root = "solutions"
	}
	if cfg.Archive.StatePath == "" {
		cfg.Archive.StatePath = ".leetsync/state.json"
	}
	if cfg.Archive.FallbackCategory == "" {
		cfg.Archive.FallbackCategory = "Uncategorized"
	}

	if cfg.Sync.PageSize == 0 {
		cfg.Sync.PageSize = 20
	}
	if cfg.Sync.MaxPages == 0 {
		cfg.Sync.MaxPages = 50
	}
	if cfg.Sync.MaxDetailFetches == 0 {
		cfg.Sync.MaxDetailFetches = 8
	}
	if cfg.Sync.CheckpointInterval == 0 {
		cfg.Sync.CheckpointInterval = 10
	}
	if cfg.Sync.SeenIDWindow == 0 {
		cfg.Sync.SeenIDWindow = 200
	}

	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = "https://leetcode.cn"
	}
	if cfg.API.TimeoutSeconds == 0 {
		cfg.API.TimeoutSeconds = 30
	}
	if cfg.API.MaxRetries == 0 {
		cfg.API.MaxRetries = 3
	}
	if cfg.API.RateLimitRetries == 0 {
		cfg.API.RateLimitRetries = 5
	}
	if cfg.API.BaseRetryDelayMS == 0 {
		cfg.API.BaseRetryDelayMS = 2000
	}
	if cfg.API.ListPerMinute == 0 {
		cfg.API.ListPerMinute = 60
	}
	if cfg.API.DetailPerMinute == 0 {
		// ~1.2s between detail fetches
		cfg.API.DetailPerMinute = 50
	}
}
