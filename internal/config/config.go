package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Config represents the complete application configuration.
type Config struct {
	Archive   ArchiveConfig     `toml:"archive"`
	Sync      SyncConfig        `toml:"sync"`
	API       APIConfig         `toml:"api"`
	Languages map[string]string `toml:"languages"` // extension overrides, language tag -> ext
}

// ArchiveConfig holds filesystem layout settings.
type ArchiveConfig struct {
	Root             string `toml:"root"`              // archive root directory
	StatePath        string `toml:"state_path"`        // sync-state record, relative path
	LogPath          string `toml:"log_path"`          // optional JSON log file
	FallbackCategory string `toml:"fallback_category"` // used when a sanitized segment comes out empty
}

// SyncConfig holds per-run budgets and checkpointing settings.
type SyncConfig struct {
	PageSize           int  `toml:"page_size"`            // submissions per list page (canonical 20)
	MaxPages           int  `toml:"max_pages"`            // defensive cap on pages scanned per run
	MaxDetailFetches   int  `toml:"max_detail_fetches"`   // per-run budget for the expensive detail call
	CheckpointInterval int  `toml:"checkpoint_interval"`  // persist state every N handled items
	SeenIDWindow       int  `toml:"seen_id_window"`       // cap on the processed-ID set
	Progress           bool `toml:"progress"`             // show a progress spinner during sync
}

// APIConfig holds remote endpoint and retry settings.
type APIConfig struct {
	BaseURL           string `toml:"base_url"`
	TimeoutSeconds    int    `toml:"timeout_seconds"`
	MaxRetries        int    `toml:"max_retries"`          // transient errors
	RateLimitRetries  int    `toml:"rate_limit_retries"`   // rate-limited errors
	BaseRetryDelayMS  int    `toml:"base_retry_delay_ms"`
	ListPerMinute     int    `toml:"list_per_minute"`   // pacing between list pages
	DetailPerMinute   int    `toml:"detail_per_minute"` // pacing between detail fetches
}

// Secrets holds credentials loaded from environment variables.
type Secrets struct {
	Session   string
	CSRFToken string
}

// StatePath resolves the sync-state file location. The configured path is
// relative to the archive root so the archive stays self-contained.
func (c *Config) StatePath() string {
	return filepath.Join(c.Archive.Root, c.Archive.StatePath)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Archive.Root == "" {
		return fmt.Errorf("archive.root is required")
	}
	if c.Archive.StatePath == "" {
		return fmt.Errorf("archive.state_path is required")
	}
	if filepath.IsAbs(c.Archive.StatePath) {
		return fmt.Errorf("archive.state_path must be a relative path (got %s)", c.Archive.StatePath)
	}
	if strings.Contains(c.Archive.StatePath, "..") {
		return fmt.Errorf("archive.state_path must not contain '..' (got %s)", c.Archive.StatePath)
	}
	if c.Sync.PageSize < 1 || c.Sync.PageSize > 100 {
		return fmt.Errorf("sync.page_size must be between 1 and 100 (got %d)", c.Sync.PageSize)
	}
	if c.Sync.MaxPages < 1 {
		return fmt.Errorf("sync.max_pages must be at least 1 (got %d)", c.Sync.MaxPages)
	}
	if c.Sync.MaxDetailFetches < 1 {
		return fmt.Errorf("sync.max_detail_fetches must be at least 1 (got %d)", c.Sync.MaxDetailFetches)
	}
	if c.Sync.CheckpointInterval < 1 {
		return fmt.Errorf("sync.checkpoint_interval must be at least 1 (got %d)", c.Sync.CheckpointInterval)
	}
	if c.Sync.SeenIDWindow < c.Sync.PageSize {
		return fmt.Errorf("sync.seen_id_window (%d) must not be smaller than sync.page_size (%d)",
			c.Sync.SeenIDWindow, c.Sync.PageSize)
	}
	if err := validateBaseURL(c.API.BaseURL); err != nil {
		return err
	}
	if c.API.TimeoutSeconds < 1 {
		return fmt.Errorf("api.timeout_seconds must be at least 1 (got %d)", c.API.TimeoutSeconds)
	}
	if c.API.MaxRetries < 1 {
		return fmt.Errorf("api.max_retries must be at least 1 (got %d)", c.API.MaxRetries)
	}
	if c.API.RateLimitRetries < 1 {
		return fmt.Errorf("api.rate_limit_retries must be at least 1 (got %d)", c.API.RateLimitRetries)
	}
	for lang, ext := range c.Languages {
		if strings.TrimSpace(ext) == "" {
			return fmt.Errorf("languages.%s maps to an empty extension", lang)
		}
		if strings.ContainsAny(ext, `/\.`) {
			return fmt.Errorf("languages.%s maps to an invalid extension %q", lang, ext)
		}
	}
	return nil
}

// validateBaseURL rejects endpoints the client could not talk to safely.
func validateBaseURL(baseURL string) error {
	if baseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("api.base_url is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api.base_url must use http or https (got %q)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("api.base_url is missing a host")
	}
	return nil
}

// LoadSecrets loads credentials from environment variables. A missing
// session cookie is a fatal configuration error: nothing can be fetched
// without it.
func LoadSecrets() (*Secrets, error) {
	session := strings.TrimSpace(os.Getenv("LEETCODE_SESSION"))
	if session == "" {
		return nil, fmt.Errorf("LEETCODE_SESSION environment variable is required")
	}

	csrf := strings.TrimSpace(os.Getenv("LEETCODE_CSRF"))
	if csrf == "" {
		csrf = strings.TrimSpace(os.Getenv("CSRF_TOKEN"))
	}

	return &Secrets{
		Session:   session,
		CSRFToken: csrf,
	}, nil
}
