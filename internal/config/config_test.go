package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)

	assert.Equal(t, "solutions", cfg.Archive.Root)
	assert.Equal(t, ".leetsync/state.json", cfg.Archive.StatePath)
	assert.Equal(t, 20, cfg.Sync.PageSize)
	assert.Equal(t, 50, cfg.Sync.MaxPages)
	assert.Equal(t, 8, cfg.Sync.MaxDetailFetches)
	assert.Equal(t, "https://leetcode.cn", cfg.API.BaseURL)
	assert.Equal(t, 30, cfg.API.TimeoutSeconds)
	assert.Equal(t, 3, cfg.API.MaxRetries)
	assert.Equal(t, 5, cfg.API.RateLimitRetries)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leetsync.toml")
	content := `
[archive]
root = "archive"
fallback_category = "Misc"

[sync]
page_size = 10
max_detail_fetches = 3

[api]
base_url = "https://leetcode.com"

[languages]
python3 = "py3"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "archive", cfg.Archive.Root)
	assert.Equal(t, "Misc", cfg.Archive.FallbackCategory)
	assert.Equal(t, 10, cfg.Sync.PageSize)
	assert.Equal(t, 3, cfg.Sync.MaxDetailFetches)
	assert.Equal(t, "https://leetcode.com", cfg.API.BaseURL)
	assert.Equal(t, "py3", cfg.Languages["python3"])
	// Untouched fields still get defaults.
	assert.Equal(t, 50, cfg.Sync.MaxPages)
}

func TestLoad_BaseURLFromEnvironment(t *testing.T) {
	t.Setenv("LEETCODE_BASE_URL", "https://leetcode.com/")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, "https://leetcode.com", cfg.API.BaseURL)
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"absolute state path", func(c *Config) { c.Archive.StatePath = "/etc/state.json" }},
		{"state path traversal", func(c *Config) { c.Archive.StatePath = "../state.json" }},
		{"page size too large", func(c *Config) { c.Sync.PageSize = 500 }},
		{"bad base url scheme", func(c *Config) { c.API.BaseURL = "ftp://leetcode.cn" }},
		{"base url without host", func(c *Config) { c.API.BaseURL = "https://" }},
		{"empty extension override", func(c *Config) { c.Languages = map[string]string{"python": " "} }},
		{"extension with separator", func(c *Config) { c.Languages = map[string]string{"python": "p/y"} }},
		{"seen window below page size", func(c *Config) { c.Sync.SeenIDWindow = 5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg Config
			applyDefaults(&cfg)
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadSecrets(t *testing.T) {
	t.Setenv("LEETCODE_SESSION", "")
	t.Setenv("LEETCODE_CSRF", "")
	t.Setenv("CSRF_TOKEN", "")

	_, err := LoadSecrets()
	require.Error(t, err, "missing session cookie must be fatal")

	t.Setenv("LEETCODE_SESSION", "cookie-value")
	t.Setenv("CSRF_TOKEN", "fallback-token")

	secrets, err := LoadSecrets()
	require.NoError(t, err)
	assert.Equal(t, "cookie-value", secrets.Session)
	assert.Equal(t, "fallback-token", secrets.CSRFToken)

	t.Setenv("LEETCODE_CSRF", "primary-token")
	secrets, err = LoadSecrets()
	require.NoError(t, err)
	assert.Equal(t, "primary-token", secrets.CSRFToken)
}
