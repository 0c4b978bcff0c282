package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog-watcher.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const validConfigJSON = `{
  "store": { "path": "./data/catalog.db" },
  "markdown_extractor": {
    "service_url": "https://markdown.example.com/convert",
    "cache_ttl": "72h",
    "max_catalog_tokens": 8000,
    "max_product_tokens": 2000,
    "providers": [
      {"name": "primary", "endpoint": "https://llm-a.example.com", "api_key_env": "LLM_A_KEY", "model": "gpt", "temperature": 0.1},
      {"name": "secondary", "endpoint": "https://llm-b.example.com", "api_key_env": "LLM_B_KEY", "model": "claude", "temperature": 0.1}
    ]
  },
  "browser_extractor": {
    "profiles_dir": "./browser_profiles",
    "vision_api_key_env": "VISION_KEY",
    "vision_endpoint": "https://vision.example.com",
    "navigation_timeout": "60s",
    "max_attempts": 3,
    "max_image_dimension": 16383
  },
  "crawler": {
    "default_requests_per_second": 0.5,
    "default_burst": 1,
    "max_pages_per_category": 40,
    "early_stop_threshold": 3,
    "early_stop_threshold_no_sort": 8,
    "page_pacing": "2s"
  },
  "change_detector": { "new_product_threshold": 0.85, "manual_review_threshold": 0.70 },
  "notifier": {
    "default_notifier_id": "ops",
    "telegrams": [ {"id": "ops", "bot_token": "123456789:ABC-DEF1234ghIkl-zyx57W2v1u123ew11", "chat_id": 42} ]
  },
  "http_api": {
    "ws": { "listen_port": 8080 },
    "cors": { "allow_origins": ["https://dashboard.example.com"] }
  }
}`

func TestInitAppConfigWithFile_Valid(t *testing.T) {
	path := writeConfigFile(t, validConfigJSON)

	cfg, err := InitAppConfigWithFile(path)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "./data/catalog.db", cfg.Store.Path)
	assert.Equal(t, DefaultMaxRetries, cfg.HTTPRetry.MaxRetries)
	assert.Len(t, cfg.MarkdownExtractor.Providers, 2)
	assert.Equal(t, 0.85, cfg.ChangeDetector.NewProductThreshold)
}

func TestInitAppConfigWithFile_MissingFile(t *testing.T) {
	_, err := InitAppConfigWithFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestAppConfig_Validate_RejectsBadThresholdOrder(t *testing.T) {
	path := writeConfigFile(t, validConfigJSON)
	cfg, err := InitAppConfigWithFile(path)
	require.NoError(t, err)

	cfg.ChangeDetector.ManualReviewThreshold = 0.95
	err = cfg.validate(newValidator())
	assert.Error(t, err)
}

func TestAppConfig_Validate_RejectsUnknownDefaultNotifier(t *testing.T) {
	path := writeConfigFile(t, validConfigJSON)
	cfg, err := InitAppConfigWithFile(path)
	require.NoError(t, err)

	cfg.Notifier.DefaultNotifierID = "does-not-exist"
	err = cfg.validate(newValidator())
	assert.Error(t, err)
}

func TestAppConfig_Validate_RejectsDuplicateRetailerOverrideID(t *testing.T) {
	path := writeConfigFile(t, validConfigJSON)
	cfg, err := InitAppConfigWithFile(path)
	require.NoError(t, err)

	cfg.Retailers = []RetailerOverride{{ID: "dup"}, {ID: "dup"}}
	err = cfg.validate(newValidator())
	assert.Error(t, err)
}

func TestEnvTransform(t *testing.T) {
	key, value := envTransform("CATALOGWATCHER_STORE__PATH", "/tmp/x.db")
	assert.Equal(t, "store.path", key)
	assert.Equal(t, "/tmp/x.db", value)

	key, _ = envTransform("CATALOGWATCHER_NOTIFIER__DEFAULT_NOTIFIER_ID", "ops")
	assert.Equal(t, "notifier.default_notifier_id", key)
}
