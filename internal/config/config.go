// Package config loads and validates the process configuration tree.
//
// The base document is a JSON file; any key can be overridden by a
// CATALOGWATCHER_-prefixed environment variable. Nesting is
// double-underscore-separated and field names keep their single
// underscores, e.g. CATALOGWATCHER_STORE__PATH overrides store.path,
// CATALOGWATCHER_NOTIFIER__DEFAULT_NOTIFIER_ID overrides
// notifier.default_notifier_id. This gives operator-tunable values — LLM
// endpoints, markdown-service URL,
// retry counts, concurrency caps — a file-or-env source without hand-rolled
// flag parsing.
package config

import (
	"strings"
	"time"

	apperrors "github.com/catalogwatcher/catalog-watcher/internal/pkg/errors"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// AppName identifies the process for logging and the default config
	// file name.
	AppName = "catalog-watcher"

	// AppConfigFileName is the default base config document name.
	AppConfigFileName = AppName + ".json"

	// envPrefix is stripped from environment variables before they are
	// folded into the config tree.
	envPrefix = "CATALOGWATCHER_"
)

// HTTP retry defaults, applied by SetDefaults when the config file omits
// them.
const (
	DefaultMaxRetries = 3
	DefaultRetryDelay = 2 * time.Second
)

// InitAppConfig loads the default config file name from the current
// directory.
func InitAppConfig() (*AppConfig, error) {
	return InitAppConfigWithFile(AppConfigFileName)
}

// InitAppConfigWithFile loads, defaults, and validates the config tree from
// filename, layering CATALOGWATCHER_-prefixed environment overrides on top.
// filename is exposed as a parameter so tests can point at a fixture.
func InitAppConfigWithFile(filename string) (*AppConfig, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(filename), json.Parser()); err != nil {
		return nil, apperrors.Wrap(err, apperrors.System, "failed to load config file '"+filename+"'")
	}

	if err := k.Load(env.ProviderWithValue(envPrefix, ".", envTransform), nil); err != nil {
		return nil, apperrors.Wrap(err, apperrors.System, "failed to load environment overrides")
	}

	var appConfig AppConfig
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &appConfig,
			WeaklyTypedInput: true,
			TagName:          "koanf",
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &appConfig, unmarshalConf); err != nil {
		return nil, apperrors.Wrap(err, apperrors.InvalidInput, "failed to decode config tree")
	}

	appConfig.SetDefaults()

	if err := appConfig.validate(newValidator()); err != nil {
		return nil, apperrors.Wrap(err, apperrors.InvalidInput, "config file '"+filename+"' failed validation")
	}

	return &appConfig, nil
}

// envTransform converts CATALOGWATCHER_STORE__PATH -> store.path and
// CATALOGWATCHER_NOTIFIER__DEFAULT_NOTIFIER_ID -> notifier.default_notifier_id,
// leaving the value untouched.
func envTransform(rawKey, value string) (string, interface{}) {
	key := strings.TrimPrefix(rawKey, envPrefix)
	key = strings.ToLower(key)
	key = strings.ReplaceAll(key, "__", ".")
	return key, value
}

// SetDefaults fills in zero-valued fields that have a sensible process-wide
// default, so a minimal config file stays valid.
func (c *AppConfig) SetDefaults() {
	if c.HTTPRetry.MaxRetries == 0 {
		c.HTTPRetry.MaxRetries = DefaultMaxRetries
	}
	if c.HTTPRetry.RetryDelay == 0 {
		c.HTTPRetry.RetryDelay = DefaultRetryDelay
	}
	if c.ChangeDetector.NewProductThreshold == 0 {
		c.ChangeDetector.NewProductThreshold = 0.85
	}
	if c.ChangeDetector.ManualReviewThreshold == 0 {
		c.ChangeDetector.ManualReviewThreshold = 0.70
	}
	if c.Crawler.EarlyStopThreshold == 0 {
		c.Crawler.EarlyStopThreshold = 3
	}
	if c.Crawler.EarlyStopThresholdNoSort == 0 {
		c.Crawler.EarlyStopThresholdNoSort = 8
	}
	if c.MarkdownExtractor.CacheTTL == 0 {
		c.MarkdownExtractor.CacheTTL = 3 * 24 * time.Hour
	}
	if c.BrowserExtractor.MaxAttempts == 0 {
		c.BrowserExtractor.MaxAttempts = 3
	}
}
