package config

import (
	"fmt"
	"slices"
	"time"

	apperrors "github.com/catalogwatcher/catalog-watcher/internal/pkg/errors"
	"github.com/catalogwatcher/catalog-watcher/pkg/cronx"
	"github.com/go-playground/validator/v10"
)

// AppConfig is the top-level configuration tree for the process.
type AppConfig struct {
	Debug             bool                    `json:"debug" koanf:"debug"`
	HTTPRetry         HTTPRetryConfig         `json:"http_retry" koanf:"http_retry"`
	Store             StoreConfig             `json:"store" koanf:"store"`
	Retailers         []RetailerOverride      `json:"retailers" koanf:"retailers" validate:"unique=ID"`
	MarkdownExtractor MarkdownExtractorConfig `json:"markdown_extractor" koanf:"markdown_extractor"`
	BrowserExtractor  BrowserExtractorConfig  `json:"browser_extractor" koanf:"browser_extractor"`
	Crawler           CrawlerConfig           `json:"crawler" koanf:"crawler"`
	ChangeDetector    ChangeDetectorConfig    `json:"change_detector" koanf:"change_detector"`
	Scheduler         SchedulerConfig         `json:"scheduler" koanf:"scheduler"`
	Notifier          NotifierConfig          `json:"notifier" koanf:"notifier"`
	HTTPAPI           HTTPAPIConfig           `json:"http_api" koanf:"http_api"`
}

// validate checks every sub-tree of AppConfig in dependency order, stopping
// at the first failure so the operator sees one actionable error at a time.
func (c *AppConfig) validate(v *validator.Validate) error {
	if err := c.HTTPRetry.validate(); err != nil {
		return err
	}

	if err := c.Store.validate(); err != nil {
		return err
	}

	if err := checkUniqueField(v, c.Retailers, "ID", "Retailer override"); err != nil {
		return err
	}
	for _, r := range c.Retailers {
		if err := checkStruct(v, r, fmt.Sprintf("Retailer['%s']", r.ID)); err != nil {
			return err
		}
	}

	if err := c.MarkdownExtractor.validate(v); err != nil {
		return err
	}

	if err := c.BrowserExtractor.validate(v); err != nil {
		return err
	}

	if err := c.Crawler.validate(v); err != nil {
		return err
	}

	if err := c.ChangeDetector.validate(); err != nil {
		return err
	}

	if err := c.Scheduler.validate(); err != nil {
		return err
	}

	notifierIDs, err := c.Notifier.validate(v)
	if err != nil {
		return err
	}

	if err := c.HTTPAPI.validate(v, notifierIDs); err != nil {
		return err
	}

	return nil
}

// VerifyRecommendations diagnoses non-fatal operational concerns (port
// choice, missing API keys that disable a tower) without failing startup.
func (c *AppConfig) VerifyRecommendations() []string {
	var warnings []string
	warnings = append(warnings, c.HTTPAPI.VerifyRecommendations()...)
	warnings = append(warnings, c.MarkdownExtractor.VerifyRecommendations()...)
	return warnings
}

// HTTPRetryConfig governs outbound HTTP retries shared by the Crawler,
// Markdown Extractor, and notifier clients.
type HTTPRetryConfig struct {
	MaxRetries int           `json:"max_retries" koanf:"max_retries"`
	RetryDelay time.Duration `json:"retry_delay" koanf:"retry_delay"`
}

func (c *HTTPRetryConfig) validate() error {
	if c.MaxRetries < 0 {
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("http_retry.max_retries must be >= 0: '%v'", c.MaxRetries))
	}
	if c.RetryDelay <= 0 {
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("http_retry.retry_delay must be > 0: '%v'", c.RetryDelay))
	}
	return nil
}

// StoreConfig points at the embedded persistence store file.
type StoreConfig struct {
	Path string `json:"path" koanf:"path"`
}

func (c *StoreConfig) validate() error {
	if c.Path == "" {
		return apperrors.New(apperrors.InvalidInput, "store.path must not be empty")
	}
	return nil
}

// RetailerOverride layers operator-tunable knobs on top of a statically
// registered RetailerConfig (see internal/retailer). Only ID and Enabled
// take effect; RequestsPerSecond, Burst and MaxPagesPerCategory are
// validated but not applied.
type RetailerOverride struct {
	ID                  string  `json:"id" koanf:"id" validate:"required"`
	Enabled             bool    `json:"enabled" koanf:"enabled"`
	RequestsPerSecond   float64 `json:"requests_per_second" koanf:"requests_per_second" validate:"omitempty,gt=0"`
	Burst               int     `json:"burst" koanf:"burst" validate:"omitempty,gt=0"`
	MaxPagesPerCategory int     `json:"max_pages_per_category" koanf:"max_pages_per_category" validate:"omitempty,gt=0"`
}

// MarkdownExtractorConfig configures the fetch → markdown → LLM-cascade
// path (spec §4.3).
type MarkdownExtractorConfig struct {
	ServiceURL       string         `json:"service_url" koanf:"service_url" validate:"required,url"`
	ServiceAuthToken string         `json:"service_auth_token" koanf:"service_auth_token"`
	Providers        []LLMProvider  `json:"providers" koanf:"providers" validate:"required,min=1,unique=Name,dive"`
	CacheTTL         time.Duration  `json:"cache_ttl" koanf:"cache_ttl" validate:"gt=0"`
	MaxCatalogTokens int            `json:"max_catalog_tokens" koanf:"max_catalog_tokens" validate:"gt=0"`
	MaxProductTokens int            `json:"max_product_tokens" koanf:"max_product_tokens" validate:"gt=0"`
	DelistingProbe   DelistingProbe `json:"delisting_probe" koanf:"delisting_probe"`
}

// DelistingProbe tunes the HEAD-request pre-check in spec §4.3.
type DelistingProbe struct {
	Enabled bool          `json:"enabled" koanf:"enabled"`
	Timeout time.Duration `json:"timeout" koanf:"timeout" validate:"omitempty,gt=0"`
}

// LLMProvider is one entry of the primary/secondary LLM cascade.
type LLMProvider struct {
	Name        string  `json:"name" koanf:"name" validate:"required"`
	Endpoint    string  `json:"endpoint" koanf:"endpoint" validate:"required,url"`
	APIKeyEnv   string  `json:"api_key_env" koanf:"api_key_env" validate:"required"`
	Model       string  `json:"model" koanf:"model" validate:"required"`
	Temperature float64 `json:"temperature" koanf:"temperature" validate:"gte=0,lte=2"`
}

func (c *MarkdownExtractorConfig) validate(v *validator.Validate) error {
	if err := checkStruct(v, c, "markdown_extractor"); err != nil {
		return err
	}
	for _, p := range c.Providers {
		if err := checkStruct(v, p, fmt.Sprintf("markdown_extractor.providers['%s']", p.Name)); err != nil {
			return err
		}
	}
	return nil
}

func (c *MarkdownExtractorConfig) VerifyRecommendations() []string {
	var warnings []string
	if len(c.Providers) < 2 {
		warnings = append(warnings, "markdown_extractor.providers has fewer than 2 entries: the LLM cascade's fallback provider will never fire")
	}
	return warnings
}

// BrowserExtractorConfig configures the stealth-browser tower (spec §4.4).
type BrowserExtractorConfig struct {
	ProfilesDir       string        `json:"profiles_dir" koanf:"profiles_dir" validate:"required"`
	VisionAPIKeyEnv   string        `json:"vision_api_key_env" koanf:"vision_api_key_env" validate:"required"`
	VisionEndpoint    string        `json:"vision_endpoint" koanf:"vision_endpoint" validate:"required,url"`
	NavigationTimeout time.Duration `json:"navigation_timeout" koanf:"navigation_timeout" validate:"gt=0"`
	MaxAttempts       int           `json:"max_attempts" koanf:"max_attempts" validate:"gte=1"`
	MaxImageDimension int           `json:"max_image_dimension" koanf:"max_image_dimension" validate:"gt=0"`
}

func (c *BrowserExtractorConfig) validate(v *validator.Validate) error {
	return checkStruct(v, c, "browser_extractor")
}

// CrawlerConfig configures the shared outbound rate limiter
// (DefaultRequestsPerSecond/DefaultBurst, applied per host) and the
// per-category page cap (spec §4.6). EarlyStopThreshold,
// EarlyStopThresholdNoSort and PagePacing are validated but not applied:
// the Crawler uses its own fixed thresholds and pacing windows.
type CrawlerConfig struct {
	DefaultRequestsPerSecond float64       `json:"default_requests_per_second" koanf:"default_requests_per_second" validate:"gt=0"`
	DefaultBurst             int           `json:"default_burst" koanf:"default_burst" validate:"gt=0"`
	MaxPagesPerCategory      int           `json:"max_pages_per_category" koanf:"max_pages_per_category" validate:"gt=0"`
	EarlyStopThreshold       int           `json:"early_stop_threshold" koanf:"early_stop_threshold" validate:"gt=0"`
	EarlyStopThresholdNoSort int           `json:"early_stop_threshold_no_sort" koanf:"early_stop_threshold_no_sort" validate:"gt=0"`
	PagePacing               time.Duration `json:"page_pacing" koanf:"page_pacing" validate:"gt=0"`
}

func (c *CrawlerConfig) validate(v *validator.Validate) error {
	return checkStruct(v, c, "crawler")
}

// ChangeDetectorConfig holds the matching cascade's two thresholds
// (spec §4.7). They are validated here but not passed to the Change
// Detector, which uses its own package constants.
type ChangeDetectorConfig struct {
	NewProductThreshold    float64 `json:"new_product_threshold" koanf:"new_product_threshold" validate:"gte=0,lte=1"`
	ManualReviewThreshold  float64 `json:"manual_review_threshold" koanf:"manual_review_threshold" validate:"gte=0,lte=1"`
}

func (c *ChangeDetectorConfig) validate() error {
	if c.ManualReviewThreshold > c.NewProductThreshold {
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf(
			"change_detector.manual_review_threshold (%v) must be <= new_product_threshold (%v)",
			c.ManualReviewThreshold, c.NewProductThreshold))
	}
	return nil
}

// SchedulerConfig configures the cron cadences that trigger unattended
// monitoring runs in addition to one-shot CLI invocations.
type SchedulerConfig struct {
	WeeklyMonitoringTimeSpec string `json:"weekly_monitoring_time_spec" koanf:"weekly_monitoring_time_spec"`
	BaselineRefreshTimeSpec  string `json:"baseline_refresh_time_spec" koanf:"baseline_refresh_time_spec"`
}

func (c *SchedulerConfig) validate() error {
	if c.WeeklyMonitoringTimeSpec != "" {
		if err := cronx.Validate(c.WeeklyMonitoringTimeSpec); err != nil {
			return apperrors.Wrap(err, apperrors.InvalidInput, "scheduler.weekly_monitoring_time_spec is invalid")
		}
	}
	if c.BaselineRefreshTimeSpec != "" {
		if err := cronx.Validate(c.BaselineRefreshTimeSpec); err != nil {
			return apperrors.Wrap(err, apperrors.InvalidInput, "scheduler.baseline_refresh_time_spec is invalid")
		}
	}
	return nil
}

// NotifierConfig configures the outbound completion/error notification
// channel (spec §7's "user-visible failure behavior").
type NotifierConfig struct {
	DefaultNotifierID string           `json:"default_notifier_id" koanf:"default_notifier_id"`
	Telegrams         []TelegramConfig `json:"telegrams" koanf:"telegrams" validate:"unique=ID"`
}

func (c *NotifierConfig) validate(v *validator.Validate) ([]string, error) {
	if err := checkUniqueField(v, c.Telegrams, "ID", "Notifier"); err != nil {
		return nil, err
	}

	for _, t := range c.Telegrams {
		if err := checkStruct(v, t, fmt.Sprintf("Notifier['%s']", t.ID)); err != nil {
			return nil, err
		}
	}

	var ids []string
	for _, t := range c.Telegrams {
		ids = append(ids, t.ID)
	}

	if len(ids) > 0 && !slices.Contains(ids, c.DefaultNotifierID) {
		return nil, apperrors.New(apperrors.NotFound, fmt.Sprintf("notifier.default_notifier_id ('%s') is not one of the configured notifiers", c.DefaultNotifierID))
	}

	return ids, nil
}

// TelegramConfig is one Telegram bot endpoint used for notifications.
type TelegramConfig struct {
	ID       string `json:"id" koanf:"id" validate:"required"`
	BotToken string `json:"bot_token" koanf:"bot_token" validate:"required,telegram_bot_token"`
	ChatID   int64  `json:"chat_id" koanf:"chat_id" validate:"required"`
}

// HTTPAPIConfig configures the introspection-only HTTP surface (§10.5):
// /healthz, /statusz, /runs/{id}.
type HTTPAPIConfig struct {
	WS   WSConfig   `json:"ws" koanf:"ws"`
	CORS CORSConfig `json:"cors" koanf:"cors"`
}

func (c *HTTPAPIConfig) validate(v *validator.Validate, _ []string) error {
	if err := c.WS.validate(v); err != nil {
		return err
	}
	return c.CORS.validate(v)
}

func (c *HTTPAPIConfig) VerifyRecommendations() []string {
	return c.WS.VerifyRecommendations()
}

// WSConfig is the introspection HTTP server's listen/TLS configuration.
type WSConfig struct {
	TLSServer   bool   `json:"tls_server" koanf:"tls_server"`
	TLSCertFile string `json:"tls_cert_file" koanf:"tls_cert_file" validate:"required_if=TLSServer true,omitempty,file"`
	TLSKeyFile  string `json:"tls_key_file" koanf:"tls_key_file" validate:"required_if=TLSServer true,omitempty,file"`
	ListenPort  int    `json:"listen_port" koanf:"listen_port" validate:"min=1,max=65535"`
}

func (c *WSConfig) validate(v *validator.Validate) error {
	return checkStruct(v, c, "http_api.ws")
}

func (c *WSConfig) VerifyRecommendations() []string {
	var warnings []string
	if c.ListenPort < 1024 {
		warnings = append(warnings, fmt.Sprintf("http_api.ws.listen_port (%d) is a reserved port; the process may need elevated privileges to bind it", c.ListenPort))
	}
	return warnings
}

// CORSConfig is the introspection HTTP server's CORS policy.
type CORSConfig struct {
	AllowOrigins []string `json:"allow_origins" koanf:"allow_origins" validate:"dive,cors_origin"`
}

func (c *CORSConfig) validate(v *validator.Validate) error {
	if len(c.AllowOrigins) == 0 {
		return apperrors.New(apperrors.InvalidInput, "http_api.cors.allow_origins must not be empty")
	}

	for _, origin := range c.AllowOrigins {
		if origin == "*" && len(c.AllowOrigins) > 1 {
			return apperrors.New(apperrors.InvalidInput, "http_api.cors.allow_origins: wildcard '*' cannot be combined with other origins")
		}
	}

	return checkStruct(v, c, "http_api.cors")
}
