// Package browser is the Browser Extractor (spec §4.4): drive a
// stealth-hardened headless browser session, combine a vision-model
// primary read of the rendered page with a guided-DOM secondary/tertiary
// pass, validate the two against each other, and retry with backoff on
// transient failure.
package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/catalogwatcher/catalog-watcher/internal/extract/domquery"
	"github.com/catalogwatcher/catalog-watcher/internal/extract/result"
	apperrors "github.com/catalogwatcher/catalog-watcher/internal/pkg/errors"
	"github.com/catalogwatcher/catalog-watcher/internal/patternlearner"
	"github.com/catalogwatcher/catalog-watcher/internal/retailer"
	"github.com/catalogwatcher/catalog-watcher/internal/store"
	"github.com/catalogwatcher/catalog-watcher/pkg/concurrency"
	applog "github.com/catalogwatcher/catalog-watcher/pkg/log"
)

const extractComponent = "extract.browser"

// Config configures an Extractor. At startup only MaxRetries is set, from
// config.BrowserExtractorConfig.MaxAttempts; the other fields are left at
// their zero values, which select the built-in defaults.
type Config struct {
	MaxRetries      int
	MaxImageHeight  int
	OverlaySelectors []string

	// CategoryLandingTitlePatterns feeds domquery.LooksLikeHomepageRedirect
	// across every retailer this Extractor serves; a retailer needing its
	// own set can still supply more specific ones via retailer.Config in
	// a future revision (spec §4.4's heuristic is process-wide today).
	CategoryLandingTitlePatterns []string
}

func (c Config) maxRetries() int {
	if c.MaxRetries > 0 {
		return c.MaxRetries
	}
	return 3
}

// Extractor implements the dual-tower's browser path. The Driver is a
// single browser session shared by every retailer this Extractor serves,
// so profileLocks serializes access per retailer ID (spec §5: each
// retailer has at most one persistent profile directory, and only one
// browser context may be open against it at a time). Different retailers
// still run concurrently against each other.
type Extractor struct {
	cfg          Config
	driver       Driver
	vision       VisionClient
	learner      *patternlearner.Learner
	profileLocks *concurrency.KeyedMutex[string]
}

// New builds an Extractor over an already-constructed Driver session and
// vision-model client.
func New(cfg Config, driver Driver, vision VisionClient, learner *patternlearner.Learner) *Extractor {
	return &Extractor{cfg: cfg, driver: driver, vision: vision, learner: learner, profileLocks: concurrency.NewKeyedMutex[string]()}
}

// ExtractSingleProduct runs the single-product path: navigate, dismiss
// overlays, resolve any challenge, screenshot, vision-primary read,
// DOM-hint secondary pass, guided-DOM tertiary fill, cross-validate, and
// retry on transient failure (spec §4.4).
func (e *Extractor) ExtractSingleProduct(ctx context.Context, cfg *retailer.Config, url string) (*result.Product, error) {
	e.profileLocks.Lock(cfg.ID)
	defer e.profileLocks.Unlock(cfg.ID)

	started := time.Now()

	var lastErr error
	for attempt := 0; attempt < e.cfg.maxRetries(); attempt++ {
		if attempt > 0 {
			if err := e.driver.Reset(ctx); err != nil {
				applog.WithComponent(extractComponent).WithError(err).Warn("driver reset before retry failed")
			}
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		product, delisted, err := e.attemptSingleProduct(ctx, cfg, url, started)
		if delisted {
			return product, nil
		}
		if err == nil {
			return product, nil
		}
		lastErr = err
		applog.WithComponent(extractComponent).WithError(err).
			WithField("url", url).WithField("attempt", attempt+1).Warn("browser extraction attempt failed")
	}

	return nil, apperrors.Wrap(lastErr, apperrors.ExecutionFailed, fmt.Sprintf("browser extraction exhausted %d attempts", e.cfg.maxRetries()))
}

func (e *Extractor) attemptSingleProduct(ctx context.Context, cfg *retailer.Config, url string, started time.Time) (*result.Product, bool, error) {
	if err := e.navigateAndSettle(ctx, url); err != nil {
		return nil, false, err
	}

	html, err := e.driver.HTML(ctx)
	if err != nil {
		return nil, false, apperrors.Wrap(err, apperrors.TransientNetwork, "reading rendered HTML failed")
	}
	currentURL, err := e.driver.CurrentURL(ctx)
	if err != nil {
		currentURL = url
	}

	doc, err := domquery.ParseHTML(strings.NewReader(html), currentURL)
	if err != nil {
		return nil, false, apperrors.Wrap(err, apperrors.ParseFailed, "parsing rendered HTML failed")
	}

	if domquery.LooksLikeHomepageRedirect(doc, url, e.cfg.CategoryLandingTitlePatterns) {
		return &result.Product{URL: url, Delisted: true, Method: result.MethodBrowser, Elapsed: time.Since(started)}, true, nil
	}

	shots, err := e.driver.Screenshot(ctx, ModeSingleProduct)
	if err != nil {
		return nil, false, apperrors.Wrap(err, apperrors.TransientNetwork, "screenshot capture failed")
	}
	shots, err = e.resizeAll(shots)
	if err != nil {
		return nil, false, err
	}

	visionReply, err := callVision(ctx, e.vision, singleProductVisionPrompt(), shots, visionSingleProductCeiling)
	if err != nil {
		return nil, false, err
	}
	parsedVision, err := parseVisionSingleProduct(visionReply)
	if err != nil {
		return nil, false, apperrors.Wrap(err, apperrors.ParseFailed, "vision single-product reply parse failed")
	}

	hintReply, err := callVision(ctx, e.vision, domHintPrompt(), shots, visionHintCeiling)
	var hints *visionHintReply
	if err == nil {
		hints, _ = parseVisionHints(hintReply)
	}
	if hints == nil {
		hints = &visionHintReply{}
	}

	domTitle, titleSel, titleFound := extractField(doc, store.ElementTitle, rankedSelectors(ctx, e.learner, cfg.ID, store.ElementTitle, hints.Title), "")
	domPriceText, priceSel, priceFound := extractField(doc, store.ElementPrice, rankedSelectors(ctx, e.learner, cfg.ID, store.ElementPrice, hints.Price), "")
	domPriceCents, _ := parsePriceFromText(domPriceText)

	e.recordFieldOutcome(ctx, cfg.ID, store.ElementTitle, titleSel, titleFound)
	e.recordFieldOutcome(ctx, cfg.ID, store.ElementPrice, priceSel, priceFound)

	product := visionSingleProductToResult(parsedVision, url, currentURL, time.Since(started))

	titleOutcome, title, titleWarn := validateTitle(product.Title, domTitle)
	product.Title = title
	if titleWarn != "" {
		product.Warnings = append(product.Warnings, titleWarn)
	}

	priceOutcome, priceCents, priceWarn := validatePrice(product.PriceCents, domPriceCents)
	product.PriceCents = priceCents
	if priceWarn != "" {
		product.Warnings = append(product.Warnings, priceWarn)
	}

	if titleOutcome == validationMismatchOverridden || priceOutcome == validationMismatchOverridden {
		product.NeedsFallback = true
	}

	if product.Title == "" || len(product.ImageURLs) == 0 {
		return nil, false, apperrors.New(apperrors.ValidationFailed, "browser extraction produced no usable title or image")
	}

	return product, false, nil
}

// ExtractCatalogPage runs the catalog-mode path: a single full-page
// screenshot, a vision catalog read, a guided-DOM product-link sweep, and
// spec §4.4's merge strategy between the two.
func (e *Extractor) ExtractCatalogPage(ctx context.Context, cfg *retailer.Config, pageURL string) (*result.Catalog, error) {
	e.profileLocks.Lock(cfg.ID)
	defer e.profileLocks.Unlock(cfg.ID)

	started := time.Now()

	var lastErr error
	for attempt := 0; attempt < e.cfg.maxRetries(); attempt++ {
		if attempt > 0 {
			if err := e.driver.Reset(ctx); err != nil {
				applog.WithComponent(extractComponent).WithError(err).Warn("driver reset before retry failed")
			}
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		catalog, delisted, err := e.attemptCatalogPage(ctx, cfg, pageURL, started)
		if delisted {
			return catalog, nil
		}
		if err == nil {
			return catalog, nil
		}
		lastErr = err
		applog.WithComponent(extractComponent).WithError(err).
			WithField("url", pageURL).WithField("attempt", attempt+1).Warn("browser catalog attempt failed")
	}

	return nil, apperrors.Wrap(lastErr, apperrors.ExecutionFailed, fmt.Sprintf("browser catalog extraction exhausted %d attempts", e.cfg.maxRetries()))
}

func (e *Extractor) attemptCatalogPage(ctx context.Context, cfg *retailer.Config, pageURL string, started time.Time) (*result.Catalog, bool, error) {
	if err := e.navigateAndSettle(ctx, pageURL); err != nil {
		return nil, false, err
	}

	html, err := e.driver.HTML(ctx)
	if err != nil {
		return nil, false, apperrors.Wrap(err, apperrors.TransientNetwork, "reading rendered HTML failed")
	}
	currentURL, err := e.driver.CurrentURL(ctx)
	if err != nil {
		currentURL = pageURL
	}

	doc, err := domquery.ParseHTML(strings.NewReader(html), currentURL)
	if err != nil {
		return nil, false, apperrors.Wrap(err, apperrors.ParseFailed, "parsing rendered HTML failed")
	}

	if domquery.LooksLikeHomepageRedirect(doc, pageURL, e.cfg.CategoryLandingTitlePatterns) {
		return &result.Catalog{SourceURL: pageURL, Method: result.MethodBrowser, Delisted: true, Elapsed: time.Since(started)}, true, nil
	}

	shots, err := e.driver.Screenshot(ctx, ModeCatalog)
	if err != nil {
		return nil, false, apperrors.Wrap(err, apperrors.TransientNetwork, "screenshot capture failed")
	}
	shots, err = e.resizeAll(shots)
	if err != nil {
		return nil, false, err
	}

	visionReply, err := callVision(ctx, e.vision, catalogVisionPrompt(), shots, visionCatalogCeiling)
	if err != nil {
		return nil, false, err
	}
	parsedVision, err := parseVisionCatalog(visionReply)
	if err != nil {
		return nil, false, apperrors.Wrap(err, apperrors.ParseFailed, "vision catalog reply parse failed")
	}

	hintReply, err := callVision(ctx, e.vision, domHintPrompt(), shots, visionHintCeiling)
	var hints *visionHintReply
	if err == nil {
		hints, _ = parseVisionHints(hintReply)
	}
	if hints == nil {
		hints = &visionHintReply{}
	}

	linkSelectors := rankedSelectors(ctx, e.learner, cfg.ID, store.ElementProductLink, hints.ProductLink)
	domLinks := extractCatalogLinks(doc, linkSelectors)
	e.recordFieldOutcome(ctx, cfg.ID, store.ElementProductLink, firstNonEmpty(linkSelectors), len(domLinks) > 0)

	products, stats := mergeCatalogResults(parsedVision.Products, domLinks)

	warnings := summarizeCatalogStats(stats)
	warnings = append(warnings, e.checkPageStructure(ctx, cfg.ID, linkSelectors, hints)...)

	return &result.Catalog{
		SourceURL:    pageURL,
		CanonicalURL: currentURL,
		Products:     products,
		Method:       result.MethodBrowser,
		Elapsed:      time.Since(started),
		Warnings:     warnings,
	}, false, nil
}

// navigateAndSettle implements spec §4.4 steps 1-3: load the page, close
// any overlay, and resolve a verification challenge if one appears.
func (e *Extractor) navigateAndSettle(ctx context.Context, url string) error {
	if err := e.driver.Navigate(ctx, url, NavigateOptions{Wait: WaitNetworkIdle, Timeout: 30 * time.Second}); err != nil {
		return apperrors.Wrap(err, apperrors.TransientNetwork, "navigation failed")
	}

	if _, err := e.driver.DismissOverlays(ctx, e.cfg.OverlaySelectors); err != nil {
		applog.WithComponent(extractComponent).WithError(err).Warn("overlay dismissal failed, continuing")
	}

	kind, present, err := e.driver.DetectChallenge(ctx)
	if err != nil {
		return apperrors.Wrap(err, apperrors.TransientNetwork, "challenge detection failed")
	}
	if present {
		applog.WithComponent(extractComponent).WithField("challenge", fmtChallenge(kind)).Warn("verification challenge detected")
		if err := e.driver.HandleChallenge(ctx, kind); err != nil {
			return apperrors.Wrap(err, apperrors.AntiBotChallenge, "challenge resolution failed")
		}
	}
	return nil
}

func (e *Extractor) resizeAll(shots []Screenshot) ([]Screenshot, error) {
	out := make([]Screenshot, 0, len(shots))
	for _, s := range shots {
		resized, err := resizeIfNeeded(s, e.cfg.MaxImageHeight)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.Internal, "screenshot resize failed")
		}
		out = append(out, resized)
	}
	return out, nil
}

func (e *Extractor) recordFieldOutcome(ctx context.Context, retailerID string, elementType store.PatternElementType, selector string, success bool) {
	if e.learner == nil || selector == "" {
		return
	}
	e.learner.RecordOutcome(ctx, retailerID, elementType, store.PatternKindSelector, selector, success, "")
}

// checkPageStructure compares this run's resolved selectors and the
// vision model's own layout hints against retailer's last snapshot,
// records the new one, and surfaces a warning when a redesign is
// suspected (spec §12: page-structure-change detection).
func (e *Extractor) checkPageStructure(ctx context.Context, retailerID string, linkSelectors []string, hints *visionHintReply) []string {
	if e.learner == nil {
		return nil
	}

	keySelectors := map[store.PatternElementType]string{
		store.ElementProductLink: firstNonEmpty(linkSelectors),
	}
	domHash := patternlearner.HashKeySelectors(keySelectors)
	visualHash := patternlearner.HashVisualLayout(map[string]string{
		string(store.ElementProductLink): firstNonEmpty(hints.ProductLink),
		string(store.ElementTitle):       firstNonEmpty(hints.Title),
		string(store.ElementPrice):       firstNonEmpty(hints.Price),
	})

	change, err := e.learner.DetectStructureChange(ctx, retailerID, domHash, visualHash)
	if err != nil {
		applog.WithComponent(extractComponent).WithError(err).Warn("page structure change check failed")
	} else if change.Severity != patternlearner.SeverityNone {
		applog.WithComponent(extractComponent).WithField("retailer", retailerID).
			WithField("severity", string(change.Severity)).Warn("page structure change detected")
	}

	e.learner.RecordStructureSnapshot(ctx, retailerID, domHash, visualHash, keySelectors)

	if change != nil && change.Severity == patternlearner.SeverityMajor {
		return []string{fmt.Sprintf("page structure change (%s) detected for %s: %s", change.Severity, retailerID, strings.Join(change.Recommendations, "; "))}
	}
	return nil
}

func firstNonEmpty(selectors []string) string {
	for _, s := range selectors {
		if s != "" {
			return s
		}
	}
	return ""
}

func summarizeCatalogStats(stats catalogValidationStats) []string {
	var warnings []string
	if stats.MismatchedTolerated > 0 {
		warnings = append(warnings, fmt.Sprintf("%d product(s) had tolerated vision/DOM mismatches", stats.MismatchedTolerated))
	}
	if stats.MismatchedOverridden > 0 {
		warnings = append(warnings, fmt.Sprintf("%d product(s) had vision values overridden by DOM values", stats.MismatchedOverridden))
	}
	if stats.LinkOnly > 0 {
		warnings = append(warnings, fmt.Sprintf("%d product(s) are link-only and need reprocessing", stats.LinkOnly))
	}
	return warnings
}

func visionSingleProductToResult(v *visionSingleProductReply, url, canonicalURL string, elapsed time.Duration) *result.Product {
	priceCents, _ := parsePriceFromText(v.Price)
	p := &result.Product{
		URL:          url,
		CanonicalURL: canonicalURL,
		Title:        v.Title,
		Brand:        v.Brand,
		PriceCents:   priceCents,
		Description:  v.Description,
		StockState:   v.StockState,
		OnSale:       v.OnSale,
		Category:     v.Category,
		ImageURLs:    v.ImageURLs,
		Colors:       v.Colors,
		Sizes:        v.Sizes,
		Material:     v.Material,
		CareNotes:    v.CareNotes,
		Neckline:     v.Neckline,
		SleeveLength: v.SleeveLength,
		Method:       result.MethodBrowser,
		Elapsed:      elapsed,
	}
	if v.OriginalPrice != "" {
		if cents, ok := parsePriceFromText(v.OriginalPrice); ok {
			p.OriginalPriceCents = &cents
		}
	}
	return p
}
