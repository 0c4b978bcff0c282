// Package dispatcher is the Extraction Dispatcher (spec §4.5): it holds
// the static retailer-to-tower map and decides, per call, whether a
// failure or a fallback-flagged result warrants retrying the other
// extraction tower.
package dispatcher

import (
	"context"

	"github.com/catalogwatcher/catalog-watcher/internal/extract/result"
	"github.com/catalogwatcher/catalog-watcher/internal/retailer"
)

// Tower is the shape both the Markdown Extractor and the Browser
// Extractor satisfy; the Dispatcher only ever talks to this interface so
// it never imports either concrete package.
type Tower interface {
	ExtractSingleProduct(ctx context.Context, cfg *retailer.Config, url string) (*result.Product, error)
	ExtractCatalogPage(ctx context.Context, cfg *retailer.Config, pageURL string) (*result.Catalog, error)
}

// Dispatcher routes between the two towers per spec §4.5.
type Dispatcher struct {
	markdown Tower
	browser  Tower
}

// New builds a Dispatcher over the two concrete towers.
func New(markdown, browser Tower) *Dispatcher {
	return &Dispatcher{markdown: markdown, browser: browser}
}

func (d *Dispatcher) towerFor(t retailer.Tower) Tower {
	if t == retailer.TowerBrowser {
		return d.browser
	}
	return d.markdown
}

// ExtractSingleProduct calls cfg's preferred tower; on failure (an error,
// or a result flagged NeedsFallback) when the preferred tower was
// markdown, it retries once on the browser tower. A delisted result is
// never retried — it's a terminal outcome, not a failure.
func (d *Dispatcher) ExtractSingleProduct(ctx context.Context, cfg *retailer.Config, url string) (*result.Product, error) {
	preferred := d.towerFor(cfg.PreferredTower)

	product, err := preferred.ExtractSingleProduct(ctx, cfg, url)
	if err == nil && (product.Delisted || !product.NeedsFallback) {
		return product, nil
	}

	if cfg.PreferredTower != retailer.TowerMarkdown || d.browser == nil {
		if err != nil {
			return nil, err
		}
		return product, nil
	}

	fallback, fallbackErr := d.browser.ExtractSingleProduct(ctx, cfg, url)
	if fallbackErr == nil {
		return fallback, nil
	}

	// The browser tower failed too: surface the markdown-path result if
	// it has one, since partial data beats none.
	if err != nil {
		return nil, err
	}
	return product, nil
}

// ExtractCatalogPage calls cfg's preferred tower exactly once; catalog
// mode never falls back to the other tower (spec §4.5).
func (d *Dispatcher) ExtractCatalogPage(ctx context.Context, cfg *retailer.Config, pageURL string) (*result.Catalog, error) {
	return d.towerFor(cfg.PreferredTower).ExtractCatalogPage(ctx, cfg, pageURL)
}
