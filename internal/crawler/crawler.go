// Package crawler is the Catalog Crawler (spec §4.6): the per-retailer
// pagination/scroll walker that drives the Extraction Dispatcher's
// catalog mode page by page, stopping early once it re-enters baseline
// territory.
package crawler

import (
	"context"
	"fmt"
	"time"

	"github.com/catalogwatcher/catalog-watcher/internal/extract/result"
	apperrors "github.com/catalogwatcher/catalog-watcher/internal/pkg/errors"
	"github.com/catalogwatcher/catalog-watcher/internal/retailer"
	"github.com/catalogwatcher/catalog-watcher/internal/store"
	applog "github.com/catalogwatcher/catalog-watcher/pkg/log"
)

const crawlerComponent = "crawler"

// defaultMaxPages bounds a walk when the caller doesn't override it.
const defaultMaxPages = 50

// CatalogTower is the shape the Crawler needs from the Extraction
// Dispatcher — just the catalog-mode call.
type CatalogTower interface {
	ExtractCatalogPage(ctx context.Context, cfg *retailer.Config, pageURL string) (*result.Catalog, error)
}

// WalkResult is everything one category walk produced.
type WalkResult struct {
	Retailer     string
	Category     string
	PagesWalked  int
	TotalScanned int
	NewProducts  []result.CatalogProduct
	EarlyStopped bool
	Partial      bool
	Delisted     bool
}

// Crawler drives one (retailer, category) walk at a time; it is safe for
// concurrent use across different walks since it holds no per-walk state.
type Crawler struct {
	tower    CatalogTower
	store    *store.Store
	maxPages int
}

// New builds a Crawler. maxPages <= 0 uses defaultMaxPages.
func New(tower CatalogTower, s *store.Store, maxPages int) *Crawler {
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}
	return &Crawler{tower: tower, store: s, maxPages: maxPages}
}

// Walk implements spec §4.6's base algorithm for one (retailer, category,
// run type).
func (c *Crawler) Walk(ctx context.Context, cfg *retailer.Config, category string, runType store.RunType) (*WalkResult, error) {
	isMonitoringRun := runType == store.RunMonitoring
	threshold := earlyStopThresholdFor(cfg, category, isMonitoringRun)

	base, err := startingURL(cfg, category, isMonitoringRun)
	if err != nil {
		return nil, err
	}

	baselineKeys, err := c.loadBaselineKeys(ctx, cfg.ID, category)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.StoreUnavailable, "loading baseline membership failed")
	}

	walkResult := &WalkResult{Retailer: cfg.ID, Category: category}
	overlapStreak := 0

	for page := 1; page <= c.maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return walkResult, err
		}

		url, err := pageURL(base, cfg.Pagination, page, cfg.ItemsPerPage)
		if err != nil {
			return walkResult, err
		}

		catalog, err := c.tower.ExtractCatalogPage(ctx, cfg, url)
		if err != nil {
			if page == 1 {
				return walkResult, apperrors.Wrap(err, apperrors.ExecutionFailed, fmt.Sprintf("catalog extraction failed on first page of %s/%s", cfg.ID, category))
			}
			applog.WithComponent(crawlerComponent).WithError(err).
				WithField("retailer", cfg.ID).WithField("category", category).WithField("page", page).
				Warn("catalog extraction failed mid-walk, ending walk with partial results")
			walkResult.Partial = true
			break
		}

		if catalog.Delisted {
			walkResult.Delisted = true
			break
		}

		if len(catalog.Products) == 0 {
			break
		}

		walkResult.TotalScanned += len(catalog.Products)
		for _, p := range catalog.Products {
			if baselineKeys[membershipKey(p)] {
				overlapStreak++
				continue
			}
			overlapStreak = 0
			walkResult.NewProducts = append(walkResult.NewProducts, p)
		}
		walkResult.PagesWalked = page

		if overlapStreak >= threshold {
			walkResult.EarlyStopped = true
			break
		}

		if page < c.maxPages {
			select {
			case <-time.After(jitteredPacingDelay(cfg.AntiBot)):
			case <-ctx.Done():
				return walkResult, ctx.Err()
			}
		}
	}

	return walkResult, nil
}

func (c *Crawler) loadBaselineKeys(ctx context.Context, retailerID, category string) (map[string]bool, error) {
	observations, err := c.store.ListBaselineObservations(ctx, retailerID, category)
	if err != nil {
		return nil, err
	}
	keys := make(map[string]bool, len(observations))
	for _, o := range observations {
		if o.ProductCode != "" {
			keys["code:"+o.ProductCode] = true
		} else {
			keys["url:"+o.URL] = true
		}
	}
	return keys, nil
}

func membershipKey(p result.CatalogProduct) string {
	if p.ProductCode != "" {
		return "code:" + p.ProductCode
	}
	return "url:" + p.URL
}
