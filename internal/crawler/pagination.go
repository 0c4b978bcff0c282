package crawler

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/catalogwatcher/catalog-watcher/internal/retailer"
)

// defaultEarlyStopThreshold is the number of consecutive baseline-overlapping
// products that ends a walk under ordinary circumstances (spec §4.6 step 1).
const defaultEarlyStopThreshold = 3

// raisedEarlyStopThreshold applies when the retailer has no newest-first
// sort and the run is a monitoring run: a shallow overlap with the
// baseline is less likely to mean "we've caught up" when pages aren't
// sorted newest-first, so the walk is given more rope before stopping.
const raisedEarlyStopThreshold = 8

// earlyStopThresholdFor implements spec §4.6 step 1's threshold rule.
func earlyStopThresholdFor(cfg *retailer.Config, category string, isMonitoringRun bool) int {
	if isMonitoringRun && !cfg.SupportsNewestSort(category) {
		return raisedEarlyStopThreshold
	}
	return defaultEarlyStopThreshold
}

// startingURL implements spec §4.6 step 1's starting-URL rule.
func startingURL(cfg *retailer.Config, category string, isMonitoringRun bool) (string, error) {
	return cfg.ListingURL(category, isMonitoringRun && cfg.SupportsNewestSort(category))
}

// pageURL computes the URL for pageIndex (1-based) given base, the
// retailer's pagination mode, and its items-per-page size (spec §4.6
// step 2). Infinite-scroll and hybrid-load-more retailers reuse the same
// base URL across page indices: their "next page" is a scroll/click
// action the Browser Extractor's Driver performs internally, not a new
// URL, so the Crawler's job for those modes is only to keep asking for
// another extraction pass against the same address.
func pageURL(base string, mode retailer.PaginationMode, pageIndex, itemsPerPage int) (string, error) {
	if pageIndex <= 1 {
		return base, nil
	}

	switch mode {
	case retailer.PaginationPaged:
		return addQueryParam(base, "page", strconv.Itoa(pageIndex))
	case retailer.PaginationOffset:
		offset := (pageIndex - 1) * itemsPerPage
		return addQueryParam(base, "offset", strconv.Itoa(offset))
	case retailer.PaginationInfiniteScroll, retailer.PaginationHybridLoadMore:
		return base, nil
	default:
		return "", fmt.Errorf("catalog-watcher: unsupported pagination mode %v", mode)
	}
}

func addQueryParam(rawURL, key, value string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := parsed.Query()
	q.Set(key, value)
	parsed.RawQuery = q.Encode()
	return parsed.String(), nil
}
