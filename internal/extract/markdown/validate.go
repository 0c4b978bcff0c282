package markdown

import (
	"strings"

	"github.com/catalogwatcher/catalog-watcher/internal/extract/result"
	"github.com/catalogwatcher/catalog-watcher/internal/retailer"
)

const (
	minTitleLength = 5
	maxTitleLength = 200
)

// validateSingleProduct runs the shape checks spec §4.3 requires before a
// markdown-path result is trusted as-is: title length, a sane price, at
// least one image, and — where the retailer config names one — an image
// host matching the retailer's known CDN. It returns a non-empty warning
// describing the first failure found, or "" if the result looks sound.
func validateSingleProduct(p *result.Product, cfg *retailer.Config) string {
	if len(p.Title) < minTitleLength || len(p.Title) > maxTitleLength {
		return "title length outside the expected 5-200 character range"
	}
	if p.PriceCents <= 0 {
		return "price could not be parsed into a positive cent amount"
	}
	if len(p.ImageURLs) == 0 {
		return "no image URLs present"
	}
	if cfg != nil && cfg.ImageCDNHost != "" && !anyContainsHost(p.ImageURLs, cfg.ImageCDNHost) {
		return "no image URL matched the retailer's known CDN host"
	}
	return ""
}

func anyContainsHost(urls []string, host string) bool {
	for _, u := range urls {
		if strings.Contains(u, host) {
			return true
		}
	}
	return false
}
