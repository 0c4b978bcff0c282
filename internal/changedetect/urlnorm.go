package changedetect

import (
	"net/url"
	"strings"

	"github.com/catalogwatcher/catalog-watcher/internal/retailer"
)

// globalTrackingKeys are the tracking query keys stripped for every
// retailer, on top of whatever a retailer's own Config.TrackingQueryKeys
// adds (spec §4.7's normalized-URL signal).
var globalTrackingKeys = map[string]bool{
	"navsrc":            true,
	"origin":            true,
	"sort":              true,
	"currentpricerange": true,
}

// normalizeURL produces the form the 0.95-confidence "normalized URL"
// match looks up in the products store: tracking query keys stripped,
// any utm_* key stripped, and trailing path punctuation trimmed. A
// retailer with DropsEntireQueryString discards the query string
// wholesale instead of stripping individual keys.
func normalizeURL(rawURL string, cfg *retailer.Config) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	parsed.Path = strings.TrimRight(parsed.Path, "/.,;")
	parsed.Fragment = ""

	if cfg != nil && cfg.DropsEntireQueryString {
		parsed.RawQuery = ""
		return parsed.String(), nil
	}

	stripExtra := make(map[string]bool)
	if cfg != nil {
		for _, k := range cfg.TrackingQueryKeys {
			stripExtra[strings.ToLower(k)] = true
		}
	}

	q := parsed.Query()
	for key := range q {
		lower := strings.ToLower(key)
		if globalTrackingKeys[lower] || stripExtra[lower] || strings.HasPrefix(lower, "utm_") || strings.HasPrefix(lower, "utm-") {
			q.Del(key)
		}
	}
	parsed.RawQuery = q.Encode()

	return parsed.String(), nil
}
