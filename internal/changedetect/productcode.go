package changedetect

import "regexp"

// extractProductCode pulls the product code out of url using the
// retailer's own regex (spec §4.7's "product code match" signal). The
// same extraction the Markdown Extractor performs at parse time; the
// Change Detector needs its own copy since an incoming catalog row may
// arrive without one already attached (e.g. a Browser Extractor
// link-only row).
func extractProductCode(url, pattern string) string {
	if pattern == "" {
		return ""
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return ""
	}
	m := re.FindStringSubmatch(url)
	if m == nil {
		return ""
	}
	if idx := re.SubexpIndex("code"); idx > 0 && idx < len(m) {
		return m[idx]
	}
	if len(m) > 1 {
		return m[1]
	}
	return ""
}
