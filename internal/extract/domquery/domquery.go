// Package domquery holds goquery-based DOM selection helpers shared by
// the Markdown Extractor's homepage-redirect detector and the Browser
// Extractor's guided-DOM tertiary resolution path (spec §4.3, §4.4).
package domquery

import (
	"io"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ParseHTML parses body into a goquery.Document and records baseURL as
// doc.Url, which LooksLikeHomepageRedirect compares against the requested
// URL. Hrefs and srcs are returned as written, not resolved against it.
// An unparsable baseURL leaves doc.Url unset rather than failing the
// parse.
func ParseHTML(body io.Reader, baseURL string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, err
	}
	if parsed, parseErr := url.Parse(baseURL); parseErr == nil {
		doc.Url = parsed
	}
	return doc, nil
}

// SelectFirstMatch tries selectors in order and returns the first whose
// selection is non-empty, alongside the selector that matched. Callers
// pass the Pattern Learner's ranked hints so the highest-confidence
// selector is tried first.
func SelectFirstMatch(doc *goquery.Document, selectors []string) (*goquery.Selection, string, bool) {
	for _, sel := range selectors {
		if sel == "" {
			continue
		}
		found := doc.Find(sel)
		if found.Length() > 0 {
			return found, sel, true
		}
	}
	return nil, "", false
}

// ExtractText returns the trimmed text of the first node in sel.
func ExtractText(sel *goquery.Selection) string {
	if sel == nil {
		return ""
	}
	return strings.TrimSpace(sel.First().Text())
}

// ExtractAttr returns the named attribute of the first node in sel.
func ExtractAttr(sel *goquery.Selection, attr string) (string, bool) {
	if sel == nil {
		return "", false
	}
	return sel.First().Attr(attr)
}

// ExtractImageURLs walks each selector in order, collecting every image
// src/data-src attribute found, and drops any URL matching one of the
// Pattern Learner's placeholder-exclusion rules (spec §3's
// PatternKindPlaceholderExclude).
func ExtractImageURLs(doc *goquery.Document, selectors []string, placeholderExcludes []string) []string {
	excludes := compilePatterns(placeholderExcludes)

	var urls []string
	seen := make(map[string]bool)
	for _, sel := range selectors {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			src, ok := s.Attr("src")
			if !ok || src == "" {
				src, ok = s.Attr("data-src")
			}
			if !ok || src == "" || seen[src] {
				return
			}
			if matchesAny(excludes, src) {
				return
			}
			seen[src] = true
			urls = append(urls, src)
		})
	}
	return urls
}

func compilePatterns(patterns []string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		if re, err := regexp.Compile(p); err == nil {
			compiled = append(compiled, re)
		}
	}
	return compiled
}

func matchesAny(patterns []*regexp.Regexp, s string) bool {
	for _, re := range patterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// LooksLikeHomepageRedirect implements spec §4.4's failure-classification
// heuristic: a page is treated as a homepage-redirect/delisted signature
// when its resolved URL no longer contains the requested product path,
// or its title matches one of the retailer's known category-landing
// title templates.
func LooksLikeHomepageRedirect(doc *goquery.Document, requestedURL string, categoryLandingTitlePatterns []string) bool {
	if doc == nil {
		return false
	}

	if doc.Url != nil {
		requested, err := url.Parse(requestedURL)
		if err == nil && requested.Path != "" && requested.Path != "/" {
			if !strings.Contains(doc.Url.Path, strings.TrimSuffix(requested.Path, "/")) {
				return true
			}
		}
	}

	title := strings.TrimSpace(doc.Find("title").Text())
	if title == "" {
		return false
	}
	for _, pattern := range categoryLandingTitlePatterns {
		if re, err := regexp.Compile(pattern); err == nil && re.MatchString(title) {
			return true
		}
	}
	return false
}
