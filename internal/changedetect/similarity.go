package changedetect

import (
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/catalogwatcher/catalog-watcher/pkg/strutils"
	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/text/width"
)

// titleSimilarity computes the same sequence-matcher ratio Python's
// difflib.SequenceMatcher(None, a, b).ratio() would (spec §4.7's
// sequence-matcher similarity signals). Titles are width-folded and
// whitespace-normalized first so a retailer mixing full-width
// punctuation/digits or doubled-up spacing into listing titles doesn't
// depress the ratio against a differently-formatted baseline title.
func titleSimilarity(a, b string) float64 {
	a = strings.ToLower(strutils.NormalizeSpaces(width.Fold.String(a)))
	b = strings.ToLower(strutils.NormalizeSpaces(width.Fold.String(b)))
	if a == "" && b == "" {
		return 1.0
	}
	matcher := difflib.NewMatcher(splitChars(a), splitChars(b))
	return matcher.Ratio()
}

func splitChars(s string) []string {
	runes := []rune(s)
	out := make([]string, len(runes))
	for i, r := range runes {
		out[i] = string(r)
	}
	return out
}

// imageSizeSuffixPattern strips a trailing CDN resize suffix (e.g.
// "_500x650", "-1200w") so two renditions of the same source image
// produce the same token.
var imageSizeSuffixPattern = regexp.MustCompile(`[-_](\d{2,4}x\d{2,4}|\d{2,4}w)$`)

// imageFilenameToken extracts the comparable identifier from an image
// URL's filename (spec §4.7's "image identifier" placeholder signal).
func imageFilenameToken(imageURL string) string {
	if imageURL == "" {
		return ""
	}
	parsed, err := url.Parse(imageURL)
	base := imageURL
	if err == nil && parsed.Path != "" {
		base = parsed.Path
	}
	name := path.Base(base)
	name = strings.TrimSuffix(name, path.Ext(name))
	name = imageSizeSuffixPattern.ReplaceAllString(name, "")
	return strings.ToLower(name)
}
