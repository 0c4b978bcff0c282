package browser

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

const (
	// titleMismatchThreshold is the similarity ratio below which the
	// record is flagged with a title-mismatch warning (spec §4.4).
	titleMismatchThreshold = 0.7

	// titleOverrideThreshold is the stricter similarity ratio below
	// which the vision title is replaced with the DOM value outright.
	titleOverrideThreshold = 0.5

	// priceMismatchToleranceCents flags a price mismatch once the
	// vision/DOM difference exceeds this many cents.
	priceMismatchToleranceCents = 50

	// priceOverrideToleranceCents overrides the vision price with the
	// DOM value once the difference is large enough to suspect the
	// vision reading was wrong rather than just stale formatting.
	priceOverrideToleranceCents = 500
)

// titleSimilarity computes the same sequence-matcher ratio Python's
// difflib.SequenceMatcher(None, a, b).ratio() would, operating
// character-by-character so short titles still produce a meaningful
// score.
func titleSimilarity(a, b string) float64 {
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

// validationOutcome records the field-level outcome of comparing the
// vision-primary value against the DOM-tertiary value, per spec §4.4's
// "match, mismatch-within-tolerance, mismatch-overridden" vocabulary.
type validationOutcome int

const (
	validationMatch validationOutcome = iota
	validationMismatchWithinTolerance
	validationMismatchOverridden
)

// validateTitle compares the vision and DOM titles, returning the
// outcome and the title to actually use.
func validateTitle(visionTitle, domTitle string) (validationOutcome, string, string) {
	if domTitle == "" {
		return validationMatch, visionTitle, ""
	}
	ratio := titleSimilarity(visionTitle, domTitle)
	switch {
	case ratio < titleOverrideThreshold:
		return validationMismatchOverridden, domTitle, "title-mismatch: vision and DOM titles disagree strongly, using DOM value"
	case ratio < titleMismatchThreshold:
		return validationMismatchWithinTolerance, visionTitle, "title-mismatch: vision and DOM titles disagree"
	default:
		return validationMatch, visionTitle, ""
	}
}

// validatePrice is the price analogue of validateTitle, comparing cent
// amounts instead of string similarity.
func validatePrice(visionCents, domCents int64) (validationOutcome, int64, string) {
	if domCents <= 0 {
		return validationMatch, visionCents, ""
	}
	diff := visionCents - domCents
	if diff < 0 {
		diff = -diff
	}
	switch {
	case diff > priceOverrideToleranceCents:
		return validationMismatchOverridden, domCents, "price-mismatch: vision and DOM prices disagree strongly, using DOM value"
	case diff > priceMismatchToleranceCents:
		return validationMismatchWithinTolerance, visionCents, "price-mismatch: vision and DOM prices disagree"
	default:
		return validationMatch, visionCents, ""
	}
}

// titleSimilarityFloor is the minimum similarity ratio a fuzzy
// title-based catalog merge accepts as the same product (spec §4.4's
// "fuzzy-match by title similarity with a 0.5 floor").
const titleSimilarityFloor = 0.5

func normalizeForSimilarity(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
