package browser

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/catalogwatcher/catalog-watcher/internal/extract/domquery"
	"github.com/catalogwatcher/catalog-watcher/internal/patternlearner"
	"github.com/catalogwatcher/catalog-watcher/internal/store"
)

// genericSelectors are the last-resort CSS selectors tried when neither
// the Pattern Learner nor the vision hint pass produced a usable
// candidate for an element type.
var genericSelectors = map[store.PatternElementType][]string{
	store.ElementProductLink:    {"a.product-link", "a[href*='/product']", ".product-card a"},
	store.ElementTitle:          {"h1.product-title", "[itemprop='name']", "h1"},
	store.ElementPrice:          {"[itemprop='price']", ".price", ".product-price"},
	store.ElementImage:          {"img.product-image", "[itemprop='image']", ".product-gallery img"},
	store.ElementDescription:    {"[itemprop='description']", ".product-description"},
	store.ElementPaginationNext: {"a[rel='next']", ".pagination-next"},
	store.ElementLoadMoreButton: {".load-more", "button.load-more"},
}

// rankedSelectors builds the candidate list spec §4.4's tertiary guided
// DOM path tries in order: learned patterns first (highest confidence
// first, per GetRankedPatterns), then the vision hint pass's guesses,
// then the generic fallback list.
func rankedSelectors(ctx context.Context, learner *patternlearner.Learner, retailerID string, elementType store.PatternElementType, visionHints []string) []string {
	var out []string
	if learner != nil {
		hints, err := learner.GetRankedPatterns(ctx, retailerID, elementType, false)
		if err == nil {
			for _, h := range hints {
				out = append(out, h.Payload)
			}
		}
	}
	out = append(out, visionHints...)
	out = append(out, genericSelectors[elementType]...)
	return out
}

// extractField runs the full ranked-selector cascade for one element
// type and reports which selector (if any) actually matched, so the
// caller can feed that back into RecordOutcome.
func extractField(doc *goquery.Document, elementType store.PatternElementType, candidates []string, attr string) (value string, matchedSelector string, found bool) {
	sel, matched, ok := domquery.SelectFirstMatch(doc, candidates)
	if !ok {
		return "", "", false
	}
	if attr == "" {
		return domquery.ExtractText(sel), matched, true
	}
	v, ok := domquery.ExtractAttr(sel, attr)
	if !ok {
		return "", matched, false
	}
	return v, matched, true
}

// extractCatalogLinks builds one domCatalogLink per matching anchor,
// pulling whatever title/price text the surrounding card element
// exposes alongside the href.
func extractCatalogLinks(doc *goquery.Document, selectors []string) []domCatalogLink {
	var links []domCatalogLink
	seen := make(map[string]bool)
	for _, sel := range selectors {
		if sel == "" {
			continue
		}
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			href, ok := s.Attr("href")
			if !ok || href == "" || seen[href] {
				return
			}
			seen[href] = true

			card := s
			if card.Children().Length() == 0 {
				if parent := s.Closest(".product-card, li, article"); parent.Length() > 0 {
					card = parent
				}
			}

			title := strings.TrimSpace(s.Text())
			priceCents, _ := parsePriceFromText(card.Text())
			links = append(links, domCatalogLink{URL: href, Title: title, PriceCents: priceCents})
		})
		if len(links) > 0 {
			break
		}
	}
	return links
}

var priceDigitsPattern = regexp.MustCompile(`[\$₩€£]?\s?[\d,]+(?:\.\d{1,2})?`)

// parsePriceFromText pulls the first currency-shaped number out of a
// blob of card text and converts it to integer cents.
func parsePriceFromText(text string) (int64, bool) {
	match := priceDigitsPattern.FindString(text)
	if match == "" {
		return 0, false
	}
	cleaned := strings.NewReplacer("$", "", "₩", "", "€", "", "£", "", ",", "", " ", "").Replace(match)
	if cleaned == "" {
		return 0, false
	}
	if strings.Contains(cleaned, ".") {
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0, false
		}
		return int64(f*100 + 0.5), true
	}
	n, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return 0, false
	}
	return n * 100, true
}
