package browser

import "github.com/catalogwatcher/catalog-watcher/internal/extract/result"

// visionCatalogCard is one product card the vision model reported.
type visionCatalogCard struct {
	Title    string
	PriceCents int64
	ImageURL string
	OnSale   bool
}

// domCatalogLink is one product-link anchor the DOM pass found, with
// whatever title/price it could pull from the surrounding card.
type domCatalogLink struct {
	URL        string
	Title      string
	PriceCents int64
}

// catalogValidationStats aggregates the per-field validation outcomes
// across a merged catalog page (spec §4.4's "aggregate validation
// statistics").
type catalogValidationStats struct {
	Matched             int
	MismatchedTolerated  int
	MismatchedOverridden int
	LinkOnly             int
}

// mergeCatalogResults implements spec §4.4's catalog-mode merge
// strategy: positional merge when the two lists are the same length,
// otherwise fuzzy title matching with a 0.5 floor; unmatched DOM links
// survive as link-only rows flagged for re-processing.
func mergeCatalogResults(vision []visionCatalogCard, dom []domCatalogLink) ([]result.CatalogProduct, catalogValidationStats) {
	var stats catalogValidationStats

	if len(vision) == len(dom) && len(vision) > 0 {
		products := make([]result.CatalogProduct, 0, len(vision))
		for i, v := range vision {
			d := dom[i]
			products = append(products, mergeOne(v, d, &stats))
		}
		return products, stats
	}

	matchedDOM := make([]bool, len(dom))
	products := make([]result.CatalogProduct, 0, len(vision)+len(dom))

	for _, v := range vision {
		bestIdx := -1
		bestRatio := titleSimilarityFloor
		for i, d := range dom {
			if matchedDOM[i] {
				continue
			}
			ratio := titleSimilarity(normalizeForSimilarity(v.Title), normalizeForSimilarity(d.Title))
			if ratio >= bestRatio {
				bestRatio = ratio
				bestIdx = i
			}
		}
		if bestIdx >= 0 {
			matchedDOM[bestIdx] = true
			products = append(products, mergeOne(v, dom[bestIdx], &stats))
			continue
		}
		// No DOM link cleared the similarity floor: keep the vision
		// card's own fields, with no URL to attach.
		products = append(products, result.CatalogProduct{Title: v.Title, PriceCents: v.PriceCents, ImageURL: v.ImageURL, OnSale: v.OnSale})
	}

	for i, d := range dom {
		if matchedDOM[i] {
			continue
		}
		stats.LinkOnly++
		products = append(products, result.CatalogProduct{URL: d.URL, Title: d.Title, PriceCents: d.PriceCents, NeedsReprocessing: true})
	}

	return products, stats
}

func mergeOne(v visionCatalogCard, d domCatalogLink, stats *catalogValidationStats) result.CatalogProduct {
	titleOutcome, title, _ := validateTitle(v.Title, d.Title)
	priceOutcome, priceCents, _ := validatePrice(v.PriceCents, d.PriceCents)
	recordOutcome(stats, titleOutcome)
	recordOutcome(stats, priceOutcome)

	return result.CatalogProduct{
		URL:        d.URL,
		Title:      title,
		PriceCents: priceCents,
		ImageURL:   v.ImageURL,
		OnSale:     v.OnSale,
	}
}

func recordOutcome(stats *catalogValidationStats, outcome validationOutcome) {
	switch outcome {
	case validationMatch:
		stats.Matched++
	case validationMismatchWithinTolerance:
		stats.MismatchedTolerated++
	case validationMismatchOverridden:
		stats.MismatchedOverridden++
	}
}
