// Package result holds the extractor-agnostic result shapes shared by
// the Markdown Extractor, the Browser Extractor, and the Extraction
// Dispatcher (spec §4.5's "uniform result shape").
package result

import "time"

// Method identifies which tower produced a result.
type Method string

const (
	MethodMarkdown Method = "markdown"
	MethodBrowser  Method = "browser"
)

// Product is the uniform single-product result shape.
type Product struct {
	URL           string
	CanonicalURL  string
	Title         string
	Brand         string
	PriceCents    int64
	OriginalPriceCents *int64
	Currency      string
	OnSale        bool
	StockState    string
	Category      string
	ImageURLs     []string
	Description   string
	Neckline      string
	SleeveLength  string
	Colors        []string
	Sizes         []string
	Material      string
	CareNotes     string

	Method        Method
	Elapsed       time.Duration
	Warnings      []string
	Errors        []string
	Delisted      bool
	NeedsFallback bool
}

// CatalogProduct is one row of a catalog-page listing — a lighter-weight
// summary than Product, matching what a listing page actually exposes.
type CatalogProduct struct {
	URL         string
	Title       string
	PriceCents  int64
	ProductCode string
	ImageURL    string
	OnSale      bool

	// NeedsReprocessing marks a Browser Extractor catalog row produced
	// from a DOM link with no corresponding vision-card match (spec
	// §4.4's merge strategy) — link-only, no title/price confirmed.
	NeedsReprocessing bool
}

// Catalog is the uniform catalog-page result shape.
type Catalog struct {
	SourceURL    string
	CanonicalURL string
	Products     []CatalogProduct

	Method   Method
	Elapsed  time.Duration
	Warnings []string
	Errors   []string
	Delisted bool
}
