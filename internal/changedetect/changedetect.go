// Package changedetect is the Change Detector (spec §4.7): given a
// crawled product summary, it runs a cascade of matching methods against
// the products store and classifies the product as new or existing,
// flagging low-confidence new matches for manual review.
package changedetect

import (
	"context"
	"fmt"
	"time"

	"github.com/catalogwatcher/catalog-watcher/internal/extract/result"
	apperrors "github.com/catalogwatcher/catalog-watcher/internal/pkg/errors"
	"github.com/catalogwatcher/catalog-watcher/internal/retailer"
	"github.com/catalogwatcher/catalog-watcher/internal/store"
)

const (
	// newProductThreshold: a winning confidence at or below this value
	// classifies the product new rather than existing.
	newProductThreshold = 0.85

	// manualReviewThreshold: a new classification at or below this
	// confidence is additionally flagged for manual review.
	manualReviewThreshold = 0.70

	// noMatchConfidence is assigned when no method fires at all.
	noMatchConfidence = 0.95

	// titlePriceBucketWidthCents is intentionally wide: the title+price
	// method itself enforces the real "within $0.01" tolerance once
	// candidates are in hand, so the store-side bucket just needs to be
	// wide enough not to miss the true match at a bucket boundary.
	titlePriceBucketWidthCents = 200

	priceToleranceCents = 1
)

// Classification is the detector's new-vs-existing verdict for one
// crawled product.
type Classification string

const (
	ClassificationNew      Classification = "new"
	ClassificationExisting Classification = "existing"
)

// MatchResult is the per-product outcome of running the matching
// cascade.
type MatchResult struct {
	Product        result.CatalogProduct
	Classification Classification
	Confidence     float64
	Method         string
	ProductID      int64
	ManualReview   bool
}

// BatchResult is the output of one batched Change Detector pass over a
// (retailer, category) pair's crawled products.
type BatchResult struct {
	Retailer            string
	Category            string
	New                 []MatchResult
	Existing            []MatchResult
	ManualReview        []MatchResult
	ConfidenceHistogram map[string]int
	Elapsed             time.Duration
}

// DuplicateDetector defers the "main-store fuzzy duplicate" signal (spec
// §4.7, max confidence 0.92) to an external collaborator, the same way
// the Browser Extractor treats its vision provider as an out-of-scope
// dependency. The collaborator reports its own confidence for a match —
// a weak fuzzy hit is exactly the kind of signal that should be able to
// fall through to manual review rather than being forced to the method's
// ceiling. A Detector built with a nil DuplicateDetector simply never
// gets a hit from this method.
type DuplicateDetector interface {
	FindDuplicate(ctx context.Context, retailerID string, p result.CatalogProduct) (productID int64, confidence float64, found bool, err error)
}

// Detector runs the matching cascade and persists its verdicts.
type Detector struct {
	store      *store.Store
	duplicates DuplicateDetector
}

// New builds a Detector. duplicates may be nil.
func New(s *store.Store, duplicates DuplicateDetector) *Detector {
	return &Detector{store: s, duplicates: duplicates}
}

type candidateMatch struct {
	confidence float64
	productID  int64
	method     string
}

// DetectOne runs the full matching cascade for a single crawled product
// and returns its classification (spec §4.7).
func (d *Detector) DetectOne(ctx context.Context, cfg *retailer.Config, category string, p result.CatalogProduct) (*MatchResult, error) {
	var best *candidateMatch
	consider := func(confidence float64, productID int64, matched bool, method string) {
		if !matched {
			return
		}
		if best == nil || confidence > best.confidence {
			best = &candidateMatch{confidence: confidence, productID: productID, method: method}
		}
	}

	conf, pid, matched, err := d.matchExactURL(ctx, cfg, p)
	if err != nil {
		return nil, err
	}
	consider(conf, pid, matched, "exact_url")

	conf, pid, matched, err = d.matchNormalizedURL(ctx, cfg, p)
	if err != nil {
		return nil, err
	}
	consider(conf, pid, matched, "normalized_url")

	conf, pid, matched, err = d.matchProductCode(ctx, cfg, p)
	if err != nil {
		return nil, err
	}
	consider(conf, pid, matched, "product_code")

	conf, pid, matched, err = d.matchBaseline(ctx, cfg, category, p)
	if err != nil {
		return nil, err
	}
	consider(conf, pid, matched, "baseline_observation")

	candidates, err := d.store.FindProductByTitlePrice(ctx, cfg.ID, category, p.PriceCents, titlePriceBucketWidthCents)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.StoreUnavailable, "loading title/price candidates")
	}

	conf, pid, matched = matchTitlePrice(p, candidates)
	consider(conf, pid, matched, "title_price")

	conf, pid, matched = matchImageIdentifier(p, candidates)
	consider(conf, pid, matched, "image_identifier")

	conf, pid, matched, err = d.matchDuplicate(ctx, cfg, p)
	if err != nil {
		return nil, err
	}
	consider(conf, pid, matched, "duplicate_detector")

	mr := &MatchResult{Product: p}
	if best == nil {
		mr.Classification = ClassificationNew
		mr.Confidence = noMatchConfidence
	} else {
		mr.Confidence = best.confidence
		mr.Method = best.method
		mr.ProductID = best.productID
		if best.confidence <= newProductThreshold {
			mr.Classification = ClassificationNew
		} else {
			mr.Classification = ClassificationExisting
		}
	}
	if mr.Classification == ClassificationNew && mr.Confidence <= manualReviewThreshold {
		mr.ManualReview = true
	}
	return mr, nil
}

// DetectBatch runs DetectOne over every crawled product for one
// (retailer, category) pass and buckets the verdicts (spec §4.7's
// "three parallel lists... plus a confidence-distribution histogram and
// a processing-time measurement"). A manual-review item remains in New
// too — manual review is an overlay flag on a new classification, not a
// fourth disjoint bucket.
func (d *Detector) DetectBatch(ctx context.Context, cfg *retailer.Config, category string, products []result.CatalogProduct) (*BatchResult, error) {
	started := time.Now()
	batch := &BatchResult{
		Retailer:            cfg.ID,
		Category:            category,
		ConfidenceHistogram: make(map[string]int),
	}

	for _, p := range products {
		mr, err := d.DetectOne(ctx, cfg, category, p)
		if err != nil {
			return nil, err
		}
		batch.ConfidenceHistogram[confidenceBucket(mr.Confidence)]++

		switch mr.Classification {
		case ClassificationNew:
			batch.New = append(batch.New, *mr)
			if mr.ManualReview {
				batch.ManualReview = append(batch.ManualReview, *mr)
			}
		default:
			batch.Existing = append(batch.Existing, *mr)
		}
	}

	batch.Elapsed = time.Since(started)
	return batch, nil
}

// Persist writes a batch's verdicts back to the store: new (including
// manual-review) entries become pending-review CatalogObservations;
// existing entries only bump the matched Product's last-seen timestamp
// (spec §4.7).
func (d *Detector) Persist(ctx context.Context, batch *BatchResult) error {
	discovered := time.Now().UTC().Format("2006-01-02")

	for _, m := range batch.New {
		obs := &store.CatalogObservation{
			Retailer:       batch.Retailer,
			Category:       batch.Category,
			ProductCode:    m.Product.ProductCode,
			URL:            m.Product.URL,
			DiscoveredDate: discovered,
			Title:          m.Product.Title,
			PriceCents:     m.Product.PriceCents,
			Lifecycle:      store.LifecyclePendingReview,
		}
		if m.ProductID != 0 {
			id := m.ProductID
			obs.ProductID = &id
		}
		if _, err := d.store.AppendObservation(ctx, obs); err != nil {
			return apperrors.Wrap(err, apperrors.StoreUnavailable, "persisting new-product observation")
		}
	}

	for _, m := range batch.Existing {
		if m.ProductID == 0 {
			continue
		}
		if err := d.store.TouchProductLastSeen(ctx, m.ProductID); err != nil {
			return err
		}
	}

	return nil
}

func (d *Detector) matchExactURL(ctx context.Context, cfg *retailer.Config, p result.CatalogProduct) (float64, int64, bool, error) {
	if p.URL == "" {
		return 0, 0, false, nil
	}
	prod, err := d.store.FindProductByExactURL(ctx, cfg.ID, p.URL)
	if apperrors.Is(err, apperrors.NotFound) {
		return 0, 0, false, nil
	}
	if err != nil {
		return 0, 0, false, err
	}
	return 1.00, prod.ID, true, nil
}

func (d *Detector) matchNormalizedURL(ctx context.Context, cfg *retailer.Config, p result.CatalogProduct) (float64, int64, bool, error) {
	if p.URL == "" {
		return 0, 0, false, nil
	}
	norm, err := normalizeURL(p.URL, cfg)
	if err != nil {
		return 0, 0, false, nil
	}
	prod, err := d.store.FindProductByNormalizedURL(ctx, cfg.ID, norm)
	if apperrors.Is(err, apperrors.NotFound) {
		return 0, 0, false, nil
	}
	if err != nil {
		return 0, 0, false, err
	}
	return 0.95, prod.ID, true, nil
}

func (d *Detector) matchProductCode(ctx context.Context, cfg *retailer.Config, p result.CatalogProduct) (float64, int64, bool, error) {
	code := p.ProductCode
	if code == "" {
		code = extractProductCode(p.URL, cfg.ProductCodePattern)
	}
	if code == "" {
		return 0, 0, false, nil
	}
	prod, err := d.store.FindProductByCode(ctx, cfg.ID, code)
	if apperrors.Is(err, apperrors.NotFound) {
		return 0, 0, false, nil
	}
	if err != nil {
		return 0, 0, false, err
	}
	return 0.93, prod.ID, true, nil
}

func (d *Detector) matchBaseline(ctx context.Context, cfg *retailer.Config, category string, p result.CatalogProduct) (float64, int64, bool, error) {
	observations, err := d.store.ListBaselineObservations(ctx, cfg.ID, category)
	if err != nil {
		return 0, 0, false, apperrors.Wrap(err, apperrors.StoreUnavailable, "loading baseline observations")
	}
	for _, o := range observations {
		if p.URL != "" && o.URL == p.URL {
			return 0.90, productIDOrZero(o), true, nil
		}
		if p.Title != "" && o.Title != "" && titleSimilarity(o.Title, p.Title) >= 0.90 {
			return 0.90, productIDOrZero(o), true, nil
		}
	}
	return 0, 0, false, nil
}

const duplicateDetectorMaxConfidence = 0.92

func (d *Detector) matchDuplicate(ctx context.Context, cfg *retailer.Config, p result.CatalogProduct) (float64, int64, bool, error) {
	if d.duplicates == nil {
		return 0, 0, false, nil
	}
	productID, confidence, found, err := d.duplicates.FindDuplicate(ctx, cfg.ID, p)
	if err != nil {
		return 0, 0, false, apperrors.Wrap(err, apperrors.Unavailable, "main-store duplicate detector call failed")
	}
	if !found {
		return 0, 0, false, nil
	}
	if confidence <= 0 || confidence > duplicateDetectorMaxConfidence {
		confidence = duplicateDetectorMaxConfidence
	}
	return confidence, productID, true, nil
}

// matchTitlePrice implements spec §4.7's "title + price combined" signal
// against candidates already narrowed to the product's price bucket.
func matchTitlePrice(p result.CatalogProduct, candidates []*store.Product) (float64, int64, bool) {
	if p.Title == "" {
		return 0, 0, false
	}
	var bestSim float64
	var bestID int64
	for _, c := range candidates {
		diff := c.CurrentPriceCents - p.PriceCents
		if diff < 0 {
			diff = -diff
		}
		if diff > priceToleranceCents {
			continue
		}
		sim := titleSimilarity(c.Title, p.Title)
		if sim > 0.85 && sim > bestSim {
			bestSim = sim
			bestID = c.ID
		}
	}
	if bestSim <= 0.85 {
		return 0, 0, false
	}
	confidence := 0.80 + (bestSim-0.85)*0.8
	if confidence > 0.88 {
		confidence = 0.88
	}
	return confidence, bestID, true
}

// matchImageIdentifier is spec §4.7's "future-ready placeholder": it
// compares the crawled row's image filename token against every
// candidate's stored image URLs, firing only on an exact token match.
func matchImageIdentifier(p result.CatalogProduct, candidates []*store.Product) (float64, int64, bool) {
	token := imageFilenameToken(p.ImageURL)
	if token == "" {
		return 0, 0, false
	}
	for _, c := range candidates {
		for _, img := range c.ImageURLs {
			if imageFilenameToken(img) == token {
				return 0.82, c.ID, true
			}
		}
	}
	return 0, 0, false
}

func productIDOrZero(o *store.CatalogObservation) int64 {
	if o.ProductID != nil {
		return *o.ProductID
	}
	return 0
}

func confidenceBucket(confidence float64) string {
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	lo := int(confidence*10) * 10
	if lo >= 100 {
		lo = 90
	}
	return fmt.Sprintf("%d-%d%%", lo, lo+10)
}
