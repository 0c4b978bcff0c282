package patternlearner

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/catalogwatcher/catalog-watcher/internal/store"
	applog "github.com/catalogwatcher/catalog-watcher/pkg/log"
)

// StructureChangeSeverity classifies how much a retailer's page structure
// has moved since the last snapshot (spec §12, grounded on
// page_structure_learner.py's detect_page_structure_change).
type StructureChangeSeverity string

const (
	SeverityNone  StructureChangeSeverity = "none"
	SeverityMinor StructureChangeSeverity = "minor"
	SeverityMajor StructureChangeSeverity = "major"
)

// StructureChangeResult is what a structure-change check reports back.
type StructureChangeResult struct {
	Changed          bool
	Severity         StructureChangeSeverity
	HasPriorSnapshot bool
	Recommendations  []string
}

// HashKeySelectors hashes the set of selectors the guided-DOM pass
// actually resolved this run, keyed by element type, into a stable
// fingerprint independent of map iteration order.
func HashKeySelectors(selectors map[store.PatternElementType]string) string {
	keys := make([]string, 0, len(selectors))
	for k := range selectors {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)

	h := xxhash.New()
	for _, k := range keys {
		_, _ = h.WriteString(k)
		_, _ = h.WriteString("=")
		_, _ = h.WriteString(selectors[store.PatternElementType(k)])
		_, _ = h.WriteString(";")
	}
	return strconv.FormatUint(h.Sum64(), 16)
}

// HashVisualLayout hashes the vision model's own read of where key
// elements live on the page (its DOM-hint reply), giving a structural
// fingerprint independent of the guided-DOM selectors above. A drift
// between this hash and HashKeySelectors' history surfacing together
// is what the Python predecessor called a "major" redesign.
func HashVisualLayout(hints map[string]string) string {
	keys := make([]string, 0, len(hints))
	for k := range hints {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := xxhash.New()
	for _, k := range keys {
		_, _ = h.WriteString(k)
		_, _ = h.WriteString("=")
		_, _ = h.WriteString(hints[k])
		_, _ = h.WriteString(";")
	}
	return strconv.FormatUint(h.Sum64(), 16)
}

// RecordStructureSnapshot persists the current run's structural
// fingerprint for retailer. Best-effort like RecordOutcome: a Store
// failure is logged and swallowed rather than propagated.
func (l *Learner) RecordStructureSnapshot(ctx context.Context, retailer string, domHash, visualHash string, keySelectors map[store.PatternElementType]string) {
	payload, err := json.Marshal(keySelectors)
	if err != nil {
		applog.WithComponent("patternlearner").WithError(err).Warn("failed to marshal key selectors, snapshot dropped")
		return
	}

	snap := &store.PageStructureSnapshot{
		Retailer:         retailer,
		DOMStructureHash: domHash,
		VisualLayoutHash: visualHash,
		KeySelectors:     string(payload),
	}
	if _, err := l.store.SavePageStructureSnapshot(ctx, snap); err != nil {
		applog.WithComponent("patternlearner").WithError(err).Warn("page structure snapshot write failed")
	}
}

// DetectStructureChange compares the current run's DOM and visual-layout
// hashes against retailer's most recent snapshot (spec §12):
//   - no prior snapshot: no change, nothing to compare against yet
//   - only one of the two hashes moved: minor — selectors may still work,
//     but extraction success should be watched
//   - both hashes moved together: major — a real redesign, the Pattern
//     Learner's accumulated selectors should be re-learned rather than
//     trusted
func (l *Learner) DetectStructureChange(ctx context.Context, retailer string, currentDOMHash, currentVisualHash string) (*StructureChangeResult, error) {
	last, err := l.store.LatestPageStructureSnapshot(ctx, retailer)
	if err != nil {
		return nil, err
	}

	if last == nil {
		return &StructureChangeResult{
			Severity:        SeverityNone,
			Recommendations: []string{"first snapshot for this retailer — no baseline to compare"},
		}, nil
	}

	domChanged := currentDOMHash != last.DOMStructureHash
	visualChanged := currentVisualHash != last.VisualLayoutHash

	result := &StructureChangeResult{
		Changed:          domChanged || visualChanged,
		HasPriorSnapshot: true,
		Severity:         SeverityNone,
	}

	switch {
	case domChanged && visualChanged:
		result.Severity = SeverityMajor
		result.Recommendations = append(result.Recommendations,
			fmt.Sprintf("major page redesign detected for %s", retailer),
			"re-learn selectors for this retailer",
			"consider manual review of extraction patterns")
	case domChanged || visualChanged:
		result.Severity = SeverityMinor
		result.Recommendations = append(result.Recommendations,
			fmt.Sprintf("minor page change detected for %s", retailer),
			"monitor extraction success rate")
	}

	return result, nil
}
