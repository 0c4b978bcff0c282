// Package patternlearner is the Pattern Learner (spec §4.2): it records
// per-retailer selector and URL-transformation outcomes, adjusts their
// confidence on observed success/failure, and serves ranked hints back to
// the extractors. All persistence goes through internal/store; this
// package owns only the confidence arithmetic and the cross-function
// transfer table.
package patternlearner

import (
	"context"

	"github.com/catalogwatcher/catalog-watcher/internal/store"
	applog "github.com/catalogwatcher/catalog-watcher/pkg/log"
)

const (
	// confidenceFloor is the default threshold below which RankedPatterns
	// hides a pattern from callers that don't explicitly ask for everything.
	confidenceFloor = 0.3

	initialConfidence  = 0.7
	successIncrement   = 0.05
	failureDecrement   = 0.1
	maxConfidence      = 1.0
	minConfidence      = 0.0
	crossLearnTransfer = 0.7 // confidence multiplier applied to transferred hints
)

// Learner is the process-wide Pattern Learner, backed by a Store.
type Learner struct {
	store *store.Store
}

// New builds a Learner over an already-open Store.
func New(s *store.Store) *Learner {
	return &Learner{store: s}
}

// PatternHint is the read-side view handed back to extractors.
type PatternHint struct {
	Payload      string
	Confidence   float64
	SuccessCount int
	FailureCount int
	VisualHints  string
}

// GetRankedPatterns returns every pattern for (retailer, elementType)
// above confidenceFloor, ordered confidence descending then success
// count descending (spec §4.2). Pass an empty elementType to fetch every
// element type for the retailer, and includeAll=true to bypass the floor.
func (l *Learner) GetRankedPatterns(ctx context.Context, retailer string, elementType store.PatternElementType, includeAll bool) ([]PatternHint, error) {
	floor := confidenceFloor
	if includeAll {
		floor = minConfidence
	}

	patterns, err := l.store.RankedPatterns(ctx, retailer, elementType, floor)
	if err != nil {
		return nil, err
	}

	hints := make([]PatternHint, 0, len(patterns))
	for _, p := range patterns {
		hints = append(hints, PatternHint{
			Payload:      p.PatternPayload,
			Confidence:   p.Confidence,
			SuccessCount: p.SuccessCount,
			FailureCount: p.FailureCount,
			VisualHints:  p.VisualHints,
		})
	}
	return hints, nil
}

// GetPlaceholderRules returns every placeholder-exclusion rule learned
// for retailer, consumed by the image pipeline (spec §4.2).
func (l *Learner) GetPlaceholderRules(ctx context.Context, retailer string) ([]string, error) {
	patterns, err := l.store.RankedPatterns(ctx, retailer, "", minConfidence)
	if err != nil {
		return nil, err
	}

	var rules []string
	for _, p := range patterns {
		if p.PatternKind == store.PatternKindPlaceholderExclude {
			rules = append(rules, p.PatternPayload)
		}
	}
	return rules, nil
}

// RecordOutcome applies the spec's confidence arithmetic and persists the
// result. Writes are best-effort (spec §4.2): a Store failure is logged
// and swallowed rather than propagated, so the surrounding extraction
// never fails because a hint couldn't be saved.
func (l *Learner) RecordOutcome(ctx context.Context, retailer string, elementType store.PatternElementType, kind store.PatternKind, payload string, success bool, visualHints string) {
	existing, err := l.findExisting(ctx, retailer, elementType, kind, payload)
	if err != nil {
		applog.WithComponent("patternlearner").WithError(err).Warn("pattern lookup failed, dropping outcome")
		return
	}

	updated := applyOutcome(existing, success)
	if visualHints != "" {
		updated.VisualHints = visualHints
	}
	updated.Retailer = retailer
	updated.ElementType = elementType
	updated.PatternKind = kind
	updated.PatternPayload = payload

	if _, err := l.store.UpsertLearnedPattern(ctx, updated); err != nil {
		applog.WithComponent("patternlearner").WithError(err).Warn("pattern write failed, outcome dropped")
	}
}

func (l *Learner) findExisting(ctx context.Context, retailer string, elementType store.PatternElementType, kind store.PatternKind, payload string) (*store.LearnedPattern, error) {
	patterns, err := l.store.RankedPatterns(ctx, retailer, elementType, minConfidence)
	if err != nil {
		return nil, err
	}
	for _, p := range patterns {
		if p.PatternKind == kind && p.PatternPayload == payload {
			return p, nil
		}
	}
	return nil, nil
}

// applyOutcome implements the monotonic confidence update spec'd in §4.2:
// a pattern never loses its accumulated counters, only its confidence
// moves, and only within [minConfidence, maxConfidence].
func applyOutcome(existing *store.LearnedPattern, success bool) *store.LearnedPattern {
	if existing == nil {
		p := &store.LearnedPattern{Confidence: initialConfidence}
		if success {
			p.SuccessCount = 1
		} else {
			p.FailureCount = 1
			p.Confidence = clamp(initialConfidence - failureDecrement)
		}
		return p
	}

	p := *existing
	if success {
		p.SuccessCount++
		p.Confidence = clamp(p.Confidence + successIncrement)
	} else {
		p.FailureCount++
		p.Confidence = clamp(p.Confidence - failureDecrement)
	}
	return &p
}

func clamp(confidence float64) float64 {
	if confidence > maxConfidence {
		return maxConfidence
	}
	if confidence < minConfidence {
		return minConfidence
	}
	return confidence
}
