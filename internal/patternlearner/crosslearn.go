package patternlearner

import (
	"context"

	"github.com/catalogwatcher/catalog-watcher/internal/store"
	applog "github.com/catalogwatcher/catalog-watcher/pkg/log"
)

// transferKey identifies a (sourceKind, sourceCategory) → (targetKind,
// targetCategory) cross-learning edge.
type transferKey struct {
	sourceKind     store.PatternKind
	sourceCategory store.PatternElementType
	targetKind     store.PatternKind
	targetCategory store.PatternElementType
}

// allowedTransfers is the fixed table of cross-function hint transfers
// (spec §4.2 / Open Question Decision: "arbitrary cross-learning is not
// permitted"). Grounded on the three edges the Python predecessor
// hard-coded for anti-bot, price, and stock-status hints.
var allowedTransfers = map[transferKey]bool{
	{store.PatternKindSelector, "anti_bot_patterns", store.PatternKindSelector, "anti_bot_patterns"}:             true,
	{store.PatternKindSelector, store.ElementPrice, store.PatternKindSelector, store.ElementPrice}:               true,
	{store.PatternKindSelector, "stock_status_indicators", store.PatternKindSelector, "availability_indicators"}: true,
}

// IsTransferAllowed reports whether a cross-function hint may flow from
// (sourceKind, sourceCategory) to (targetKind, targetCategory).
func IsTransferAllowed(sourceKind store.PatternKind, sourceCategory store.PatternElementType, targetKind store.PatternKind, targetCategory store.PatternElementType) bool {
	return allowedTransfers[transferKey{sourceKind, sourceCategory, targetKind, targetCategory}]
}

// RecordCrossFunctionHint deposits a reduced-confidence copy of a
// pattern into a different pipeline's surface, if the transfer pair is
// permitted (spec §4.2). A disallowed pair is a no-op, not an error —
// this is a best-effort optimization, not a contract the caller can
// depend on succeeding.
func (l *Learner) RecordCrossFunctionHint(ctx context.Context, retailer string, sourceKind store.PatternKind, sourceCategory store.PatternElementType, targetKind store.PatternKind, targetCategory store.PatternElementType, payload string, sourceConfidence float64) {
	if !IsTransferAllowed(sourceKind, sourceCategory, targetKind, targetCategory) {
		return
	}

	transferred := &store.LearnedPattern{
		Retailer:       retailer,
		ElementType:    targetCategory,
		PatternKind:    targetKind,
		PatternPayload: payload,
		Confidence:     clamp(sourceConfidence * crossLearnTransfer),
	}

	if _, err := l.store.UpsertLearnedPattern(ctx, transferred); err != nil {
		applog.WithComponent("patternlearner").WithError(err).Warn("cross-function hint write failed, dropped")
	}
}
