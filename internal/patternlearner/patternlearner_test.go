package patternlearner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catalogwatcher/catalog-watcher/internal/store"
)

func newTestLearner(t *testing.T) *Learner {
	t.Helper()
	s, err := store.Open(store.Config{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return New(s)
}

func TestRecordOutcome_CreatesWithInitialConfidence(t *testing.T) {
	ctx := context.Background()
	l := newTestLearner(t)

	l.RecordOutcome(ctx, "acme", store.ElementPrice, store.PatternKindSelector, ".price", true, "")

	hints, err := l.GetRankedPatterns(ctx, "acme", store.ElementPrice, false)
	require.NoError(t, err)
	require.Len(t, hints, 1)
	assert.InDelta(t, 0.7, hints[0].Confidence, 1e-9, "creating a pattern on first success uses the 0.7 baseline, not a bump on top of it")
	assert.Equal(t, 1, hints[0].SuccessCount)
}

func TestRecordOutcome_SuccessCapsAtOne(t *testing.T) {
	ctx := context.Background()
	l := newTestLearner(t)

	for i := 0; i < 10; i++ {
		l.RecordOutcome(ctx, "acme", store.ElementPrice, store.PatternKindSelector, ".price", true, "")
	}

	hints, err := l.GetRankedPatterns(ctx, "acme", store.ElementPrice, false)
	require.NoError(t, err)
	require.Len(t, hints, 1)
	assert.Equal(t, 1.0, hints[0].Confidence)
	assert.Equal(t, 10, hints[0].SuccessCount)
}

func TestRecordOutcome_FailureLowersAndFloorsAtZero(t *testing.T) {
	ctx := context.Background()
	l := newTestLearner(t)

	l.RecordOutcome(ctx, "acme", store.ElementPrice, store.PatternKindSelector, ".price", false, "")
	hints, err := l.GetRankedPatterns(ctx, "acme", store.ElementPrice, true)
	require.NoError(t, err)
	require.Len(t, hints, 1)
	assert.InDelta(t, 0.6, hints[0].Confidence, 1e-9, "first outcome is a failure: initial 0.7 minus the 0.1 decrement")

	for i := 0; i < 10; i++ {
		l.RecordOutcome(ctx, "acme", store.ElementPrice, store.PatternKindSelector, ".price", false, "")
	}

	hints, err = l.GetRankedPatterns(ctx, "acme", store.ElementPrice, true)
	require.NoError(t, err)
	assert.Equal(t, 0.0, hints[0].Confidence)
	assert.Equal(t, 11, hints[0].FailureCount, "counters accumulate even once confidence has floored")
}

func TestGetRankedPatterns_HidesBelowFloorUnlessIncludeAll(t *testing.T) {
	ctx := context.Background()
	l := newTestLearner(t)

	l.RecordOutcome(ctx, "acme", store.ElementPrice, store.PatternKindSelector, ".stale", false, "")
	for i := 0; i < 6; i++ {
		l.RecordOutcome(ctx, "acme", store.ElementPrice, store.PatternKindSelector, ".stale", false, "")
	}

	hints, err := l.GetRankedPatterns(ctx, "acme", store.ElementPrice, false)
	require.NoError(t, err)
	assert.Empty(t, hints, "confidence has fallen below the 0.3 floor")

	hints, err = l.GetRankedPatterns(ctx, "acme", store.ElementPrice, true)
	require.NoError(t, err)
	require.Len(t, hints, 1)
}

func TestGetRankedPatterns_OrderedByConfidenceThenSuccessCount(t *testing.T) {
	ctx := context.Background()
	l := newTestLearner(t)

	l.RecordOutcome(ctx, "acme", store.ElementTitle, store.PatternKindSelector, ".title-a", true, "")
	l.RecordOutcome(ctx, "acme", store.ElementTitle, store.PatternKindSelector, ".title-b", true, "")
	l.RecordOutcome(ctx, "acme", store.ElementTitle, store.PatternKindSelector, ".title-b", true, "")

	hints, err := l.GetRankedPatterns(ctx, "acme", store.ElementTitle, false)
	require.NoError(t, err)
	require.Len(t, hints, 2)
	assert.Equal(t, ".title-b", hints[0].Payload, "higher confidence from the second success sorts first")
}

func TestGetPlaceholderRules_FiltersByPatternKind(t *testing.T) {
	ctx := context.Background()
	l := newTestLearner(t)

	l.RecordOutcome(ctx, "acme", store.ElementImage, store.PatternKindPlaceholderExclude, `.*placeholder\.png`, true, "")
	l.RecordOutcome(ctx, "acme", store.ElementImage, store.PatternKindSelector, ".product-image", true, "")

	rules, err := l.GetPlaceholderRules(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, `.*placeholder\.png`, rules[0])
}

func TestRecordCrossFunctionHint_DisallowedPairIsNoOp(t *testing.T) {
	ctx := context.Background()
	l := newTestLearner(t)

	l.RecordCrossFunctionHint(ctx, "acme", store.PatternKindSelector, store.ElementTitle, store.PatternKindSelector, store.ElementImage, ".never", 0.9)

	hints, err := l.GetRankedPatterns(ctx, "acme", store.ElementImage, true)
	require.NoError(t, err)
	assert.Empty(t, hints)
}

func TestRecordCrossFunctionHint_AllowedPairDepositsReducedConfidence(t *testing.T) {
	ctx := context.Background()
	l := newTestLearner(t)

	l.RecordCrossFunctionHint(ctx, "acme", store.PatternKindSelector, store.ElementPrice, store.PatternKindSelector, store.ElementPrice, ".price-hint", 0.9)

	hints, err := l.GetRankedPatterns(ctx, "acme", store.ElementPrice, true)
	require.NoError(t, err)
	require.Len(t, hints, 1)
	assert.InDelta(t, 0.63, hints[0].Confidence, 1e-9)
}
