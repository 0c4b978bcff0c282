package store

import (
	"context"

	apperrors "github.com/catalogwatcher/catalog-watcher/internal/pkg/errors"
)

// GetStatistics returns an aggregate snapshot across every table, used by
// the introspection HTTP surface and operator CLI commands.
func (s *Store) GetStatistics(ctx context.Context) (*Statistics, error) {
	var stats Statistics

	queries := []struct {
		query string
		dest  *int64
	}{
		{`SELECT COUNT(*) FROM products`, &stats.TotalProducts},
		{`SELECT COUNT(*) FROM catalog_observations`, &stats.TotalObservations},
		{`SELECT COUNT(*) FROM baselines WHERE active = 1`, &stats.ActiveBaselines},
		{`SELECT COUNT(*) FROM catalog_observations WHERE lifecycle = 'pending_review'`, &stats.PendingReviewCount},
		{`SELECT COUNT(*) FROM monitoring_runs`, &stats.MonitoringRunCount},
		{`SELECT COUNT(*) FROM learned_patterns`, &stats.LearnedPatternCount},
	}

	for _, q := range queries {
		if err := s.db.QueryRowContext(ctx, q.query).Scan(q.dest); err != nil {
			return nil, apperrors.Wrap(err, apperrors.StoreUnavailable, "compute statistics")
		}
	}

	return &stats, nil
}
