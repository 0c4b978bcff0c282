package store

import (
	"context"
	"database/sql"

	apperrors "github.com/catalogwatcher/catalog-watcher/internal/pkg/errors"
)

// CreateBaseline atomically deactivates the prior active baseline (if
// any) for (retailer, category) and inserts the new one as active, and
// transitions the superseded pending observations into the baseline
// lifecycle — all within a single transaction, so concurrent readers
// never observe a partial rotation (spec §4.1, invariant P1).
func (s *Store) CreateBaseline(ctx context.Context, b *Baseline) (int64, error) {
	var id int64

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			UPDATE baselines SET active = 0 WHERE retailer = ? AND category = ? AND active = 1`,
			b.Retailer, b.Category); err != nil {
			return apperrors.Wrap(err, apperrors.StoreUnavailable, "deactivate prior baseline")
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO baselines (retailer, category, captured_at, pages_walked, observation_count, crawler_metadata, active)
			VALUES (?,?,?,?,?,?,1)`,
			b.Retailer, b.Category, b.CapturedAt, b.PagesWalked, b.ObservationCount, b.CrawlerMetadata)
		if err != nil {
			return apperrors.Wrap(err, apperrors.StoreUnavailable, "insert baseline")
		}

		id, err = res.LastInsertId()
		if err != nil {
			return apperrors.Wrap(err, apperrors.StoreUnavailable, "read inserted baseline id")
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE catalog_observations SET lifecycle = ?
			WHERE retailer = ? AND category = ? AND lifecycle IN (?, ?)`,
			string(LifecycleBaseline), b.Retailer, b.Category, string(LifecyclePendingReview), string(LifecycleApproved)); err != nil {
			return apperrors.Wrap(err, apperrors.StoreUnavailable, "promote observations to baseline")
		}

		return nil
	})

	return id, err
}

// DeactivatePriorBaseline marks the currently-active baseline for
// (retailer, category) inactive without creating a replacement. Exposed
// separately from CreateBaseline for callers (e.g. a manual reset) that
// need the deactivation step in isolation; CreateBaseline performs both
// steps atomically on its own.
func (s *Store) DeactivatePriorBaseline(ctx context.Context, retailer, category string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE baselines SET active = 0 WHERE retailer = ? AND category = ? AND active = 1`,
		retailer, category)
	if err != nil {
		return apperrors.Wrap(err, apperrors.StoreUnavailable, "deactivate baseline")
	}
	return nil
}

// ActiveBaseline returns the currently-active baseline for (retailer,
// category), or NotFound if none has been established yet.
func (s *Store) ActiveBaseline(ctx context.Context, retailer, category string) (*Baseline, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, retailer, category, captured_at, pages_walked, observation_count, crawler_metadata, active
		FROM baselines WHERE retailer = ? AND category = ? AND active = 1 LIMIT 1`,
		retailer, category)

	var b Baseline
	var active int
	err := row.Scan(&b.ID, &b.Retailer, &b.Category, &b.CapturedAt, &b.PagesWalked, &b.ObservationCount, &b.CrawlerMetadata, &active)
	if err == sql.ErrNoRows {
		return nil, apperrors.New(apperrors.NotFound, "no active baseline for retailer/category")
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.StoreUnavailable, "query active baseline")
	}
	b.Active = active != 0
	return &b, nil
}
