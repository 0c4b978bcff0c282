package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	apperrors "github.com/catalogwatcher/catalog-watcher/internal/pkg/errors"
)

// AppendObservation records one crawl-time sighting of a product (spec
// §3: CatalogObservation is append-oriented — existing rows are never
// mutated).
func (s *Store) AppendObservation(ctx context.Context, o *CatalogObservation) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO catalog_observations (
			retailer, category, product_code, url, discovered_date, title,
			price_cents, lifecycle, product_id, created_at
		) VALUES (?,?,?,?,?,?,?,?,?,?)`,
		o.Retailer, o.Category, nullIfEmpty(o.ProductCode), o.URL, o.DiscoveredDate, o.Title,
		o.PriceCents, string(o.Lifecycle), o.ProductID, time.Now().UTC(),
	)
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.StoreUnavailable, "insert catalog observation")
	}
	return res.LastInsertId()
}

// ListBaselineObservations returns every observation currently in the
// baseline lifecycle for a (retailer, category), the set new-product
// detection compares against (spec §4.1).
func (s *Store) ListBaselineObservations(ctx context.Context, retailer, category string) ([]*CatalogObservation, error) {
	rows, err := s.db.QueryContext(ctx, observationSelectColumns+`
		WHERE retailer = ? AND category = ? AND lifecycle = ?`,
		retailer, category, string(LifecycleBaseline))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.StoreUnavailable, "query baseline observations")
	}
	defer rows.Close()

	var out []*CatalogObservation
	for rows.Next() {
		o, err := scanObservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.StoreUnavailable, "iterate baseline observations")
	}
	return out, nil
}

// ListPendingReviewObservations returns every observation awaiting manual
// review across all retailers/categories, for the CLI's --pending-reviews
// flag (spec §6).
func (s *Store) ListPendingReviewObservations(ctx context.Context) ([]*CatalogObservation, error) {
	rows, err := s.db.QueryContext(ctx, observationSelectColumns+`
		WHERE lifecycle = ? ORDER BY created_at DESC`,
		string(LifecyclePendingReview))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.StoreUnavailable, "query pending-review observations")
	}
	defer rows.Close()

	var out []*CatalogObservation
	for rows.Next() {
		o, err := scanObservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.StoreUnavailable, "iterate pending-review observations")
	}
	return out, nil
}

const observationSelectColumns = `
	SELECT id, retailer, category, COALESCE(product_code, ''), url, discovered_date,
		title, price_cents, lifecycle, product_id, created_at
	FROM catalog_observations`

func scanObservation(row rowScanner) (*CatalogObservation, error) {
	var o CatalogObservation
	var lifecycle, code string
	var productID sql.NullInt64

	err := row.Scan(
		&o.ID, &o.Retailer, &o.Category, &code, &o.URL, &o.DiscoveredDate,
		&o.Title, &o.PriceCents, &lifecycle, &productID, &o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, apperrors.Wrap(err, apperrors.StoreUnavailable, "scan catalog observation row")
	}

	o.ProductCode = code
	o.Lifecycle = ObservationLifecycle(lifecycle)
	if productID.Valid {
		o.ProductID = &productID.Int64
	}
	return &o, nil
}
