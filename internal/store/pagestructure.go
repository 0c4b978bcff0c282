package store

import (
	"context"
	"database/sql"
	"time"

	apperrors "github.com/catalogwatcher/catalog-watcher/internal/pkg/errors"
)

// SavePageStructureSnapshot inserts a new page-structure fingerprint for
// retailer. Snapshots are append-only — each monitoring pass records its
// own, so DetectStructureChange always compares against the immediately
// preceding one (spec §12, grounded on page_structure_learner.py's
// save_page_snapshot).
func (s *Store) SavePageStructureSnapshot(ctx context.Context, snap *PageStructureSnapshot) (int64, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO page_structure_snapshots (
			retailer, captured_at, dom_structure_hash, visual_layout_hash, key_selectors, created_at
		) VALUES (?,?,?,?,?,?)`,
		snap.Retailer, now, snap.DOMStructureHash, snap.VisualLayoutHash, nullIfEmpty(snap.KeySelectors), now)
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.StoreUnavailable, "insert page structure snapshot")
	}
	return res.LastInsertId()
}

// LatestPageStructureSnapshot returns the most recently captured snapshot
// for retailer, or nil if none has ever been saved.
func (s *Store) LatestPageStructureSnapshot(ctx context.Context, retailer string) (*PageStructureSnapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, retailer, captured_at, dom_structure_hash, visual_layout_hash, COALESCE(key_selectors, '{}'), created_at
		FROM page_structure_snapshots
		WHERE retailer = ?
		ORDER BY captured_at DESC
		LIMIT 1`, retailer)

	var snap PageStructureSnapshot
	err := row.Scan(&snap.ID, &snap.Retailer, &snap.CapturedAt, &snap.DOMStructureHash, &snap.VisualLayoutHash, &snap.KeySelectors, &snap.CreatedAt)
	switch {
	case err == sql.ErrNoRows:
		return nil, nil
	case err != nil:
		return nil, apperrors.Wrap(err, apperrors.StoreUnavailable, "query latest page structure snapshot")
	}
	return &snap, nil
}
