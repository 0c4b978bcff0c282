package store

import (
	"context"
	"database/sql"
	"time"

	apperrors "github.com/catalogwatcher/catalog-watcher/internal/pkg/errors"
)

// PutMarkdownCacheEntry writes or overwrites the cached markdown body for
// a URL (spec §3, §4.3).
func (s *Store) PutMarkdownCacheEntry(ctx context.Context, e *MarkdownCacheEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO markdown_cache_entries (url, canonical_url, body, captured_at)
		VALUES (?,?,?,?)
		ON CONFLICT(url) DO UPDATE SET canonical_url = excluded.canonical_url, body = excluded.body, captured_at = excluded.captured_at`,
		e.URL, e.CanonicalURL, e.Body, e.CapturedAt)
	if err != nil {
		return apperrors.Wrap(err, apperrors.StoreUnavailable, "upsert markdown cache entry")
	}
	return nil
}

// GetMarkdownCacheEntry returns the cached entry for url, or NotFound if
// absent or older than maxAge (spec §3's 2–5 day expiry window; the caller
// supplies the concrete age, per SPEC_FULL's configurable CacheTTL).
func (s *Store) GetMarkdownCacheEntry(ctx context.Context, url string, maxAge time.Duration) (*MarkdownCacheEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT url, canonical_url, body, captured_at FROM markdown_cache_entries WHERE url = ?`, url)

	var e MarkdownCacheEntry
	err := row.Scan(&e.URL, &e.CanonicalURL, &e.Body, &e.CapturedAt)
	if err == sql.ErrNoRows {
		return nil, apperrors.New(apperrors.NotFound, "markdown cache entry not found")
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.StoreUnavailable, "scan markdown cache entry")
	}

	if time.Since(e.CapturedAt) > maxAge {
		return nil, apperrors.New(apperrors.NotFound, "markdown cache entry expired")
	}
	return &e, nil
}

// PruneExpiredMarkdownCacheEntries deletes every entry older than maxAge,
// returning the number of rows removed.
func (s *Store) PruneExpiredMarkdownCacheEntries(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-maxAge)
	res, err := s.db.ExecContext(ctx, `DELETE FROM markdown_cache_entries WHERE captured_at < ?`, cutoff)
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.StoreUnavailable, "prune markdown cache")
	}
	return res.RowsAffected()
}
