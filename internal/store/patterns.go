package store

import (
	"context"
	"database/sql"
	"time"

	apperrors "github.com/catalogwatcher/catalog-watcher/internal/pkg/errors"
)

// UpsertLearnedPattern creates a pattern row if absent, or overwrites its
// counters/confidence/timestamp in place if present. The confidence
// arithmetic itself lives in the Pattern Learner component (spec §4.2);
// this method only persists whatever the caller has already computed.
func (s *Store) UpsertLearnedPattern(ctx context.Context, p *LearnedPattern) (int64, error) {
	now := time.Now().UTC()

	var id int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM learned_patterns
		WHERE retailer = ? AND element_type = ? AND pattern_kind = ? AND pattern_payload = ?`,
		p.Retailer, string(p.ElementType), string(p.PatternKind), p.PatternPayload).Scan(&id)

	switch {
	case err == sql.ErrNoRows:
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO learned_patterns (
				retailer, element_type, pattern_kind, pattern_payload,
				success_count, failure_count, confidence, visual_hints, created_at, updated_at
			) VALUES (?,?,?,?,?,?,?,?,?,?)`,
			p.Retailer, string(p.ElementType), string(p.PatternKind), p.PatternPayload,
			p.SuccessCount, p.FailureCount, p.Confidence, nullIfEmpty(p.VisualHints), now, now)
		if err != nil {
			return 0, apperrors.Wrap(err, apperrors.StoreUnavailable, "insert learned pattern")
		}
		return res.LastInsertId()
	case err != nil:
		return 0, apperrors.Wrap(err, apperrors.StoreUnavailable, "look up learned pattern")
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE learned_patterns SET
			success_count = ?, failure_count = ?, confidence = ?, visual_hints = ?, updated_at = ?
		WHERE id = ?`,
		p.SuccessCount, p.FailureCount, p.Confidence, nullIfEmpty(p.VisualHints), now, id)
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.StoreUnavailable, "update learned pattern")
	}
	return id, nil
}

// RankedPatterns returns every pattern for (retailer, elementType) above
// minConfidence, ordered confidence descending then success count
// descending — the exact ordering getRankedPatterns needs (spec §4.2).
// Pass an empty elementType to fetch every element type for the retailer.
func (s *Store) RankedPatterns(ctx context.Context, retailer string, elementType PatternElementType, minConfidence float64) ([]*LearnedPattern, error) {
	query := `
		SELECT id, retailer, element_type, pattern_kind, pattern_payload,
			success_count, failure_count, confidence, COALESCE(visual_hints, ''), created_at, updated_at
		FROM learned_patterns
		WHERE retailer = ? AND confidence >= ?`
	args := []interface{}{retailer, minConfidence}

	if elementType != "" {
		query += ` AND element_type = ?`
		args = append(args, string(elementType))
	}
	query += ` ORDER BY confidence DESC, success_count DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.StoreUnavailable, "query ranked patterns")
	}
	defer rows.Close()

	var out []*LearnedPattern
	for rows.Next() {
		var p LearnedPattern
		var elemType, kind string
		if err := rows.Scan(&p.ID, &p.Retailer, &elemType, &kind, &p.PatternPayload,
			&p.SuccessCount, &p.FailureCount, &p.Confidence, &p.VisualHints, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, apperrors.Wrap(err, apperrors.StoreUnavailable, "scan learned pattern row")
		}
		p.ElementType = PatternElementType(elemType)
		p.PatternKind = PatternKind(kind)
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.StoreUnavailable, "iterate ranked patterns")
	}
	return out, nil
}
