package store

import (
	"context"
	"database/sql"
	"time"

	apperrors "github.com/catalogwatcher/catalog-watcher/internal/pkg/errors"
)

// CreateMonitoringRun records the start of an Orchestrator invocation
// (spec §3, §4.8) and returns its ID for later UpdateMonitoringRun calls.
func (s *Store) CreateMonitoringRun(ctx context.Context, r *MonitoringRun) (int64, error) {
	if r.EndState == "" {
		r.EndState = RunStateRunning
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO monitoring_runs (run_type, retailer, category, started_at, end_state)
		VALUES (?,?,?,?,?)`,
		string(r.RunType), r.Retailer, r.Category, r.StartedAt, string(r.EndState))
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.StoreUnavailable, "insert monitoring run")
	}
	return res.LastInsertId()
}

// UpdateMonitoringRun overwrites the mutable fields of an in-flight or
// finished MonitoringRun. Counters are never destructively mutated
// elsewhere (spec §3) — this is the single place a run's row changes
// after creation.
func (s *Store) UpdateMonitoringRun(ctx context.Context, r *MonitoringRun) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE monitoring_runs SET
			ended_at = ?, products_crawled = ?, new_products = ?,
			queued_for_review = ?, end_state = ?, error_log = ?
		WHERE id = ?`,
		r.EndedAt, r.ProductsCrawled, r.NewProducts, r.QueuedForReview, string(r.EndState), r.ErrorLog, r.ID)
	if err != nil {
		return apperrors.Wrap(err, apperrors.StoreUnavailable, "update monitoring run")
	}
	return nil
}

// GetMonitoringRun looks a run up by ID.
func (s *Store) GetMonitoringRun(ctx context.Context, id int64) (*MonitoringRun, error) {
	return s.scanMonitoringRunRow(s.db.QueryRowContext(ctx, `
		SELECT id, run_type, retailer, category, started_at, ended_at,
			products_crawled, new_products, queued_for_review, end_state, error_log
		FROM monitoring_runs WHERE id = ?`, id))
}

// LatestMonitoringRun returns the most recently started run, for the
// introspection HTTP surface's /statusz route (spec §10.5).
func (s *Store) LatestMonitoringRun(ctx context.Context) (*MonitoringRun, error) {
	return s.scanMonitoringRunRow(s.db.QueryRowContext(ctx, `
		SELECT id, run_type, retailer, category, started_at, ended_at,
			products_crawled, new_products, queued_for_review, end_state, error_log
		FROM monitoring_runs ORDER BY started_at DESC, id DESC LIMIT 1`))
}

func (s *Store) scanMonitoringRunRow(row *sql.Row) (*MonitoringRun, error) {
	var r MonitoringRun
	var runType, endState string
	var endedAt sql.NullTime

	err := row.Scan(&r.ID, &runType, &r.Retailer, &r.Category, &r.StartedAt, &endedAt,
		&r.ProductsCrawled, &r.NewProducts, &r.QueuedForReview, &endState, &r.ErrorLog)
	if err == sql.ErrNoRows {
		return nil, apperrors.New(apperrors.NotFound, "monitoring run not found")
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.StoreUnavailable, "scan monitoring run")
	}

	r.RunType = RunType(runType)
	r.EndState = RunEndState(endState)
	if endedAt.Valid {
		r.EndedAt = &endedAt.Time
	}
	return &r, nil
}
