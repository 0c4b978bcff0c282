// Package store is the Persistence Store (spec §4.1): a typed API over
// products, catalog observations, baselines, monitoring runs, learned
// patterns, and the markdown cache, backed by an embedded SQLite file for
// portability. Callers never see *sql.DB or raw SQL — every operation goes
// through a method on *Store.
package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	apperrors "github.com/catalogwatcher/catalog-watcher/internal/pkg/errors"
	applog "github.com/catalogwatcher/catalog-watcher/pkg/log"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Config configures a Store.
type Config struct {
	// Path is the filesystem path to the SQLite database file. Use
	// ":memory:" for an ephemeral in-process store (tests).
	Path string
}

// Store wraps a single SQLite connection configured for the pipeline's
// single-writer access pattern: one long-lived connection, WAL mode, and
// foreign keys enforced.
type Store struct {
	db *sql.DB
}

// Open opens (creating and migrating if necessary) the database at
// cfg.Path. It returns a StoreUnavailable AppError when the file cannot
// be opened or pinged, and a broader InvalidInput/Internal AppError when
// migrations fail to apply — both leave the decision to recreate or abort
// with the caller, per spec §4.1's contract.
func Open(cfg Config) (*Store, error) {
	dsn := cfg.Path
	if dsn != ":memory:" {
		dsn = fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(on)&_pragma=synchronous(NORMAL)", cfg.Path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.StoreUnavailable, "open sqlite database")
	}

	// SQLite allows exactly one writer; the pipeline already serializes
	// writes at the application layer (Orchestrator/Change Detector), so a
	// single pooled connection avoids "database is locked" errors outright
	// rather than retrying around them.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, apperrors.Wrap(err, apperrors.StoreUnavailable, "ping sqlite database")
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	applog.WithComponent("store").WithField("path", cfg.Path).Info("persistence store opened")

	return &Store{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return apperrors.Wrap(err, apperrors.Internal, "create migration driver")
	}

	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return apperrors.Wrap(err, apperrors.Internal, "load embedded migrations")
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return apperrors.Wrap(err, apperrors.Internal, "construct migration runner")
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return apperrors.Wrap(err, apperrors.Internal, "apply migrations")
	}

	return nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Health pings the underlying connection, for the introspection HTTP
// surface's /healthz aggregation (spec §10.5).
func (s *Store) Health(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return apperrors.Wrap(err, apperrors.StoreUnavailable, "ping database")
	}
	return nil
}

// withTx runs fn inside a transaction, committing on success and rolling
// back on any error fn returns (spec §4.1: "multi-row commits use a
// single transaction").
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Wrap(err, apperrors.StoreUnavailable, "begin transaction")
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperrors.Wrap(err, apperrors.StoreUnavailable, "commit transaction")
	}

	return nil
}
