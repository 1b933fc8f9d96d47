// Package store persists roster snapshots and their derived tables in SQL.
// Three backends share one portable schema: sqlite (default, single file in
// .pulse/), dolt (a versioned Dolt repository in .pulse/pulse/, every save is
// committed) and postgres (any server reachable through pgx).
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/dolthub/driver"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/bernlabs/pulse/internal/config"
)

// ErrUnknownBackend is returned for a backend name outside config.ValidBackends.
var ErrUnknownBackend = errors.New("unknown storage backend")

const (
	sqliteFile   = "pulse.db"
	doltRepo     = "pulse"
	doltDatabase = "pulse"
)

// Options selects and locates a backend. Dir is the .pulse workspace used
// when DSN is empty for the file-based backends.
type Options struct {
	Backend string
	DSN     string
	Dir     string
}

// Store manages snapshot persistence on one backend.
type Store struct {
	db      *sqlx.DB
	backend string
	path    string
}

// Open opens or creates the store and initializes the schema.
func Open(ctx context.Context, opts Options) (*Store, error) {
	var (
		db   *sqlx.DB
		path string
		err  error
	)
	switch opts.Backend {
	case config.BackendSQLite:
		db, path, err = openSQLite(opts)
	case config.BackendDolt:
		db, path, err = openDolt(ctx, opts)
	case config.BackendPostgres:
		db, path, err = openPostgres(opts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
	if err != nil {
		return nil, err
	}

	s := &Store{db: db, backend: opts.Backend, path: path}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// OpenConfig opens the backend named by cfg inside the workspace dir.
func OpenConfig(ctx context.Context, cfg config.StorageConfig, dir string) (*Store, error) {
	return Open(ctx, Options{Backend: cfg.Backend, DSN: cfg.DSN, Dir: dir})
}

func openSQLite(opts Options) (*sqlx.DB, string, error) {
	path := opts.DSN
	if path == "" {
		if err := os.MkdirAll(opts.Dir, 0755); err != nil {
			return nil, "", fmt.Errorf("create workspace directory: %w", err)
		}
		path = filepath.Join(opts.Dir, sqliteFile)
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, "", fmt.Errorf("open sqlite db: %w", err)
	}
	// One writer keeps sqlite from returning SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, "", fmt.Errorf("set WAL mode: %w", err)
	}
	return db, path, nil
}

func openDolt(ctx context.Context, opts Options) (*sqlx.DB, string, error) {
	path := opts.DSN
	if path == "" {
		path = filepath.Join(opts.Dir, doltRepo)
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, "", fmt.Errorf("create dolt directory: %w", err)
	}

	// First, connect without a database to create it if needed
	base := fmt.Sprintf("file://%s?commitname=Pulse&commitemail=pulse@local", path)
	initDB, err := sql.Open("dolt", base)
	if err != nil {
		return nil, "", fmt.Errorf("open dolt for init: %w", err)
	}
	_, err = initDB.ExecContext(ctx, "CREATE DATABASE IF NOT EXISTS "+doltDatabase)
	initDB.Close()
	if err != nil {
		return nil, "", fmt.Errorf("create database: %w", err)
	}

	db, err := sqlx.Open("dolt", base+"&database="+doltDatabase)
	if err != nil {
		return nil, "", fmt.Errorf("open dolt db: %w", err)
	}
	return db, path, nil
}

func openPostgres(opts Options) (*sqlx.DB, string, error) {
	if opts.DSN == "" {
		return nil, "", fmt.Errorf("open postgres: %w", config.ErrMissingDataSource)
	}
	db, err := sqlx.Open("pgx", opts.DSN)
	if err != nil {
		return nil, "", fmt.Errorf("open postgres db: %w", err)
	}
	return db, opts.DSN, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying database connection for advanced operations.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Backend returns the backend name.
func (s *Store) Backend() string {
	return s.backend
}

// Path returns the database file, repository directory or DSN.
func (s *Store) Path() string {
	return s.path
}

// commit records a Dolt commit; other backends have no history to write.
func (s *Store) commit(ctx context.Context, message string) error {
	if s.backend != config.BackendDolt {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, "CALL DOLT_COMMIT('-Am', ?)", message); err != nil {
		return fmt.Errorf("dolt commit: %w", err)
	}
	return nil
}
