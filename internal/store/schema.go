package store

import (
	"context"
	"fmt"
)

// schema is executed one statement at a time; the column types are the
// subset understood by sqlite, Dolt (MySQL dialect) and Postgres alike.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS snapshots (
    id VARCHAR(36) PRIMARY KEY,
    label VARCHAR(255) NOT NULL,
    seed VARCHAR(20) NOT NULL,         -- uint64 does not fit BIGINT
    fingerprint VARCHAR(64) NOT NULL,
    employee_count INTEGER NOT NULL,
    created_at VARCHAR(40) NOT NULL    -- fixed-width UTC, sorts lexically
)`,
	`CREATE TABLE IF NOT EXISTS employees (
    snapshot_id VARCHAR(36) NOT NULL,
    id VARCHAR(16) NOT NULL,
    seq INTEGER NOT NULL,              -- roster order, fingerprints depend on it
    name VARCHAR(255) NOT NULL,
    department VARCHAR(64) NOT NULL,
    level VARCHAR(32) NOT NULL,
    generation VARCHAR(32) NOT NULL,
    birth_year INTEGER NOT NULL,
    age INTEGER NOT NULL,
    tenure_years DOUBLE PRECISION NOT NULL,
    hire_date VARCHAR(10) NOT NULL,
    salary INTEGER NOT NULL,
    engagement DOUBLE PRECISION NOT NULL,
    performance DOUBLE PRECISION NOT NULL,
    risk DOUBLE PRECISION,             -- active only
    status VARCHAR(16) NOT NULL,
    separation_type VARCHAR(16),       -- separated only
    separation_date VARCHAR(10),       -- separated only
    trend VARCHAR(16) NOT NULL,
    PRIMARY KEY (snapshot_id, id)
)`,
	`CREATE TABLE IF NOT EXISTS derived_tables (
    snapshot_id VARCHAR(36) NOT NULL,
    name VARCHAR(64) NOT NULL,
    header TEXT NOT NULL,              -- JSON array
    data TEXT NOT NULL,                -- JSON array of rows
    created_at VARCHAR(40) NOT NULL,
    PRIMARY KEY (snapshot_id, name)
)`,
}

// initSchema creates the tables if they don't exist.
func (s *Store) initSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %.40q: %w", stmt, err)
		}
	}
	return nil
}
