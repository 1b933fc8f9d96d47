// Package cache provides a SQLite-backed cache of trained turnover models.
// The cache is stored in .pulse/cache.db; entries are keyed by the roster
// fingerprint and the training parameters, so a model is trained once per
// distinct input and reused across runs.
package cache

import (
	"database/sql"
	"fmt"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Cache manages the .pulse/cache.db SQLite database.
type Cache struct {
	db     *sql.DB
	dbPath string
}

// Open opens or creates the cache database in the specified .pulse directory.
// It initializes the schema if the database is new.
func Open(dir string) (*Cache, error) {
	dbPath := filepath.Join(dir, "cache.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	// Sessions write concurrently; one connection serializes them.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrent access
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	cache := &Cache{db: db, dbPath: dbPath}

	if err := cache.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return cache, nil
}

// Close closes the database connection.
func (c *Cache) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Clear removes all cached models.
func (c *Cache) Clear() error {
	_, err := c.db.Exec("DELETE FROM models")
	if err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	return nil
}

// Path returns the database file path.
func (c *Cache) Path() string {
	return c.dbPath
}

// DB returns the underlying database connection for advanced operations.
func (c *Cache) DB() *sql.DB {
	return c.db
}

// Stats returns cache statistics.
type Stats struct {
	Models int64 `json:"models" yaml:"models"`
	Bytes  int64 `json:"bytes" yaml:"bytes"`
}

// GetStats returns statistics about the cache contents.
func (c *Cache) GetStats() (*Stats, error) {
	var stats Stats

	err := c.db.QueryRow("SELECT COUNT(*), COALESCE(SUM(LENGTH(model)), 0) FROM models").
		Scan(&stats.Models, &stats.Bytes)
	if err != nil {
		return nil, fmt.Errorf("count models: %w", err)
	}

	return &stats, nil
}
