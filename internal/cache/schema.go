package cache

// schemaSQL defines the SQLite schema for the cache database.
// Tables:
//   - models: serialized trained models per roster fingerprint and parameter set
const schemaSQL = `
CREATE TABLE IF NOT EXISTS models (
    fingerprint TEXT NOT NULL,        -- 800:3f9a...
    params TEXT NOT NULL,             -- canonical training parameters
    model BLOB NOT NULL,              -- JSON snapshot
    auc REAL NOT NULL DEFAULT 0,
    trained_at TEXT NOT NULL,
    PRIMARY KEY (fingerprint, params)
);

CREATE INDEX IF NOT EXISTS idx_models_trained_at ON models(trained_at DESC);
`

// initSchema creates the database tables and indexes if they don't exist.
func (c *Cache) initSchema() error {
	_, err := c.db.Exec(schemaSQL)
	return err
}
