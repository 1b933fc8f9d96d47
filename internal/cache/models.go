package cache

import (
	"database/sql"
	"fmt"
	"time"
)

// Key identifies a trained model: the roster it was fit on and the
// parameters it was fit with.
type Key struct {
	Fingerprint string
	Params      string
}

// Entry describes a cached model without its payload.
type Entry struct {
	Fingerprint string    `json:"fingerprint" yaml:"fingerprint"`
	Params      string    `json:"params" yaml:"params"`
	AUC         float64   `json:"auc" yaml:"auc"`
	Size        int       `json:"size" yaml:"size"`
	TrainedAt   time.Time `json:"trained_at" yaml:"trained_at"`
}

// PutModel stores a serialized model, replacing any previous entry.
func (c *Cache) PutModel(key Key, model []byte, auc float64) error {
	_, err := c.db.Exec(`
		INSERT OR REPLACE INTO models (fingerprint, params, model, auc, trained_at)
		VALUES (?, ?, ?, ?, ?)`,
		key.Fingerprint, key.Params, model, auc, time.Now().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("put model %s: %w", key.Fingerprint, err)
	}
	return nil
}

// GetModel retrieves a serialized model.
// Returns sql.ErrNoRows if no model is cached for key.
func (c *Cache) GetModel(key Key) ([]byte, error) {
	var model []byte
	err := c.db.QueryRow(
		"SELECT model FROM models WHERE fingerprint = ? AND params = ?",
		key.Fingerprint, key.Params).Scan(&model)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get model %s: %w", key.Fingerprint, err)
	}
	return model, nil
}

// HasModel reports whether a model is cached for key.
func (c *Cache) HasModel(key Key) (bool, error) {
	var n int
	err := c.db.QueryRow(
		"SELECT COUNT(*) FROM models WHERE fingerprint = ? AND params = ?",
		key.Fingerprint, key.Params).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check model %s: %w", key.Fingerprint, err)
	}
	return n > 0, nil
}

// DeleteModel removes every cached model for a fingerprint.
func (c *Cache) DeleteModel(fingerprint string) error {
	_, err := c.db.Exec("DELETE FROM models WHERE fingerprint = ?", fingerprint)
	if err != nil {
		return fmt.Errorf("delete model %s: %w", fingerprint, err)
	}
	return nil
}

// ListModels returns all cached entries, most recently trained first.
func (c *Cache) ListModels() ([]Entry, error) {
	rows, err := c.db.Query(`
		SELECT fingerprint, params, auc, LENGTH(model), trained_at
		FROM models ORDER BY trained_at DESC, fingerprint`)
	if err != nil {
		return nil, fmt.Errorf("query models: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var trainedAt string
		if err := rows.Scan(&e.Fingerprint, &e.Params, &e.AUC, &e.Size, &trainedAt); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		e.TrainedAt, _ = time.Parse(time.RFC3339, trainedAt)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return entries, nil
}

// PruneStale removes models whose roster fingerprint is no longer in the
// provided set, e.g. after snapshots were deleted from the store.
func (c *Cache) PruneStale(validFingerprints map[string]bool) (int, error) {
	entries, err := c.ListModels()
	if err != nil {
		return 0, err
	}

	pruned := make(map[string]bool)
	for _, entry := range entries {
		if validFingerprints[entry.Fingerprint] || pruned[entry.Fingerprint] {
			continue
		}
		if err := c.DeleteModel(entry.Fingerprint); err != nil {
			return len(pruned), err
		}
		pruned[entry.Fingerprint] = true
	}

	return len(pruned), nil
}
