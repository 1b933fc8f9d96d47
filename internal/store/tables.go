package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrTableNotFound is returned when a snapshot has no table of that name.
var ErrTableNotFound = errors.New("table not found")

// Table is the flat-row contract shared with the metrics and export packages.
type Table interface {
	Header() []string
	Rows() [][]string
}

// StoredTable is a derived table read back from the store.
type StoredTable struct {
	Name    string     `json:"name" yaml:"name"`
	Columns []string   `json:"columns" yaml:"columns"`
	Data    [][]string `json:"rows" yaml:"rows"`
}

func (t StoredTable) Header() []string { return t.Columns }
func (t StoredTable) Rows() [][]string { return t.Data }

type tableRow struct {
	SnapshotID string `db:"snapshot_id"`
	Name       string `db:"name"`
	Header     string `db:"header"`
	Data       string `db:"data"`
	CreatedAt  string `db:"created_at"`
}

// SaveTables replaces the named derived tables of a snapshot.
func (s *Store) SaveTables(ctx context.Context, snapshotID string, tables map[string]Table) error {
	if _, err := s.GetSnapshot(ctx, snapshotID); err != nil {
		return err
	}

	now := time.Now().UTC().Format(timeLayout)
	rows := make([]tableRow, 0, len(tables))
	for name, t := range tables {
		header, err := json.Marshal(t.Header())
		if err != nil {
			return fmt.Errorf("encode %s header: %w", name, err)
		}
		data := t.Rows()
		if data == nil {
			data = [][]string{}
		}
		body, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("encode %s rows: %w", name, err)
		}
		rows = append(rows, tableRow{
			SnapshotID: snapshotID,
			Name:       name,
			Header:     string(header),
			Data:       string(body),
			CreatedAt:  now,
		})
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, row := range rows {
		if _, err := tx.ExecContext(ctx, tx.Rebind(
			"DELETE FROM derived_tables WHERE snapshot_id = ? AND name = ?"), snapshotID, row.Name); err != nil {
			return fmt.Errorf("replace table %s: %w", row.Name, err)
		}
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO derived_tables (snapshot_id, name, header, data, created_at)
			VALUES (:snapshot_id, :name, :header, :data, :created_at)`, row); err != nil {
			return fmt.Errorf("save table %s: %w", row.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return s.commit(ctx, fmt.Sprintf("tables for snapshot %s", snapshotID))
}

// LoadTable reads one derived table of a snapshot.
func (s *Store) LoadTable(ctx context.Context, snapshotID, name string) (StoredTable, error) {
	var row tableRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`
		SELECT snapshot_id, name, header, data, created_at
		FROM derived_tables WHERE snapshot_id = ? AND name = ?`), snapshotID, name)
	if errors.Is(err, sql.ErrNoRows) {
		return StoredTable{}, fmt.Errorf("%w: %s in snapshot %s", ErrTableNotFound, name, snapshotID)
	}
	if err != nil {
		return StoredTable{}, fmt.Errorf("get table %s: %w", name, err)
	}

	t := StoredTable{Name: row.Name}
	if err := json.Unmarshal([]byte(row.Header), &t.Columns); err != nil {
		return StoredTable{}, fmt.Errorf("decode %s header: %w", name, err)
	}
	if err := json.Unmarshal([]byte(row.Data), &t.Data); err != nil {
		return StoredTable{}, fmt.Errorf("decode %s rows: %w", name, err)
	}
	return t, nil
}

// ListTables returns the derived table names of a snapshot, sorted.
func (s *Store) ListTables(ctx context.Context, snapshotID string) ([]string, error) {
	var names []string
	err := s.db.SelectContext(ctx, &names, s.db.Rebind(`
		SELECT name FROM derived_tables WHERE snapshot_id = ? ORDER BY name`), snapshotID)
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	return names, nil
}
