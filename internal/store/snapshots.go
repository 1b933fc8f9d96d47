package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/bernlabs/pulse/internal/roster"
)

// ErrSnapshotNotFound is returned when no snapshot matches an id.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// timeLayout is fixed width so created_at orders correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000Z"

// Snapshot describes one persisted roster.
type Snapshot struct {
	ID          string    `json:"id" yaml:"id"`
	Label       string    `json:"label" yaml:"label"`
	Seed        uint64    `json:"seed" yaml:"seed"`
	Fingerprint string    `json:"fingerprint" yaml:"fingerprint"`
	Employees   int       `json:"employees" yaml:"employees"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
}

type snapshotRow struct {
	ID            string `db:"id"`
	Label         string `db:"label"`
	Seed          string `db:"seed"`
	Fingerprint   string `db:"fingerprint"`
	EmployeeCount int    `db:"employee_count"`
	CreatedAt     string `db:"created_at"`
}

func (r snapshotRow) snapshot() Snapshot {
	seed, _ := strconv.ParseUint(r.Seed, 10, 64)
	created, _ := time.Parse(timeLayout, r.CreatedAt)
	return Snapshot{
		ID:          r.ID,
		Label:       r.Label,
		Seed:        seed,
		Fingerprint: r.Fingerprint,
		Employees:   r.EmployeeCount,
		CreatedAt:   created,
	}
}

type employeeRow struct {
	SnapshotID     string          `db:"snapshot_id"`
	ID             string          `db:"id"`
	Seq            int             `db:"seq"`
	Name           string          `db:"name"`
	Department     string          `db:"department"`
	Level          string          `db:"level"`
	Generation     string          `db:"generation"`
	BirthYear      int             `db:"birth_year"`
	Age            int             `db:"age"`
	TenureYears    float64         `db:"tenure_years"`
	HireDate       string          `db:"hire_date"`
	Salary         int             `db:"salary"`
	Engagement     float64         `db:"engagement"`
	Performance    float64         `db:"performance"`
	Risk           sql.NullFloat64 `db:"risk"`
	Status         string          `db:"status"`
	SeparationType sql.NullString  `db:"separation_type"`
	SeparationDate sql.NullString  `db:"separation_date"`
	Trend          string          `db:"trend"`
}

func toEmployeeRow(snapshotID string, seq int, e roster.Employee) employeeRow {
	row := employeeRow{
		SnapshotID:  snapshotID,
		ID:          e.ID,
		Seq:         seq,
		Name:        e.Name,
		Department:  string(e.Department),
		Level:       string(e.Level),
		Generation:  string(e.Generation),
		BirthYear:   e.BirthYear,
		Age:         e.Age,
		TenureYears: e.TenureYears,
		HireDate:    e.HireDate.Format(time.DateOnly),
		Salary:      e.Salary,
		Engagement:  e.Engagement,
		Performance: e.Performance,
		Status:      string(e.Status),
		Trend:       string(e.Trend),
	}
	if e.Risk != nil {
		row.Risk = sql.NullFloat64{Float64: *e.Risk, Valid: true}
	}
	if e.SeparationType != nil {
		row.SeparationType = sql.NullString{String: string(*e.SeparationType), Valid: true}
	}
	if e.SeparationDate != nil {
		row.SeparationDate = sql.NullString{String: e.SeparationDate.Format(time.DateOnly), Valid: true}
	}
	return row
}

func (r employeeRow) employee() (roster.Employee, error) {
	hire, err := time.Parse(time.DateOnly, r.HireDate)
	if err != nil {
		return roster.Employee{}, fmt.Errorf("%w: %s hire_date: %v", roster.ErrInvalidRecord, r.ID, err)
	}
	e := roster.Employee{
		ID:          r.ID,
		Name:        r.Name,
		Department:  roster.Department(r.Department),
		Level:       roster.Level(r.Level),
		Generation:  roster.Generation(r.Generation),
		BirthYear:   r.BirthYear,
		Age:         r.Age,
		TenureYears: r.TenureYears,
		HireDate:    hire,
		Salary:      r.Salary,
		Engagement:  r.Engagement,
		Performance: r.Performance,
		Status:      roster.Status(r.Status),
		Trend:       roster.Trend(r.Trend),
	}
	if r.Risk.Valid {
		risk := r.Risk.Float64
		e.Risk = &risk
	}
	if r.SeparationType.Valid {
		st := roster.SeparationType(r.SeparationType.String)
		e.SeparationType = &st
	}
	if r.SeparationDate.Valid {
		date, err := time.Parse(time.DateOnly, r.SeparationDate.String)
		if err != nil {
			return roster.Employee{}, fmt.Errorf("%w: %s separation_date: %v", roster.ErrInvalidRecord, r.ID, err)
		}
		e.SeparationDate = &date
	}
	return e, nil
}

const insertEmployeeSQL = `
	INSERT INTO employees
	(snapshot_id, id, seq, name, department, level, generation, birth_year, age, tenure_years,
	 hire_date, salary, engagement, performance, risk, status, separation_type, separation_date, trend)
	VALUES
	(:snapshot_id, :id, :seq, :name, :department, :level, :generation, :birth_year, :age, :tenure_years,
	 :hire_date, :salary, :engagement, :performance, :risk, :status, :separation_type, :separation_date, :trend)`

// SaveSnapshot stores r under a new snapshot id in one transaction.
// The roster is validated first; an invalid roster is never written.
func (s *Store) SaveSnapshot(ctx context.Context, r roster.Roster, label string, seed uint64) (Snapshot, error) {
	if err := r.Validate(); err != nil {
		return Snapshot{}, fmt.Errorf("save snapshot: %w", err)
	}

	snap := Snapshot{
		ID:          uuid.NewString(),
		Label:       label,
		Seed:        seed,
		Fingerprint: r.Fingerprint(),
		Employees:   len(r),
		CreatedAt:   time.Now().UTC(),
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO snapshots (id, label, seed, fingerprint, employee_count, created_at)
		VALUES (:id, :label, :seed, :fingerprint, :employee_count, :created_at)`,
		snapshotRow{
			ID:            snap.ID,
			Label:         snap.Label,
			Seed:          strconv.FormatUint(snap.Seed, 10),
			Fingerprint:   snap.Fingerprint,
			EmployeeCount: snap.Employees,
			CreatedAt:     snap.CreatedAt.Format(timeLayout),
		})
	if err != nil {
		return Snapshot{}, fmt.Errorf("insert snapshot: %w", err)
	}

	stmt, err := tx.PrepareNamedContext(ctx, insertEmployeeSQL)
	if err != nil {
		return Snapshot{}, fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, e := range r {
		if _, err := stmt.ExecContext(ctx, toEmployeeRow(snap.ID, i, e)); err != nil {
			return Snapshot{}, fmt.Errorf("save employee %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Snapshot{}, fmt.Errorf("commit transaction: %w", err)
	}
	if err := s.commit(ctx, fmt.Sprintf("snapshot %s (%d employees)", snap.ID, snap.Employees)); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// ListSnapshots returns all snapshots, newest first.
func (s *Store) ListSnapshots(ctx context.Context) ([]Snapshot, error) {
	var rows []snapshotRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, label, seed, fingerprint, employee_count, created_at
		FROM snapshots ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}

	out := make([]Snapshot, len(rows))
	for i, row := range rows {
		out[i] = row.snapshot()
	}
	return out, nil
}

// GetSnapshot returns the snapshot with the given id.
func (s *Store) GetSnapshot(ctx context.Context, id string) (Snapshot, error) {
	var row snapshotRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`
		SELECT id, label, seed, fingerprint, employee_count, created_at
		FROM snapshots WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrSnapshotNotFound, id)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("get snapshot %s: %w", id, err)
	}
	return row.snapshot(), nil
}

// LatestSnapshot returns the most recently saved snapshot.
func (s *Store) LatestSnapshot(ctx context.Context) (Snapshot, error) {
	snaps, err := s.ListSnapshots(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	if len(snaps) == 0 {
		return Snapshot{}, fmt.Errorf("%w: store is empty", ErrSnapshotNotFound)
	}
	return snaps[0], nil
}

// LoadRoster reads the roster of a snapshot in its saved order and
// validates it, so rows edited outside pulse cannot break invariants.
func (s *Store) LoadRoster(ctx context.Context, snapshotID string) (roster.Roster, error) {
	if _, err := s.GetSnapshot(ctx, snapshotID); err != nil {
		return nil, err
	}

	var rows []employeeRow
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`
		SELECT snapshot_id, id, seq, name, department, level, generation, birth_year, age, tenure_years,
		       hire_date, salary, engagement, performance, risk, status, separation_type,
		       separation_date, trend
		FROM employees WHERE snapshot_id = ? ORDER BY seq`), snapshotID)
	if err != nil {
		return nil, fmt.Errorf("query employees: %w", err)
	}

	r := make(roster.Roster, 0, len(rows))
	for _, row := range rows {
		e, err := row.employee()
		if err != nil {
			return nil, err
		}
		r = append(r, e)
	}
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", snapshotID, err)
	}
	return r, nil
}

// DeleteSnapshot removes a snapshot with its employees and derived tables.
func (s *Store) DeleteSnapshot(ctx context.Context, id string) error {
	if _, err := s.GetSnapshot(ctx, id); err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"derived_tables", "employees"} {
		if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM "+table+" WHERE snapshot_id = ?"), id); err != nil {
			return fmt.Errorf("delete %s for %s: %w", table, id, err)
		}
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM snapshots WHERE id = ?"), id); err != nil {
		return fmt.Errorf("delete snapshot %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return s.commit(ctx, "delete snapshot "+id)
}
