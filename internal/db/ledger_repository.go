package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrRowNotFound is returned when a sheet has no row for an email.
var ErrRowNotFound = errors.New("sheet row not found")

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// LogRun records one log-results invocation.
type LogRun struct {
	ID           string
	Assignment   string
	SubmissionID string
	LoggedAt     time.Time
}

// SheetRow is one student's line on a results sheet.
type SheetRow struct {
	Sheet          string
	Email          string
	SubmissionID   string
	Name           string
	SID            string
	SubmissionTime string
	UpdatedAt      time.Time
}

// LedgerRepository persists results sheets.
type LedgerRepository struct {
	q querier
}

// NewLedgerRepository creates a repository bound to the database.
func NewLedgerRepository(db *DB) *LedgerRepository {
	return &LedgerRepository{q: db.DB}
}

// WithTx returns a copy of the repository that runs inside tx.
func (r *LedgerRepository) WithTx(tx *sql.Tx) *LedgerRepository {
	return &LedgerRepository{q: tx}
}

// RecordRun inserts a log run.
func (r *LedgerRepository) RecordRun(ctx context.Context, run LogRun) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO log_runs (id, assignment, submission_id, logged_at)
		VALUES (?, ?, ?, ?)
	`, run.ID, run.Assignment, run.SubmissionID, run.LoggedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to insert log run: %w", err)
	}
	return nil
}

// ListRuns returns every recorded run, oldest first.
func (r *LedgerRepository) ListRuns(ctx context.Context) ([]LogRun, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, assignment, submission_id, logged_at
		FROM log_runs
		ORDER BY logged_at, rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query log runs: %w", err)
	}
	defer rows.Close()

	var runs []LogRun
	for rows.Next() {
		var run LogRun
		var loggedAt string
		if err := rows.Scan(&run.ID, &run.Assignment, &run.SubmissionID, &loggedAt); err != nil {
			return nil, fmt.Errorf("failed to scan log run: %w", err)
		}
		run.LoggedAt, _ = time.Parse(time.RFC3339Nano, loggedAt)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating log runs: %w", err)
	}
	return runs, nil
}

// UpsertRow creates or replaces the row keyed by (sheet, email).
func (r *LedgerRepository) UpsertRow(ctx context.Context, row SheetRow) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO sheet_rows (sheet, email, submission_id, name, sid, submission_time, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (sheet, email) DO UPDATE SET
			submission_id = excluded.submission_id,
			name = excluded.name,
			sid = excluded.sid,
			submission_time = excluded.submission_time,
			updated_at = excluded.updated_at
	`,
		row.Sheet,
		row.Email,
		row.SubmissionID,
		row.Name,
		row.SID,
		row.SubmissionTime,
		row.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert row for %s on %s: %w", row.Email, row.Sheet, err)
	}
	return nil
}

// GetRow fetches the row for email on sheet.
func (r *LedgerRepository) GetRow(ctx context.Context, sheet, email string) (*SheetRow, error) {
	row := SheetRow{Sheet: sheet, Email: email}
	var updatedAt string
	err := r.q.QueryRowContext(ctx, `
		SELECT submission_id, name, sid, submission_time, updated_at
		FROM sheet_rows
		WHERE sheet = ? AND email = ?
	`, sheet, email).Scan(&row.SubmissionID, &row.Name, &row.SID, &row.SubmissionTime, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRowNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get row: %w", err)
	}
	row.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &row, nil
}

// ListRows returns every row on a sheet in insertion order.
func (r *LedgerRepository) ListRows(ctx context.Context, sheet string) ([]SheetRow, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT email, submission_id, name, sid, submission_time, updated_at
		FROM sheet_rows
		WHERE sheet = ?
		ORDER BY rowid
	`, sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to query rows: %w", err)
	}
	defer rows.Close()

	var result []SheetRow
	for rows.Next() {
		row := SheetRow{Sheet: sheet}
		var updatedAt string
		if err := rows.Scan(&row.Email, &row.SubmissionID, &row.Name, &row.SID, &row.SubmissionTime, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return result, nil
}

// EnsureColumn returns the position of a report column on sheet, appending
// the column after the existing ones when it is new. Positions start at 1.
func (r *LedgerRepository) EnsureColumn(ctx context.Context, sheet, report string) (int, error) {
	var position int
	err := r.q.QueryRowContext(ctx, `
		SELECT position FROM sheet_columns WHERE sheet = ? AND report = ?
	`, sheet, report).Scan(&position)
	if err == nil {
		return position, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to look up column: %w", err)
	}

	err = r.q.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(position), 0) + 1 FROM sheet_columns WHERE sheet = ?
	`, sheet).Scan(&position)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate column: %w", err)
	}

	if _, err := r.q.ExecContext(ctx, `
		INSERT INTO sheet_columns (sheet, report, position) VALUES (?, ?, ?)
	`, sheet, report, position); err != nil {
		return 0, fmt.Errorf("failed to insert column: %w", err)
	}
	return position, nil
}

// Columns lists a sheet's report columns in position order.
func (r *LedgerRepository) Columns(ctx context.Context, sheet string) ([]string, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT report FROM sheet_columns WHERE sheet = ? ORDER BY position
	`, sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var report string
		if err := rows.Scan(&report); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		columns = append(columns, report)
	}
	return columns, rows.Err()
}

// SetCell stores whether a student passed a report.
func (r *LedgerRepository) SetCell(ctx context.Context, sheet, email, report string, passed bool) error {
	value := 0
	if passed {
		value = 1
	}
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO sheet_cells (sheet, email, report, passed)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (sheet, email, report) DO UPDATE SET passed = excluded.passed
	`, sheet, email, report, value)
	if err != nil {
		return fmt.Errorf("failed to set cell %s/%s/%s: %w", sheet, email, report, err)
	}
	return nil
}

// Cells returns a student's report results on a sheet.
func (r *LedgerRepository) Cells(ctx context.Context, sheet, email string) (map[string]bool, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT report, passed FROM sheet_cells WHERE sheet = ? AND email = ?
	`, sheet, email)
	if err != nil {
		return nil, fmt.Errorf("failed to query cells: %w", err)
	}
	defer rows.Close()

	cells := map[string]bool{}
	for rows.Next() {
		var report string
		var passed int
		if err := rows.Scan(&report, &passed); err != nil {
			return nil, fmt.Errorf("failed to scan cell: %w", err)
		}
		cells[report] = passed != 0
	}
	return cells, rows.Err()
}
