package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"
)

func TestLedgerRepository_UpsertRow(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewLedgerRepository(db)
	ctx := context.Background()
	now := time.Date(2021, 3, 2, 8, 0, 0, 0, time.UTC)

	row := SheetRow{
		Sheet:          "hw1_Functionality_Autograder",
		Email:          "ada@example.edu",
		SubmissionID:   "100",
		Name:           "Ada Lovelace",
		SID:            "B001",
		SubmissionTime: "2021-03-01T20:00:00Z",
		UpdatedAt:      now,
	}
	if err := repo.UpsertRow(ctx, row); err != nil {
		t.Fatalf("UpsertRow failed: %v", err)
	}

	row.SubmissionID = "101"
	row.UpdatedAt = now.Add(time.Hour)
	if err := repo.UpsertRow(ctx, row); err != nil {
		t.Fatalf("second UpsertRow failed: %v", err)
	}

	rows, err := repo.ListRows(ctx, row.Sheet)
	if err != nil {
		t.Fatalf("ListRows failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].SubmissionID != "101" {
		t.Fatalf("expected resubmission to replace row, got %q", rows[0].SubmissionID)
	}
	if !rows[0].UpdatedAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("unexpected updated_at: %v", rows[0].UpdatedAt)
	}

	got, err := repo.GetRow(ctx, row.Sheet, row.Email)
	if err != nil {
		t.Fatalf("GetRow failed: %v", err)
	}
	if got.Name != "Ada Lovelace" {
		t.Fatalf("unexpected name: %s", got.Name)
	}

	if _, err := repo.GetRow(ctx, row.Sheet, "nobody@example.edu"); !errors.Is(err, ErrRowNotFound) {
		t.Fatalf("expected ErrRowNotFound, got %v", err)
	}
}

func TestLedgerRepository_ColumnsAndCells(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewLedgerRepository(db)
	ctx := context.Background()
	sheet := "hw1_Wheat_Autograder"

	if err := repo.UpsertRow(ctx, SheetRow{Sheet: sheet, Email: "ada@example.edu", SubmissionID: "1"}); err != nil {
		t.Fatalf("UpsertRow failed: %v", err)
	}

	for i, report := range []string{"wheat-1.arr", "wheat-2.arr", "wheat-1.arr"} {
		pos, err := repo.EnsureColumn(ctx, sheet, report)
		if err != nil {
			t.Fatalf("EnsureColumn(%s) failed: %v", report, err)
		}
		want := []int{1, 2, 1}[i]
		if pos != want {
			t.Fatalf("EnsureColumn(%s): got %d, want %d", report, pos, want)
		}
	}

	columns, err := repo.Columns(ctx, sheet)
	if err != nil {
		t.Fatalf("Columns failed: %v", err)
	}
	if len(columns) != 2 || columns[0] != "wheat-1.arr" || columns[1] != "wheat-2.arr" {
		t.Fatalf("unexpected columns: %v", columns)
	}

	if err := repo.SetCell(ctx, sheet, "ada@example.edu", "wheat-1.arr", false); err != nil {
		t.Fatalf("SetCell failed: %v", err)
	}
	if err := repo.SetCell(ctx, sheet, "ada@example.edu", "wheat-1.arr", true); err != nil {
		t.Fatalf("SetCell overwrite failed: %v", err)
	}

	cells, err := repo.Cells(ctx, sheet, "ada@example.edu")
	if err != nil {
		t.Fatalf("Cells failed: %v", err)
	}
	if len(cells) != 1 || !cells["wheat-1.arr"] {
		t.Fatalf("unexpected cells: %v", cells)
	}
}

func TestLedgerRepository_RunsInsideTransaction(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewLedgerRepository(db)
	ctx := context.Background()
	loggedAt := time.Date(2021, 3, 2, 8, 0, 0, 0, time.UTC)

	err := db.Transaction(ctx, func(tx *sql.Tx) error {
		return repo.WithTx(tx).RecordRun(ctx, LogRun{ID: "run-1", Assignment: "hw1", SubmissionID: "100", LoggedAt: loggedAt})
	})
	if err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}

	runs, err := repo.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != "run-1" || !runs[0].LoggedAt.Equal(loggedAt) {
		t.Fatalf("unexpected runs: %+v", runs)
	}
}
