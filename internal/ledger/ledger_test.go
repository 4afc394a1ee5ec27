package ledger

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/brown-cs19/autograder/internal/db"
	"github.com/brown-cs19/autograder/internal/models"
)

const resultsJSON = `{
  "tests": [
    {"name": "sum", "score": 3, "extra_data": {"type": "Individual", "section": "Functionality"}},
    {"name": "product", "score": 0, "extra_data": {"type": "Individual", "section": "Functionality"}},
    {"name": "wheat-1.arr", "score": 1, "extra_data": {"type": "Individual", "section": "Wheat"}},
    {"name": "chaff-1.arr", "score": 0, "extra_data": {"type": "Individual", "section": "Chaff"}},
    {"name": "Total", "score": 4, "extra_data": {"type": "Summary", "section": "Functionality"}},
    {"name": "style", "score": 1, "extra_data": {"type": "Individual", "section": "Style"}}
  ]
}`

func setupService(t *testing.T) (*Service, *db.DB) {
	t.Helper()
	database, err := db.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	require.NoError(t, database.Migrate(context.Background()))

	now := time.Date(2021, 3, 2, 8, 0, 0, 0, time.UTC)
	ids := 0
	svc := NewService(database,
		WithClock(func() time.Time { return now }),
		WithIDGenerator(func() string {
			ids++
			return []string{"run-a", "run-b", "run-c"}[ids-1]
		}),
	)
	return svc, database
}

func readResults(t *testing.T) Results {
	t.Helper()
	path := filepath.Join(t.TempDir(), "results.json")
	require.NoError(t, os.WriteFile(path, []byte(resultsJSON), 0o644))
	results, err := ReadResults(path)
	require.NoError(t, err)
	return results
}

func TestBySectionKeepsIndividualReports(t *testing.T) {
	grouped := readResults(t).BySection()

	require.Len(t, grouped[SectionFunctionality], 2)
	require.Len(t, grouped[SectionWheat], 1)
	require.Len(t, grouped[SectionChaff], 1)
	require.Len(t, grouped, 3)
}

func TestSheetName(t *testing.T) {
	require.Equal(t, "hw1_Wheat_Autograder", SheetName("hw1", SectionWheat))
}

func TestLogWritesEverySheet(t *testing.T) {
	svc, database := setupService(t)
	ctx := context.Background()

	entry := Entry{
		Assignment: "hw1",
		Submission: models.Submission{
			ID:        "100",
			CreatedAt: "2021-03-01T20:00:00Z",
			Users: []models.User{
				{Name: "Ada Lovelace", SID: "B001", Email: "ada@example.edu"},
				{Name: "Alan Turing", SID: "B002", Email: "alan@example.edu"},
			},
		},
		Results: readResults(t),
	}

	summary, err := svc.Log(ctx, entry)
	require.NoError(t, err)
	require.Equal(t, "run-a", summary.RunID)
	require.Equal(t, []string{"hw1_Functionality_Autograder", "hw1_Wheat_Autograder", "hw1_Chaff_Autograder"}, summary.Sheets)
	require.Equal(t, 6, summary.Rows)
	require.Equal(t, 8, summary.Cells)

	repo := db.NewLedgerRepository(database)
	rows, err := repo.ListRows(ctx, "hw1_Functionality_Autograder")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "ada@example.edu", rows[0].Email)
	require.Equal(t, "B001", rows[0].SID)
	require.Equal(t, "2021-03-01T20:00:00Z", rows[0].SubmissionTime)

	columns, err := repo.Columns(ctx, "hw1_Functionality_Autograder")
	require.NoError(t, err)
	require.Equal(t, []string{"sum", "product"}, columns)

	cells, err := repo.Cells(ctx, "hw1_Functionality_Autograder", "alan@example.edu")
	require.NoError(t, err)
	require.Equal(t, map[string]bool{"sum": true, "product": false}, cells)

	cells, err = repo.Cells(ctx, "hw1_Chaff_Autograder", "ada@example.edu")
	require.NoError(t, err)
	require.Equal(t, map[string]bool{"chaff-1.arr": false}, cells)

	runs, err := repo.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, "100", runs[0].SubmissionID)
}

func TestLogResubmissionReplacesRow(t *testing.T) {
	svc, database := setupService(t)
	ctx := context.Background()

	entry := Entry{
		Assignment: "hw1",
		Submission: models.Submission{ID: "100", Users: []models.User{{Name: "Ada", Email: "ada@example.edu"}}},
		Results:    readResults(t),
	}
	_, err := svc.Log(ctx, entry)
	require.NoError(t, err)

	entry.Submission.ID = "101"
	entry.Results.Tests[0].Score = 0
	summary, err := svc.Log(ctx, entry)
	require.NoError(t, err)
	require.Equal(t, "run-b", summary.RunID)

	repo := db.NewLedgerRepository(database)
	row, err := repo.GetRow(ctx, "hw1_Functionality_Autograder", "ada@example.edu")
	require.NoError(t, err)
	require.Equal(t, "101", row.SubmissionID)

	cells, err := repo.Cells(ctx, "hw1_Functionality_Autograder", "ada@example.edu")
	require.NoError(t, err)
	require.False(t, cells["sum"])
}

func TestLogRejectsIncompleteEntries(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Log(ctx, Entry{Submission: models.Submission{ID: "1", Users: []models.User{{Email: "a@b"}}}})
	require.Error(t, err)

	_, err = svc.Log(ctx, Entry{Assignment: "hw1", Submission: models.Submission{ID: "1"}})
	require.ErrorIs(t, err, models.ErrFieldRequired)
}

func TestLogStopsOnCancelledContext(t *testing.T) {
	database, err := db.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	require.NoError(t, database.Migrate(context.Background()))

	svc := NewService(database, WithRetryPolicy(db.RetryPolicy{Attempts: 5, Backoff: time.Millisecond}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = svc.Log(ctx, Entry{
		Assignment: "hw1",
		Submission: models.Submission{ID: "1", Users: []models.User{{Email: "ada@example.edu"}}},
		Results:    readResults(t),
	})
	require.ErrorIs(t, err, context.Canceled)

	runs, err := db.NewLedgerRepository(database).ListRuns(context.Background())
	require.NoError(t, err)
	require.Empty(t, runs)
}
