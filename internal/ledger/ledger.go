// Package ledger records per-student autograder results in sheets kept in
// a local SQLite database: one sheet per assignment section, one row per
// student and one column per graded report.
package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/brown-cs19/autograder/internal/db"
	"github.com/brown-cs19/autograder/internal/logging"
	"github.com/brown-cs19/autograder/internal/models"
)

// Section groups reports on their own sheet.
type Section string

const (
	SectionFunctionality Section = "Functionality"
	SectionWheat         Section = "Wheat"
	SectionChaff         Section = "Chaff"
)

// Sections lists the sheets written for every submission, in order.
var Sections = []Section{SectionFunctionality, SectionWheat, SectionChaff}

// reportTypeIndividual marks reports that grade a single check.
const reportTypeIndividual = "Individual"

// Results is the autograder results file.
type Results struct {
	Tests []Report `json:"tests"`
}

// Report is one graded entry of the results file.
type Report struct {
	Name      string    `json:"name"`
	Score     float64   `json:"score"`
	ExtraData ExtraData `json:"extra_data"`
}

// ExtraData classifies a report.
type ExtraData struct {
	Type    string `json:"type"`
	Section string `json:"section"`
}

// Passed reports whether the entry earned any points.
func (r Report) Passed() bool {
	return r.Score > 0
}

// ReadResults loads an autograder results file.
func ReadResults(path string) (Results, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Results{}, err
	}
	var results Results
	if err := json.Unmarshal(data, &results); err != nil {
		return Results{}, fmt.Errorf("decode results in %s: %w", path, err)
	}
	return results, nil
}

// BySection keeps the individual reports and groups them by section.
func (r Results) BySection() map[Section][]Report {
	grouped := make(map[Section][]Report, len(Sections))
	for _, report := range r.Tests {
		if report.ExtraData.Type != reportTypeIndividual {
			continue
		}
		section := Section(report.ExtraData.Section)
		switch section {
		case SectionFunctionality, SectionWheat, SectionChaff:
			grouped[section] = append(grouped[section], report)
		}
	}
	return grouped
}

// SheetName is the sheet a section's results are written to.
func SheetName(assignment string, section Section) string {
	return fmt.Sprintf("%s_%s_Autograder", assignment, section)
}

// Entry is everything one log-results invocation records.
type Entry struct {
	Assignment string
	Submission models.Submission
	Results    Results
}

// Summary describes what Log wrote.
type Summary struct {
	RunID  string
	Sheets []string
	Rows   int
	Cells  int
}

// Service writes entries to the ledger.
type Service struct {
	database *db.DB
	repo     *db.LedgerRepository
	retry    db.RetryPolicy
	now      func() time.Time
	newID    func() string
	logger   zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithRetryPolicy overrides the busy-retry policy.
func WithRetryPolicy(policy db.RetryPolicy) Option {
	return func(s *Service) {
		s.retry = policy
	}
}

// WithIDGenerator overrides how run ids are generated.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		s.newID = newID
	}
}

// NewService creates a ledger service on an open, migrated database.
func NewService(database *db.DB, opts ...Option) *Service {
	s := &Service{
		database: database,
		repo:     db.NewLedgerRepository(database),
		retry:    db.DefaultRetryPolicy(),
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
		logger:   logging.Component("ledger"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Log writes one row per student on every section sheet and one cell per
// report, all in a single transaction.
func (s *Service) Log(ctx context.Context, entry Entry) (Summary, error) {
	if entry.Assignment == "" {
		return Summary{}, fmt.Errorf("assignment name is required")
	}
	if err := entry.Submission.Validate(); err != nil {
		return Summary{}, fmt.Errorf("invalid submission: %w", err)
	}

	now := s.now()
	summary := Summary{RunID: s.newID()}
	grouped := entry.Results.BySection()
	for _, section := range Sections {
		summary.Sheets = append(summary.Sheets, SheetName(entry.Assignment, section))
	}

	err := s.database.TransactionWithRetry(ctx, s.retry, func(tx *sql.Tx) error {
		repo := s.repo.WithTx(tx)
		rows, cells := 0, 0

		for _, user := range entry.Submission.Users {
			for i, section := range Sections {
				sheet := summary.Sheets[i]
				if err := repo.UpsertRow(ctx, db.SheetRow{
					Sheet:          sheet,
					Email:          user.Email,
					SubmissionID:   entry.Submission.ID,
					Name:           user.Name,
					SID:            user.SID,
					SubmissionTime: entry.Submission.CreatedAt,
					UpdatedAt:      now,
				}); err != nil {
					return err
				}
				rows++

				for _, report := range grouped[section] {
					if _, err := repo.EnsureColumn(ctx, sheet, report.Name); err != nil {
						return err
					}
					if err := repo.SetCell(ctx, sheet, user.Email, report.Name, report.Passed()); err != nil {
						return err
					}
					cells++
				}
			}
		}

		if err := repo.RecordRun(ctx, db.LogRun{
			ID:           summary.RunID,
			Assignment:   entry.Assignment,
			SubmissionID: entry.Submission.ID,
			LoggedAt:     now,
		}); err != nil {
			return err
		}

		summary.Rows, summary.Cells = rows, cells
		return nil
	})
	if err != nil {
		return Summary{}, err
	}

	s.logger.Info().
		Str("run_id", summary.RunID).
		Str("assignment", entry.Assignment).
		Str("submission_id", entry.Submission.ID).
		Int("rows", summary.Rows).
		Int("cells", summary.Cells).
		Msg("logged results")
	return summary, nil
}
