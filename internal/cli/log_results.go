package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brown-cs19/autograder/internal/db"
	"github.com/brown-cs19/autograder/internal/ledger"
	"github.com/brown-cs19/autograder/internal/logging"
	"github.com/brown-cs19/autograder/internal/metadata"
)

// LogResultsUsage is printed when log-results gets the wrong arguments.
const LogResultsUsage = "Usage: <metadata> <results> <assignment_name>"

// NewLogResultsCmd records a graded submission in the results ledger.
func NewLogResultsCmd(version string) *cobra.Command {
	env := &toolEnv{}
	var ledgerPath string

	cmd := newToolCmd(toolSpec{
		name:  "log-results",
		usage: LogResultsUsage,
		short: "Record graded results in the results ledger",
		long: `Record one row per student on the Functionality, Wheat and Chaff sheets
of the assignment and one pass/fail cell per individual report.`,
		args: 3,
	}, version, env)

	cmd.Flags().StringVar(&ledgerPath, "ledger", "", "ledger database path (default is <data_dir>/results.db)")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		metadataPath, resultsPath, assignmentName := args[0], args[1], args[2]

		data, err := metadata.Read(metadataPath)
		if err != nil {
			return err
		}
		submission, err := metadata.DecodeSubmission(data)
		if err != nil {
			return err
		}
		results, err := ledger.ReadResults(resultsPath)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		logger := logging.FromContext(ctx)

		path := ledgerPath
		if path == "" {
			path = env.cfg.LedgerPath()
			if err := env.cfg.EnsureDirectories(); err != nil {
				logger.Warn().Err(err).Msg("failed to create directories")
			}
		}
		database, err := db.Open(db.Config{
			Path:          path,
			BusyTimeoutMs: env.cfg.Ledger.BusyTimeoutMs,
		})
		if err != nil {
			return fmt.Errorf("open ledger: %w", err)
		}
		defer database.Close()

		if err := database.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate ledger: %w", err)
		}

		service := ledger.NewService(database, ledger.WithClock(env.cfg.Now))
		summary, err := service.Log(ctx, ledger.Entry{
			Assignment: assignmentName,
			Submission: submission,
			Results:    results,
		})
		if err != nil {
			return fmt.Errorf("log results: %w", err)
		}

		logger.Info().
			Str("ledger", database.Path()).
			Str("run_id", summary.RunID).
			Int("rows", summary.Rows).
			Int("cells", summary.Cells).
			Msg("recorded submission")
		return nil
	}
	return cmd
}
