package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brown-cs19/autograder/internal/evaluation"
	"github.com/brown-cs19/autograder/internal/logging"
)

// TestEvalUsage is printed when test-eval gets the wrong arguments.
const TestEvalUsage = "Usage: <infile> <outfile>"

// NewTestEvalCmd converts raw test evaluations into a Gradescope report.
func NewTestEvalCmd(version string) *cobra.Command {
	env := &toolEnv{}
	cmd := newToolCmd(toolSpec{
		name:  "test-eval",
		usage: TestEvalUsage,
		short: "Grade test suite evaluations into a Gradescope report",
		long: `Read the evaluations of a student test suite against the wheat, chaff
and functionality implementations and write the graded report.`,
		args: 2,
	}, version, env)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		infile, outfile := args[0], args[1]

		evals, err := evaluation.ReadEvaluations(infile)
		if err != nil {
			return err
		}

		report := evaluation.BuildReport(evals, env.cfg.Report.Visibility)
		if err := evaluation.WriteReport(outfile, report); err != nil {
			return err
		}

		logger := logging.FromContext(cmd.Context())
		logger.Info().
			Str("infile", infile).
			Str("outfile", outfile).
			Int("evaluations", len(evals)).
			Int("tests", len(report.Tests)).
			Msg("wrote report")
		return printValue(cmd.OutOrStdout(), fmt.Sprintf("wrote output to %s", outfile))
	}
	return cmd
}
