package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/brown-cs19/autograder/internal/assignment"
	"github.com/brown-cs19/autograder/internal/logging"
	"github.com/brown-cs19/autograder/internal/metadata"
	"github.com/brown-cs19/autograder/internal/models"
)

// MetadataUsage is printed when a query tool gets the wrong arguments.
const MetadataUsage = "Usage: <meta_data_file>"

// NewGetAssignmentCmd prints the normalized assignment name.
func NewGetAssignmentCmd(version string) *cobra.Command {
	env := &toolEnv{}
	cmd := newToolCmd(toolSpec{
		name:  "get_assignment",
		usage: MetadataUsage,
		short: "Print the normalized assignment name",
		long:  "Print the assignment title lower-cased with its first space replaced by a hyphen.",
		args:  1,
	}, version, env)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		meta, err := loadMetadata(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		normalize := assignment.NormalizeName
		if env.cfg.Naming.HyphenateAllSpaces {
			normalize = assignment.NormalizeNameAll
		}
		return printValue(cmd.OutOrStdout(), normalize(meta.Assignment.Title))
	}
	return cmd
}

// NewGetProcessingBranchCmd prints the branch a submission is graded against.
func NewGetProcessingBranchCmd(version string) *cobra.Command {
	env := &toolEnv{}
	cmd := newToolCmd(toolSpec{
		name:  "get_processing_branch",
		usage: MetadataUsage,
		short: "Print the processing branch for the assignment",
		long:  "Print examplar while the due date is still ahead and master once it has passed.",
		args:  1,
	}, version, env)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		meta, err := loadMetadata(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		branches := assignment.Branches{
			BeforeDue: env.cfg.Branches.BeforeDue,
			AfterDue:  env.cfg.Branches.AfterDue,
		}
		now := env.cfg.Now()
		branch := assignment.ProcessingBranch(meta.Assignment.DueAt(), now, branches)
		logger := logging.FromContext(cmd.Context())
		logger.Debug().
			Time("now", now).
			Time("due", meta.Assignment.DueAt()).
			Str("branch", branch).
			Msg("selected processing branch")
		return printValue(cmd.OutOrStdout(), branch)
	}
	return cmd
}

// NewIsBeforeLateDeadlineCmd prints whether the late deadline is still ahead.
func NewIsBeforeLateDeadlineCmd(version string) *cobra.Command {
	env := &toolEnv{}
	cmd := newToolCmd(toolSpec{
		name:  "is_before_late_deadline",
		usage: MetadataUsage,
		short: "Print whether the late deadline has not yet passed",
		long:  "Print true while the late due date (or the due date when there is none) is still ahead.",
		args:  1,
	}, version, env)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		meta, err := loadMetadata(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		now := env.cfg.Now()
		before := assignment.IsBeforeLateDeadline(meta.Assignment, now)
		logger := logging.FromContext(cmd.Context())
		logger.Debug().
			Time("now", now).
			Time("deadline", meta.Assignment.EffectiveDeadline()).
			Bool("before", before).
			Msg("checked late deadline")
		return printValue(cmd.OutOrStdout(), assignment.FormatBool(before))
	}
	return cmd
}

func loadMetadata(ctx context.Context, path string) (*models.Metadata, error) {
	meta, err := metadata.Load(path)
	if err != nil {
		logger := logging.FromContext(ctx)
		logger.Debug().Err(err).Str("path", path).Msg("metadata load failed")
		return nil, err
	}
	return meta, nil
}
