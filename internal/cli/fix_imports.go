package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brown-cs19/autograder/internal/logging"
	"github.com/brown-cs19/autograder/internal/prehook"
)

// FixImportsUsage is printed when fix-imports gets the wrong arguments.
const FixImportsUsage = "Usage: fix-imports --stencil <dir> [--code <file>] [--common <dir>] <file>..."

// NewFixImportsCmd rewrites drive imports in test and implementation files
// to local file imports.
func NewFixImportsCmd(version string) *cobra.Command {
	env := &toolEnv{}
	var opts prehook.Options

	cmd := newToolCmd(toolSpec{
		name:    "fix-imports",
		usage:   FixImportsUsage,
		short:   "Rewrite drive imports to local file imports",
		long:    "Rewrite my-gdrive, shared-gdrive and gdrive-js imports in each file so it runs against local copies.",
		args:    1,
		minArgs: true,
	}, version, env)

	cmd.Flags().StringVar(&opts.StencilDir, "stencil", "", "directory holding the shared stencil files")
	cmd.Flags().StringVar(&opts.CodePath, "code", "", "implementation file that -code.arr imports resolve to")
	cmd.Flags().StringVar(&opts.CommonDir, "common", "", "directory holding the -common.arr file")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if opts.StencilDir == "" {
			return &UsageError{Usage: FixImportsUsage, Err: fmt.Errorf("--stencil is required")}
		}

		logger := logging.FromContext(cmd.Context())
		out := cmd.OutOrStdout()
		for _, path := range args {
			if err := printValue(out, fmt.Sprintf("Fixing imports for '%s'", path)); err != nil {
				return err
			}
			if err := prehook.FixFile(path, opts); err != nil {
				return fmt.Errorf("fix imports for %s: %w", path, err)
			}
			logger.Debug().Str("path", path).Msg("fixed imports")
		}
		return nil
	}
	return cmd
}
