// Package cli implements the autograder command line tools.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/brown-cs19/autograder/internal/config"
	"github.com/brown-cs19/autograder/internal/logging"
)

// toolEnv holds the per-invocation state shared by a tool's hooks and its
// run function.
type toolEnv struct {
	name       string
	usage      string
	configFile string
	logLevel   string
	logFormat  string

	cfg *config.Config
}

// toolSpec describes one tool's command surface.
type toolSpec struct {
	name  string
	usage string
	short string
	long  string
	args  int
	// minArgs makes args a lower bound instead of an exact count.
	minArgs bool
}

func newToolCmd(spec toolSpec, version string, env *toolEnv) *cobra.Command {
	env.name = spec.name
	env.usage = spec.usage

	validate := exactArgs(spec.args, spec.usage)
	if spec.minArgs {
		validate = minimumArgs(spec.args, spec.usage)
	}

	cmd := &cobra.Command{
		Use:           spec.name,
		Short:         spec.short,
		Long:          spec.long,
		Args:          validate,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return env.load(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&env.configFile, "config", "", "config file (default is $HOME/.config/autograder/config.yaml)")
	flags.StringVar(&env.logLevel, "log-level", "", "override logging level (debug, info, warn, error)")
	flags.StringVar(&env.logFormat, "log-format", "", "override logging format (json, console)")

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &UsageError{Usage: spec.usage, Err: err}
	})

	return cmd
}

// load resolves configuration, initializes logging and attaches the tool
// logger to the command context. Flag values win over the config file and
// the environment.
func (e *toolEnv) load(cmd *cobra.Command) error {
	loader := config.NewLoader()
	if e.configFile != "" {
		loader.SetConfigFile(e.configFile)
	}
	if e.logLevel != "" {
		loader.Set("logging.level", e.logLevel)
	}
	if e.logFormat != "" {
		loader.Set("logging.format", e.logFormat)
	}

	cfg, err := loader.Load()
	if err != nil {
		return &ExitError{Code: ExitCodeFailure, Err: err}
	}
	e.cfg = cfg

	logCfg := cfg.LoggingInit()
	logCfg.Output = cmd.ErrOrStderr()
	logging.Init(logCfg)
	logger := logging.WithTool(e.name)
	cmd.SetContext(logging.WithContext(cmd.Context(), logger))

	if used := loader.ConfigFileUsed(); used != "" {
		logger.Debug().Str("config_file", used).Msg("loaded config file")
	}
	return nil
}

func exactArgs(n int, usage string) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if len(args) != n {
			return &UsageError{Usage: usage}
		}
		return nil
	}
}

func minimumArgs(n int, usage string) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if len(args) < n {
			return &UsageError{Usage: usage}
		}
		return nil
	}
}

// Run executes cmd with args, writing results to stdout and diagnostics to
// stderr. A failure is returned as an *ExitError that has already been
// reported on stderr.
func Run(ctx context.Context, cmd *cobra.Command, args []string, stdout, stderr io.Writer) error {
	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return nil
	}

	report(stderr, err)
	return &ExitError{Code: ExitCode(err), Err: err, Printed: true}
}

func report(w io.Writer, err error) {
	var usageErr *UsageError
	if errors.As(err, &usageErr) {
		if usageErr.Err != nil {
			fmt.Fprintf(w, "Error: %v\n", usageErr.Err)
		}
		fmt.Fprintln(w, usageErr.Usage)
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}

func printValue(w io.Writer, value string) error {
	_, err := fmt.Fprintln(w, value)
	return err
}
