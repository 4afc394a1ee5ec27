// Package config handles autograder tool configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/brown-cs19/autograder/internal/assignment"
	"github.com/brown-cs19/autograder/internal/logging"
	"github.com/brown-cs19/autograder/internal/models"
)

// Default branch labels chosen by get_processing_branch.
const (
	DefaultBranchBeforeDue = assignment.BranchExamplar
	DefaultBranchAfterDue  = assignment.BranchMaster
)

// Gradescope result visibility values.
const (
	VisibilityHidden         = "hidden"
	VisibilityAfterDue       = "after_due_date"
	VisibilityAfterPublished = "after_published"
	VisibilityVisible        = "visible"
)

// Config is the root configuration structure for the autograder tools.
type Config struct {
	// Global settings
	Global GlobalConfig `yaml:"global" mapstructure:"global"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`

	// Naming controls how assignment titles are normalized.
	Naming NamingConfig `yaml:"naming" mapstructure:"naming"`

	// Branches holds the labels printed by get_processing_branch.
	Branches BranchConfig `yaml:"branches" mapstructure:"branches"`

	// Clock pins the reference time for deadline checks.
	Clock ClockConfig `yaml:"clock" mapstructure:"clock"`

	// Ledger settings for log-results.
	Ledger LedgerConfig `yaml:"ledger" mapstructure:"ledger"`

	// Report settings for test-eval.
	Report ReportConfig `yaml:"report" mapstructure:"report"`
}

// GlobalConfig contains global settings.
type GlobalConfig struct {
	// DataDir is where the tools keep persistent data (default: ~/.local/share/autograder).
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" mapstructure:"level"`

	// Format is the output format (json, console).
	Format string `yaml:"format" mapstructure:"format"`

	// EnableCaller adds caller information to logs.
	EnableCaller bool `yaml:"enable_caller" mapstructure:"enable_caller"`
}

// NamingConfig controls assignment name normalization.
type NamingConfig struct {
	// HyphenateAllSpaces replaces every space instead of only the first.
	HyphenateAllSpaces bool `yaml:"hyphenate_all_spaces" mapstructure:"hyphenate_all_spaces"`
}

// BranchConfig holds the processing branch labels.
type BranchConfig struct {
	// BeforeDue is printed while the due date is still in the future.
	BeforeDue string `yaml:"before_due" mapstructure:"before_due"`

	// AfterDue is printed once the due date has passed.
	AfterDue string `yaml:"after_due" mapstructure:"after_due"`
}

// ClockConfig overrides the wall clock.
type ClockConfig struct {
	// Now is an RFC 3339 timestamp used instead of the current time.
	Now string `yaml:"now" mapstructure:"now"`
}

// LedgerConfig contains result ledger settings.
type LedgerConfig struct {
	// Path is the SQLite database file path.
	Path string `yaml:"path" mapstructure:"path"`

	// BusyTimeoutMs is how long to wait for a locked database (milliseconds).
	BusyTimeoutMs int `yaml:"busy_timeout_ms" mapstructure:"busy_timeout_ms"`
}

// ReportConfig contains Gradescope report settings.
type ReportConfig struct {
	// Visibility applies to the report and to each test entry.
	Visibility string `yaml:"visibility" mapstructure:"visibility"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Global: GlobalConfig{
			DataDir: filepath.Join(homeDir, ".local", "share", "autograder"),
		},
		Logging: LoggingConfig{
			Level:        "warn",
			Format:       "console",
			EnableCaller: false,
		},
		Branches: BranchConfig{
			BeforeDue: DefaultBranchBeforeDue,
			AfterDue:  DefaultBranchAfterDue,
		},
		Ledger: LedgerConfig{
			Path:          "", // Will be set to DataDir/results.db
			BusyTimeoutMs: 5000,
		},
		Report: ReportConfig{
			Visibility: VisibilityAfterPublished,
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	validation := &models.ValidationErrors{}

	if !logging.ValidLevel(c.Logging.Level) {
		validation.AddMessage("logging.level", fmt.Sprintf("unknown level %q", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		validation.AddMessage("logging.format", "must be one of console, json")
	}

	if c.Branches.BeforeDue == "" {
		validation.Add("branches.before_due", models.ErrFieldRequired)
	}
	if c.Branches.AfterDue == "" {
		validation.Add("branches.after_due", models.ErrFieldRequired)
	}

	if c.Clock.Now != "" {
		if _, err := time.Parse(time.RFC3339Nano, c.Clock.Now); err != nil {
			validation.AddMessage("clock.now", "must be an RFC 3339 timestamp")
		}
	}

	if c.Ledger.BusyTimeoutMs < 0 {
		validation.AddMessage("ledger.busy_timeout_ms", "must not be negative")
	}

	switch c.Report.Visibility {
	case VisibilityHidden, VisibilityAfterDue, VisibilityAfterPublished, VisibilityVisible:
	default:
		validation.AddMessage("report.visibility", "must be one of hidden, after_due_date, after_published, visible")
	}

	return validation.Err()
}

// Now returns the pinned clock time when configured, otherwise the current time.
func (c *Config) Now() time.Time {
	if c.Clock.Now != "" {
		if t, err := time.Parse(time.RFC3339Nano, c.Clock.Now); err == nil {
			return t
		}
	}
	return time.Now()
}

// EnsureDirectories creates required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Global.DataDir,
		filepath.Dir(c.LedgerPath()),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// LedgerPath returns the full ledger database path.
func (c *Config) LedgerPath() string {
	if c.Ledger.Path != "" {
		return c.Ledger.Path
	}
	return filepath.Join(c.Global.DataDir, "results.db")
}

// LoggingInit converts the logging section for logging.Init.
func (c *Config) LoggingInit() logging.Config {
	return logging.Config{
		Level:        c.Logging.Level,
		Format:       c.Logging.Format,
		EnableCaller: c.Logging.EnableCaller,
	}
}
