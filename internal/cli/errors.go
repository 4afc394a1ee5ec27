package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"

	"github.com/brown-cs19/autograder/internal/evaluation"
	"github.com/brown-cs19/autograder/internal/metadata"
)

// Process exit codes.
const (
	ExitCodeOK      = 0
	ExitCodeFailure = 1
	ExitCodeUsage   = 2
	ExitCodeIO      = 3
	ExitCodeParse   = 4
	ExitCodeSchema  = 5
)

// UsageError reports a command invoked with the wrong arguments.
type UsageError struct {
	Usage string
	Err   error
}

func (e *UsageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%v)", e.Usage, e.Err)
	}
	return e.Usage
}

func (e *UsageError) Unwrap() error { return e.Err }

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int
	Err     error
	Printed bool
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitCodeOK
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	var usageErr *UsageError
	var ioErr *metadata.IOError
	var pathErr *fs.PathError
	var parseErr *metadata.ParseError
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	var schemaErr *metadata.SchemaError

	switch {
	case errors.As(err, &usageErr):
		return ExitCodeUsage
	case errors.As(err, &ioErr), errors.As(err, &pathErr):
		return ExitCodeIO
	case errors.As(err, &parseErr),
		errors.As(err, &syntaxErr),
		errors.As(err, &typeErr),
		errors.Is(err, evaluation.ErrMalformedResult):
		return ExitCodeParse
	case errors.As(err, &schemaErr):
		return ExitCodeSchema
	default:
		return ExitCodeFailure
	}
}
