// Package evaluation turns raw autograder job results into a Gradescope
// report. Each job ran one test suite against one implementation: the
// student's code, an instructor wheat (a correct implementation) or an
// instructor chaff (a deliberately buggy one).
package evaluation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrorKind classifies a job that produced no test results.
type ErrorKind string

const (
	ErrorUnknown     ErrorKind = "Unknown"
	ErrorCompilation ErrorKind = "Compilation"
	ErrorOutOfMemory ErrorKind = "OutOfMemory"
	ErrorTimeout     ErrorKind = "Timeout"
	ErrorRuntime     ErrorKind = "Runtime"
)

// Result decoding errors.
var (
	ErrMalformedResult  = errors.New("malformed result")
	ErrUnknownErrorKind = errors.New("unknown error kind")
)

func (k ErrorKind) valid() bool {
	switch k {
	case ErrorUnknown, ErrorCompilation, ErrorOutOfMemory, ErrorTimeout, ErrorRuntime:
		return true
	}
	return false
}

// Test is the outcome of a single check.
type Test struct {
	Loc    string `json:"loc"`
	Passed bool   `json:"passed"`
}

// TestBlock is a named group of checks. Error is set when the block itself
// raised before finishing.
type TestBlock struct {
	Name  string `json:"name"`
	Loc   string `json:"loc"`
	Error bool   `json:"error"`
	Tests []Test `json:"tests"`
}

// Passed counts the passing checks in the block.
func (b TestBlock) Passed() int {
	n := 0
	for _, test := range b.Tests {
		if test.Passed {
			n++
		}
	}
	return n
}

// Clean reports whether the block ran to completion with every check passing.
func (b TestBlock) Clean() bool {
	return !b.Error && b.Passed() == len(b.Tests)
}

// Result is either the test blocks a job produced or the reason it
// produced none. On the wire it is {"Ok": [...]} or {"Err": "<kind>"}.
type Result struct {
	Blocks []TestBlock
	Err    ErrorKind
}

// Ok builds a successful result.
func Ok(blocks ...TestBlock) Result {
	if blocks == nil {
		blocks = []TestBlock{}
	}
	return Result{Blocks: blocks}
}

// Failed builds an error result.
func Failed(kind ErrorKind) Result {
	return Result{Err: kind}
}

// IsErr reports whether the job failed before producing results.
func (r Result) IsErr() bool {
	return r.Err != ""
}

type wireResult struct {
	Ok  *[]TestBlock `json:"Ok,omitempty"`
	Err *ErrorKind   `json:"Err,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (r Result) MarshalJSON() ([]byte, error) {
	if r.IsErr() {
		kind := r.Err
		return json.Marshal(wireResult{Err: &kind})
	}
	blocks := r.Blocks
	if blocks == nil {
		blocks = []TestBlock{}
	}
	return json.Marshal(wireResult{Ok: &blocks})
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Result) UnmarshalJSON(data []byte) error {
	var wire wireResult
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&wire); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResult, err)
	}

	switch {
	case wire.Ok != nil && wire.Err != nil:
		return fmt.Errorf("%w: both Ok and Err are set", ErrMalformedResult)
	case wire.Err != nil:
		if !wire.Err.valid() {
			return fmt.Errorf("%w: %w %q", ErrMalformedResult, ErrUnknownErrorKind, *wire.Err)
		}
		*r = Failed(*wire.Err)
	case wire.Ok != nil:
		*r = Ok(*wire.Ok...)
	default:
		return fmt.Errorf("%w: expected Ok or Err", ErrMalformedResult)
	}
	return nil
}

// Evaluation is the record one autograder job writes.
type Evaluation struct {
	// Implementation is the path of the code under test.
	Implementation string `json:"code"`

	// TestSuite is the path of the test file that was run.
	TestSuite string `json:"tests"`

	Result Result `json:"result"`
}

// BlockSummary is the pass count of one test block.
type BlockSummary struct {
	Name   string
	Passed int
	Total  int
}

// Summary reports per-block pass counts, or the job's error kind.
func (e Evaluation) Summary() ([]BlockSummary, ErrorKind) {
	if e.Result.IsErr() {
		return nil, e.Result.Err
	}
	summaries := make([]BlockSummary, 0, len(e.Result.Blocks))
	for _, block := range e.Result.Blocks {
		summaries = append(summaries, BlockSummary{
			Name:   block.Name,
			Passed: block.Passed(),
			Total:  len(block.Tests),
		})
	}
	return summaries, ""
}

// IsWheat reports whether path names an instructor wheat.
func IsWheat(path string) bool {
	return strings.Contains(path, "wheat")
}

// IsChaff reports whether path names an instructor chaff.
func IsChaff(path string) bool {
	return strings.Contains(path, "chaff")
}

// fileName returns the last path element, as shown to students.
func fileName(path string) string {
	return filepath.Base(path)
}

// locKey is the part of a source location compared across implementations.
func locKey(loc string) string {
	if i := strings.LastIndexByte(loc, '/'); i >= 0 {
		return loc[i+1:]
	}
	return loc
}
