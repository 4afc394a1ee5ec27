// Package assignment derives the values the metadata query tools print.
// Every function here is pure: the caller supplies the reference time.
package assignment

import (
	"strconv"
	"strings"
	"time"

	"github.com/brown-cs19/autograder/internal/models"
)

// Default processing branch labels.
const (
	BranchExamplar = "examplar"
	BranchMaster   = "master"
)

// Branches names the labels ProcessingBranch chooses between.
type Branches struct {
	BeforeDue string
	AfterDue  string
}

// DefaultBranches returns the examplar/master pair.
func DefaultBranches() Branches {
	return Branches{BeforeDue: BranchExamplar, AfterDue: BranchMaster}
}

// NormalizeName lower-cases title and replaces only its first space with
// a hyphen. Later spaces are kept.
func NormalizeName(title string) string {
	return strings.Replace(strings.ToLower(title), " ", "-", 1)
}

// NormalizeNameAll lower-cases title and replaces every space with a hyphen.
func NormalizeNameAll(title string) string {
	return strings.ReplaceAll(strings.ToLower(title), " ", "-")
}

// ProcessingBranch picks BeforeDue while now is strictly before due and
// AfterDue otherwise.
func ProcessingBranch(due, now time.Time, branches Branches) string {
	if now.Before(due) {
		return branches.BeforeDue
	}
	return branches.AfterDue
}

// IsBeforeLateDeadline reports whether now is strictly before the
// assignment's effective deadline.
func IsBeforeLateDeadline(a models.Assignment, now time.Time) bool {
	return now.Before(a.EffectiveDeadline())
}

// FormatBool renders b as the literal text "true" or "false".
func FormatBool(b bool) string {
	return strconv.FormatBool(b)
}
