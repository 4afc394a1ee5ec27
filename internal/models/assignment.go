// Package models defines the core domain types for the autograder tools.
package models

import "time"

// Metadata is the submission metadata file handed to the autograder.
type Metadata struct {
	// Assignment describes the assignment the submission belongs to.
	Assignment Assignment `json:"assignment"`
}

// Assignment holds the assignment fields the tools derive values from.
type Assignment struct {
	// Title is the human-readable assignment name.
	Title string `json:"title"`

	// DueDate is the primary deadline, as written in the file.
	DueDate string `json:"due_date"`

	// LateDueDate is the optional later deadline; nil when absent or null.
	LateDueDate *string `json:"late_due_date"`

	dueAt     time.Time
	lateDueAt *time.Time
}

// Submission carries the identity of a submission and its authors. These
// fields live at the top level of the metadata file next to "assignment".
type Submission struct {
	ID        string `json:"id"`
	CreatedAt string `json:"created_at"`
	Users     []User `json:"users"`
}

// User is one author of a submission.
type User struct {
	Name  string `json:"name"`
	SID   string `json:"sid"`
	Email string `json:"email"`
}

// NewAssignment builds an Assignment from raw field values and validates it.
func NewAssignment(title, dueDate string, lateDueDate *string) (Assignment, error) {
	a := Assignment{Title: title, DueDate: dueDate, LateDueDate: lateDueDate}
	if err := a.Validate(); err != nil {
		return Assignment{}, err
	}
	return a, nil
}

// Validate checks the required fields and caches parsed deadlines.
func (a *Assignment) Validate() error {
	validation := &ValidationErrors{}

	due, err := ParseTimestamp(a.DueDate)
	if err != nil {
		validation.Add("due_date", err)
	} else {
		a.dueAt = due
	}

	a.lateDueAt = nil
	if a.LateDueDate != nil {
		late, err := ParseTimestamp(*a.LateDueDate)
		if err != nil {
			validation.Add("late_due_date", err)
		} else {
			a.lateDueAt = &late
		}
	}

	return validation.Err()
}

// DueAt returns the parsed primary deadline.
func (a Assignment) DueAt() time.Time {
	return a.dueAt
}

// LateDueAt returns the parsed late deadline, if one is set.
func (a Assignment) LateDueAt() (time.Time, bool) {
	if a.lateDueAt == nil {
		return time.Time{}, false
	}
	return *a.lateDueAt, true
}

// EffectiveDeadline is the late deadline when set, otherwise the due date.
func (a Assignment) EffectiveDeadline() time.Time {
	if late, ok := a.LateDueAt(); ok {
		return late
	}
	return a.dueAt
}

// LateBeforeDue reports the malformed case of a late deadline that
// precedes the primary one.
func (a Assignment) LateBeforeDue() bool {
	late, ok := a.LateDueAt()
	return ok && late.Before(a.dueAt)
}

// Validate checks that the submission fields needed for result logging
// are present.
func (s Submission) Validate() error {
	validation := &ValidationErrors{}
	if s.ID == "" {
		validation.Add("id", ErrFieldRequired)
	}
	if len(s.Users) == 0 {
		validation.Add("users", ErrFieldRequired)
	}
	for i, user := range s.Users {
		if user.Email == "" {
			validation.AddIndexed("users", i, "email", ErrFieldRequired)
		}
	}
	return validation.Err()
}
