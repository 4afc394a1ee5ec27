package models

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ValidationError is one failed field of a metadata document or config.
// Field is a dotted path such as "assignment.due_date" or "users[1].email";
// the empty path refers to the document itself.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (v ValidationError) Error() string {
	if v.Field == "" {
		return v.Message
	}
	return v.Field + ": " + v.Message
}

// ValidationErrors collects every failed field so a single report names
// all of them.
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// Add records err against field. Nested ValidationErrors are flattened
// with field as their path prefix; a nil err is ignored.
func (v *ValidationErrors) Add(field string, err error) {
	if err == nil {
		return
	}
	var nested *ValidationErrors
	if !errors.As(err, &nested) {
		v.Errors = append(v.Errors, ValidationError{Field: field, Message: err.Error(), Cause: err})
		return
	}
	for _, sub := range nested.Errors {
		sub.Field = joinField(field, sub.Field)
		v.Errors = append(v.Errors, sub)
	}
}

// AddIndexed records err against field of the index-th element of list,
// for example users[2].email.
func (v *ValidationErrors) AddIndexed(list string, index int, field string, err error) {
	v.Add(joinField(fmt.Sprintf("%s[%d]", list, index), field), err)
}

// AddMessage records a failure without an underlying error. An empty
// message is ignored.
func (v *ValidationErrors) AddMessage(field, message string) {
	if message != "" {
		v.Errors = append(v.Errors, ValidationError{Field: field, Message: message})
	}
}

// Len reports how many failures have been recorded.
func (v *ValidationErrors) Len() int {
	if v == nil {
		return 0
	}
	return len(v.Errors)
}

// Fields lists the failed field paths in the order they were recorded.
func (v *ValidationErrors) Fields() []string {
	fields := make([]string, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		fields = append(fields, v.Errors[i].Field)
	}
	return fields
}

// Err returns v when anything was recorded and nil otherwise.
func (v *ValidationErrors) Err() error {
	if v.Len() == 0 {
		return nil
	}
	return v
}

func (v *ValidationErrors) Error() string {
	if v.Len() == 0 {
		return "validation failed"
	}
	parts := make([]string, len(v.Errors))
	for i, failure := range v.Errors {
		parts[i] = failure.Error()
	}
	return strings.Join(parts, "; ")
}

// Is matches target against the cause of any recorded failure.
func (v *ValidationErrors) Is(target error) bool {
	if v == nil {
		return false
	}
	return slices.ContainsFunc(v.Errors, func(failure ValidationError) bool {
		return failure.Cause != nil && errors.Is(failure.Cause, target)
	})
}

func joinField(prefix, field string) string {
	if prefix == "" || field == "" {
		return prefix + field
	}
	return prefix + "." + field
}
