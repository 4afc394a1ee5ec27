package metadata

import (
	"fmt"

	"github.com/brown-cs19/autograder/internal/models"
)

// IOError reports a metadata file that could not be read.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// ParseError reports metadata that is not valid JSON.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("parse metadata: %v", e.Err)
	}
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// SchemaError reports valid JSON that does not have the expected shape.
type SchemaError struct {
	Path   string
	Fields *models.ValidationErrors
}

func (e *SchemaError) Error() string {
	prefix := "invalid metadata"
	if e.Path != "" {
		prefix = "invalid metadata in " + e.Path
	}
	return fmt.Sprintf("%s: %v", prefix, e.Fields)
}

func (e *SchemaError) Unwrap() error { return e.Fields }

func schemaError(path string, fields *models.ValidationErrors) error {
	if fields.Len() == 0 {
		return nil
	}
	return &SchemaError{Path: path, Fields: fields}
}
