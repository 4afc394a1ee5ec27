package models

import "errors"

// Field-level validation failures.
var (
	ErrFieldRequired    = errors.New("is required")
	ErrNotString        = errors.New("must be a string")
	ErrNotObject        = errors.New("must be an object")
	ErrInvalidUsers     = errors.New("must be an array of user objects")
	ErrInvalidTimestamp = errors.New("is not a valid ISO-8601 timestamp")
	ErrInvalidID        = errors.New("must be a string or a number")
)
