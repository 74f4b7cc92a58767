package service

import "errors"

// Common service errors
var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned when there's a conflict (e.g., duplicate)
	ErrConflict = errors.New("resource conflict")

	// ErrInvalidTransition is returned when an estimate status change is not allowed
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrReadOnly is returned when editing an approved or view-only estimate
	ErrReadOnly = errors.New("estimate is read-only")
)
