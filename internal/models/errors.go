package models

import "errors"

// Error classes shared by repositories, services and handlers.
// Wrap them with context, e.g. fmt.Errorf("enrollment %w", ErrNotFound).
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)
