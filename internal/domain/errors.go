package domain

import "errors"

// Error kinds surfaced by the services. Callers match them with errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("concurrent modification")
	ErrDependency = errors.New("dependency failure")
)
