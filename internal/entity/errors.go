package entity

import "errors"

// Error taxonomy shared by the repository, service and api layers.
// Callers wrap these with fmt.Errorf("%w: ...") and the api layer maps
// them to HTTP status codes with errors.Is.
var (
	ErrValidation        = errors.New("validation error")
	ErrAuth              = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrConflict          = errors.New("conflict")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrIO                = errors.New("io error")
)
