package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound          = errors.New("record not found")
	ErrAlreadyScored     = errors.New("work unit already scored")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrDuplicateEmail    = errors.New("contact email already exists")
)
