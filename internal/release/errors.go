package release

import "errors"

var (
	ErrEmptyRelease      = errors.New("release text is empty")
	ErrReleaseTooLong    = errors.New("release text exceeds the configured limit")
	ErrMissingPopulation = errors.New("population id is required")
	ErrJobFailed         = errors.New("job is in a failed state")
)
