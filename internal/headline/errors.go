package headline

import "errors"

var (
	ErrEmptyHeadline     = errors.New("original headline is empty")
	ErrMissingPopulation = errors.New("population id is required")
	ErrNotGenerated      = errors.New("test has no generated alternatives yet")
	ErrNotTesting        = errors.New("test is not in the testing phase")
	ErrTestFailed        = errors.New("test is in a failed state")
)
