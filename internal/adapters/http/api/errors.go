package api

import (
	"errors"
	"fmt"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
)

// Wrap tags a sentinel with the failing operation.
func Wrap(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}

// WrapKind attaches a sentinel kind to an underlying error.
func WrapKind(err, kind error) error {
	return fmt.Errorf("%w: %s", kind, err)
}
