package rubric

import "errors"

// Sentinel kinds for rubric errors.
var (
	ErrInvalidCatalog     = errors.New("invalid rubric catalog")
	ErrQuestionOutOfRange = errors.New("question number out of range")
)
