package llm

import "errors"

var (
	ErrEmptyCompletion      = errors.New("completion carried no text")
	ErrUnparsableCompletion = errors.New("completion did not contain the expected list")
)
