package release

import (
	"time"

	"github.com/prsim/prsim/internal/domain/rubric"
	"github.com/prsim/prsim/pkg/logger"
)

// Option configures the Engine.
type Option func(*Engine)

// WithRubric replaces the default static rubric catalog.
func WithRubric(p rubric.Provider) Option {
	return func(e *Engine) {
		if p != nil {
			e.rubric = p
		}
	}
}

// WithMaxWait sets the default polling window per step.
func WithMaxWait(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.maxWait = d
		}
	}
}

// WithReleaseLimit bounds the accepted release text length in characters.
func WithReleaseLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.releaseLimit = n
		}
	}
}

// WithQuestionTextLimit bounds how much release text is embedded in each
// submitted question.
func WithQuestionTextLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.questionTextLimit = n
		}
	}
}

// WithLogger replaces the package logger.
func WithLogger(log logger.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}
