package headline

import (
	"time"

	"github.com/prsim/prsim/pkg/logger"
)

// Option configures the Engine.
type Option func(*Engine)

// WithMaxWait sets the default polling window per step.
func WithMaxWait(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.maxWait = d
		}
	}
}

// WithAlternativeCount overrides how many alternatives are generated.
func WithAlternativeCount(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.alternatives = n
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
