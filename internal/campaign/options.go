package campaign

import "github.com/prsim/prsim/pkg/logger"

// Option configures the Engine.
type Option func(*Engine)

// WithLogger replaces the package logger.
func WithLogger(log logger.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}
