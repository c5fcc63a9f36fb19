package worker

import "github.com/prsim/prsim/pkg/logger"

// Option configures the Worker.
type Option func(*Worker)

// WithName labels the worker in logs.
func WithName(name string) Option {
	return func(w *Worker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger replaces the worker logger.
func WithLogger(log logger.Logger) Option {
	return func(w *Worker) {
		if log != nil {
			w.log = log
		}
	}
}
