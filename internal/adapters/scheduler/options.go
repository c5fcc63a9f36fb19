package scheduler

import (
	"time"

	"github.com/prsim/prsim/pkg/logger"
)

// Option configures the Scheduler.
type Option func(*Scheduler)

// WithMaxWait bounds the polling window per tick-driven step.
func WithMaxWait(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.maxWait = d
		}
	}
}

// WithLogger replaces the package logger.
func WithLogger(log logger.Logger) Option {
	return func(s *Scheduler) {
		if log != nil {
			s.log = log
		}
	}
}
