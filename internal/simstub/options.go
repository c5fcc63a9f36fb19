package simstub

import (
	"time"

	"github.com/prsim/prsim/pkg/logger"
)

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithAPIKey makes the stub reject requests without the matching key.
func WithAPIKey(key string) Option {
	return func(s *Server) {
		s.apiKey = key
	}
}

// WithQueueDelay sets how long an answer stays Queued.
func WithQueueDelay(d time.Duration) Option {
	return func(s *Server) {
		if d >= 0 {
			s.queueDelay = d
		}
	}
}

// WithRunDelay sets how long an answer stays Running after queueing.
func WithRunDelay(d time.Duration) Option {
	return func(s *Server) {
		if d >= 0 {
			s.runDelay = d
		}
	}
}

// WithFailEvery makes every nth submitted answer end as Failed; zero
// disables failures.
func WithFailEvery(n int) Option {
	return func(s *Server) {
		if n >= 0 {
			s.failEvery = n
		}
	}
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}
