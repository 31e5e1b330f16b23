package repository

import (
	"time"

	"github.com/okian/vrai/pkg/logger"
)

// Option applies a configuration option to the BadgerStore.
type Option func(*BadgerStore)

// WithPath sets the database directory. Ignored when WithInMemory(true) is set.
func WithPath(path string) Option {
	return func(s *BadgerStore) {
		s.path = path
	}
}

// WithInMemory keeps the database in memory only.
func WithInMemory(inMemory bool) Option {
	return func(s *BadgerStore) {
		s.inMemory = inMemory
	}
}

// WithContainer sets the key namespace records are stored under.
func WithContainer(name string) Option {
	return func(s *BadgerStore) {
		if name != "" {
			s.container = name
		}
	}
}

// WithWriteTimeout bounds a single Save including its retries.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *BadgerStore) {
		if d > 0 {
			s.writeTimeout = d
		}
	}
}

// WithRetry sets how often a conflicting write is attempted and the wait between attempts.
func WithRetry(attempts int, interval time.Duration) Option {
	return func(s *BadgerStore) {
		if attempts > 0 {
			s.maxAttempts = attempts
		}
		if interval >= 0 {
			s.retryInterval = interval
		}
	}
}

// WithBreaker opens the write circuit after threshold consecutive failures
// and keeps it open for timeout.
func WithBreaker(threshold int, timeout time.Duration) Option {
	return func(s *BadgerStore) {
		if threshold > 0 {
			s.breakerThreshold = uint32(threshold)
		}
		if timeout > 0 {
			s.breakerTimeout = timeout
		}
	}
}

// WithLogger sets a custom logger for the store and the database engine.
func WithLogger(l logger.Logger) Option {
	return func(s *BadgerStore) {
		if l != nil {
			s.logger = l
		}
	}
}
