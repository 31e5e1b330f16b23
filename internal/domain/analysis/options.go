package analysis

import (
	"time"

	"github.com/okian/vrai/pkg/logger"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithSink sets the persistence sink. A nil sink with persistence enabled is
// reported as an unavailable container.
func WithSink(sink Sink) Option {
	return func(e *Engine) {
		e.sink = sink
	}
}

// WithPersistence sets whether persistence is configured and valid.
func WithPersistence(enabled bool) Option {
	return func(e *Engine) {
		e.persistEnabled = enabled
	}
}

// WithLogger sets a custom logger for the engine.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithIDGenerator overrides record id generation (UUIDv4 by default).
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		if fn != nil {
			e.newID = fn
		}
	}
}

// WithClock overrides the analysis timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}
