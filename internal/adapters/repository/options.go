package repository

import (
	"time"

	"github.com/google/uuid"
)

const defaultKeyPrefix = "roster"

// settings are shared by every backend.
type settings struct {
	newID     func() string
	now       func() time.Time
	keyPrefix string
}

func newSettings(opts []Option) settings {
	s := settings{
		newID:     uuid.NewString,
		now:       func() time.Time { return time.Now().UTC() },
		keyPrefix: defaultKeyPrefix,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Option applies a configuration option to a store.
type Option func(*settings)

// WithIDFunc overrides identifier generation.
func WithIDFunc(fn func() string) Option {
	return func(s *settings) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(fn func() time.Time) Option {
	return func(s *settings) {
		if fn != nil {
			s.now = fn
		}
	}
}

// WithKeyPrefix namespaces Redis keys.
func WithKeyPrefix(prefix string) Option {
	return func(s *settings) {
		if prefix != "" {
			s.keyPrefix = prefix
		}
	}
}

