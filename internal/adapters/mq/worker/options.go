package worker

import (
	"time"

	"github.com/codrutul/roster/pkg/logger"
)

// Option applies a configuration option to the FrameWriter.
type Option func(*FrameWriter)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *FrameWriter) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *FrameWriter) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithWriteTimeout bounds each sink write.
func WithWriteTimeout(d time.Duration) Option {
	return func(w *FrameWriter) {
		if d > 0 {
			w.writeTimeout = d
		}
	}
}
