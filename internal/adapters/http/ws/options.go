package ws

import (
	"time"

	"github.com/codrutul/roster/pkg/logger"
)

// Option configures a Handler.
type Option func(*Handler)

// WithAllowedOrigins sets the browser origins accepted by the handshake.
// A "*" entry accepts any origin.
func WithAllowedOrigins(origins []string) Option {
	return func(h *Handler) {
		h.allowedOrigins = append([]string(nil), origins...)
	}
}

// WithLogger sets the handler logger.
func WithLogger(l logger.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithWriteTimeout bounds each outbound frame write.
func WithWriteTimeout(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.writeTimeout = d
		}
	}
}
