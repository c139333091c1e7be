package service

import (
	"time"

	"github.com/codrutul/roster/internal/adapters/broadcast"
	"github.com/codrutul/roster/internal/adapters/repository"
	"github.com/codrutul/roster/internal/domain/generator"
	"github.com/codrutul/roster/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore sets the character store. A store that also keeps game
// sessions is used for those too unless WithSessionStore overrides it.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store == nil {
			return
		}
		s.store = store
		if ss, ok := store.(repository.SessionStore); ok && s.sessions == nil {
			s.sessions = ss
		}
	}
}

// WithSessionStore sets the game-session store.
func WithSessionStore(ss repository.SessionStore) Option {
	return func(s *Service) {
		if ss != nil {
			s.sessions = ss
		}
	}
}

// WithHub sets the subscriber hub.
func WithHub(h *broadcast.Hub) Option {
	return func(s *Service) {
		if h != nil {
			s.hub = h
		}
	}
}

// WithSynthesizer sets the random character source.
func WithSynthesizer(syn *generator.Synthesizer) Option {
	return func(s *Service) {
		if syn != nil {
			s.synth = syn
		}
	}
}

// WithAutoGenerateInterval sets the period of per-connection auto-generation.
func WithAutoGenerateInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.autogenInterval = d
		}
	}
}

// WithGridSize sets the side length of the game grid.
func WithGridSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.gridSize = n
		}
	}
}

// WithSeedRoster loads the sample roster on Start when the store is empty.
func WithSeedRoster(enabled bool) Option {
	return func(s *Service) {
		s.seedRoster = enabled
	}
}
