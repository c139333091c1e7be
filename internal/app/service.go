// Package service provides the roster service that implements the
// dependencies required by the HTTP and socket layers.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/codrutul/roster/internal/adapters/broadcast"
	"github.com/codrutul/roster/internal/adapters/repository"
	"github.com/codrutul/roster/internal/domain/autogen"
	"github.com/codrutul/roster/internal/domain/generator"
	"github.com/codrutul/roster/internal/domain/model"
	"github.com/codrutul/roster/internal/domain/stats"
	"github.com/codrutul/roster/pkg/logger"
	"github.com/codrutul/roster/pkg/metrics"
)

const defaultGridSize = 20

// Mutation sources used in metrics and logs.
const (
	SourceAPI     = "api"
	SourceAutogen = "autogen"
	SourceSeed    = "seed"
)

// Error kinds surfaced to the transport layers.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = repository.ErrNotFound
)

// Service applies roster mutations and keeps subscribers up to date.
type Service struct {
	mu      sync.RWMutex
	started bool

	store    repository.Store
	sessions repository.SessionStore
	hub      *broadcast.Hub
	synth    *generator.Synthesizer

	autogenInterval time.Duration
	gridSize        int
	seedRoster      bool

	// pubMu serializes stats publication and subscription snapshots so a
	// subscriber never sees an older snapshot after a newer one.
	pubMu sync.Mutex

	logger logger.Logger
}

// New constructs a Service. Without options it runs on an in-memory store.
func New(opts ...Option) *Service {
	s := &Service{
		autogenInterval: autogen.DefaultInterval,
		gridSize:        defaultGridSize,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.store == nil {
		mem := repository.NewMemoryStore()
		s.store = mem
		if s.sessions == nil {
			s.sessions = mem
		}
	}
	if s.sessions == nil {
		s.sessions = repository.NewMemoryStore()
	}
	if s.hub == nil {
		s.hub = broadcast.NewHub(broadcast.WithLogger(s.logger.Named("broadcast")))
	}
	if s.synth == nil {
		s.synth = generator.New()
	}
	return s
}

// Start seeds the roster when configured to and marks the service as running.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting roster service...")

	if s.seedRoster {
		if err := s.seed(ctx); err != nil {
			return fmt.Errorf("seed roster: %w", err)
		}
	}

	s.started = true
	s.logger.Info(ctx, "roster service started",
		logger.String("backend", s.backendName()),
		logger.Duration("autogenInterval", s.autogenInterval),
		logger.Int("gridSize", s.gridSize),
	)
	return nil
}

func (s *Service) seed(ctx context.Context) error {
	n, err := s.store.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Info(ctx, "roster not empty, skipping seed", logger.Int("characters", n))
		return nil
	}
	for _, in := range generator.SampleRoster() {
		if _, err := s.store.Create(ctx, in); err != nil {
			return err
		}
		metrics.RecordMutation("create", SourceSeed)
	}
	s.logger.Info(ctx, "roster seeded", logger.Int("characters", len(generator.SampleRoster())))
	return nil
}

// Stop disconnects every subscriber and closes the stores.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping roster service...")

	s.hub.Close()
	if err := s.store.Close(); err != nil {
		s.logger.Error(ctx, "error closing store", logger.Error(err))
	}
	if closer, ok := s.sessions.(interface{ Close() error }); ok && any(s.sessions) != any(s.store) {
		if err := closer.Close(); err != nil {
			s.logger.Error(ctx, "error closing session store", logger.Error(err))
		}
	}

	s.started = false
	s.logger.Info(ctx, "roster service stopped")
}

// ListCharacters returns the roster in insertion order.
func (s *Service) ListCharacters(ctx context.Context) ([]model.Character, error) {
	return s.store.List(ctx)
}

// GetCharacter returns one character.
func (s *Service) GetCharacter(ctx context.Context, id string) (model.Character, error) {
	return s.store.Get(ctx, id)
}

// CreateCharacter validates and stores a character, then publishes fresh stats.
func (s *Service) CreateCharacter(ctx context.Context, in model.CharacterInput) (model.Character, error) {
	c, err := s.create(ctx, in, SourceAPI)
	if err != nil {
		return model.Character{}, err
	}
	s.publishStats(ctx)
	return c, nil
}

// create validates and stores one character on behalf of source.
func (s *Service) create(ctx context.Context, in model.CharacterInput, source string) (model.Character, error) {
	if err := in.Validate(); err != nil {
		return model.Character{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	c, err := s.store.Create(ctx, in)
	if err != nil {
		s.logger.Error(ctx, "create character failed", logger.String("source", source), logger.Error(err))
		return model.Character{}, err
	}
	metrics.RecordMutation("create", source)
	s.logger.Debug(ctx, "character created",
		logger.String("id", c.ID),
		logger.String("class", string(c.Class)),
		logger.String("source", source),
	)
	return c, nil
}

// UpdateCharacter replaces a character, then publishes fresh stats.
func (s *Service) UpdateCharacter(ctx context.Context, id string, in model.CharacterInput) (model.Character, error) {
	if err := in.Validate(); err != nil {
		return model.Character{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	c, err := s.store.Update(ctx, id, in)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Error(ctx, "update character failed", logger.String("id", id), logger.Error(err))
		}
		return model.Character{}, err
	}
	metrics.RecordMutation("update", SourceAPI)

	s.publishStats(ctx)
	return c, nil
}

// DeleteCharacter removes a character, then publishes fresh stats.
func (s *Service) DeleteCharacter(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Error(ctx, "delete character failed", logger.String("id", id), logger.Error(err))
		}
		return err
	}
	metrics.RecordMutation("delete", SourceAPI)

	s.publishStats(ctx)
	return nil
}

// Stats computes the per-class summaries of the current roster.
func (s *Service) Stats(ctx context.Context) ([]model.ClassSummary, error) {
	chars, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	return stats.Compute(chars), nil
}

// AutoGenerate synthesizes and stores one character, then notifies
// subscribers with characterCreated followed by statsUpdate.
func (s *Service) AutoGenerate(ctx context.Context) (model.Character, error) {
	c, err := s.create(ctx, s.synth.Character(), SourceAutogen)
	if err != nil {
		return model.Character{}, err
	}

	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	pubCtx := context.WithoutCancel(ctx)
	if f, err := model.NewFrame(model.EventCharacterCreated, c); err == nil {
		s.hub.Publish(pubCtx, f)
	}
	s.publishStatsLocked(pubCtx)
	return c, nil
}

// NewAutoGenerator returns an idle per-connection generator feeding AutoGenerate.
func (s *Service) NewAutoGenerator() *autogen.Generator {
	return autogen.New(func(ctx context.Context) error {
		_, err := s.AutoGenerate(ctx)
		return err
	},
		autogen.WithInterval(s.autogenInterval),
		autogen.WithLogger(s.logger.Named("autogen")),
	)
}

// Subscribe registers a subscriber and queues the current stats snapshot for it.
func (s *Service) Subscribe(ctx context.Context) (*broadcast.Subscriber, error) {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	f, err := s.statsFrame(ctx)
	if err != nil {
		return nil, err
	}
	sub := s.hub.Subscribe()
	s.hub.Send(ctx, sub, f)
	return sub, nil
}

// Unsubscribe removes a subscriber and closes its queue.
func (s *Service) Unsubscribe(sub *broadcast.Subscriber) {
	s.hub.Unsubscribe(sub)
}

// RequestStats queues a fresh stats snapshot for one subscriber.
func (s *Service) RequestStats(ctx context.Context, sub *broadcast.Subscriber) error {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	f, err := s.statsFrame(ctx)
	if err != nil {
		return err
	}
	s.hub.Send(ctx, sub, f)
	return nil
}

// StartGameSession places an existing character at a random grid cell.
func (s *Service) StartGameSession(ctx context.Context, characterID string) (model.GameSession, error) {
	if strings.TrimSpace(characterID) == "" {
		return model.GameSession{}, fmt.Errorf("%w: missing characterId", ErrValidation)
	}
	c, err := s.store.Get(ctx, characterID)
	if err != nil {
		return model.GameSession{}, fmt.Errorf("start game session: %w", err)
	}
	gs, err := s.sessions.CreateSession(ctx, model.GameSession{
		CharacterID:   c.ID,
		CharacterName: c.Name,
		Position:      s.synth.GridPosition(s.gridSize),
	})
	if err != nil {
		s.logger.Error(ctx, "create game session failed", logger.Error(err))
		return model.GameSession{}, err
	}
	return gs, nil
}

// GetGameSession returns a game session.
func (s *Service) GetGameSession(ctx context.Context, id string) (model.GameSession, error) {
	return s.sessions.GetSession(ctx, id)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := map[string]interface{}{
		"started":           s.started,
		"backend":           s.backendName(),
		"subscribers":       s.hub.Len(),
		"gridSize":          s.gridSize,
		"autogenIntervalMs": s.autogenInterval.Milliseconds(),
	}
	if s.started {
		if n, err := s.store.Count(context.Background()); err == nil {
			out["characters"] = n
			metrics.UpdateRosterSize(n)
		}
	}
	return out
}

func (s *Service) backendName() string {
	if named, ok := s.store.(interface{ Name() string }); ok {
		return named.Name()
	}
	return "custom"
}

// publishStats broadcasts the summaries of the current roster.
func (s *Service) publishStats(ctx context.Context) {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	s.publishStatsLocked(context.WithoutCancel(ctx))
}

func (s *Service) publishStatsLocked(ctx context.Context) {
	f, err := s.statsFrame(ctx)
	if err != nil {
		s.logger.Error(ctx, "stats publish skipped", logger.Error(err))
		return
	}
	res := s.hub.Publish(ctx, f)
	if res.Dropped > 0 {
		s.logger.Debug(ctx, "stats frame dropped for slow subscribers", logger.Int("dropped", res.Dropped))
	}
}

// statsFrame recomputes summaries from the store and refreshes the roster gauges.
func (s *Service) statsFrame(ctx context.Context) (model.Frame, error) {
	chars, err := s.store.List(ctx)
	if err != nil {
		return model.Frame{}, fmt.Errorf("list for stats: %w", err)
	}
	summaries := stats.Compute(chars)
	metrics.UpdateRosterSize(len(chars))
	metrics.UpdateClassMembers(stats.Counts(summaries))
	return model.NewFrame(model.EventStatsUpdate, summaries)
}
