// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/codrutul/roster/internal/domain/model"
	"github.com/codrutul/roster/pkg/logger"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// Roster is the character surface used by the handlers.
type Roster interface {
	ListCharacters(ctx context.Context) ([]model.Character, error)
	GetCharacter(ctx context.Context, id string) (model.Character, error)
	CreateCharacter(ctx context.Context, in model.CharacterInput) (model.Character, error)
	UpdateCharacter(ctx context.Context, id string, in model.CharacterInput) (model.Character, error)
	DeleteCharacter(ctx context.Context, id string) error
	Stats(ctx context.Context) ([]model.ClassSummary, error)
}

// GameSessions is the game session surface used by the handlers.
type GameSessions interface {
	StartGameSession(ctx context.Context, characterID string) (model.GameSession, error)
	GetGameSession(ctx context.Context, id string) (model.GameSession, error)
}

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Roster
	GameSessions
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	charactersHandler *CharactersHandler
	sessionsHandler   *GameSessionsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.Get().Named("api")
	}
	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(deps, statsProvider, o.logger),
		charactersHandler: NewCharactersHandler(deps, o.logger),
		sessionsHandler:   NewGameSessionsHandler(deps, o.logger),
	}
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(_ context.Context, r chi.Router) {
	if r == nil {
		panic("router is nil")
	}

	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/status", MetricsMiddleware(s.statsHandler.HandleStatus, "status"))

	r.Route("/api", func(r chi.Router) {
		r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleClassStats, "stats"))

		r.Route("/characters", func(r chi.Router) {
			r.Get("/", MetricsMiddleware(s.charactersHandler.HandleList, "characters"))
			r.Post("/", MetricsMiddleware(s.charactersHandler.HandleCreate, "characters"))
			r.Get("/{id}", MetricsMiddleware(s.charactersHandler.HandleGet, "character"))
			r.Put("/{id}", MetricsMiddleware(s.charactersHandler.HandleUpdate, "character"))
			r.Delete("/{id}", MetricsMiddleware(s.charactersHandler.HandleDelete, "character"))
		})

		r.Post("/game-sessions", MetricsMiddleware(s.sessionsHandler.HandleCreate, "game_sessions"))
		r.Get("/game-sessions/{id}", MetricsMiddleware(s.sessionsHandler.HandleGet, "game_session"))
	})
}

// Option configures a Server.
type Option func(*options)

type options struct {
	logger logger.Logger
}

// WithLogger sets the logger used for server-side failures.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// fail writes the response for an upstream error. Server-side failures are
// logged with detail and answered with a generic message.
func fail(ctx context.Context, log logger.Logger, w http.ResponseWriter, op string, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		log.Error(ctx, "request failed", logger.String("op", op), logger.Error(err))
		writeError(w, status, code, NewKind(op, ErrInternal))
		return
	}
	writeError(w, status, code, Wrap(op, err))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return dec.Decode(v)
}
