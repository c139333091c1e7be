package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/codrutul/roster/pkg/logger"
)

type gameSessionRequest struct {
	CharacterID string `json:"characterId"`
}

// GameSessionsHandler serves game sessions.
type GameSessionsHandler struct {
	deps   GameSessions
	logger logger.Logger
}

// NewGameSessionsHandler creates a new game sessions handler.
func NewGameSessionsHandler(deps GameSessions, log logger.Logger) *GameSessionsHandler {
	return &GameSessionsHandler{deps: deps, logger: log}
}

// HandleCreate handles POST /api/game-sessions requests.
func (h *GameSessionsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_game_session"
	var req gameSessionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	gs, err := h.deps.StartGameSession(r.Context(), req.CharacterID)
	if err != nil {
		fail(r.Context(), h.logger, w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, gs)
}

// HandleGet handles GET /api/game-sessions/{id} requests.
func (h *GameSessionsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_game_session"
	gs, err := h.deps.GetGameSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(r.Context(), h.logger, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, gs)
}
