package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/codrutul/roster/internal/domain/model"
	"github.com/codrutul/roster/pkg/logger"
)

// characterRequest mirrors the OpenAPI schema for character writes.
// Numeric fields are pointers so an absent field differs from zero.
type characterRequest struct {
	Name            string `json:"name"`
	Class           string `json:"class"`
	Level           *int   `json:"level"`
	HP              *int   `json:"hp"`
	Damage          *int   `json:"damage"`
	Armor           *int   `json:"armor"`
	MagicResistance *int   `json:"magicResistance"`
	CriticalChance  *int   `json:"criticalChance"`
	ImageURL        string `json:"imageUrl"`
	Description     string `json:"description"`
}

func (c characterRequest) input() (model.CharacterInput, error) {
	for _, f := range []struct {
		name string
		v    *int
	}{
		{"level", c.Level},
		{"hp", c.HP},
		{"damage", c.Damage},
		{"armor", c.Armor},
		{"magicResistance", c.MagicResistance},
		{"criticalChance", c.CriticalChance},
	} {
		if f.v == nil {
			return model.CharacterInput{}, errors.New("missing " + f.name)
		}
	}
	return model.CharacterInput{
		Name:            c.Name,
		Class:           model.Class(c.Class),
		Level:           *c.Level,
		HP:              *c.HP,
		Damage:          *c.Damage,
		Armor:           *c.Armor,
		MagicResistance: *c.MagicResistance,
		CriticalChance:  *c.CriticalChance,
		ImageURL:        c.ImageURL,
		Description:     c.Description,
	}, nil
}

// CharactersHandler serves the character collection.
type CharactersHandler struct {
	deps   Roster
	logger logger.Logger
}

// NewCharactersHandler creates a new characters handler.
func NewCharactersHandler(deps Roster, log logger.Logger) *CharactersHandler {
	return &CharactersHandler{deps: deps, logger: log}
}

// HandleList handles GET /api/characters requests.
func (h *CharactersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_characters"
	chars, err := h.deps.ListCharacters(r.Context())
	if err != nil {
		fail(r.Context(), h.logger, w, op, err)
		return
	}
	if chars == nil {
		chars = []model.Character{}
	}
	writeJSON(w, http.StatusOK, chars)
}

// HandleGet handles GET /api/characters/{id} requests.
func (h *CharactersHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_character"
	c, err := h.deps.GetCharacter(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(r.Context(), h.logger, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// HandleCreate handles POST /api/characters requests.
func (h *CharactersHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_character"
	in, ok := h.readInput(w, r, op)
	if !ok {
		return
	}
	c, err := h.deps.CreateCharacter(r.Context(), in)
	if err != nil {
		fail(r.Context(), h.logger, w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// HandleUpdate handles PUT /api/characters/{id} requests.
func (h *CharactersHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_character"
	in, ok := h.readInput(w, r, op)
	if !ok {
		return
	}
	c, err := h.deps.UpdateCharacter(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		fail(r.Context(), h.logger, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// HandleDelete handles DELETE /api/characters/{id} requests.
func (h *CharactersHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_character"
	if err := h.deps.DeleteCharacter(r.Context(), chi.URLParam(r, "id")); err != nil {
		fail(r.Context(), h.logger, w, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CharactersHandler) readInput(w http.ResponseWriter, r *http.Request, op string) (model.CharacterInput, bool) {
	var req characterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return model.CharacterInput{}, false
	}
	in, err := req.input()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return model.CharacterInput{}, false
	}
	return in, true
}
