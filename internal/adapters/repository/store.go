// Package repository holds the character and game-session stores.
package repository

import (
	"context"

	"github.com/codrutul/roster/internal/domain/model"
)

// Store provides read/write access to the roster.
// Implementations are safe for concurrent use.
type Store interface {
	// Create assigns a fresh identifier and appends the character.
	Create(ctx context.Context, in model.CharacterInput) (model.Character, error)

	// List returns every character in insertion order.
	List(ctx context.Context) ([]model.Character, error)

	// Get returns one character. Returns ErrNotFound if id is unknown.
	Get(ctx context.Context, id string) (model.Character, error)

	// Update replaces every field except the identifier and creation time.
	// Returns ErrNotFound if id is unknown.
	Update(ctx context.Context, id string, in model.CharacterInput) (model.Character, error)

	// Delete removes a character. Returns ErrNotFound if id is unknown.
	Delete(ctx context.Context, id string) error

	// Count returns the number of characters.
	Count(ctx context.Context) (int, error)

	// Close releases the backend.
	Close() error
}

// SessionStore keeps game sessions.
type SessionStore interface {
	// CreateSession assigns an identifier and creation time and stores s.
	CreateSession(ctx context.Context, s model.GameSession) (model.GameSession, error)

	// GetSession returns a session. Returns ErrNotFound if id is unknown.
	GetSession(ctx context.Context, id string) (model.GameSession, error)
}

// Backend is a store that also keeps game sessions.
type Backend interface {
	Store
	SessionStore
	Name() string
}
