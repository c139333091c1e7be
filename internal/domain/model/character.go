// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidCharacter marks a character payload that fails presence checks.
var ErrInvalidCharacter = errors.New("invalid character")

// Class is a character archetype.
type Class string

// Known archetypes.
const (
	ClassWarrior Class = "Warrior"
	ClassRogue   Class = "Rogue"
	ClassMage    Class = "Mage"
	ClassPaladin Class = "Paladin"
)

// Classes lists the archetypes in their canonical order.
var Classes = []Class{ClassWarrior, ClassRogue, ClassMage, ClassPaladin}

// Valid reports whether c is one of the known archetypes.
func (c Class) Valid() bool {
	for _, k := range Classes {
		if c == k {
			return true
		}
	}
	return false
}

// CharacterInput holds every client-replaceable field of a character.
type CharacterInput struct {
	Name            string `json:"name"`
	Class           Class  `json:"class"`
	Level           int    `json:"level"`
	HP              int    `json:"hp"`
	Damage          int    `json:"damage"`
	Armor           int    `json:"armor"`
	MagicResistance int    `json:"magicResistance"`
	CriticalChance  int    `json:"criticalChance"`
	ImageURL        string `json:"imageUrl"`
	Description     string `json:"description"`
}

// Validate checks the required text fields, the class and that stats are non-negative.
func (in CharacterInput) Validate() error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return fmt.Errorf("%w: missing name", ErrInvalidCharacter)
	case strings.TrimSpace(string(in.Class)) == "":
		return fmt.Errorf("%w: missing class", ErrInvalidCharacter)
	case !in.Class.Valid():
		return fmt.Errorf("%w: unknown class %q", ErrInvalidCharacter, in.Class)
	case strings.TrimSpace(in.ImageURL) == "":
		return fmt.Errorf("%w: missing imageUrl", ErrInvalidCharacter)
	case strings.TrimSpace(in.Description) == "":
		return fmt.Errorf("%w: missing description", ErrInvalidCharacter)
	}
	stats := []struct {
		name string
		v    int
	}{
		{"level", in.Level}, {"hp", in.HP}, {"damage", in.Damage}, {"armor", in.Armor},
		{"magicResistance", in.MagicResistance}, {"criticalChance", in.CriticalChance},
	}
	for _, s := range stats {
		if s.v < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalidCharacter, s.name)
		}
	}
	return nil
}

// Character is a roster entry. ID is assigned by the store and never changes.
type Character struct {
	ID string `json:"id"`
	CharacterInput
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ClassSummary is the per-class aggregate pushed to subscribers.
type ClassSummary struct {
	Name      Class `json:"name"`
	Count     int   `json:"count"`
	AvgLevel  int   `json:"avgLevel"`
	AvgHP     int   `json:"avgHP"`
	AvgDamage int   `json:"avgDamage"`
	AvgArmor  int   `json:"avgArmor"`
}
