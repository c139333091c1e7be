package model

import "time"

// Position is a cell on the game grid.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// GameSession places a character on the game grid.
type GameSession struct {
	ID            string    `json:"id"`
	CharacterID   string    `json:"characterId"`
	CharacterName string    `json:"characterName"`
	Position      Position  `json:"position"`
	CreatedAt     time.Time `json:"createdAt"`
}
