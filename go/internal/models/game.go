package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultTimerDuration is the countdown length in seconds for new games.
const DefaultTimerDuration = 15

// Game is one round's full mutable state. Every client may write it; the
// backend arbitrates nothing beyond last-write-wins.
type Game struct {
	ID uuid.UUID `json:"gameId"`
	// RoomID is nil for legacy single-game rows created before rooms existed.
	RoomID             *uuid.UUID `json:"room"`
	CurrentTeam        Team       `json:"currentTeam"`
	Board              Board      `json:"boardState"`
	CurrentQuestion    *string    `json:"currentQuestion"`
	IsQuestionRevealed bool       `json:"isQuestionRevealed"`
	TimerStartTime     *time.Time `json:"timerStartTime"`
	TimerDuration      int        `json:"timerDuration"`
	SelectedCellID     *int       `json:"selectedCellId"`
	CreatedAt          time.Time  `json:"created_at"`
}

// InRoom reports whether the game belongs to the given room.
func (g *Game) InRoom(roomID uuid.UUID) bool {
	return g.RoomID != nil && *g.RoomID == roomID
}
