package gamesync

import (
	"time"

	"github.com/google/uuid"

	"github.com/huroufgame/hurouf/go/internal/models"
)

// Status describes where a synchronized view is in its lifecycle.
type Status string

const (
	// StatusLoading is the initial state while the blocking fetch runs;
	// the view renders a spinner and accepts no input.
	StatusLoading Status = "loading"
	// StatusActive means the view tracks a live game record.
	StatusActive Status = "active"
	// StatusNotFound is terminal: the requested game does not exist and
	// the view should redirect to the entry screen.
	StatusNotFound Status = "not_found"
	// StatusSessionEnded is terminal: the game was deleted and no other
	// round exists in the room.
	StatusSessionEnded Status = "session_ended"
)

// GameView is one client's in-memory projection of the shared game record.
// Scores and the turn indicator are recomputed from the board on every
// reconciliation pass, never read from stored counters.
type GameView struct {
	Status Status

	GameID uuid.UUID
	RoomID *uuid.UUID

	Board              models.Board
	CurrentTeam        models.Team
	GreenScore         int
	PurpleScore        int
	CurrentQuestion    *string
	IsQuestionRevealed bool
	TimerStartTime     *time.Time
	TimerDuration      int
	SelectedCellID     *int

	// Err carries the last fetch or apply failure for the presentation
	// layer to surface as an alert. It is never retried here.
	Err error
}

func viewFromGame(game *models.Game) GameView {
	view := GameView{
		Status:             StatusActive,
		GameID:             game.ID,
		RoomID:             game.RoomID,
		Board:              game.Board,
		CurrentTeam:        game.CurrentTeam,
		CurrentQuestion:    game.CurrentQuestion,
		IsQuestionRevealed: game.IsQuestionRevealed,
		TimerStartTime:     game.TimerStartTime,
		TimerDuration:      game.TimerDuration,
		SelectedCellID:     game.SelectedCellID,
	}
	view.GreenScore, view.PurpleScore = game.Board.Scores()
	return view
}
