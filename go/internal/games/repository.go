package games

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/huroufgame/hurouf/go/internal/models"
	"github.com/huroufgame/hurouf/go/internal/sqlutil"
	"github.com/huroufgame/hurouf/go/internal/store"
)

// Querier defines what the repository needs from the database layer
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repository implements game data access operations
type Repository struct {
	db Querier
}

// NewRepository creates a new games repository
func NewRepository(db Querier) *Repository {
	return &Repository{db: db}
}

const gameColumns = `"gameId", room, "currentTeam", "boardState", "currentQuestion",
       "isQuestionRevealed", "timerStartTime", "timerDuration", "selectedCellId", created_at`

// CreateGame inserts a new game row.
func (r *Repository) CreateGame(ctx context.Context, game models.Game) error {
	boardJSON, err := json.Marshal(game.Board)
	if err != nil {
		return fmt.Errorf("failed to marshal board: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
        INSERT INTO games ("gameId", room, "currentTeam", "boardState", "timerDuration", created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, game.ID, game.RoomID, game.CurrentTeam, boardJSON, game.TimerDuration, game.CreatedAt)
	if err != nil {
		return fmt.Errorf("%w: create game: %v", store.ErrWriteFailed, err)
	}
	return nil
}

// GetGame retrieves a game by ID
func (r *Repository) GetGame(ctx context.Context, id uuid.UUID) (*models.Game, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT `+gameColumns+`
        FROM games
        WHERE "gameId" = $1
    `, id)
	game, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: game %s", store.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	return game, nil
}

// LatestGameInRoom resolves the most-recently-created game in a room. By
// convention that is the active round; older rows may coexist transiently.
func (r *Repository) LatestGameInRoom(ctx context.Context, roomID uuid.UUID) (*models.Game, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT `+gameColumns+`
        FROM games
        WHERE room = $1
        ORDER BY created_at DESC
        LIMIT 1
    `, roomID)
	game, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no games in room %s", store.ErrNotFound, roomID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest game in room: %w", err)
	}
	return game, nil
}

// UpdateQuestion writes a pending question: text visible to all clients,
// reveal off, timer cleared, the clicked cell recorded. The answer is never
// written to the shared record.
func (r *Repository) UpdateQuestion(ctx context.Context, id uuid.UUID, questionText string, selectedCellID int) error {
	_, err := r.db.ExecContext(ctx, `
        UPDATE games
        SET "currentQuestion"    = $2,
            "isQuestionRevealed" = FALSE,
            "timerStartTime"     = NULL,
            "selectedCellId"     = $3
        WHERE "gameId" = $1
    `, id, questionText, selectedCellID)
	if err != nil {
		return fmt.Errorf("%w: update question: %v", store.ErrWriteFailed, err)
	}
	return nil
}

// UpdateReveal flips the reveal flag on and stamps the shared timer start.
// The stamp is the single source of truth all clients derive the countdown
// from, and is re-written on every call.
func (r *Repository) UpdateReveal(ctx context.Context, id uuid.UUID, startTime time.Time) error {
	_, err := r.db.ExecContext(ctx, `
        UPDATE games
        SET "isQuestionRevealed" = TRUE,
            "timerStartTime"     = $2
        WHERE "gameId" = $1
    `, id, startTime)
	if err != nil {
		return fmt.Errorf("%w: update reveal: %v", store.ErrWriteFailed, err)
	}
	return nil
}

// UpdateRevealedQuestion replaces the question text while revealed and
// restarts the timer. Used when the host re-draws a question for the same
// letter.
func (r *Repository) UpdateRevealedQuestion(ctx context.Context, id uuid.UUID, questionText string, startTime time.Time) error {
	_, err := r.db.ExecContext(ctx, `
        UPDATE games
        SET "currentQuestion"    = $2,
            "isQuestionRevealed" = TRUE,
            "timerStartTime"     = $3
        WHERE "gameId" = $1
    `, id, questionText, startTime)
	if err != nil {
		return fmt.Errorf("%w: update revealed question: %v", store.ErrWriteFailed, err)
	}
	return nil
}

// UpdateBoard writes the whole board, switches the turn and clears the
// question/timer/selection state in one update.
func (r *Repository) UpdateBoard(ctx context.Context, id uuid.UUID, board models.Board, currentTeam models.Team) error {
	boardJSON, err := json.Marshal(board)
	if err != nil {
		return fmt.Errorf("failed to marshal board: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
        UPDATE games
        SET "boardState"         = $2,
            "currentTeam"        = $3,
            "currentQuestion"    = NULL,
            "isQuestionRevealed" = FALSE,
            "timerStartTime"     = NULL,
            "selectedCellId"     = NULL
        WHERE "gameId" = $1
    `, id, boardJSON, currentTeam)
	if err != nil {
		return fmt.Errorf("%w: update board: %v", store.ErrWriteFailed, err)
	}
	return nil
}

// ClearQuestion is the cancel path: reveal, timer and selection are cleared
// without touching board or turn.
func (r *Repository) ClearQuestion(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
        UPDATE games
        SET "currentQuestion"    = NULL,
            "isQuestionRevealed" = FALSE,
            "timerStartTime"     = NULL,
            "selectedCellId"     = NULL
        WHERE "gameId" = $1
    `, id)
	if err != nil {
		return fmt.Errorf("%w: clear question: %v", store.ErrWriteFailed, err)
	}
	return nil
}

// DeleteGame removes a game row.
func (r *Repository) DeleteGame(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM games WHERE "gameId" = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: delete game: %v", store.ErrWriteFailed, err)
	}
	return nil
}

func scanGame(row *sql.Row) (*models.Game, error) {
	var (
		game      models.Game
		boardJSON []byte
		roomID    uuid.NullUUID
		question  sql.NullString
		startTime sql.NullTime
		cellID    sql.NullInt32
	)
	err := row.Scan(&game.ID, &roomID, &game.CurrentTeam, &boardJSON, &question,
		&game.IsQuestionRevealed, &startTime, &game.TimerDuration, &cellID, &game.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(boardJSON, &game.Board); err != nil {
		return nil, fmt.Errorf("failed to unmarshal board: %w", err)
	}
	game.RoomID = sqlutil.FromNullUUID(roomID)
	game.CurrentQuestion = sqlutil.FromSqlStringPtr(question)
	game.TimerStartTime = sqlutil.FromSqlTime(startTime)
	game.SelectedCellID = sqlutil.FromSqlInt32(cellID)
	return &game, nil
}
