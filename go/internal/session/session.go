package session

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/huroufgame/hurouf/go/internal/models"
	"github.com/huroufgame/hurouf/go/internal/store"
)

// JoinCodeLength is the number of digits in a shareable room code.
const JoinCodeLength = 6

// RoomRepository defines what the bootstrap needs from the rooms layer
type RoomRepository interface {
	CreateRoom(ctx context.Context, room models.Room) error
	GetRoomBySharedID(ctx context.Context, sharedID string) (*models.Room, error)
	DeleteRoom(ctx context.Context, id uuid.UUID) error
}

// GameRepository defines what the bootstrap needs from the games layer
type GameRepository interface {
	CreateGame(ctx context.Context, game models.Game) error
	LatestGameInRoom(ctx context.Context, roomID uuid.UUID) (*models.Game, error)
}

// App creates sessions and resolves join codes to active games.
type App struct {
	rooms RoomRepository
	games GameRepository
	rng   *rand.Rand
	now   func() time.Time
}

// NewApp creates a new session App.
func NewApp(rooms RoomRepository, games GameRepository, rng *rand.Rand) *App {
	return &App{
		rooms: rooms,
		games: games,
		rng:   rng,
		now:   time.Now,
	}
}

// Session is the result of creating or resolving a game session.
type Session struct {
	Room models.Room
	Game models.Game
}

// CreateSession generates a fresh board and join code, inserts the room and
// then the initial game. If the room insert fails the game insert is never
// attempted.
func (a *App) CreateSession(ctx context.Context) (*Session, error) {
	room := models.Room{
		ID:        uuid.New(),
		SharedID:  a.newSharedID(),
		CreatedAt: a.now(),
	}
	if err := a.rooms.CreateRoom(ctx, room); err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}

	game, err := a.createGameInRoom(ctx, room.ID)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("room_id", room.ID.String()).
		Str("shared_id", room.SharedID).
		Str("game_id", game.ID.String()).
		Msg("session created")
	return &Session{Room: room, Game: *game}, nil
}

// JoinSession validates a join code and resolves it to the room's active
// game (the most-recently-created one).
func (a *App) JoinSession(ctx context.Context, code string) (*Session, error) {
	if !validJoinCode(code) {
		return nil, fmt.Errorf("%w: join code must be exactly %d digits", store.ErrInvalid, JoinCodeLength)
	}

	room, err := a.rooms.GetRoomBySharedID(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve join code: %w", err)
	}

	game, err := a.games.LatestGameInRoom(ctx, room.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve active game: %w", err)
	}

	log.Info().
		Str("room_id", room.ID.String()).
		Str("game_id", game.ID.String()).
		Msg("session joined")
	return &Session{Room: *room, Game: *game}, nil
}

// PlayAgain starts a new round: a fresh game row in the same room. Other
// views pick it up through the insert notification.
func (a *App) PlayAgain(ctx context.Context, roomID uuid.UUID) (*models.Game, error) {
	game, err := a.createGameInRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("room_id", roomID.String()).
		Str("game_id", game.ID.String()).
		Msg("new round started")
	return game, nil
}

// EndSession deletes the room; its games go with it via cascade, which
// spectators observe as delete notifications.
func (a *App) EndSession(ctx context.Context, roomID uuid.UUID) error {
	if err := a.rooms.DeleteRoom(ctx, roomID); err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}

	log.Info().Str("room_id", roomID.String()).Msg("session ended")
	return nil
}

func (a *App) createGameInRoom(ctx context.Context, roomID uuid.UUID) (*models.Game, error) {
	game := models.Game{
		ID:            uuid.New(),
		RoomID:        &roomID,
		CurrentTeam:   models.TeamGreen,
		Board:         models.NewBoard(a.rng),
		TimerDuration: models.DefaultTimerDuration,
		CreatedAt:     a.now(),
	}
	if err := a.games.CreateGame(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}
	return &game, nil
}

// newSharedID draws a random 6-digit code.
func (a *App) newSharedID() string {
	return fmt.Sprintf("%06d", 100000+a.rng.Intn(900000))
}

// SanitizeJoinCode mirrors the entry screen's input layer: non-digit
// characters are silently discarded and the result is capped at 6 digits.
func SanitizeJoinCode(input string) string {
	out := make([]rune, 0, JoinCodeLength)
	for _, r := range input {
		if r < '0' || r > '9' {
			continue
		}
		out = append(out, r)
		if len(out) == JoinCodeLength {
			break
		}
	}
	return string(out)
}

func validJoinCode(code string) bool {
	if len(code) != JoinCodeLength {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
