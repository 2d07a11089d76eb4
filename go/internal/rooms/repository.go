package rooms

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/huroufgame/hurouf/go/internal/models"
	"github.com/huroufgame/hurouf/go/internal/store"
)

// Querier defines what the repository needs from the database layer
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repository implements room data access operations
type Repository struct {
	db Querier
}

// NewRepository creates a new rooms repository
func NewRepository(db Querier) *Repository {
	return &Repository{db: db}
}

// CreateRoom inserts a new room row.
func (r *Repository) CreateRoom(ctx context.Context, room models.Room) error {
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO rooms ("roomId", "sharedId", created_at)
        VALUES ($1, $2, $3)
    `, room.ID, room.SharedID, room.CreatedAt)
	if err != nil {
		return fmt.Errorf("%w: create room: %v", store.ErrWriteFailed, err)
	}
	return nil
}

// GetRoomBySharedID resolves a room from its 6-digit join code.
func (r *Repository) GetRoomBySharedID(ctx context.Context, sharedID string) (*models.Room, error) {
	var room models.Room
	err := r.db.QueryRowContext(ctx, `
        SELECT "roomId", "sharedId", created_at
        FROM rooms
        WHERE "sharedId" = $1
    `, sharedID).Scan(&room.ID, &room.SharedID, &room.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: room with code %s", store.ErrNotFound, sharedID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room by shared id: %w", err)
	}
	return &room, nil
}

// GetRoom retrieves a room by ID
func (r *Repository) GetRoom(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	var room models.Room
	err := r.db.QueryRowContext(ctx, `
        SELECT "roomId", "sharedId", created_at
        FROM rooms
        WHERE "roomId" = $1
    `, id).Scan(&room.ID, &room.SharedID, &room.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: room %s", store.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	return &room, nil
}

// DeleteRoom removes a room. Game rows referencing it are removed by the
// ON DELETE CASCADE constraint.
func (r *Repository) DeleteRoom(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM rooms WHERE "roomId" = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: delete room: %v", store.ErrWriteFailed, err)
	}
	return nil
}
