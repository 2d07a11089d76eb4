package models

import (
	"time"

	"github.com/google/uuid"
)

// Room groups successive game rounds behind one shareable 6-digit code.
type Room struct {
	ID        uuid.UUID `json:"roomId"`
	SharedID  string    `json:"sharedId"`
	CreatedAt time.Time `json:"created_at"`
}
