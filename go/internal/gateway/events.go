package gateway

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/huroufgame/hurouf/go/internal/realtime"
)

// EventType represents the type of game change event pushed to clients
type EventType string

const (
	EventTypeGameInserted EventType = "GameInserted"
	EventTypeGameUpdated  EventType = "GameUpdated"
	EventTypeGameDeleted  EventType = "GameDeleted"
)

// GameEvent is the wire format pushed over WebSocket for every game row
// change. Data carries the changed row as the trigger serialized it, so
// clients can tell absent fields from null ones.
type GameEvent struct {
	ID        string          `json:"id"`        // Event UUID
	GameID    string          `json:"game_id"`   // Game UUID
	RoomID    string          `json:"room_id,omitempty"`
	Type      EventType       `json:"type"`      // Event type
	Timestamp time.Time       `json:"timestamp"` // Event creation time
	Data      json.RawMessage `json:"data"`      // Changed row payload
}

func eventTypeForOp(op realtime.Op) EventType {
	switch op {
	case realtime.OpInserted:
		return EventTypeGameInserted
	case realtime.OpDeleted:
		return EventTypeGameDeleted
	default:
		return EventTypeGameUpdated
	}
}

// NewGameEvent wraps a row-change notification for WebSocket delivery.
func NewGameEvent(record realtime.RecordEvent) *GameEvent {
	event := &GameEvent{
		ID:        uuid.New().String(),
		GameID:    record.GameID.String(),
		Type:      eventTypeForOp(record.Op),
		Timestamp: time.Now(),
		Data:      record.Record,
	}
	if record.RoomID != nil {
		event.RoomID = record.RoomID.String()
	}
	return event
}
