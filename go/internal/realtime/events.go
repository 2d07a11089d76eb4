package realtime

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Op tags a row-change notification.
type Op string

const (
	OpInserted Op = "inserted"
	OpUpdated  Op = "updated"
	OpDeleted  Op = "deleted"
)

// SubjectPrefix is the NATS subject root for game row changes. Full
// subjects are games.<op>.<gameId>, so a subscriber can filter one game
// (games.*.<id>) or one op across the collection (games.inserted.*).
const SubjectPrefix = "games"

// Envelope is the JSON payload the Postgres trigger NOTIFYs for every
// insert, update and delete on the games table. Record holds the new row
// (the old row for deletes) and is kept raw so consumers can distinguish
// absent fields from null ones.
type Envelope struct {
	Op     string          `json:"op"`
	GameID uuid.UUID       `json:"gameId"`
	RoomID *uuid.UUID      `json:"roomId"`
	Record json.RawMessage `json:"record"`
}

// RecordEvent is one tagged change notification as delivered to consumers.
type RecordEvent struct {
	Op     Op
	GameID uuid.UUID
	RoomID *uuid.UUID
	Record json.RawMessage
}

// Subject returns the NATS subject for an envelope.
func (e *Envelope) Subject() (string, error) {
	op, err := opFromTrigger(e.Op)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s.%s.%s", SubjectPrefix, op, e.GameID), nil
}

// Event converts the envelope to a consumer-facing RecordEvent.
func (e *Envelope) Event() (RecordEvent, error) {
	op, err := opFromTrigger(e.Op)
	if err != nil {
		return RecordEvent{}, err
	}
	return RecordEvent{
		Op:     op,
		GameID: e.GameID,
		RoomID: e.RoomID,
		Record: e.Record,
	}, nil
}

func opFromTrigger(op string) (Op, error) {
	switch op {
	case "INSERT":
		return OpInserted, nil
	case "UPDATE":
		return OpUpdated, nil
	case "DELETE":
		return OpDeleted, nil
	default:
		return "", fmt.Errorf("unknown trigger op: %s", op)
	}
}
