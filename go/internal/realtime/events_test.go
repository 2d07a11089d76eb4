package realtime

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeSubject(t *testing.T) {
	gameID := uuid.MustParse("6b1e6d5c-3f3f-4a19-9f3d-2f9f6a1c0001")

	tests := []struct {
		op   string
		want string
	}{
		{"INSERT", "games.inserted." + gameID.String()},
		{"UPDATE", "games.updated." + gameID.String()},
		{"DELETE", "games.deleted." + gameID.String()},
	}

	for _, tt := range tests {
		env := Envelope{Op: tt.op, GameID: gameID}
		subject, err := env.Subject()
		require.NoError(t, err)
		assert.Equal(t, tt.want, subject)
	}
}

func TestEnvelopeRejectsUnknownOp(t *testing.T) {
	env := Envelope{Op: "TRUNCATE", GameID: uuid.New()}

	_, err := env.Subject()
	assert.Error(t, err)

	_, err = env.Event()
	assert.Error(t, err)
}

func TestEnvelopeDecode(t *testing.T) {
	payload := `{
		"op": "UPDATE",
		"gameId": "6b1e6d5c-3f3f-4a19-9f3d-2f9f6a1c0001",
		"roomId": "6b1e6d5c-3f3f-4a19-9f3d-2f9f6a1c0002",
		"record": {"isQuestionRevealed": true, "timerStartTime": null}
	}`

	var env Envelope
	require.NoError(t, json.Unmarshal([]byte(payload), &env))

	event, err := env.Event()
	require.NoError(t, err)
	assert.Equal(t, OpUpdated, event.Op)
	assert.Equal(t, "6b1e6d5c-3f3f-4a19-9f3d-2f9f6a1c0001", event.GameID.String())
	require.NotNil(t, event.RoomID)
	assert.Equal(t, "6b1e6d5c-3f3f-4a19-9f3d-2f9f6a1c0002", event.RoomID.String())

	// The record is kept raw so patching can tell null from absent.
	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(event.Record, &fields))
	assert.Equal(t, "null", string(fields["timerStartTime"]))
	_, hasQuestion := fields["currentQuestion"]
	assert.False(t, hasQuestion)
}

func TestEnvelopeDecodeWithoutRoom(t *testing.T) {
	payload := `{"op": "DELETE", "gameId": "6b1e6d5c-3f3f-4a19-9f3d-2f9f6a1c0001", "roomId": null, "record": {}}`

	var env Envelope
	require.NoError(t, json.Unmarshal([]byte(payload), &env))

	event, err := env.Event()
	require.NoError(t, err)
	assert.Equal(t, OpDeleted, event.Op)
	assert.Nil(t, event.RoomID)
}
