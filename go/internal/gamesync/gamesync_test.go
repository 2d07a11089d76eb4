package gamesync

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huroufgame/hurouf/go/internal/models"
	"github.com/huroufgame/hurouf/go/internal/realtime"
	"github.com/huroufgame/hurouf/go/internal/store"
)

type fakeStore struct {
	mu    sync.Mutex
	games map[uuid.UUID]models.Game
}

func newFakeStore(games ...models.Game) *fakeStore {
	f := &fakeStore{games: make(map[uuid.UUID]models.Game)}
	for _, g := range games {
		f.games[g.ID] = g
	}
	return f
}

func (f *fakeStore) put(game models.Game) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.games[game.ID] = game
}

func (f *fakeStore) remove(id uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.games, id)
}

func (f *fakeStore) GetGame(ctx context.Context, id uuid.UUID) (*models.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	game, ok := f.games[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &game, nil
}

func (f *fakeStore) LatestGameInRoom(ctx context.Context, roomID uuid.UUID) (*models.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *models.Game
	for id := range f.games {
		game := f.games[id]
		if game.RoomID == nil || *game.RoomID != roomID {
			continue
		}
		if latest == nil || game.CreatedAt.After(latest.CreatedAt) {
			latest = &game
		}
	}
	if latest == nil {
		return nil, store.ErrNotFound
	}
	return latest, nil
}

type fakeSub struct {
	ch     chan realtime.RecordEvent
	mu     sync.Mutex
	closed bool
}

func newFakeSub() *fakeSub {
	return &fakeSub{ch: make(chan realtime.RecordEvent, 16)}
}

func (f *fakeSub) Events() <-chan realtime.RecordEvent { return f.ch }

func (f *fakeSub) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSub) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

type fakeStream struct {
	mu       sync.Mutex
	gameSubs map[uuid.UUID]*fakeSub
	inserts  *fakeSub
}

func newFakeStream() *fakeStream {
	return &fakeStream{
		gameSubs: make(map[uuid.UUID]*fakeSub),
		inserts:  newFakeSub(),
	}
}

func (f *fakeStream) SubscribeGame(id uuid.UUID) (Events, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub := newFakeSub()
	f.gameSubs[id] = sub
	return sub, nil
}

func (f *fakeStream) SubscribeInserts() (Events, error) {
	return f.inserts, nil
}

func (f *fakeStream) gameSub(id uuid.UUID) *fakeSub {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gameSubs[id]
}

func testGame(roomID *uuid.UUID) models.Game {
	return models.Game{
		ID:            uuid.New(),
		RoomID:        roomID,
		CurrentTeam:   models.TeamGreen,
		Board:         testBoard(),
		TimerDuration: models.DefaultTimerDuration,
		CreatedAt:     time.Now(),
	}
}

func testBoard() models.Board {
	board := make(models.Board, models.BoardSize)
	for i := range board {
		board[i] = models.Cell{ID: i, Letter: models.Alphabet[i], Owner: models.TeamNone}
	}
	return board
}

func waitSnapshot(t *testing.T, s *GameSync) GameView {
	t.Helper()
	select {
	case view, ok := <-s.Snapshots():
		require.True(t, ok, "snapshot channel closed")
		return view
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return GameView{}
	}
}

func TestStartMissingGameIsTerminal(t *testing.T) {
	s := New(RoleSpectator, newFakeStore(), newFakeStream(), uuid.New())

	err := s.Start(context.Background())
	require.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, StatusNotFound, s.View().Status)
}

func TestStartFetchesAndSubscribes(t *testing.T) {
	roomID := uuid.New()
	game := testGame(&roomID)
	stream := newFakeStream()
	s := New(RoleHost, newFakeStore(game), stream, game.ID)

	require.NoError(t, s.Start(context.Background()))
	defer s.Close()

	view := waitSnapshot(t, s)
	assert.Equal(t, StatusActive, view.Status)
	assert.Equal(t, game.ID, view.GameID)
	assert.Equal(t, models.TeamGreen, view.CurrentTeam)
	require.NotNil(t, stream.gameSub(game.ID))
}

func TestUpdateNeverNullsOmittedFields(t *testing.T) {
	roomID := uuid.New()
	game := testGame(&roomID)
	question := "سؤال"
	game.CurrentQuestion = &question
	stream := newFakeStream()
	s := New(RoleSpectator, newFakeStore(game), stream, game.ID)

	require.NoError(t, s.Start(context.Background()))
	defer s.Close()
	waitSnapshot(t, s)

	// An update that only flips the reveal flag must keep the question.
	stream.gameSub(game.ID).ch <- realtime.RecordEvent{
		Op:     realtime.OpUpdated,
		GameID: game.ID,
		RoomID: &roomID,
		Record: json.RawMessage(`{"isQuestionRevealed": true}`),
	}

	view := waitSnapshot(t, s)
	assert.True(t, view.IsQuestionRevealed)
	require.NotNil(t, view.CurrentQuestion)
	assert.Equal(t, question, *view.CurrentQuestion)

	// An explicit null clears it.
	stream.gameSub(game.ID).ch <- realtime.RecordEvent{
		Op:     realtime.OpUpdated,
		GameID: game.ID,
		RoomID: &roomID,
		Record: json.RawMessage(`{"currentQuestion": null, "isQuestionRevealed": false}`),
	}

	view = waitSnapshot(t, s)
	assert.Nil(t, view.CurrentQuestion)
	assert.False(t, view.IsQuestionRevealed)
}

func TestUpdateRecomputesScores(t *testing.T) {
	roomID := uuid.New()
	game := testGame(&roomID)
	stream := newFakeStream()
	s := New(RoleSpectator, newFakeStore(game), stream, game.ID)

	require.NoError(t, s.Start(context.Background()))
	defer s.Close()
	waitSnapshot(t, s)

	board := game.Board.WithOwner(3, models.TeamPurple)
	boardJSON, err := json.Marshal(board)
	require.NoError(t, err)

	stream.gameSub(game.ID).ch <- realtime.RecordEvent{
		Op:     realtime.OpUpdated,
		GameID: game.ID,
		RoomID: &roomID,
		Record: json.RawMessage(fmt.Sprintf(`{"boardState": %s, "currentTeam": "purple"}`, boardJSON)),
	}

	view := waitSnapshot(t, s)
	assert.Equal(t, 0, view.GreenScore)
	assert.Equal(t, 1, view.PurpleScore)
	assert.Equal(t, models.TeamPurple, view.CurrentTeam)
}

func TestInsertInSameRoomSwitchesRound(t *testing.T) {
	roomID := uuid.New()
	game := testGame(&roomID)
	next := testGame(&roomID)
	st := newFakeStore(game, next)
	stream := newFakeStream()
	s := New(RoleSpectator, st, stream, game.ID)

	require.NoError(t, s.Start(context.Background()))
	defer s.Close()
	waitSnapshot(t, s)

	stream.inserts.ch <- realtime.RecordEvent{
		Op:     realtime.OpInserted,
		GameID: next.ID,
		RoomID: &roomID,
	}

	view := waitSnapshot(t, s)
	assert.Equal(t, next.ID, view.GameID)
	assert.Equal(t, StatusActive, view.Status)
	require.NotNil(t, stream.gameSub(next.ID))
	assert.True(t, stream.gameSub(game.ID).isClosed(), "old subscription must be released")
}

func TestInsertInOtherRoomIgnored(t *testing.T) {
	roomID := uuid.New()
	otherRoom := uuid.New()
	game := testGame(&roomID)
	stranger := testGame(&otherRoom)
	stream := newFakeStream()
	s := New(RoleSpectator, newFakeStore(game, stranger), stream, game.ID)

	require.NoError(t, s.Start(context.Background()))
	defer s.Close()
	waitSnapshot(t, s)

	stream.inserts.ch <- realtime.RecordEvent{
		Op:     realtime.OpInserted,
		GameID: stranger.ID,
		RoomID: &otherRoom,
	}

	// Follow with an update so there is a snapshot to observe.
	stream.gameSub(game.ID).ch <- realtime.RecordEvent{
		Op:     realtime.OpUpdated,
		GameID: game.ID,
		RoomID: &roomID,
		Record: json.RawMessage(`{"timerDuration": 20}`),
	}

	view := waitSnapshot(t, s)
	assert.Equal(t, game.ID, view.GameID)
	assert.Equal(t, 20, view.TimerDuration)
}

func TestSpectatorDeleteSwitchesToRemainingRound(t *testing.T) {
	roomID := uuid.New()
	game := testGame(&roomID)
	remaining := testGame(&roomID)
	remaining.CreatedAt = game.CreatedAt.Add(time.Second)
	st := newFakeStore(game, remaining)
	stream := newFakeStream()
	s := New(RoleSpectator, st, stream, game.ID)

	require.NoError(t, s.Start(context.Background()))
	defer s.Close()
	waitSnapshot(t, s)

	st.remove(game.ID)
	stream.gameSub(game.ID).ch <- realtime.RecordEvent{
		Op:     realtime.OpDeleted,
		GameID: game.ID,
		RoomID: &roomID,
	}

	view := waitSnapshot(t, s)
	assert.Equal(t, remaining.ID, view.GameID)
	assert.Equal(t, StatusActive, view.Status)
}

func TestSpectatorDeleteWithNoRoundsEndsSession(t *testing.T) {
	roomID := uuid.New()
	game := testGame(&roomID)
	st := newFakeStore(game)
	stream := newFakeStream()
	s := New(RoleSpectator, st, stream, game.ID)

	require.NoError(t, s.Start(context.Background()))
	defer s.Close()
	waitSnapshot(t, s)

	st.remove(game.ID)
	stream.gameSub(game.ID).ch <- realtime.RecordEvent{
		Op:     realtime.OpDeleted,
		GameID: game.ID,
		RoomID: &roomID,
	}

	view := waitSnapshot(t, s)
	assert.Equal(t, StatusSessionEnded, view.Status)
}

func TestHostIgnoresDelete(t *testing.T) {
	roomID := uuid.New()
	game := testGame(&roomID)
	stream := newFakeStream()
	s := New(RoleHost, newFakeStore(game), stream, game.ID)

	require.NoError(t, s.Start(context.Background()))
	defer s.Close()
	waitSnapshot(t, s)

	stream.gameSub(game.ID).ch <- realtime.RecordEvent{
		Op:     realtime.OpDeleted,
		GameID: game.ID,
		RoomID: &roomID,
	}
	stream.gameSub(game.ID).ch <- realtime.RecordEvent{
		Op:     realtime.OpUpdated,
		GameID: game.ID,
		RoomID: &roomID,
		Record: json.RawMessage(`{"timerDuration": 30}`),
	}

	view := waitSnapshot(t, s)
	assert.Equal(t, StatusActive, view.Status)
	assert.Equal(t, 30, view.TimerDuration)
}

func TestCloseReleasesSubscriptions(t *testing.T) {
	roomID := uuid.New()
	game := testGame(&roomID)
	stream := newFakeStream()
	s := New(RoleHost, newFakeStore(game), stream, game.ID)

	require.NoError(t, s.Start(context.Background()))
	s.Close()
	s.Close() // idempotent

	assert.True(t, stream.gameSub(game.ID).isClosed())
	assert.True(t, stream.inserts.isClosed())

	_, ok := <-s.Snapshots()
	for ok {
		_, ok = <-s.Snapshots()
	}
}
