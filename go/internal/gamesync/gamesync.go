// Package gamesync keeps a client's in-memory view of one game record
// consistent with the backend: one blocking fetch on start, then an
// open-ended subscription to row-change notifications. The same reconciler
// serves the host and spectator screens, parameterized by role.
package gamesync

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/huroufgame/hurouf/go/internal/models"
	"github.com/huroufgame/hurouf/go/internal/realtime"
	"github.com/huroufgame/hurouf/go/internal/store"
)

// Role controls which subscription events a view reacts to. Only the host
// issues mutations; that restriction is client-side convention, the backend
// enforces no ownership.
type Role string

const (
	RoleHost      Role = "host"
	RoleSpectator Role = "spectator"
)

// GameStore defines what the reconciler needs from the games layer
type GameStore interface {
	GetGame(ctx context.Context, id uuid.UUID) (*models.Game, error)
	LatestGameInRoom(ctx context.Context, roomID uuid.UUID) (*models.Game, error)
}

// Events is one open change subscription, as the reconciler consumes it.
type Events interface {
	Events() <-chan realtime.RecordEvent
	Close() error
}

// ChangeStream opens filtered change subscriptions.
type ChangeStream interface {
	SubscribeGame(id uuid.UUID) (Events, error)
	SubscribeInserts() (Events, error)
}

// GameSync reconciles one view with the shared game record.
type GameSync struct {
	role   Role
	store  GameStore
	stream ChangeStream

	mu   sync.Mutex
	view GameView

	gameSub   Events
	insertSub Events

	snapshots chan GameView
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a reconciler for a game id. Nothing runs until Start.
func New(role Role, gameStore GameStore, stream ChangeStream, gameID uuid.UUID) *GameSync {
	return &GameSync{
		role:      role,
		store:     gameStore,
		stream:    stream,
		view:      GameView{Status: StatusLoading, GameID: gameID},
		snapshots: make(chan GameView, 16),
		done:      make(chan struct{}),
	}
}

// Start performs the blocking initial fetch, opens the change
// subscriptions and launches the consumer loop. A missing game is
// terminal: the view flips to not-found and no subscription is opened.
func (s *GameSync) Start(ctx context.Context) error {
	game, err := s.store.GetGame(ctx, s.view.GameID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.setView(GameView{Status: StatusNotFound, GameID: s.view.GameID})
			close(s.done)
			return err
		}
		s.mu.Lock()
		s.view.Err = err
		s.mu.Unlock()
		close(s.done)
		return fmt.Errorf("initial game fetch: %w", err)
	}

	s.gameSub, err = s.stream.SubscribeGame(game.ID)
	if err != nil {
		close(s.done)
		return fmt.Errorf("subscribe game changes: %w", err)
	}
	s.insertSub, err = s.stream.SubscribeInserts()
	if err != nil {
		s.gameSub.Close()
		close(s.done)
		return fmt.Errorf("subscribe collection inserts: %w", err)
	}

	s.setView(viewFromGame(game))

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	go s.run(loopCtx)

	log.Info().
		Str("role", string(s.role)).
		Str("game_id", game.ID.String()).
		Msg("game sync started")
	return nil
}

// Snapshots returns the stream of view states. The latest state wins: when
// the consumer lags, older snapshots are dropped. Closed at teardown.
func (s *GameSync) Snapshots() <-chan GameView {
	return s.snapshots
}

// View returns the current view state.
func (s *GameSync) View() GameView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Close tears the reconciler down and releases both subscriptions. Safe to
// call more than once. Events arriving after Close are never applied.
func (s *GameSync) Close() {
	s.closeOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
			<-s.done
		}
		if s.gameSub != nil {
			s.gameSub.Close()
		}
		if s.insertSub != nil {
			s.insertSub.Close()
		}
		close(s.snapshots)
		log.Debug().
			Str("role", string(s.role)).
			Str("game_id", s.View().GameID.String()).
			Msg("game sync closed")
	})
}

func (s *GameSync) run(ctx context.Context) {
	defer close(s.done)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-s.gameSub.Events():
			if !ok {
				return
			}
			if terminal := s.handleGameEvent(ctx, event); terminal {
				return
			}
		case event, ok := <-s.insertSub.Events():
			if !ok {
				return
			}
			s.handleInsert(ctx, event)
		}
	}
}

// handleGameEvent applies one change notification for the tracked game.
// Returns true when the view reached a terminal state.
func (s *GameSync) handleGameEvent(ctx context.Context, event realtime.RecordEvent) bool {
	switch event.Op {
	case realtime.OpUpdated:
		s.mu.Lock()
		if err := applyRecord(&s.view, event.Record); err != nil {
			s.view.Err = err
			log.Error().Err(err).Str("game_id", event.GameID.String()).Msg("failed to apply update")
		} else {
			s.view.Err = nil
		}
		view := s.view
		s.mu.Unlock()
		s.emit(view)
		return false

	case realtime.OpDeleted:
		if s.role != RoleSpectator {
			return false
		}
		return s.handleDeleted(ctx)

	default:
		return false
	}
}

// handleDeleted runs the spectator fallback: switch to the most recent
// remaining round in the room, or end the session when none is left.
func (s *GameSync) handleDeleted(ctx context.Context) bool {
	roomID := s.View().RoomID
	if roomID != nil {
		next, err := s.store.LatestGameInRoom(ctx, *roomID)
		if err == nil {
			s.switchTo(ctx, next)
			return false
		}
		if !errors.Is(err, store.ErrNotFound) {
			log.Error().Err(err).Str("room_id", roomID.String()).Msg("failed to look up remaining rounds")
		}
	}

	s.mu.Lock()
	s.view.Status = StatusSessionEnded
	view := s.view
	s.mu.Unlock()
	s.emit(view)
	return true
}

// handleInsert reacts to a round started elsewhere: same room, different
// id means the view retargets its subscription to the new game.
func (s *GameSync) handleInsert(ctx context.Context, event realtime.RecordEvent) {
	current := s.View()
	if event.GameID == current.GameID {
		return
	}
	if current.RoomID == nil || event.RoomID == nil || *event.RoomID != *current.RoomID {
		return
	}

	game, err := s.store.GetGame(ctx, event.GameID)
	if err != nil {
		s.mu.Lock()
		s.view.Err = err
		view := s.view
		s.mu.Unlock()
		s.emit(view)
		log.Error().Err(err).Str("game_id", event.GameID.String()).Msg("failed to fetch new round")
		return
	}
	s.switchTo(ctx, game)
}

func (s *GameSync) switchTo(ctx context.Context, game *models.Game) {
	newSub, err := s.stream.SubscribeGame(game.ID)
	if err != nil {
		s.mu.Lock()
		s.view.Err = err
		view := s.view
		s.mu.Unlock()
		s.emit(view)
		log.Error().Err(err).Str("game_id", game.ID.String()).Msg("failed to resubscribe")
		return
	}

	s.gameSub.Close()
	s.gameSub = newSub
	s.setView(viewFromGame(game))

	log.Info().
		Str("role", string(s.role)).
		Str("game_id", game.ID.String()).
		Msg("switched to new round")
}

func (s *GameSync) setView(view GameView) {
	s.mu.Lock()
	s.view = view
	s.mu.Unlock()
	s.emit(view)
}

// emit delivers a snapshot without ever blocking the reconciler; when the
// consumer lags the oldest queued snapshot is dropped in its favor.
func (s *GameSync) emit(view GameView) {
	select {
	case s.snapshots <- view:
	default:
		select {
		case <-s.snapshots:
		default:
		}
		select {
		case s.snapshots <- view:
		default:
		}
	}
}

// NewChangeStream adapts the realtime subscriber to the ChangeStream
// interface consumed here.
func NewChangeStream(sub *realtime.Subscriber) ChangeStream {
	return natsChangeStream{sub: sub}
}

type natsChangeStream struct {
	sub *realtime.Subscriber
}

func (n natsChangeStream) SubscribeGame(id uuid.UUID) (Events, error) {
	return n.sub.SubscribeGame(id)
}

func (n natsChangeStream) SubscribeInserts() (Events, error) {
	return n.sub.SubscribeInserts()
}
