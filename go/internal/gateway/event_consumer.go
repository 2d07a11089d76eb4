package gateway

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/huroufgame/hurouf/go/internal/realtime"
)

// EventConsumer bridges the games change stream to WebSocket clients.
// Updates and deletes go to the changed game's pool; inserts additionally
// fan out to every connection in the same room, since a new round means
// older views must switch games.
type EventConsumer struct {
	connectionManager *ConnectionManager
	subscriber        *realtime.Subscriber

	sub *realtime.Subscription
}

// NewEventConsumer creates a consumer over an existing change subscriber.
func NewEventConsumer(cm *ConnectionManager, subscriber *realtime.Subscriber) *EventConsumer {
	return &EventConsumer{
		connectionManager: cm,
		subscriber:        subscriber,
	}
}

// Start subscribes to the full games change stream and dispatches events
// until the context is cancelled.
func (ec *EventConsumer) Start(ctx context.Context) error {
	sub, err := ec.subscriber.SubscribeAll()
	if err != nil {
		return err
	}
	ec.sub = sub

	log.Info().Msg("gateway event consumer started")

	go func() {
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("gateway event consumer shutting down")
				return
			case record, ok := <-sub.Events():
				if !ok {
					return
				}
				ec.dispatch(record)
			}
		}
	}()
	return nil
}

func (ec *EventConsumer) dispatch(record realtime.RecordEvent) {
	event := NewGameEvent(record)

	ec.connectionManager.BroadcastToGame(record.GameID, event)

	if record.Op == realtime.OpInserted && record.RoomID != nil {
		ec.connectionManager.BroadcastToRoom(record.GameID, *record.RoomID, event)
	}
}
