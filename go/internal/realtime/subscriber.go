package realtime

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// eventBuffer bounds each subscription's delivery channel. A consumer that
// falls behind loses events rather than blocking the producer.
const eventBuffer = 64

// Subscription is one open change stream. Close releases the underlying
// NATS subscription; Events is closed afterwards.
type Subscription struct {
	events chan RecordEvent
	sub    *nats.Subscription

	mu     sync.Mutex
	closed bool
}

// Events returns the channel change notifications are delivered on.
func (s *Subscription) Events() <-chan RecordEvent {
	return s.events
}

// Close unsubscribes and closes the event channel. Views must call it on
// teardown so no listener dangles.
func (s *Subscription) Close() error {
	err := s.sub.Unsubscribe()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.events)
	}
	return err
}

// deliver hands an event to the consumer without ever blocking the NATS
// callback, and never sends on a closed channel.
func (s *Subscription) deliver(event RecordEvent, subject string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.events <- event:
	default:
		log.Warn().Str("subject", subject).Msg("event channel full, dropping change event")
	}
}

// Subscriber hands out per-game and per-collection change subscriptions
// over a shared NATS connection.
type Subscriber struct {
	nc *nats.Conn
}

// NewSubscriber creates a new change-stream subscriber.
func NewSubscriber(nc *nats.Conn) *Subscriber {
	return &Subscriber{nc: nc}
}

// SubscribeGame opens a stream of all change events for one game id.
func (s *Subscriber) SubscribeGame(gameID uuid.UUID) (*Subscription, error) {
	subject := fmt.Sprintf("%s.*.%s", SubjectPrefix, gameID)
	return s.subscribe(subject)
}

// SubscribeInserts opens a stream of insert events across the whole games
// collection. Host and spectator views use it to notice new rounds started
// elsewhere in their room.
func (s *Subscriber) SubscribeInserts() (*Subscription, error) {
	subject := fmt.Sprintf("%s.%s.*", SubjectPrefix, OpInserted)
	return s.subscribe(subject)
}

// SubscribeAll opens a stream of every change event across the games
// collection. The gateway consumes it to fan events out to WebSocket
// clients.
func (s *Subscriber) SubscribeAll() (*Subscription, error) {
	return s.subscribe(SubjectPrefix + ".>")
}

func (s *Subscriber) subscribe(subject string) (*Subscription, error) {
	subscription := &Subscription{
		events: make(chan RecordEvent, eventBuffer),
	}

	sub, err := s.nc.Subscribe(subject, func(msg *nats.Msg) {
		var envelope Envelope
		if err := json.Unmarshal(msg.Data, &envelope); err != nil {
			log.Error().Err(err).Str("subject", msg.Subject).Msg("failed to unmarshal change envelope")
			return
		}
		event, err := envelope.Event()
		if err != nil {
			log.Error().Err(err).Str("subject", msg.Subject).Msg("failed to convert change envelope")
			return
		}
		subscription.deliver(event, msg.Subject)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}
	subscription.sub = sub

	log.Debug().Str("subject", subject).Msg("change subscription opened")
	return subscription, nil
}
