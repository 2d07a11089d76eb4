package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// ListenerConfig holds configuration for the Postgres change listener.
type ListenerConfig struct {
	DatabaseURL   string        // Postgres DSN for LISTEN/NOTIFY
	NotifyChannel string        // Channel name to LISTEN on
	PingInterval  time.Duration // Keepalive for the LISTEN connection
}

// DefaultListenerConfig returns default listener configuration
func DefaultListenerConfig() ListenerConfig {
	return ListenerConfig{
		DatabaseURL:   "",
		NotifyChannel: "game_changes",
		PingInterval:  90 * time.Second,
	}
}

// Listener bridges Postgres NOTIFY payloads onto NATS subjects. A trigger
// on the games table emits one Envelope per row change; the listener
// republishes each on games.<op>.<gameId> so subscribers can filter by key.
type Listener struct {
	listener *pq.Listener
	nc       *nats.Conn
	cfg      ListenerConfig
}

// NewListener opens the LISTEN connection and registers the channel.
func NewListener(nc *nats.Conn, cfg ListenerConfig) (*Listener, error) {
	l := pq.NewListener(
		cfg.DatabaseURL,
		10*time.Second,
		time.Minute,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				log.Error().Err(err).Msg("listener event")
			}
		},
	)
	if err := l.Listen(cfg.NotifyChannel); err != nil {
		return nil, fmt.Errorf("failed to listen to channel: %w", err)
	}

	log.Info().
		Str("channel", cfg.NotifyChannel).
		Msg("listening for game changes")

	return &Listener{
		listener: l,
		nc:       nc,
		cfg:      cfg,
	}, nil
}

// Start consumes notifications until the context is cancelled.
func (l *Listener) Start(ctx context.Context) error {
	log.Info().
		Str("channel", l.cfg.NotifyChannel).
		Dur("ping_interval", l.cfg.PingInterval).
		Msg("change listener started")

	pingTicker := time.NewTicker(l.cfg.PingInterval)
	defer pingTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("change listener shutting down")
			return l.Stop()
		case note := <-l.listener.Notify:
			if note == nil {
				// nil notification means the connection was lost; pq
				// reconnects by itself, nothing to forward
				continue
			}
			if err := l.handleNotification(note.Extra); err != nil {
				log.Error().Err(err).Msg("failed to handle notification")
			}
		case <-pingTicker.C:
			if err := l.listener.Ping(); err != nil {
				log.Error().Err(err).Msg("failed to ping listener")
			}
		}
	}
}

// Stop closes the LISTEN connection.
func (l *Listener) Stop() error {
	return l.listener.Close()
}

func (l *Listener) handleNotification(payload string) error {
	var envelope Envelope
	if err := json.Unmarshal([]byte(payload), &envelope); err != nil {
		return fmt.Errorf("unmarshal change envelope: %w", err)
	}

	subject, err := envelope.Subject()
	if err != nil {
		return err
	}

	if err := l.nc.Publish(subject, []byte(payload)); err != nil {
		return fmt.Errorf("publish change event: %w", err)
	}

	log.Debug().
		Str("subject", subject).
		Str("game_id", envelope.GameID.String()).
		Msg("change event published")
	return nil
}
