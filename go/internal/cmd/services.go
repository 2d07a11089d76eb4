package main

import (
	"context"
	"database/sql"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go"

	"github.com/huroufgame/hurouf/go/internal/dbconfig"
	"github.com/huroufgame/hurouf/go/internal/games"
	"github.com/huroufgame/hurouf/go/internal/gateway"
	"github.com/huroufgame/hurouf/go/internal/models"
	"github.com/huroufgame/hurouf/go/internal/questions"
	"github.com/huroufgame/hurouf/go/internal/realtime"
	"github.com/huroufgame/hurouf/go/internal/rooms"
	"github.com/huroufgame/hurouf/go/internal/session"
	"github.com/huroufgame/hurouf/go/internal/turn"
)

type Services struct {
	API         *gateway.APIHandler
	WebSocket   *gateway.WebSocketHandler
	ConnManager *gateway.ConnectionManager
	Consumer    *gateway.EventConsumer
	Listener    *realtime.Listener
}

func setupServices(database *sql.DB, nc *nats.Conn, dbCfg dbconfig.Config, config *Config) (*Services, error) {
	// Wire up dependency injection chain
	// Database layer → Repository layer → App layer → Gateway layer

	roomsRepo := rooms.NewRepository(database)
	gamesRepo := games.NewRepository(database)
	questionsRepo := questions.NewRepository(database)

	sessionApp := session.NewApp(roomsRepo, gamesRepo,
		rand.New(rand.NewSource(time.Now().UnixNano())))

	flows := turn.NewRegistry(func(gameID uuid.UUID) *turn.Flow {
		source := func(ctx context.Context) (models.Board, models.Team, error) {
			game, err := gamesRepo.GetGame(ctx, gameID)
			if err != nil {
				return nil, models.TeamNone, err
			}
			return game.Board, game.CurrentTeam, nil
		}
		return turn.NewFlow(gameID, gamesRepo, questionsRepo, source,
			clockwork.NewRealClock(), rand.New(rand.NewSource(time.Now().UnixNano())))
	})

	connManager := gateway.NewConnectionManager(gateway.DefaultConnectionConfig())
	subscriber := realtime.NewSubscriber(nc)
	consumer := gateway.NewEventConsumer(connManager, subscriber)

	listenerCfg := realtime.DefaultListenerConfig()
	listenerCfg.DatabaseURL = dbCfg.DSN()
	listenerCfg.NotifyChannel = getEnv("NOTIFY_CHANNEL", config.Realtime.Channel)
	listener, err := realtime.NewListener(nc, listenerCfg)
	if err != nil {
		return nil, err
	}

	return &Services{
		API:         gateway.NewAPIHandler(sessionApp, gamesRepo, flows),
		WebSocket:   gateway.NewWebSocketHandler(connManager),
		ConnManager: connManager,
		Consumer:    consumer,
		Listener:    listener,
	}, nil
}
