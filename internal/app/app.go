// Package app assembles the notifier from configuration.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"eventnotifier/config"
	"eventnotifier/internal/adapters/auth"
	"eventnotifier/internal/adapters/awsclient"
	"eventnotifier/internal/adapters/notify"
	"eventnotifier/internal/adapters/queue"
	"eventnotifier/internal/domain"
	"eventnotifier/internal/repository/dynamo"
	"eventnotifier/internal/repository/memory"
	"eventnotifier/internal/repository/postgres"
	"eventnotifier/internal/services"
	"eventnotifier/internal/tzcatalog"
)

// Transport is a dispatch channel that can be both written and read.
type Transport interface {
	domain.MessagePublisher
	domain.MessageConsumer
}

// App holds every wired component. Build it with New and release it with Close.
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Clock     domain.Clock
	DB        *sql.DB
	Catalog   *tzcatalog.Catalog
	Users     domain.UserRepository
	Ledger    domain.Ledger
	Transport Transport
	Notifier  domain.Notifier
	Gate      *services.DispatchGate
	Triggers  map[domain.EventType]*services.Trigger
	UserSvc   domain.UserService
	Authority *auth.JWTAuthority
}

// New wires the application. A Postgres connection is opened only when a
// store needs it; AWS clients are built only when a component needs them.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	catalog, err := tzcatalog.Load()
	if err != nil {
		return nil, fmt.Errorf("load zone catalog: %w", err)
	}
	if missing := catalog.Missing(); len(missing) > 0 {
		logger.Warn("zones missing from tz database", "count", len(missing), "zones", missing)
	}

	a := &App{
		Config:    cfg,
		Logger:    logger,
		Clock:     domain.SystemClock{},
		Catalog:   catalog,
		Authority: auth.NewJWTAuthority(cfg.JWTSecret),
	}

	var clients *awsclient.Clients
	awsClients := func() *awsclient.Clients {
		if clients == nil {
			clients = awsclient.New(awsclient.Config{
				Region:          cfg.AWS.Region,
				AccessKeyID:     cfg.AWS.AccessKeyID,
				SecretAccessKey: cfg.AWS.SecretAccessKey,
				Endpoint:        cfg.AWS.EndpointURL,
			})
		}
		return clients
	}

	if cfg.UserStore == config.StorePostgres || cfg.LedgerStore == config.StorePostgres {
		if a.DB, err = postgres.Open(ctx, cfg.DBUrl); err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		if cfg.AutoMigrate {
			if err := postgres.EnsureSchema(ctx, a.DB); err != nil {
				a.Close()
				return nil, fmt.Errorf("ensure schema: %w", err)
			}
		}
	}

	switch cfg.UserStore {
	case config.StorePostgres:
		a.Users = postgres.NewUserRepository(a.DB)
	case config.StoreDynamoDB:
		a.Users = dynamo.NewUserRepository(awsClients().DynamoDB, cfg.UsersTable)
	default:
		a.Users = memory.NewUserRepository()
	}

	switch cfg.LedgerStore {
	case config.StorePostgres:
		a.Ledger = postgres.NewLedgerRepository(a.DB)
	case config.StoreDynamoDB:
		a.Ledger = dynamo.NewLedgerRepository(awsClients().DynamoDB, cfg.SentTable)
	default:
		a.Ledger = memory.NewLedger()
	}

	switch cfg.Transport {
	case config.TransportSQS:
		a.Transport = queue.NewSQSQueue(awsClients().SQS, cfg.QueueURL, logger)
	default:
		a.Transport = queue.NewMemoryQueue(queue.MemoryConfig{}, logger)
	}

	var channels notify.Multi
	if cfg.TopicARN != "" {
		channels = append(channels, notify.NewSNSNotifier(awsClients().SNS, cfg.TopicARN, logger))
	}
	if cfg.WebhookURL != "" {
		channels = append(channels, notify.NewWebhookNotifier(&http.Client{Timeout: 10 * time.Second}, cfg.WebhookURL))
	}
	switch len(channels) {
	case 0:
		a.Notifier = notify.NewNoop(logger)
	case 1:
		a.Notifier = notify.NewThrottled(channels[0], cfg.NotifyRatePerSec)
	default:
		a.Notifier = notify.NewThrottled(channels, cfg.NotifyRatePerSec)
	}

	a.Gate = services.NewDispatchGate(a.Transport, a.Ledger, a.Notifier, a.Clock, logger)
	sampler := services.NewTimeZoneSampler(catalog)
	matcher := services.NewEventMatcher(a.Users, catalog, logger, cfg.ZoneLookupConcurrency)
	a.Triggers = make(map[domain.EventType]*services.Trigger, len(domain.EventTypes))
	for _, et := range domain.EventTypes {
		t, err := services.NewTrigger(et.String(), sampler, matcher, a.Gate, a.Clock, logger.With("event_type", et))
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Triggers[et] = t
	}
	a.UserSvc = services.NewUserService(a.Users, catalog, a.Clock)
	return a, nil
}

// Trigger returns the trigger for the configured event type.
func (a *App) Trigger() *services.Trigger {
	return a.Triggers[a.Config.EventType]
}

// Consume runs the delivery side until ctx is done.
func (a *App) Consume(ctx context.Context) error {
	err := a.Transport.Consume(ctx, a.Gate.Handle)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// WaitIdle waits for an in-process transport to drain. It is a no-op for
// external queues, whose messages outlive the process.
func (a *App) WaitIdle(ctx context.Context) error {
	if q, ok := a.Transport.(*queue.MemoryQueue); ok {
		return q.WaitIdle(ctx)
	}
	return nil
}

// UsesMemoryTransport reports whether dispatch messages stay in this process.
func (a *App) UsesMemoryTransport() bool {
	_, ok := a.Transport.(*queue.MemoryQueue)
	return ok
}

// Close releases the database connection, if any.
func (a *App) Close() {
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Error("close database", "err", err)
		}
	}
}
