package daemon

import (
	"context"

	"github.com/nrocha/peerchat/internal/bus"
	"github.com/nrocha/peerchat/internal/config"
	"github.com/nrocha/peerchat/internal/contacts"
	"github.com/nrocha/peerchat/internal/ingest"
	"github.com/nrocha/peerchat/internal/lock"
	"github.com/nrocha/peerchat/internal/logging"
	"github.com/nrocha/peerchat/internal/messages"
	"github.com/nrocha/peerchat/internal/notify"
	"github.com/nrocha/peerchat/internal/outbox"
	"github.com/nrocha/peerchat/internal/presence"
	"github.com/nrocha/peerchat/internal/profile"
	"github.com/nrocha/peerchat/internal/relay"
	"github.com/nrocha/peerchat/internal/status"
	"github.com/nrocha/peerchat/internal/store"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params holds the resolved profile configuration passed to the fx module.
type Params struct {
	ProfileName string
	Config      *config.Profile
}

// Module returns the fx module for the daemon, composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideBus,
			provideStateMachine,
			provideLock,
			provideStore,
			provideResolver,
			provideTracker,
			provideNotifier,
			provideFactory,
			provideTrimmer,
			provideResponder,
			provideHandler,
			provideEngine,
			provideRelayClient,
			provideSender,
			provideServer,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(profile.LogPath(p.ProfileName), p.ProfileName)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := profile.EnsureDir(p.ProfileName); err != nil {
		return nil, err
	}
	logger.Info("acquiring profile lock", zap.String("profile", p.ProfileName))
	l, err := lock.Acquire(profile.Dir(p.ProfileName))
	if err != nil {
		return nil, err
	}
	logger.Info("profile lock acquired")
	return l, nil
}

func provideStore(p Params, logger *zap.Logger) (*store.DB, error) {
	dbPath := p.Config.Storage.Path
	if dbPath == "" {
		dbPath = profile.DBPath(p.ProfileName)
	}
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("store initialized", zap.String("path", dbPath))
	return db, nil
}

func provideResolver(p Params, db *store.DB) *contacts.Resolver {
	return contacts.NewResolver(db, p.Config.Identity.UID)
}

func provideTracker(db *store.DB, b *bus.Bus) *presence.Tracker {
	return presence.NewTracker(db, b)
}

func provideNotifier(b *bus.Bus) notify.Notifier {
	return notify.NewBusNotifier(b)
}

func provideFactory(p Params) *messages.Factory {
	return messages.NewFactory(p.Config.Identity)
}

func provideTrimmer(p Params, db *store.DB, b *bus.Bus) *messages.Trimmer {
	return messages.NewTrimmer(db, b, p.Config.Identity.UID)
}

func provideResponder(db *store.DB, factory *messages.Factory, b *bus.Bus, logger *zap.Logger) *messages.Responder {
	return messages.NewResponder(db, factory, b, logger)
}

func provideHandler(
	db *store.DB,
	resolver *contacts.Resolver,
	tracker *presence.Tracker,
	responder *messages.Responder,
	notifier notify.Notifier,
	factory *messages.Factory,
	trimmer *messages.Trimmer,
	b *bus.Bus,
	logger *zap.Logger,
) *messages.Handler {
	return messages.NewHandler(db, resolver, tracker, responder, notifier, factory, trimmer, b, logger)
}

func provideEngine(b *bus.Bus, handler *messages.Handler, logger *zap.Logger) *ingest.Engine {
	return ingest.NewEngine(b, handler, logger)
}

func provideRelayClient(p Params, b *bus.Bus, machine *status.Machine, logger *zap.Logger) *relay.Client {
	return relay.NewClient(p.Config.Relay.URL, p.Config.Identity.UID, b, machine, logger)
}

func provideSender(db *store.DB, client *relay.Client, b *bus.Bus, logger *zap.Logger) *outbox.Sender {
	return outbox.NewSender(db, client, b, logger)
}

func provideServer(p Params, machine *status.Machine, logger *zap.Logger) *Server {
	return NewServer(p.Config.Metrics.Addr, machine, logger)
}

func registerLifecycle(
	lc fx.Lifecycle,
	srv *Server,
	lk *lock.Lock,
	client *relay.Client,
	engine *ingest.Engine,
	sender *outbox.Sender,
	logger *zap.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			// Ingestion must be listening before the relay connects, or
			// early inbound frames would be dropped by the bus.
			engine.Start(context.Background())

			go func() {
				if err := srv.Start(); err != nil {
					logger.Error("http server error", zap.Error(err))
				}
			}()

			client.Start(context.Background())
			sender.Start(context.Background())
			return nil
		},
		OnStop: func(ctx context.Context) error {
			sender.Stop()
			client.Stop()
			engine.Stop()
			srv.Stop(ctx)
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			return nil
		},
	})
}
