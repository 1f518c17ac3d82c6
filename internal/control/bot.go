package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vietddude/hivera/internal/core/config"
	"github.com/vietddude/hivera/internal/core/domain"
	"github.com/vietddude/hivera/internal/engine"
	"github.com/vietddude/hivera/internal/events"
	"github.com/vietddude/hivera/internal/health"
	"github.com/vietddude/hivera/internal/identity"
	"github.com/vietddude/hivera/internal/infra/hivera"
	redisclient "github.com/vietddude/hivera/internal/infra/redis"
	"github.com/vietddude/hivera/internal/infra/storage"
	"github.com/vietddude/hivera/internal/infra/storage/file"
	"github.com/vietddude/hivera/internal/infra/storage/postgres"
	"github.com/vietddude/hivera/internal/metrics"
	"github.com/vietddude/hivera/internal/retry"
)

// shutdownTimeout bounds how long the health server gets to drain.
const shutdownTimeout = 5 * time.Second

// Bot is the main application struct that manages the engine lifecycle.
type Bot struct {
	cfg *config.AppConfig
	log *slog.Logger

	store      storage.AccountStore
	db         *postgres.DB
	lease      engine.Lease
	redis      *redisclient.Client
	identities engine.IdentityResolver
	sessions   engine.SessionFactory
	classify   retry.Classifier
	sink       events.Sink
	extraSinks []events.Sink
	sleep      retry.Sleeper

	monitor      *health.Monitor
	healthServer *health.Server

	scheduler *engine.Scheduler
}

// Option overrides a collaborator, mainly for tests.
type Option func(*Bot)

// WithStore replaces the configured account store.
func WithStore(store storage.AccountStore) Option {
	return func(b *Bot) { b.store = store }
}

// WithSessionFactory replaces the remote API client.
func WithSessionFactory(f engine.SessionFactory) Option {
	return func(b *Bot) { b.sessions = f }
}

// WithIdentityResolver replaces the identity provider.
func WithIdentityResolver(r engine.IdentityResolver) Option {
	return func(b *Bot) { b.identities = r }
}

// WithLease installs an account lease without connecting to Redis.
func WithLease(l engine.Lease) Option {
	return func(b *Bot) { b.lease = l }
}

// WithSink adds an event sink next to the log and metrics sinks.
func WithSink(s events.Sink) Option {
	return func(b *Bot) { b.extraSinks = append(b.extraSinks, s) }
}

// WithSleeper replaces the delay implementation used for retries and cycles.
func WithSleeper(s retry.Sleeper) Option {
	return func(b *Bot) { b.sleep = s }
}

// WithLogger replaces the bot logger.
func WithLogger(log *slog.Logger) Option {
	return func(b *Bot) { b.log = log }
}

// New creates a Bot with all dependencies initialized from cfg. Options are
// applied first; only collaborators they leave unset are built from cfg.
func New(ctx context.Context, cfg *config.AppConfig, opts ...Option) (*Bot, error) {
	b := &Bot{
		cfg:      cfg,
		log:      slog.Default().With("component", "bot"),
		classify: hivera.Classify,
	}
	for _, opt := range opts {
		opt(b)
	}
	sinks := append([]events.Sink{events.NewLogSink(b.log), metrics.NewSink()}, b.extraSinks...)
	b.sink = events.Multi(sinks...)

	// 1. Account store
	if b.store == nil {
		store, db, err := OpenStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		b.store, b.db = store, db
	}

	// 2. Lease
	if b.lease == nil && cfg.Redis.URL != "" {
		rc, err := redisclient.NewClient(cfg.Redis)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("failed to init redis: %w", err)
		}
		b.redis, b.lease = rc, rc
		b.log.Info("Using Redis account leases", "owner", rc.Owner(), "ttl", cfg.Redis.LeaseTTL)
	}

	// 3. Identity and remote API
	if b.identities == nil {
		b.identities = identity.NewProvider()
	}
	if b.sessions == nil {
		client := hivera.NewClient(cfg.API)
		client.SetObserver(metrics.ObserveRequest)
		b.sessions = engine.SessionFactoryFunc(func(a domain.Account, id domain.Identity) engine.Session {
			return client.NewSession(a, id)
		})
	}

	// 4. Health
	b.monitor = health.NewMonitor(nil, health.DefaultGrace)
	if cfg.Server.IsEnabled() {
		b.healthServer = health.NewServer(b.monitor, cfg.Server.Port)
	}
	return b, nil
}

// OpenStore builds the account store selected by cfg. The returned DB is
// non-nil for the postgres source and must be closed by the caller.
func OpenStore(ctx context.Context, cfg *config.AppConfig) (storage.AccountStore, *postgres.DB, error) {
	switch cfg.Accounts.Source {
	case config.SourcePostgres:
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to init db: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to migrate db: %w", err)
		}
		slog.Info("Using PostgreSQL account store")
		return postgres.NewAccountRepo(db), db, nil
	default:
		slog.Info("Using file account store", "path", cfg.Accounts.File)
		return file.NewStore(cfg.Accounts.File), nil, nil
	}
}

// Scheduler returns the engine scheduler once Run has started.
func (b *Bot) Scheduler() *engine.Scheduler {
	return b.scheduler
}

// Monitor returns the health monitor.
func (b *Bot) Monitor() *health.Monitor {
	return b.monitor
}

// Run loads the accounts once and drives the engine until ctx is cancelled,
// single-shot mode finishes, or a fatal error stops it.
func (b *Bot) Run(ctx context.Context) error {
	accounts := storage.Load(ctx, b.store, b.log)
	b.log.Info("Loaded accounts", "count", len(accounts))

	b.scheduler = engine.NewScheduler(b.cfg.Engine.Scheduler(), accounts, engine.Deps{
		Identities: b.identities,
		Sessions:   b.sessions,
		Classify:   b.classify,
		Sink:       b.sink,
		Lease:      b.lease,
		Sleep:      b.sleep,
	})
	b.monitor.SetSource(b.scheduler)

	policy, err := engine.ParseRestartPolicy(b.cfg.Engine.RestartPolicy)
	if err != nil {
		return err
	}
	supervisor := engine.NewSupervisor(b.scheduler, policy, b.cfg.Engine.RestartDelay, b.sink)
	if b.sleep != nil {
		supervisor.WithSleeper(b.sleep)
	}

	g, gctx := errgroup.WithContext(ctx)
	engineDone := make(chan struct{})

	g.Go(func() error {
		defer close(engineDone)
		return supervisor.Run(gctx)
	})

	if b.healthServer != nil {
		g.Go(func() error {
			b.log.Info("Starting health server", "port", b.cfg.Server.Port)
			return b.healthServer.Start()
		})
		g.Go(func() error {
			select {
			case <-gctx.Done():
			case <-engineDone:
			}
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancel()
			return b.healthServer.Stop(shutdownCtx)
		})
	}

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close releases the store, Redis and database connections.
func (b *Bot) Close() error {
	var errs []error
	if b.redis != nil {
		if err := b.redis.Close(); err != nil {
			b.log.Warn("Failed to close Redis", "error", err)
			errs = append(errs, err)
		}
	}
	if b.db != nil {
		if err := b.db.Close(); err != nil {
			b.log.Warn("Failed to close database", "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
