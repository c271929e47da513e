// Package app wires the lessons core together: Postgres store, Redis stats
// cache, in-memory event bus, command and query handlers, and the
// notification path. Transports embed an *App and call its handlers.
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/tutorhub/tutorhub-core/config"
	"github.com/tutorhub/tutorhub-core/internal/application/command"
	"github.com/tutorhub/tutorhub-core/internal/application/eventhandler"
	"github.com/tutorhub/tutorhub-core/internal/application/query"
	"github.com/tutorhub/tutorhub-core/internal/domain/notification"
	"github.com/tutorhub/tutorhub-core/internal/domain/recurrence"
	"github.com/tutorhub/tutorhub-core/internal/infrastructure/messaging"
	"github.com/tutorhub/tutorhub-core/internal/infrastructure/persistence/postgres"
	"github.com/tutorhub/tutorhub-core/internal/infrastructure/persistence/redis"
	"github.com/tutorhub/tutorhub-core/internal/infrastructure/service"
)

// Commands groups the write-side handlers.
type Commands struct {
	CreateSeries  *command.CreateSeriesHandler
	ConvertLesson *command.ConvertLessonHandler
	UpdateLesson  *command.UpdateLessonHandler
	DeleteLesson  *command.DeleteLessonHandler
}

// Queries groups the read-side handlers.
type Queries struct {
	Attendance *query.GetAttendanceStatsHandler
	Debt       *query.GetDebtHandler
	Progress   *query.GetProgressHandler
	Dashboard  *query.GetDashboardHandler
}

// App owns the infrastructure and exposes the handlers built on top of it.
type App struct {
	Commands Commands
	Queries  Queries

	cfg   *config.Config
	log   *zap.Logger
	conn  *postgres.Connection
	cache *redis.Cache
	bus   *messaging.InMemoryEventBus
}

// New connects to Postgres and, unless disabled, Redis, then builds the
// handlers. A Redis outage at startup is not fatal: the app runs without
// the stats cache and notification dedupe.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}

	conn, err := postgres.NewConnection(ctx, cfg.PostgresConfig(), log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	a := &App{cfg: cfg, log: log, conn: conn}

	if !cfg.Redis.Disabled {
		cache, err := redis.NewCache(cfg.RedisCacheConfig())
		if err != nil {
			log.Warn("failed to connect to Redis, caching disabled", zap.Error(err))
		} else {
			a.cache = cache
		}
	}

	a.bus = newEventBus(cfg, log)

	var dedupe service.DedupeStore
	if a.cache != nil {
		dedupe = a.cache
	}
	if err := wireNotifications(a.bus, newSender(cfg, dedupe, log), cfg, log); err != nil {
		a.shutdown()
		return nil, err
	}

	var stats *redis.StatsCache
	if a.cache != nil && cfg.Features.IsEnabled(config.FeatureCacheStats) {
		stats = redis.NewStatsCache(a.cache, cfg.Cache.StatsTTL, log)
	}

	store := postgres.NewLessonStore(conn, log)
	a.Commands, a.Queries = assemble(cfg, log, store, stats, a.bus)

	log.Info("lessons core initialized",
		zap.String("env", string(cfg.App.Environment)),
		zap.Bool("stats_cache", stats != nil),
		zap.Bool("notifications", cfg.Features.IsEnabled(config.FeatureNotifyStudentsAdded)),
	)
	return a, nil
}

// Store is the persistence surface the handlers need.
type Store interface {
	command.LessonStore
	query.StudentLessonReader
}

// assemble builds handlers from already-connected components. stats may be nil.
func assemble(cfg *config.Config, log *zap.Logger, store Store, stats *redis.StatsCache, bus *messaging.InMemoryEventBus) (Commands, Queries) {
	deps := command.Deps{
		Engine: recurrence.NewEngine(cfg.EngineConfig(), service.NewIDGenerator(), log),
		Store:  store,
		Events: bus,
		Logger: log,
	}
	var cache query.StatsCache
	if stats != nil {
		deps.Stats = stats
		cache = stats
	}

	commands := Commands{
		CreateSeries:  command.NewCreateSeriesHandler(deps),
		ConvertLesson: command.NewConvertLessonHandler(deps),
		UpdateLesson:  command.NewUpdateLessonHandler(deps),
		DeleteLesson:  command.NewDeleteLessonHandler(deps),
	}
	queries := Queries{
		Attendance: query.NewGetAttendanceStatsHandler(store, cache, log),
		Debt:       query.NewGetDebtHandler(store, cache, log),
		Progress:   query.NewGetProgressHandler(store, cache, log),
		Dashboard:  query.NewGetDashboardHandler(store, cache, log),
	}
	return commands, queries
}

func newEventBus(cfg *config.Config, log *zap.Logger) *messaging.InMemoryEventBus {
	busConfig := messaging.DefaultInMemoryEventBusConfig()
	busConfig.Logger = log
	busConfig.WorkerPoolSize = cfg.Notify.Workers
	return messaging.NewInMemoryEventBus(busConfig)
}

// newSender builds the notification chain: rollout gate, dedupe, breaker,
// log sender. dedupe may be nil.
func newSender(cfg *config.Config, dedupe service.DedupeStore, log *zap.Logger) notification.Sender {
	var sender notification.Sender = service.NewBreakerSender(
		service.NewLogSender(log, cfg.App.Location),
		service.NewChannelBreaker(log),
	)

	if dedupe != nil && cfg.Features.IsEnabled(config.FeatureNotifyDedupe) {
		sender = service.NewDedupSender(sender, dedupe, cfg.Notify.DedupeTTL, redis.NotificationKey, log)
	}

	next := sender
	return notification.SenderFunc(func(ctx context.Context, notice notification.StudentAddedNotice) error {
		if !cfg.Features.IsEnabledFor(config.FeatureNotifyStudentsAdded, notice.StudentID) {
			return nil
		}
		return next.SendStudentAdded(ctx, notice)
	})
}

func wireNotifications(bus *messaging.InMemoryEventBus, sender notification.Sender, cfg *config.Config, log *zap.Logger) error {
	if !cfg.Features.IsEnabled(config.FeatureNotifyStudentsAdded) {
		log.Info("student added notifications disabled")
		return nil
	}

	handler := eventhandler.NewOnStudentsAddedHandler(sender, log, eventhandler.StudentsAddedConfig{
		MaxAttempts: cfg.Notify.MaxAttempts,
	})
	if err := handler.Register(bus); err != nil {
		return fmt.Errorf("failed to subscribe %s: %w", handler.EventType(), err)
	}
	return nil
}

// Ping checks the database and, if connected, Redis.
func (a *App) Ping(ctx context.Context) error {
	if err := a.conn.Ping(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if a.cache != nil {
		if err := a.cache.Ping(ctx); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

// Close drains the event bus and releases connections. It gives up waiting
// for in-flight notifications when ctx is done.
func (a *App) Close(ctx context.Context) error {
	done := make(chan error, 1)
	go func() {
		done <- a.shutdown()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *App) shutdown() error {
	var errs []error

	a.log.Info("closing event bus...")
	if err := a.bus.Close(); err != nil && !errors.Is(err, messaging.ErrEventBusClosed) {
		errs = append(errs, fmt.Errorf("event bus: %w", err))
	}

	if a.cache != nil {
		a.log.Info("closing Redis connection...")
		if err := a.cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}

	a.log.Info("closing database connection...")
	a.conn.Close()

	return errors.Join(errs...)
}
