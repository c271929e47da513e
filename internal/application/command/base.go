package command

import (
	"context"

	"go.uber.org/zap"

	"github.com/tutorhub/tutorhub-core/internal/domain/recurrence"
	"github.com/tutorhub/tutorhub-core/internal/domain/shared"
)

// Deps groups the collaborators shared by all lesson commands.
// Stats and Events may be nil.
type Deps struct {
	Engine *recurrence.Engine
	Store  LessonStore
	Stats  StatsInvalidator
	Events shared.EventPublisher
	Logger *zap.Logger
}

type base struct {
	engine *recurrence.Engine
	store  LessonStore
	stats  StatsInvalidator
	events shared.EventPublisher
	logger *zap.Logger
}

func newBase(deps Deps, name string) base {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return base{
		engine: deps.Engine,
		store:  deps.Store,
		stats:  deps.Stats,
		events: deps.Events,
		logger: log.Named(name),
	}
}

// invalidate is best effort: the mutation is already committed.
func (b base) invalidate(ctx context.Context, studentIDs []string) {
	if b.stats == nil || len(studentIDs) == 0 {
		return
	}
	if err := b.stats.InvalidateStudents(ctx, studentIDs...); err != nil {
		b.logger.Warn("failed to invalidate student stats",
			zap.Strings("student_ids", studentIDs),
			zap.Error(err),
		)
	}
}

func (b base) publish(events ...shared.Event) {
	if b.events == nil {
		return
	}
	for _, event := range events {
		if err := b.events.Publish(event); err != nil {
			b.logger.Warn("failed to publish event",
				zap.String("event_type", string(event.EventType())),
				zap.String("aggregate_id", event.AggregateID()),
				zap.Error(err),
			)
		}
	}
}

func withCorrelation(event shared.BaseEvent, correlationID string) shared.BaseEvent {
	if correlationID == "" {
		return event
	}
	return event.WithCorrelationID(correlationID)
}
