package command

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tutorhub/tutorhub-core/internal/domain/recurrence"
	"github.com/tutorhub/tutorhub-core/internal/domain/shared"
	"github.com/tutorhub/tutorhub-core/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// DELETE LESSON COMMAND
// Deletes one lesson, it and the later lessons of its series, or the series.
// ══════════════════════════════════════════════════════════════════════════════

// DeleteLessonCommand contains the data to delete lessons.
type DeleteLessonCommand struct {
	LessonID string

	// Scope is "this", "future" or "all"; empty means "this".
	Scope string

	CorrelationID string
}

// Validate validates the command.
func (c DeleteLessonCommand) Validate() error {
	if c.LessonID == "" {
		return shared.NewValidationError("lesson", "delete", "lesson_id is required")
	}
	return nil
}

// DeleteLessonResult contains the plan and what the store removed.
type DeleteLessonResult struct {
	Plan    *recurrence.DeletePlan
	Deleted *recurrence.DeleteResult
}

// DeleteLessonHandler handles the DeleteLessonCommand.
type DeleteLessonHandler struct {
	base
}

// NewDeleteLessonHandler creates a new DeleteLessonHandler.
func NewDeleteLessonHandler(deps Deps) *DeleteLessonHandler {
	return &DeleteLessonHandler{base: newBase(deps, "delete_lesson")}
}

// Handle executes the command.
func (h *DeleteLessonHandler) Handle(ctx context.Context, cmd DeleteLessonCommand) (*DeleteLessonResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	scope, err := recurrence.ParseScope(cmd.Scope)
	if err != nil {
		return nil, err
	}

	target, err := h.store.GetLesson(ctx, cmd.LessonID)
	if err != nil {
		return nil, fmt.Errorf("delete_lesson: %w", err)
	}

	plan, err := h.engine.DeleteScoped(*target, scope)
	if err != nil {
		return nil, err
	}

	deleted, err := h.store.ApplyDelete(ctx, plan)
	if err != nil {
		return nil, fmt.Errorf("delete_lesson: %w", err)
	}

	h.logger.Info("lessons deleted",
		logger.LessonID(plan.LessonID),
		logger.SeriesID(plan.SeriesID),
		logger.Scope(string(plan.Scope)),
		zap.Bool("degraded", plan.Degraded),
		zap.Int("deleted", deleted.LessonsDeleted),
	)

	h.invalidate(ctx, deleted.StudentIDs)

	event := shared.NewLessonsDeletedEvent(plan.LessonID, plan.SeriesID, string(plan.Scope), deleted.LessonsDeleted, deleted.StudentIDs, plan.Degraded)
	event.BaseEvent = withCorrelation(event.BaseEvent, cmd.CorrelationID)
	h.publish(event)

	return &DeleteLessonResult{Plan: plan, Deleted: deleted}, nil
}
