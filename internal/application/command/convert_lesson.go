package command

import (
	"context"
	"fmt"

	"github.com/tutorhub/tutorhub-core/internal/domain/recurrence"
	"github.com/tutorhub/tutorhub-core/internal/domain/shared"
	"github.com/tutorhub/tutorhub-core/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONVERT LESSON COMMAND
// Turns a standalone lesson into occurrence #1 of a new series.
// ══════════════════════════════════════════════════════════════════════════════

// ConvertLessonCommand contains the data to convert a lesson.
type ConvertLessonCommand struct {
	LessonID string
	Input    recurrence.ConvertInput

	CorrelationID string
}

// Validate validates the command.
func (c ConvertLessonCommand) Validate() error {
	if c.LessonID == "" {
		return shared.NewValidationError("series", "convert", "lesson_id is required")
	}
	return nil
}

// ConvertLessonResult contains the stored plan.
type ConvertLessonResult struct {
	Plan *recurrence.ConvertPlan
}

// ConvertLessonHandler handles the ConvertLessonCommand.
type ConvertLessonHandler struct {
	base
}

// NewConvertLessonHandler creates a new ConvertLessonHandler.
func NewConvertLessonHandler(deps Deps) *ConvertLessonHandler {
	return &ConvertLessonHandler{base: newBase(deps, "convert_lesson")}
}

// Handle executes the command.
func (h *ConvertLessonHandler) Handle(ctx context.Context, cmd ConvertLessonCommand) (*ConvertLessonResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	existing, err := h.store.GetLesson(ctx, cmd.LessonID)
	if err != nil {
		return nil, fmt.Errorf("convert_lesson: %w", err)
	}

	plan, err := h.engine.ConvertExistingLessonToSeries(*existing, cmd.Input)
	if err != nil {
		return nil, err
	}

	if err := h.store.ApplyConversion(ctx, plan); err != nil {
		return nil, fmt.Errorf("convert_lesson: %w", err)
	}

	lessons := plan.Lessons()
	h.logger.Info("lesson converted",
		logger.LessonID(plan.First.ID),
		logger.SeriesID(plan.Series.ID),
		logger.Occurrences(len(lessons)),
	)

	students := newStudentSet()
	students.addLessons(*existing)
	students.addLessons(lessons...)
	h.invalidate(ctx, students.ids)

	event := shared.NewSeriesCreatedEvent(plan.Series.ID, plan.Series.TeacherID, len(lessons), students.ids, plan.CapReached, true)
	event.BaseEvent = withCorrelation(event.BaseEvent, cmd.CorrelationID)
	h.publish(event)

	return &ConvertLessonResult{Plan: plan}, nil
}
