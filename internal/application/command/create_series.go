package command

import (
	"context"
	"fmt"
	"time"

	"github.com/tutorhub/tutorhub-core/internal/domain/recurrence"
	"github.com/tutorhub/tutorhub-core/internal/domain/shared"
	"github.com/tutorhub/tutorhub-core/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREATE SERIES COMMAND
// Creates a recurring series and all of its lessons at once.
// ══════════════════════════════════════════════════════════════════════════════

// CreateSeriesCommand contains the data to create a series.
type CreateSeriesCommand struct {
	Definition recurrence.SeriesDefinition

	// FirstStart is the start of occurrence #1; it fixes the weekday and time of day.
	FirstStart time.Time

	StudentIDs []string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c CreateSeriesCommand) Validate() error {
	if c.Definition.TeacherID == "" {
		return shared.NewValidationError("series", "create", "teacher_id is required")
	}
	if c.Definition.SubjectID == "" {
		return shared.NewValidationError("series", "create", "subject_id is required")
	}
	if c.FirstStart.IsZero() {
		return shared.NewValidationError("series", "create", "first_start is required")
	}
	return nil
}

// CreateSeriesResult contains the stored plan.
type CreateSeriesResult struct {
	Plan *recurrence.CreatePlan
}

// CreateSeriesHandler handles the CreateSeriesCommand.
// Students added at creation are not notified.
type CreateSeriesHandler struct {
	base
}

// NewCreateSeriesHandler creates a new CreateSeriesHandler.
func NewCreateSeriesHandler(deps Deps) *CreateSeriesHandler {
	return &CreateSeriesHandler{base: newBase(deps, "create_series")}
}

// Handle executes the command.
func (h *CreateSeriesHandler) Handle(ctx context.Context, cmd CreateSeriesCommand) (*CreateSeriesResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	plan, err := h.engine.Create(cmd.Definition, cmd.FirstStart, cmd.StudentIDs)
	if err != nil {
		return nil, err
	}

	if err := h.store.SaveCreatePlan(ctx, plan); err != nil {
		return nil, fmt.Errorf("create_series: %w", err)
	}

	h.logger.Info("series created",
		logger.SeriesID(plan.Series.ID),
		logger.TeacherID(plan.Series.TeacherID),
		logger.Occurrences(len(plan.Lessons)),
	)

	students := newStudentSet()
	for _, r := range plan.Roster {
		students.add(r.StudentID)
	}
	h.invalidate(ctx, students.ids)

	event := shared.NewSeriesCreatedEvent(plan.Series.ID, plan.Series.TeacherID, len(plan.Lessons), students.ids, plan.CapReached, false)
	event.BaseEvent = withCorrelation(event.BaseEvent, cmd.CorrelationID)
	h.publish(event)

	return &CreateSeriesResult{Plan: plan}, nil
}
