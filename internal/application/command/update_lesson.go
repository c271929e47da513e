package command

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tutorhub/tutorhub-core/internal/domain/lesson"
	"github.com/tutorhub/tutorhub-core/internal/domain/recurrence"
	"github.com/tutorhub/tutorhub-core/internal/domain/shared"
	"github.com/tutorhub/tutorhub-core/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE LESSON COMMAND
// Applies an edit to one lesson, to it and the later lessons of its series,
// or to the whole series. Students new to the edited lesson are notified.
// ══════════════════════════════════════════════════════════════════════════════

// UpdateLessonCommand contains the data to update a lesson.
type UpdateLessonCommand struct {
	LessonID string
	Patch    recurrence.LessonPatch

	// Scope is "this", "future" or "all"; empty means "this".
	Scope string

	CorrelationID string
}

// Validate validates the command.
func (c UpdateLessonCommand) Validate() error {
	if c.LessonID == "" {
		return shared.NewValidationError("lesson", "update", "lesson_id is required")
	}
	return nil
}

// UpdateLessonResult contains the stored plan.
type UpdateLessonResult struct {
	Plan *recurrence.UpdatePlan

	// Lesson is the final state of the edited lesson.
	Lesson lesson.Lesson
}

// UpdateLessonHandler handles the UpdateLessonCommand.
type UpdateLessonHandler struct {
	base
}

// NewUpdateLessonHandler creates a new UpdateLessonHandler.
func NewUpdateLessonHandler(deps Deps) *UpdateLessonHandler {
	return &UpdateLessonHandler{base: newBase(deps, "update_lesson")}
}

// Handle executes the command.
func (h *UpdateLessonHandler) Handle(ctx context.Context, cmd UpdateLessonCommand) (*UpdateLessonResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	scope, err := recurrence.ParseScope(cmd.Scope)
	if err != nil {
		return nil, err
	}

	target, err := h.store.GetLesson(ctx, cmd.LessonID)
	if err != nil {
		return nil, fmt.Errorf("update_lesson: %w", err)
	}

	var (
		series        *lesson.Series
		seriesLessons []lesson.Lesson
	)
	if target.InSeries() && scope != recurrence.ScopeThis && cmd.Patch.HasSeriesShared() {
		if series, err = h.store.GetSeries(ctx, target.SeriesIDValue()); err != nil {
			return nil, fmt.Errorf("update_lesson: %w", err)
		}
		if seriesLessons, err = h.store.ListSeriesLessons(ctx, target.SeriesIDValue()); err != nil {
			return nil, fmt.Errorf("update_lesson: %w", err)
		}
	}

	plan, err := h.engine.ApplyScopedUpdate(*target, seriesLessons, series, cmd.Patch, scope)
	if err != nil {
		return nil, err
	}

	if err := h.store.ApplyUpdate(ctx, plan); err != nil {
		return nil, fmt.Errorf("update_lesson: %w", err)
	}

	h.logger.Info("lesson updated",
		logger.LessonID(plan.TargetID),
		logger.SeriesID(plan.SeriesID),
		logger.Scope(string(plan.Scope)),
		zap.Bool("degraded", plan.Degraded),
		zap.Int("affected", len(plan.Lessons)),
	)

	students := newStudentSet()
	previous := make(map[string]lesson.Lesson, len(seriesLessons)+1)
	previous[target.ID] = *target
	for _, l := range seriesLessons {
		previous[l.ID] = l
	}
	for _, l := range plan.Lessons {
		if before, ok := previous[l.ID]; ok {
			students.addLessons(before)
		}
		students.addLessons(l)
	}
	h.invalidate(ctx, students.ids)

	updated := plan.Target()
	changed := shared.NewLessonsUpdatedEvent(plan.TargetID, plan.SeriesID, string(plan.Scope), len(plan.Lessons), students.ids, plan.Degraded)
	changed.BaseEvent = withCorrelation(changed.BaseEvent, cmd.CorrelationID)
	events := []shared.Event{changed}

	if len(plan.NewStudentIDs) > 0 {
		subject := h.subjectName(ctx, updated)
		added := shared.NewStudentsAddedEvent(updated.ID, plan.NewStudentIDs, subject, updated.TeacherName, updated.StartAt)
		added.BaseEvent = withCorrelation(added.BaseEvent, cmd.CorrelationID)
		events = append(events, added)
	}
	h.publish(events...)

	return &UpdateLessonResult{Plan: plan, Lesson: updated}, nil
}

// subjectName возвращает название предмета занятия. После смены предмета план
// его не знает, и название перечитывается из хранилища.
func (h *UpdateLessonHandler) subjectName(ctx context.Context, updated lesson.Lesson) string {
	if updated.SubjectName != "" {
		return updated.SubjectName
	}
	stored, err := h.store.GetLesson(ctx, updated.ID)
	if err != nil {
		h.logger.Warn("failed to reload subject name",
			logger.LessonID(updated.ID),
			zap.Error(err),
		)
		return ""
	}
	return stored.SubjectName
}
