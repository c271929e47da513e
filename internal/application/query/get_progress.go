package query

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tutorhub/tutorhub-core/internal/domain/gamification"
	"github.com/tutorhub/tutorhub-core/internal/domain/lesson"
	"github.com/tutorhub/tutorhub-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET PROGRESS QUERY
// Серия посещений и достижения ученика.
// ══════════════════════════════════════════════════════════════════════════════

// GetProgressQuery содержит параметры запроса.
type GetProgressQuery struct {
	StudentID string
}

// GetProgressHandler обрабатывает GetProgressQuery.
type GetProgressHandler struct {
	reader StudentLessonReader
	cache  StatsCache
	logger *zap.Logger
}

// NewGetProgressHandler создаёт обработчик. cache может быть nil.
func NewGetProgressHandler(reader StudentLessonReader, cache StatsCache, log *zap.Logger) *GetProgressHandler {
	return &GetProgressHandler{
		reader: reader,
		cache:  cache,
		logger: namedLogger(log, "progress"),
	}
}

// Handle выполняет запрос.
func (h *GetProgressHandler) Handle(ctx context.Context, q GetProgressQuery) (*gamification.StudentProgress, error) {
	if q.StudentID == "" {
		return nil, shared.NewValidationError("progress", "get", "student_id is required")
	}

	progress, err := cached(ctx, h.cache, h.logger, q.StudentID, "progress", func() (gamification.StudentProgress, error) {
		lessons, err := h.reader.ListStudentLessons(ctx, q.StudentID, lesson.StudentFilter{})
		if err != nil {
			return gamification.StudentProgress{}, fmt.Errorf("progress: %w", err)
		}
		return gamification.Progress(lessons), nil
	})
	if err != nil {
		return nil, err
	}
	return &progress, nil
}
