package query

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tutorhub/tutorhub-core/internal/domain/debt"
	"github.com/tutorhub/tutorhub-core/internal/domain/lesson"
	"github.com/tutorhub/tutorhub-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET DEBT QUERY
// Долг ученика: проведённые, но неоплаченные занятия.
// ══════════════════════════════════════════════════════════════════════════════

// GetDebtQuery содержит параметры запроса.
type GetDebtQuery struct {
	StudentID string

	// TeacherID ограничивает долг одним преподавателем.
	TeacherID string
}

// Validate проверяет корректность параметров.
func (q GetDebtQuery) Validate() error {
	if q.StudentID == "" {
		return shared.NewValidationError("debt", "get", "student_id is required")
	}
	return nil
}

// DebtReport - долг ученика в трёх разрезах.
type DebtReport struct {
	StudentID  string              `json:"studentId"`
	Summary    debt.DebtInfo       `json:"summary"`
	Detailed   debt.DetailedDebt   `json:"detailed"`
	ByTeachers debt.DebtByTeachers `json:"byTeachers"`
}

// GetDebtHandler обрабатывает GetDebtQuery.
type GetDebtHandler struct {
	reader StudentLessonReader
	cache  StatsCache
	logger *zap.Logger
}

// NewGetDebtHandler создаёт обработчик. cache может быть nil.
func NewGetDebtHandler(reader StudentLessonReader, cache StatsCache, log *zap.Logger) *GetDebtHandler {
	return &GetDebtHandler{
		reader: reader,
		cache:  cache,
		logger: namedLogger(log, "debt"),
	}
}

// Handle выполняет запрос.
func (h *GetDebtHandler) Handle(ctx context.Context, q GetDebtQuery) (*DebtReport, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	report, err := cached(ctx, h.cache, h.logger, q.StudentID, "debt:"+q.TeacherID, func() (DebtReport, error) {
		lessons, err := h.reader.ListStudentLessons(ctx, q.StudentID, lesson.StudentFilter{TeacherID: q.TeacherID})
		if err != nil {
			return DebtReport{}, fmt.Errorf("debt: %w", err)
		}
		unpaid := debt.FilterUnpaidDone(lessons, q.TeacherID)
		return DebtReport{
			StudentID:  q.StudentID,
			Summary:    debt.CalculateDebtInfo(unpaid),
			Detailed:   debt.CalculateDetailedDebt(unpaid),
			ByTeachers: debt.CalculateDebtByTeachers(unpaid),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return &report, nil
}
