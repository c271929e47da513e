package query

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tutorhub/tutorhub-core/internal/domain/lesson"
	"github.com/tutorhub/tutorhub-core/internal/domain/shared"
	"github.com/tutorhub/tutorhub-core/internal/domain/stats"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET ATTENDANCE STATS QUERY
// Посещаемость ученика: общая, по предметам и по преподавателям.
// ══════════════════════════════════════════════════════════════════════════════

// GetAttendanceStatsQuery содержит параметры запроса.
type GetAttendanceStatsQuery struct {
	StudentID string
	Filter    lesson.StudentFilter

	// AsOf - момент, относительно которого занятие считается прошедшим.
	// Пустое значение означает "сейчас"; только такие запросы кэшируются.
	AsOf time.Time
}

// Validate проверяет корректность параметров.
func (q GetAttendanceStatsQuery) Validate() error {
	if q.StudentID == "" {
		return shared.NewValidationError("stats", "attendance", "student_id is required")
	}
	if q.Filter.From != nil && q.Filter.To != nil && q.Filter.To.Before(*q.Filter.From) {
		return shared.NewValidationError("stats", "attendance", "filter end is before its start")
	}
	return nil
}

// AttendanceReport - посещаемость ученика.
type AttendanceReport struct {
	StudentID string                `json:"studentId"`
	Overall   stats.AttendanceStats `json:"overall"`
	BySubject []stats.GroupStats    `json:"bySubject"`
	ByTeacher []stats.GroupStats    `json:"byTeacher"`
	AsOf      time.Time             `json:"asOf"`
}

// GetAttendanceStatsHandler обрабатывает GetAttendanceStatsQuery.
type GetAttendanceStatsHandler struct {
	reader StudentLessonReader
	cache  StatsCache
	logger *zap.Logger
	now    func() time.Time
}

// NewGetAttendanceStatsHandler создаёт обработчик. cache может быть nil.
func NewGetAttendanceStatsHandler(reader StudentLessonReader, cache StatsCache, log *zap.Logger) *GetAttendanceStatsHandler {
	return &GetAttendanceStatsHandler{
		reader: reader,
		cache:  cache,
		logger: namedLogger(log, "attendance_stats"),
		now:    time.Now,
	}
}

// Handle выполняет запрос.
func (h *GetAttendanceStatsHandler) Handle(ctx context.Context, q GetAttendanceStatsQuery) (*AttendanceReport, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	compute := func(asOf time.Time) (AttendanceReport, error) {
		lessons, err := h.reader.ListStudentLessons(ctx, q.StudentID, q.Filter)
		if err != nil {
			return AttendanceReport{}, fmt.Errorf("attendance_stats: %w", err)
		}
		return AttendanceReport{
			StudentID: q.StudentID,
			Overall:   stats.CalculateAttendanceStats(lessons, asOf),
			BySubject: stats.CalculateStatsBySubject(lessons, asOf),
			ByTeacher: stats.CalculateStatsByTeacher(lessons, asOf),
			AsOf:      asOf,
		}, nil
	}

	if !q.AsOf.IsZero() {
		report, err := compute(q.AsOf)
		if err != nil {
			return nil, err
		}
		return &report, nil
	}

	asOf := h.now().Truncate(nowBucket)
	view := "attendance:" + filterKey(q.Filter) + ":" + unixOrEmpty(&asOf)
	report, err := cached(ctx, h.cache, h.logger, q.StudentID, view, func() (AttendanceReport, error) {
		return compute(asOf)
	})
	if err != nil {
		return nil, err
	}
	return &report, nil
}
