package query

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tutorhub/tutorhub-core/internal/domain/gamification"
	"github.com/tutorhub/tutorhub-core/internal/domain/shared"
	"github.com/tutorhub/tutorhub-core/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET DASHBOARD QUERY
// Сводка ученика: посещаемость, долг и прогресс, загружаемые параллельно.
// ══════════════════════════════════════════════════════════════════════════════

// Dashboard - сводка ученика.
type Dashboard struct {
	Attendance *AttendanceReport             `json:"attendance"`
	Debt       *DebtReport                   `json:"debt"`
	Progress   *gamification.StudentProgress `json:"progress"`
}

// GetDashboardHandler собирает сводку из трёх запросов.
type GetDashboardHandler struct {
	attendance *GetAttendanceStatsHandler
	debt       *GetDebtHandler
	progress   *GetProgressHandler
	logger     *zap.Logger
}

// NewGetDashboardHandler создаёт обработчик сводки.
func NewGetDashboardHandler(reader StudentLessonReader, cache StatsCache, log *zap.Logger) *GetDashboardHandler {
	return &GetDashboardHandler{
		attendance: NewGetAttendanceStatsHandler(reader, cache, log),
		debt:       NewGetDebtHandler(reader, cache, log),
		progress:   NewGetProgressHandler(reader, cache, log),
		logger:     namedLogger(log, "dashboard"),
	}
}

// Handle выполняет запрос. Ошибка любой части отменяет остальные.
func (h *GetDashboardHandler) Handle(ctx context.Context, studentID string) (*Dashboard, error) {
	if studentID == "" {
		return nil, shared.NewValidationError("dashboard", "get", "student_id is required")
	}

	var out Dashboard
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		report, err := h.attendance.Handle(gctx, GetAttendanceStatsQuery{StudentID: studentID})
		out.Attendance = report
		return err
	})
	g.Go(func() error {
		report, err := h.debt.Handle(gctx, GetDebtQuery{StudentID: studentID})
		out.Debt = report
		return err
	})
	g.Go(func() error {
		progress, err := h.progress.Handle(gctx, GetProgressQuery{StudentID: studentID})
		out.Progress = progress
		return err
	})

	if err := g.Wait(); err != nil {
		h.logger.Warn("dashboard load failed", logger.StudentID(studentID), zap.Error(err))
		return nil, err
	}
	return &out, nil
}
