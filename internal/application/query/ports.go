// Package query contains read operations (CQRS - Queries).
//
// Статистика ученика всегда считается заново из проекции его занятий;
// кэш хранит только готовые результаты и сбрасывается командами.
package query

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tutorhub/tutorhub-core/internal/domain/lesson"
	"github.com/tutorhub/tutorhub-core/pkg/logger"
)

// StudentLessonReader загружает проекцию занятий ученика.
type StudentLessonReader interface {
	ListStudentLessons(ctx context.Context, studentID string, filter lesson.StudentFilter) ([]lesson.StudentLesson, error)
}

// StatsCache - кэш готовых представлений статистики.
type StatsCache interface {
	Get(ctx context.Context, studentID, view string, dest interface{}) (bool, error)
	Set(ctx context.Context, studentID, view string, value interface{}) error
}

// nowBucket - шаг, с которым "текущий" момент попадает в ключ кэша.
// Отчёт на текущий момент считается на начало шага.
const nowBucket = time.Minute

// cached реализует cache-aside: ошибки кэша только логируются.
// Чтение, начатое до коммита команды, может записать устаревшее значение
// после сброса кэша; такое значение живёт не дольше TTL.
func cached[T any](ctx context.Context, cache StatsCache, log *zap.Logger, studentID, view string, compute func() (T, error)) (T, error) {
	if cache != nil {
		var hit T
		ok, err := cache.Get(ctx, studentID, view, &hit)
		if err != nil {
			log.Warn("stats cache read failed", logger.StudentID(studentID), zap.String("view", view), zap.Error(err))
		} else if ok {
			return hit, nil
		}
	}

	value, err := compute()
	if err != nil {
		return value, err
	}

	if cache != nil {
		if err := cache.Set(ctx, studentID, view, value); err != nil {
			log.Warn("stats cache write failed", logger.StudentID(studentID), zap.String("view", view), zap.Error(err))
		}
	}
	return value, nil
}

// filterKey строит часть ключа кэша из фильтра.
func filterKey(f lesson.StudentFilter) string {
	parts := []string{f.TeacherID, f.SubjectID, unixOrEmpty(f.From), unixOrEmpty(f.To)}
	return strings.Join(parts, ":")
}

func unixOrEmpty(t *time.Time) string {
	if t == nil {
		return ""
	}
	return fmt.Sprintf("%d", t.Unix())
}

func namedLogger(log *zap.Logger, name string) *zap.Logger {
	if log == nil {
		log = zap.NewNop()
	}
	return log.Named(name)
}
