// Package command contains write operations (CQRS - Commands).
//
// Every handler follows the same order: load the records, let the
// recurrence engine build a plan, hand the plan to the store (one
// transaction), drop cached statistics of the touched students, publish
// events. Nothing after the store call can fail the command.
package command

import (
	"context"

	"github.com/tutorhub/tutorhub-core/internal/domain/lesson"
	"github.com/tutorhub/tutorhub-core/internal/domain/recurrence"
)

// LessonStore loads lessons and applies recurrence plans atomically.
type LessonStore interface {
	GetLesson(ctx context.Context, id string) (*lesson.Lesson, error)
	GetSeries(ctx context.Context, id string) (*lesson.Series, error)
	ListSeriesLessons(ctx context.Context, seriesID string) ([]lesson.Lesson, error)

	SaveCreatePlan(ctx context.Context, plan *recurrence.CreatePlan) error
	ApplyConversion(ctx context.Context, plan *recurrence.ConvertPlan) error
	ApplyUpdate(ctx context.Context, plan *recurrence.UpdatePlan) error
	ApplyDelete(ctx context.Context, plan *recurrence.DeletePlan) (*recurrence.DeleteResult, error)
}

// StatsInvalidator drops cached statistics of students.
type StatsInvalidator interface {
	InvalidateStudents(ctx context.Context, studentIDs ...string) error
}

// studentSet collects student ids in first-seen order.
type studentSet struct {
	seen map[string]struct{}
	ids  []string
}

func newStudentSet() *studentSet {
	return &studentSet{seen: make(map[string]struct{})}
}

func (s *studentSet) add(ids ...string) {
	for _, id := range ids {
		if _, ok := s.seen[id]; ok {
			continue
		}
		s.seen[id] = struct{}{}
		s.ids = append(s.ids, id)
	}
}

func (s *studentSet) addLessons(lessons ...lesson.Lesson) {
	for _, l := range lessons {
		s.add(l.StudentIDs()...)
	}
}
