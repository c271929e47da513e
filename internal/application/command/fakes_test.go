package command

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tutorhub/tutorhub-core/internal/domain/lesson"
	"github.com/tutorhub/tutorhub-core/internal/domain/recurrence"
	"github.com/tutorhub/tutorhub-core/internal/domain/shared"
)

type sequenceIDs struct {
	n int
}

func (s *sequenceIDs) NewID() string {
	s.n++
	return fmt.Sprintf("gen-%d", s.n)
}

// memoryStore keeps lessons and series in maps and applies plans the way
// the postgres store does.
type memoryStore struct {
	mu       sync.Mutex
	lessons  map[string]lesson.Lesson
	series   map[string]lesson.Series
	rosters  map[string][]lesson.SeriesStudent
	subjects map[string]string
	applyErr error

	// beforeApply runs before a plan is applied, standing in for a writer
	// that commits between the handler's read and its write.
	beforeApply func(s *memoryStore)
}

func newMemoryStore(lessons ...lesson.Lesson) *memoryStore {
	s := &memoryStore{
		lessons:  make(map[string]lesson.Lesson),
		series:   make(map[string]lesson.Series),
		rosters:  make(map[string][]lesson.SeriesStudent),
		subjects: map[string]string{"math": "Математика", "physics": "Физика"},
	}
	for _, l := range lessons {
		s.lessons[l.ID] = l.Clone()
	}
	return s
}

func (s *memoryStore) GetLesson(ctx context.Context, id string) (*lesson.Lesson, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lessons[id]
	if !ok {
		return nil, shared.ErrLessonNotFound
	}
	c := l.Clone()
	if name, ok := s.subjects[c.SubjectID]; ok {
		c.SubjectName = name
	}
	return &c, nil
}

func (s *memoryStore) GetSeries(ctx context.Context, id string) (*lesson.Series, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	series, ok := s.series[id]
	if !ok {
		return nil, shared.ErrSeriesNotFound
	}
	return &series, nil
}

func (s *memoryStore) ListSeriesLessons(ctx context.Context, seriesID string) ([]lesson.Lesson, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []lesson.Lesson
	for _, l := range s.lessons {
		if l.SeriesIDValue() == seriesID {
			out = append(out, l.Clone())
		}
	}
	lesson.SortByStart(out)
	return out, nil
}

func (s *memoryStore) SaveCreatePlan(ctx context.Context, plan *recurrence.CreatePlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.applyErr != nil {
		return s.applyErr
	}
	s.series[plan.Series.ID] = plan.Series
	s.rosters[plan.Series.ID] = plan.Roster
	for _, l := range plan.Lessons {
		s.lessons[l.ID] = l.Clone()
	}
	return nil
}

func (s *memoryStore) ApplyConversion(ctx context.Context, plan *recurrence.ConvertPlan) error {
	s.runBeforeApply()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.applyErr != nil {
		return s.applyErr
	}
	if err := s.checkVersion(plan.First.ID, plan.Version); err != nil {
		return err
	}
	s.series[plan.Series.ID] = plan.Series
	s.rosters[plan.Series.ID] = plan.Roster
	for _, l := range plan.Lessons() {
		s.lessons[l.ID] = l.Clone()
	}
	return nil
}

func (s *memoryStore) ApplyUpdate(ctx context.Context, plan *recurrence.UpdatePlan) error {
	s.runBeforeApply()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.applyErr != nil {
		return s.applyErr
	}
	for _, l := range plan.Lessons {
		if err := s.checkVersion(l.ID, plan.Versions[l.ID]); err != nil {
			return err
		}
	}
	for _, l := range plan.Lessons {
		s.lessons[l.ID] = l.Clone()
	}
	if plan.Series != nil {
		s.series[plan.Series.ID] = *plan.Series
	}
	if plan.SeriesRoster != nil {
		s.rosters[plan.SeriesID] = plan.SeriesRoster
	}
	return nil
}

func (s *memoryStore) ApplyDelete(ctx context.Context, plan *recurrence.DeletePlan) (*recurrence.DeleteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.applyErr != nil {
		return nil, s.applyErr
	}
	result := &recurrence.DeleteResult{}
	seen := make(map[string]bool)
	for id, l := range s.lessons {
		if !plan.Matches(l) {
			continue
		}
		for _, sid := range l.StudentIDs() {
			if !seen[sid] {
				seen[sid] = true
				result.StudentIDs = append(result.StudentIDs, sid)
			}
		}
		delete(s.lessons, id)
		result.LessonsDeleted++
	}
	if plan.DeleteSeries {
		delete(s.series, plan.SeriesID)
		delete(s.rosters, plan.SeriesID)
		result.SeriesDeleted = true
	}
	return result, nil
}

func (s *memoryStore) runBeforeApply() {
	if s.beforeApply != nil {
		s.beforeApply(s)
	}
}

// checkVersion must be called with mu held.
func (s *memoryStore) checkVersion(id string, version time.Time) error {
	current, ok := s.lessons[id]
	if !ok {
		return shared.ErrLessonNotFound
	}
	if !version.IsZero() && !current.UpdatedAt.Equal(version) {
		return shared.ErrLessonModified
	}
	return nil
}

// touch replaces a stored lesson the way another writer would.
func (s *memoryStore) touch(id string, at time.Time, mutate func(l *lesson.Lesson)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.lessons[id].Clone()
	mutate(&l)
	l.UpdatedAt = at
	s.lessons[id] = l
}

type recordingInvalidator struct {
	ids []string
	err error
}

func (r *recordingInvalidator) InvalidateStudents(ctx context.Context, studentIDs ...string) error {
	r.ids = append(r.ids, studentIDs...)
	return r.err
}

type recordingPublisher struct {
	events []shared.Event
}

func (r *recordingPublisher) Publish(event shared.Event) error {
	r.events = append(r.events, event)
	return nil
}

func (r *recordingPublisher) types() []shared.EventType {
	out := make([]shared.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.EventType())
	}
	return out
}

type fixture struct {
	store  *memoryStore
	stats  *recordingInvalidator
	events *recordingPublisher
	logs   *observer.ObservedLogs
	deps   Deps
}

func newFixture(t *testing.T, lessons ...lesson.Lesson) *fixture {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	log := zap.New(core)
	f := &fixture{
		store:  newMemoryStore(lessons...),
		stats:  &recordingInvalidator{},
		events: &recordingPublisher{},
		logs:   logs,
	}
	f.deps = Deps{
		Engine: recurrence.NewEngine(recurrence.DefaultConfig(), &sequenceIDs{}, log),
		Store:  f.store,
		Stats:  f.stats,
		Events: f.events,
		Logger: log,
	}
	return f
}

var errStoreDown = errors.New("store down")

var monday = time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)

func seriesLessons(seriesID string, n int, students ...string) []lesson.Lesson {
	out := make([]lesson.Lesson, 0, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("l%d", i)
		sid := seriesID
		l := lesson.Lesson{
			ID:              id,
			TeacherID:       "t1",
			TeacherName:     "Анна",
			SubjectID:       "math",
			SubjectName:     "Математика",
			SeriesID:        &sid,
			StartAt:         monday.AddDate(0, 0, 7*i),
			DurationMinutes: 60,
			PriceRub:        1000,
			Status:          lesson.StatusPlanned,
		}
		for _, st := range students {
			l.Students = append(l.Students, lesson.NewLessonStudent(id, st, 1000))
		}
		out = append(out, l)
	}
	return out
}

func standalone(id string, students ...string) lesson.Lesson {
	l := lesson.Lesson{
		ID:              id,
		TeacherID:       "t1",
		SubjectID:       "math",
		SubjectName:     "Математика",
		StartAt:         monday,
		DurationMinutes: 60,
		PriceRub:        1000,
		Status:          lesson.StatusPlanned,
	}
	for _, st := range students {
		l.Students = append(l.Students, lesson.NewLessonStudent(id, st, 1000))
	}
	return l
}
