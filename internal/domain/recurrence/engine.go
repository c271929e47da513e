// Package recurrence генерирует серии повторяющихся занятий и строит
// намерения изменений (планы) для правок и удалений с областью действия
// this / future / all.
//
// Движок ничего не сохраняет сам: он возвращает декларативный план, который
// хранилище обязано применить одной транзакцией.
package recurrence

import (
	"time"

	"go.uber.org/zap"

	"github.com/tutorhub/tutorhub-core/internal/domain/lesson"
	"github.com/tutorhub/tutorhub-core/internal/domain/shared"
	"github.com/tutorhub/tutorhub-core/pkg/logger"
	"github.com/tutorhub/tutorhub-core/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

const (
	// DefaultOccurrences - количество занятий, если не задано ни количество, ни дата окончания.
	DefaultOccurrences = 10

	// MaxOccurrences - жёсткий предел генерации для одной серии.
	MaxOccurrences = 200
)

// Config задаёт границы генерации.
type Config struct {
	DefaultOccurrences int
	MaxOccurrences     int
}

// DefaultConfig возвращает стандартные границы: 10 по умолчанию, не более 200.
func DefaultConfig() Config {
	return Config{
		DefaultOccurrences: DefaultOccurrences,
		MaxOccurrences:     MaxOccurrences,
	}
}

func (c Config) normalized() Config {
	if c.MaxOccurrences <= 0 {
		c.MaxOccurrences = MaxOccurrences
	}
	if c.DefaultOccurrences <= 0 {
		c.DefaultOccurrences = DefaultOccurrences
	}
	if c.DefaultOccurrences > c.MaxOccurrences {
		c.DefaultOccurrences = c.MaxOccurrences
	}
	return c
}

// IDGenerator выдаёт идентификаторы для новых серий и занятий.
type IDGenerator interface {
	NewID() string
}

// ══════════════════════════════════════════════════════════════════════════════
// ENGINE
// ══════════════════════════════════════════════════════════════════════════════

// Engine - движок повторяющихся занятий. Безопасен для конкурентного использования:
// все операции чистые и не хранят состояния между вызовами.
type Engine struct {
	config Config
	ids    IDGenerator
	log    *zap.Logger
	now    func() time.Time
}

// NewEngine создаёт движок.
func NewEngine(config Config, ids IDGenerator, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		config: config.normalized(),
		ids:    ids,
		log:    log.Named("recurrence"),
		now:    time.Now,
	}
}

// SeriesDefinition - параметры новой серии.
type SeriesDefinition struct {
	TeacherID       string           `json:"teacherId"`
	TeacherName     string           `json:"teacherName,omitempty"`
	SubjectID       string           `json:"subjectId"`
	SubjectName     string           `json:"subjectName,omitempty"`
	Frequency       lesson.Frequency `json:"frequency"`
	DurationMinutes int              `json:"durationMinutes"`
	PriceRub        int              `json:"priceRub"`
	IsFree          bool             `json:"isFree"`
	MaxOccurrences  *int             `json:"maxOccurrences"`
	EndDate         *time.Time       `json:"endDate"`
}

// Validate проверяет определение серии до построения любого плана.
func (d SeriesDefinition) Validate(firstStart time.Time) error {
	return validateBounds(d.Frequency, d.DurationMinutes, d.PriceRub, d.MaxOccurrences, d.EndDate, firstStart)
}

func validateBounds(freq lesson.Frequency, duration, price int, maxOcc *int, endDate *time.Time, firstStart time.Time) error {
	if !freq.IsValid() {
		return shared.ErrInvalidFrequency
	}
	if duration <= 0 {
		return shared.ErrInvalidDuration
	}
	if price < 0 {
		return shared.ErrNegativePrice
	}
	if maxOcc != nil && *maxOcc <= 0 {
		return shared.ErrInvalidOccurrences
	}
	if endDate != nil && endDate.Before(firstStart) {
		return shared.ErrEndDateBeforeStart
	}
	return nil
}

// CreatePlan - намерение "создать серию и N занятий".
type CreatePlan struct {
	Series     lesson.Series          `json:"series"`
	Roster     []lesson.SeriesStudent `json:"roster"`
	Lessons    []lesson.Lesson        `json:"lessons"`
	CapReached bool                   `json:"capReached"`
}

// Create строит серию и все её занятия сразу.
// Каждый ученик из studentIDs записывается на каждое занятие и в постоянный состав серии.
func (e *Engine) Create(def SeriesDefinition, firstStart time.Time, studentIDs []string) (*CreatePlan, error) {
	if err := def.Validate(firstStart); err != nil {
		return nil, err
	}

	now := e.now()
	series := lesson.Series{
		ID:              e.ids.NewID(),
		TeacherID:       def.TeacherID,
		SubjectID:       def.SubjectID,
		Frequency:       def.Frequency,
		DayOfWeek:       timeutil.DayOfWeek(firstStart),
		TimeOfDay:       timeutil.TimeOfDay(firstStart),
		DurationMinutes: def.DurationMinutes,
		PriceRub:        def.PriceRub,
		IsFree:          def.IsFree,
		MaxOccurrences:  def.MaxOccurrences,
		EndDate:         def.EndDate,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	students := uniqueIDs(studentIDs)
	price := lesson.EffectivePrice(def.PriceRub, def.IsFree)
	roster := make([]lesson.SeriesStudent, 0, len(students))
	for _, id := range students {
		roster = append(roster, lesson.SeriesStudent{SeriesID: series.ID, StudentID: id, PriceRub: price})
	}

	starts, capReached := e.occurrences(firstStart, def.Frequency, def.MaxOccurrences, def.EndDate)
	lessons := make([]lesson.Lesson, 0, len(starts))
	for _, start := range starts {
		lessons = append(lessons, e.newOccurrence(series, def.TeacherName, def.SubjectName, start, roster, now))
	}

	if capReached {
		e.log.Info("series generation cap reached",
			logger.SeriesID(series.ID),
			logger.Occurrences(len(lessons)),
		)
	}
	e.log.Debug("series planned",
		logger.SeriesID(series.ID),
		logger.TeacherID(series.TeacherID),
		logger.Occurrences(len(lessons)),
	)

	return &CreatePlan{
		Series:     series,
		Roster:     roster,
		Lessons:    lessons,
		CapReached: capReached,
	}, nil
}

// ConvertInput - параметры превращения отдельного занятия в серию.
// Незаданные переопределения берутся из самого занятия.
type ConvertInput struct {
	Frequency       lesson.Frequency `json:"frequency"`
	StartAt         *time.Time       `json:"startAt"`
	SubjectID       *string          `json:"subjectId"`
	DurationMinutes *int             `json:"durationMinutes"`
	PriceRub        *int             `json:"priceRub"`
	IsFree          *bool            `json:"isFree"`
	MaxOccurrences  *int             `json:"maxOccurrences"`
	EndDate         *time.Time       `json:"endDate"`
}

// ConvertPlan - намерение "превратить занятие в вхождение #1 новой серии".
// Version - UpdatedAt исходного занятия на момент чтения.
type ConvertPlan struct {
	Series     lesson.Series          `json:"series"`
	Roster     []lesson.SeriesStudent `json:"roster"`
	First      lesson.Lesson          `json:"first"`
	Generated  []lesson.Lesson        `json:"generated"`
	CapReached bool                   `json:"capReached"`
	Version    time.Time              `json:"version"`
}

// Lessons возвращает все занятия серии: исходное и сгенерированные.
func (p *ConvertPlan) Lessons() []lesson.Lesson {
	out := make([]lesson.Lesson, 0, len(p.Generated)+1)
	out = append(out, p.First)
	return append(out, p.Generated...)
}

// ConvertExistingLessonToSeries делает существующее занятие первым вхождением новой серии.
// Идентификатор, статус, посещаемость, оплата и заметки занятия сохраняются.
func (e *Engine) ConvertExistingLessonToSeries(existing lesson.Lesson, in ConvertInput) (*ConvertPlan, error) {
	if existing.InSeries() {
		return nil, shared.ErrLessonAlreadyInSeries
	}

	first := existing.Clone()
	if in.StartAt != nil {
		first.StartAt = *in.StartAt
	}
	if in.SubjectID != nil {
		setSubject(&first, *in.SubjectID)
	}
	if in.DurationMinutes != nil {
		first.DurationMinutes = *in.DurationMinutes
	}
	oldPrice := lesson.EffectivePrice(first.PriceRub, first.IsFree)
	if in.PriceRub != nil {
		first.PriceRub = *in.PriceRub
	}
	if in.IsFree != nil {
		first.IsFree = *in.IsFree
	}

	if err := validateBounds(in.Frequency, first.DurationMinutes, first.PriceRub, in.MaxOccurrences, in.EndDate, first.StartAt); err != nil {
		return nil, err
	}

	now := e.now()
	series := lesson.Series{
		ID:              e.ids.NewID(),
		TeacherID:       first.TeacherID,
		SubjectID:       first.SubjectID,
		Frequency:       in.Frequency,
		DayOfWeek:       timeutil.DayOfWeek(first.StartAt),
		TimeOfDay:       timeutil.TimeOfDay(first.StartAt),
		DurationMinutes: first.DurationMinutes,
		PriceRub:        first.PriceRub,
		IsFree:          first.IsFree,
		MaxOccurrences:  in.MaxOccurrences,
		EndDate:         in.EndDate,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	seriesID := series.ID
	first.SeriesID = &seriesID
	first.UpdatedAt = now
	repriceStudents(first.Students, oldPrice, lesson.EffectivePrice(first.PriceRub, first.IsFree))

	roster := make([]lesson.SeriesStudent, 0, len(first.Students))
	for _, s := range first.Students {
		roster = append(roster, lesson.SeriesStudent{SeriesID: series.ID, StudentID: s.StudentID, PriceRub: s.PriceRub})
	}

	starts, capReached := e.occurrences(first.StartAt, in.Frequency, in.MaxOccurrences, in.EndDate)
	generated := make([]lesson.Lesson, 0, len(starts))
	for _, start := range starts[1:] {
		generated = append(generated, e.newOccurrence(series, first.TeacherName, first.SubjectName, start, roster, now))
	}

	if capReached {
		e.log.Info("series generation cap reached",
			logger.SeriesID(series.ID),
			logger.LessonID(first.ID),
			logger.Occurrences(len(starts)),
		)
	}

	return &ConvertPlan{
		Series:     series,
		Roster:     roster,
		First:      first,
		Generated:  generated,
		CapReached: capReached,
		Version:    existing.UpdatedAt,
	}, nil
}

// occurrences возвращает время начала каждого вхождения, включая первое.
// Шаг считается календарно (AddDate), поэтому местное время сохраняется при переходе на летнее время.
func (e *Engine) occurrences(first time.Time, freq lesson.Frequency, maxOcc *int, endDate *time.Time) ([]time.Time, bool) {
	limit := e.config.DefaultOccurrences
	truncated := false
	switch {
	case maxOcc != nil:
		limit = *maxOcc
		if limit > e.config.MaxOccurrences {
			limit = e.config.MaxOccurrences
			truncated = true
		}
	case endDate != nil:
		limit = e.config.MaxOccurrences
	}

	step := freq.IntervalDays()
	starts := make([]time.Time, 0, limit)
	for i := 0; len(starts) < limit; i++ {
		start := timeutil.AddDays(first, i*step)
		if endDate != nil && start.After(*endDate) {
			return starts, false
		}
		starts = append(starts, start)
	}

	if truncated {
		return starts, true
	}
	if endDate != nil && limit == e.config.MaxOccurrences {
		next := timeutil.AddDays(first, len(starts)*step)
		return starts, !next.After(*endDate)
	}
	return starts, false
}

func (e *Engine) newOccurrence(series lesson.Series, teacherName, subjectName string, start time.Time, roster []lesson.SeriesStudent, now time.Time) lesson.Lesson {
	seriesID := series.ID
	l := lesson.Lesson{
		ID:              e.ids.NewID(),
		TeacherID:       series.TeacherID,
		TeacherName:     teacherName,
		SubjectID:       series.SubjectID,
		SubjectName:     subjectName,
		SeriesID:        &seriesID,
		StartAt:         start,
		DurationMinutes: series.DurationMinutes,
		PriceRub:        series.PriceRub,
		IsFree:          series.IsFree,
		Status:          lesson.StatusPlanned,
		Students:        make([]lesson.LessonStudent, 0, len(roster)),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	for _, r := range roster {
		l.Students = append(l.Students, lesson.NewLessonStudent(l.ID, r.StudentID, r.PriceRub))
	}
	return l
}

// repriceStudents переносит смену цены на учеников, чья цена совпадала со старой.
// Индивидуальные цены остаются.
func repriceStudents(students []lesson.LessonStudent, oldPrice, newPrice int) {
	if oldPrice == newPrice {
		return
	}
	for i := range students {
		if students[i].PriceRub == oldPrice {
			students[i].PriceRub = newPrice
		}
	}
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
