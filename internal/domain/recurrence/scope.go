package recurrence

import (
	"time"

	"go.uber.org/zap"

	"github.com/tutorhub/tutorhub-core/internal/domain/lesson"
	"github.com/tutorhub/tutorhub-core/internal/domain/shared"
	"github.com/tutorhub/tutorhub-core/pkg/logger"
)

// Scope - область действия правки или удаления.
type Scope string

const (
	// ScopeThis - только выбранное занятие.
	ScopeThis Scope = "this"
	// ScopeFuture - выбранное и все последующие занятия серии.
	ScopeFuture Scope = "future"
	// ScopeAll - вся серия.
	ScopeAll Scope = "all"
)

// IsValid проверяет область действия.
func (s Scope) IsValid() bool {
	return s == ScopeThis || s == ScopeFuture || s == ScopeAll
}

// ParseScope разбирает область действия; пустая строка означает this.
func ParseScope(value string) (Scope, error) {
	if value == "" {
		return ScopeThis, nil
	}
	s := Scope(value)
	if !s.IsValid() {
		return "", shared.ErrInvalidScope
	}
	return s, nil
}

// effectiveScope сужает future/all до this для занятия вне серии.
func (e *Engine) effectiveScope(target lesson.Lesson, requested Scope, op string) (Scope, bool) {
	if requested == ScopeThis || target.InSeries() {
		return requested, false
	}
	e.log.Debug("scope degraded to this for lesson without series",
		logger.LessonID(target.ID),
		logger.Scope(string(requested)),
		logger.Operation(op),
	)
	return ScopeThis, true
}

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE
// ══════════════════════════════════════════════════════════════════════════════

// LessonPatch - частичная правка занятия. nil означает "не менять".
//
// Общие для серии поля: SubjectID, DurationMinutes, PriceRub, IsFree, StudentIDs.
// Остальные поля относятся только к выбранному занятию.
type LessonPatch struct {
	SubjectID       *string  `json:"subjectId,omitempty"`
	DurationMinutes *int     `json:"durationMinutes,omitempty"`
	PriceRub        *int     `json:"priceRub,omitempty"`
	IsFree          *bool    `json:"isFree,omitempty"`
	StudentIDs      []string `json:"studentIds,omitempty"`

	StartAt            *time.Time                      `json:"startAt,omitempty"`
	Status             *lesson.Status                  `json:"status,omitempty"`
	CancelledBy        *lesson.CancelledBy             `json:"cancelledBy,omitempty"`
	CancellationReason *lesson.CancellationReason      `json:"cancellationReason,omitempty"`
	ClearCancellation  bool                            `json:"clearCancellation,omitempty"`
	TeacherNote        *string                         `json:"teacherNote,omitempty"`
	StudentNote        *string                         `json:"studentNote,omitempty"`
	Report             *string                         `json:"report,omitempty"`
	Attendance         map[string]lesson.Attendance    `json:"attendance,omitempty"`
	PaymentStatus      map[string]lesson.PaymentStatus `json:"paymentStatus,omitempty"`
	Ratings            map[string]int                  `json:"ratings,omitempty"`
}

// HasSeriesShared возвращает true, если правка задевает общие для серии поля.
func (p LessonPatch) HasSeriesShared() bool {
	return p.SubjectID != nil || p.DurationMinutes != nil || p.PriceRub != nil ||
		p.IsFree != nil || p.StudentIDs != nil
}

// Validate проверяет значения правки без учёта состава занятия.
func (p LessonPatch) Validate() error {
	if p.DurationMinutes != nil && *p.DurationMinutes <= 0 {
		return shared.ErrInvalidDuration
	}
	if p.PriceRub != nil && *p.PriceRub < 0 {
		return shared.ErrNegativePrice
	}
	if p.Status != nil && !p.Status.IsValid() {
		return shared.ErrInvalidStatus
	}
	if p.CancelledBy != nil && !p.CancelledBy.IsValid() {
		return shared.ErrInvalidCancellation
	}
	if p.CancellationReason != nil && !p.CancellationReason.IsValid() {
		return shared.ErrInvalidCancellation
	}
	for _, a := range p.Attendance {
		if !a.IsValid() {
			return shared.ErrInvalidAttendance
		}
	}
	for _, ps := range p.PaymentStatus {
		if !ps.IsValid() {
			return shared.ErrInvalidPayment
		}
	}
	for _, r := range p.Ratings {
		if r < 1 || r > 5 {
			return shared.ErrInvalidRating
		}
	}
	return nil
}

// UpdatePlan - намерение "применить правку с областью действия".
// Lessons содержит итоговое состояние каждого затронутого занятия вместе с его
// записями учеников; хранилище заменяет их целиком.
// Versions хранит UpdatedAt каждого занятия на момент чтения: если занятие
// изменилось после этого, хранилище отклоняет план с ErrConcurrentModification.
type UpdatePlan struct {
	TargetID       string                 `json:"targetId"`
	SeriesID       string                 `json:"seriesId,omitempty"`
	Scope          Scope                  `json:"scope"`
	RequestedScope Scope                  `json:"requestedScope"`
	Degraded       bool                   `json:"degraded"`
	Lessons        []lesson.Lesson        `json:"lessons"`
	Series         *lesson.Series         `json:"series,omitempty"`
	SeriesRoster   []lesson.SeriesStudent `json:"seriesRoster,omitempty"`
	RosterChanged  bool                   `json:"rosterChanged"`
	NewStudentIDs  []string               `json:"newStudentIds"`
	Versions       map[string]time.Time   `json:"versions,omitempty"`
}

// Target возвращает итоговое состояние выбранного занятия.
func (p *UpdatePlan) Target() lesson.Lesson {
	for _, l := range p.Lessons {
		if l.ID == p.TargetID {
			return l
		}
	}
	return lesson.Lesson{}
}

// ApplyScopedUpdate строит план правки.
//
// this: обе группы полей применяются только к target.
// future: общие поля применяются к занятиям серии со StartAt >= target.StartAt (до правки).
// all: общие поля применяются ко всем занятиям серии.
// Поля конкретного занятия всегда применяются только к target.
// Для занятия вне серии future/all сужаются до this (Degraded = true).
func (e *Engine) ApplyScopedUpdate(target lesson.Lesson, seriesLessons []lesson.Lesson, series *lesson.Series, patch LessonPatch, scope Scope) (*UpdatePlan, error) {
	if !scope.IsValid() {
		return nil, shared.ErrInvalidScope
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	effective, degraded := e.effectiveScope(target, scope, "update")
	now := e.now()

	var newRoster []string
	if patch.StudentIDs != nil {
		newRoster = uniqueIDs(patch.StudentIDs)
	}

	updatedTarget := target.Clone()
	applySeriesShared(&updatedTarget, patch, newRoster)
	if err := applyInstanceOnly(&updatedTarget, patch); err != nil {
		return nil, err
	}
	updatedTarget.UpdatedAt = now

	plan := &UpdatePlan{
		TargetID:       target.ID,
		SeriesID:       target.SeriesIDValue(),
		Scope:          effective,
		RequestedScope: scope,
		Degraded:       degraded,
		Lessons:        []lesson.Lesson{updatedTarget},
		RosterChanged:  patch.StudentIDs != nil,
		NewStudentIDs:  difference(newRoster, target.StudentIDs()),
		Versions:       map[string]time.Time{target.ID: target.UpdatedAt},
	}
	if patch.StudentIDs == nil {
		plan.NewStudentIDs = nil
	}

	if effective == ScopeThis || !patch.HasSeriesShared() {
		return plan, nil
	}

	for _, l := range seriesLessons {
		if l.ID == target.ID || l.SeriesIDValue() != plan.SeriesID {
			continue
		}
		if effective == ScopeFuture && l.StartAt.Before(target.StartAt) {
			continue
		}
		updated := l.Clone()
		applySeriesShared(&updated, patch, newRoster)
		updated.UpdatedAt = now
		plan.Lessons = append(plan.Lessons, updated)
		plan.Versions[l.ID] = l.UpdatedAt
	}
	lesson.SortByStart(plan.Lessons)

	if series != nil {
		s := *series
		if patch.SubjectID != nil {
			s.SubjectID = *patch.SubjectID
		}
		if patch.DurationMinutes != nil {
			s.DurationMinutes = *patch.DurationMinutes
		}
		if patch.PriceRub != nil {
			s.PriceRub = *patch.PriceRub
		}
		if patch.IsFree != nil {
			s.IsFree = *patch.IsFree
		}
		s.UpdatedAt = now
		plan.Series = &s
	}
	if patch.StudentIDs != nil {
		plan.SeriesRoster = make([]lesson.SeriesStudent, 0, len(updatedTarget.Students))
		for _, st := range updatedTarget.Students {
			plan.SeriesRoster = append(plan.SeriesRoster, lesson.SeriesStudent{
				SeriesID:  plan.SeriesID,
				StudentID: st.StudentID,
				PriceRub:  st.PriceRub,
			})
		}
	}

	e.log.Debug("scoped update planned",
		logger.LessonID(target.ID),
		logger.SeriesID(plan.SeriesID),
		logger.Scope(string(effective)),
		zap.Int("affected", len(plan.Lessons)),
	)
	return plan, nil
}

// applySeriesShared применяет общие поля. Записи оставшихся учеников сохраняются
// (посещаемость, оплата, оценка, цена), новые получают unknown/unpaid.
func applySeriesShared(l *lesson.Lesson, patch LessonPatch, newRoster []string) {
	oldPrice := lesson.EffectivePrice(l.PriceRub, l.IsFree)
	if patch.SubjectID != nil {
		setSubject(l, *patch.SubjectID)
	}
	if patch.DurationMinutes != nil {
		l.DurationMinutes = *patch.DurationMinutes
	}
	if patch.PriceRub != nil {
		l.PriceRub = *patch.PriceRub
	}
	if patch.IsFree != nil {
		l.IsFree = *patch.IsFree
	}
	newPrice := lesson.EffectivePrice(l.PriceRub, l.IsFree)
	repriceStudents(l.Students, oldPrice, newPrice)

	if patch.StudentIDs == nil {
		return
	}
	students := make([]lesson.LessonStudent, 0, len(newRoster))
	for _, id := range newRoster {
		if existing, ok := l.FindStudent(id); ok {
			students = append(students, *existing)
			continue
		}
		students = append(students, lesson.NewLessonStudent(l.ID, id, newPrice))
	}
	l.Students = students
}

// setSubject меняет предмет; название прежнего предмета сбрасывается,
// новое подставляется при следующем чтении из хранилища.
func setSubject(l *lesson.Lesson, subjectID string) {
	if l.SubjectID == subjectID {
		return
	}
	l.SubjectID = subjectID
	l.SubjectName = ""
}

func applyInstanceOnly(l *lesson.Lesson, patch LessonPatch) error {
	if patch.StartAt != nil {
		l.StartAt = *patch.StartAt
	}
	if patch.Status != nil {
		l.Status = *patch.Status
	}
	if patch.ClearCancellation {
		l.CancelledBy = nil
		l.CancellationReason = nil
	}
	if patch.CancelledBy != nil {
		by := *patch.CancelledBy
		l.CancelledBy = &by
	}
	if patch.CancellationReason != nil {
		reason := *patch.CancellationReason
		l.CancellationReason = &reason
	}
	if patch.TeacherNote != nil {
		l.TeacherNote = *patch.TeacherNote
	}
	if patch.StudentNote != nil {
		l.StudentNote = *patch.StudentNote
	}
	if patch.Report != nil {
		l.Report = *patch.Report
	}

	for id, a := range patch.Attendance {
		st, ok := l.FindStudent(id)
		if !ok {
			return shared.ErrStudentNotOnLesson
		}
		st.Attendance = a
	}
	for id, ps := range patch.PaymentStatus {
		st, ok := l.FindStudent(id)
		if !ok {
			return shared.ErrStudentNotOnLesson
		}
		st.PaymentStatus = ps
	}
	for id, r := range patch.Ratings {
		st, ok := l.FindStudent(id)
		if !ok {
			return shared.ErrStudentNotOnLesson
		}
		rating := r
		st.Rating = &rating
	}
	return nil
}

// difference возвращает элементы next, которых нет в prev, в порядке next.
func difference(next, prev []string) []string {
	known := make(map[string]struct{}, len(prev))
	for _, id := range prev {
		known[id] = struct{}{}
	}
	out := make([]string, 0)
	for _, id := range next {
		if _, ok := known[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

// ══════════════════════════════════════════════════════════════════════════════
// DELETE
// ══════════════════════════════════════════════════════════════════════════════

// DeletePlan - намерение "удалить с областью действия".
// Серия удаляется только при ScopeAll.
type DeletePlan struct {
	LessonID       string    `json:"lessonId"`
	SeriesID       string    `json:"seriesId,omitempty"`
	Scope          Scope     `json:"scope"`
	RequestedScope Scope     `json:"requestedScope"`
	From           time.Time `json:"from"`
	DeleteSeries   bool      `json:"deleteSeries"`
	Degraded       bool      `json:"degraded"`
}

// DeleteResult - что фактически удалило хранилище.
type DeleteResult struct {
	LessonsDeleted int      `json:"lessonsDeleted"`
	SeriesDeleted  bool     `json:"seriesDeleted"`
	StudentIDs     []string `json:"studentIds"`
}

// Matches возвращает true, если занятие попадает под удаление.
func (p *DeletePlan) Matches(l lesson.Lesson) bool {
	switch p.Scope {
	case ScopeFuture:
		return l.SeriesIDValue() == p.SeriesID && !l.StartAt.Before(p.From)
	case ScopeAll:
		return l.SeriesIDValue() == p.SeriesID
	default:
		return l.ID == p.LessonID
	}
}

// Filter возвращает занятия, попадающие под удаление.
func (p *DeletePlan) Filter(lessons []lesson.Lesson) []lesson.Lesson {
	out := make([]lesson.Lesson, 0, len(lessons))
	for _, l := range lessons {
		if p.Matches(l) {
			out = append(out, l)
		}
	}
	return out
}

// DeleteScoped строит план удаления.
func (e *Engine) DeleteScoped(target lesson.Lesson, scope Scope) (*DeletePlan, error) {
	if !scope.IsValid() {
		return nil, shared.ErrInvalidScope
	}
	effective, degraded := e.effectiveScope(target, scope, "delete")

	plan := &DeletePlan{
		LessonID:       target.ID,
		SeriesID:       target.SeriesIDValue(),
		Scope:          effective,
		RequestedScope: scope,
		From:           target.StartAt,
		DeleteSeries:   effective == ScopeAll,
		Degraded:       degraded,
	}
	if effective == ScopeThis {
		plan.From = time.Time{}
	}
	return plan, nil
}
