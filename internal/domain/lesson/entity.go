// Package lesson содержит доменную модель занятий репетитора: серии
// повторяющихся занятий, отдельные занятия и записи учеников на занятие.
// Это ядро бизнес-логики - здесь нет внешних зависимостей.
package lesson

import (
	"sort"
	"time"

	"github.com/tutorhub/tutorhub-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// Frequency определяет периодичность серии.
type Frequency string

const (
	// FrequencyWeekly - раз в неделю.
	FrequencyWeekly Frequency = "weekly"
	// FrequencyBiweekly - раз в две недели.
	FrequencyBiweekly Frequency = "biweekly"
)

// IsValid проверяет, что периодичность поддерживается.
func (f Frequency) IsValid() bool {
	return f == FrequencyWeekly || f == FrequencyBiweekly
}

// IntervalDays возвращает шаг серии в календарных днях.
func (f Frequency) IntervalDays() int {
	if f == FrequencyBiweekly {
		return 14
	}
	return 7
}

// Status определяет состояние занятия.
type Status string

const (
	// StatusPlanned - занятие запланировано.
	StatusPlanned Status = "planned"
	// StatusDone - занятие проведено.
	StatusDone Status = "done"
	// StatusCancelled - занятие отменено.
	StatusCancelled Status = "cancelled"
	// StatusRescheduled - занятие перенесено.
	StatusRescheduled Status = "rescheduled"
)

// IsValid проверяет, что статус корректен.
func (s Status) IsValid() bool {
	switch s {
	case StatusPlanned, StatusDone, StatusCancelled, StatusRescheduled:
		return true
	default:
		return false
	}
}

// CancelledBy - кто отменил занятие.
type CancelledBy string

const (
	CancelledByTeacher CancelledBy = "teacher"
	CancelledByStudent CancelledBy = "student"
)

// IsValid проверяет значение.
func (c CancelledBy) IsValid() bool {
	return c == CancelledByTeacher || c == CancelledByStudent
}

// CancellationReason - причина отмены.
type CancellationReason string

const (
	CancellationIllness CancellationReason = "illness"
	CancellationOther   CancellationReason = "other"
)

// IsValid проверяет значение.
func (r CancellationReason) IsValid() bool {
	return r == CancellationIllness || r == CancellationOther
}

// Attendance - посещаемость конкретного ученика.
type Attendance string

const (
	AttendanceUnknown  Attendance = "unknown"
	AttendanceAttended Attendance = "attended"
	AttendanceMissed   Attendance = "missed"
)

// IsValid проверяет значение.
func (a Attendance) IsValid() bool {
	switch a {
	case AttendanceUnknown, AttendanceAttended, AttendanceMissed:
		return true
	default:
		return false
	}
}

// PaymentStatus - статус оплаты занятия учеником.
type PaymentStatus string

const (
	PaymentUnpaid  PaymentStatus = "unpaid"
	PaymentPaid    PaymentStatus = "paid"
	PaymentPrepaid PaymentStatus = "prepaid"
)

// IsValid проверяет значение.
func (p PaymentStatus) IsValid() bool {
	switch p {
	case PaymentUnpaid, PaymentPaid, PaymentPrepaid:
		return true
	default:
		return false
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// SERIES
// ══════════════════════════════════════════════════════════════════════════════

// Series - шаблон повторяющихся занятий.
// Ровно одно из {количество по умолчанию, MaxOccurrences, EndDate} ограничивает генерацию.
type Series struct {
	ID              string     `json:"id"`
	TeacherID       string     `json:"teacherId"`
	SubjectID       string     `json:"subjectId"`
	Frequency       Frequency  `json:"frequency"`
	DayOfWeek       int        `json:"dayOfWeek"` // 0 = воскресенье
	TimeOfDay       string     `json:"timeOfDay"` // HH:MM
	DurationMinutes int        `json:"durationMinutes"`
	PriceRub        int        `json:"priceRub"`
	IsFree          bool       `json:"isFree"`
	MaxOccurrences  *int       `json:"maxOccurrences"`
	EndDate         *time.Time `json:"endDate"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// SeriesStudent - постоянная запись ученика в серию.
// Используется как шаблон состава для будущих занятий.
type SeriesStudent struct {
	SeriesID  string `json:"seriesId"`
	StudentID string `json:"studentId"`
	PriceRub  int    `json:"priceRub"`
}

// EffectivePrice возвращает цену занятия с учётом флага бесплатности.
func EffectivePrice(priceRub int, isFree bool) int {
	if isFree {
		return 0
	}
	return priceRub
}

// ══════════════════════════════════════════════════════════════════════════════
// LESSON
// ══════════════════════════════════════════════════════════════════════════════

// Lesson - одно занятие (отдельное или вхождение серии).
// Status, CancelledBy и посещаемость учеников - независимые оси.
type Lesson struct {
	ID                 string              `json:"id"`
	TeacherID          string              `json:"teacherId"`
	TeacherName        string              `json:"teacherName,omitempty"`
	SubjectID          string              `json:"subjectId"`
	SubjectName        string              `json:"subjectName,omitempty"`
	SeriesID           *string             `json:"seriesId"`
	StartAt            time.Time           `json:"startAt"`
	DurationMinutes    int                 `json:"durationMinutes"`
	PriceRub           int                 `json:"priceRub"`
	IsFree             bool                `json:"isFree"`
	Status             Status              `json:"status"`
	CancelledBy        *CancelledBy        `json:"cancelledBy"`
	CancellationReason *CancellationReason `json:"cancellationReason"`
	TeacherNote        string              `json:"teacherNote,omitempty"`
	StudentNote        string              `json:"studentNote,omitempty"`
	Report             string              `json:"report,omitempty"`
	Students           []LessonStudent     `json:"students"`
	CreatedAt          time.Time           `json:"createdAt"`
	UpdatedAt          time.Time           `json:"updatedAt"`
}

// LessonStudent - запись ученика на занятие.
// Именно её читают расчёты статистики, долга и серий посещений.
type LessonStudent struct {
	LessonID      string        `json:"lessonId"`
	StudentID     string        `json:"studentId"`
	PriceRub      int           `json:"priceRub"`
	Attendance    Attendance    `json:"attendance"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	Rating        *int          `json:"rating"`
}

// NewLessonStudent создаёт запись ученика с посещаемостью unknown и статусом unpaid.
func NewLessonStudent(lessonID, studentID string, priceRub int) LessonStudent {
	return LessonStudent{
		LessonID:      lessonID,
		StudentID:     studentID,
		PriceRub:      priceRub,
		Attendance:    AttendanceUnknown,
		PaymentStatus: PaymentUnpaid,
	}
}

// InSeries возвращает true, если занятие принадлежит серии.
func (l *Lesson) InSeries() bool {
	return l.SeriesID != nil && *l.SeriesID != ""
}

// SeriesIDValue возвращает идентификатор серии или пустую строку.
func (l *Lesson) SeriesIDValue() string {
	if l.SeriesID == nil {
		return ""
	}
	return *l.SeriesID
}

// StudentIDs возвращает состав занятия в порядке записей.
func (l *Lesson) StudentIDs() []string {
	ids := make([]string, 0, len(l.Students))
	for _, s := range l.Students {
		ids = append(ids, s.StudentID)
	}
	return ids
}

// FindStudent возвращает запись ученика по идентификатору.
func (l *Lesson) FindStudent(studentID string) (*LessonStudent, bool) {
	for i := range l.Students {
		if l.Students[i].StudentID == studentID {
			return &l.Students[i], true
		}
	}
	return nil, false
}

// Clone возвращает глубокую копию занятия.
func (l Lesson) Clone() Lesson {
	out := l
	if l.SeriesID != nil {
		id := *l.SeriesID
		out.SeriesID = &id
	}
	if l.CancelledBy != nil {
		by := *l.CancelledBy
		out.CancelledBy = &by
	}
	if l.CancellationReason != nil {
		reason := *l.CancellationReason
		out.CancellationReason = &reason
	}
	out.Students = make([]LessonStudent, len(l.Students))
	for i, s := range l.Students {
		if s.Rating != nil {
			r := *s.Rating
			s.Rating = &r
		}
		out.Students[i] = s
	}
	return out
}

// Validate проверяет инварианты занятия.
func (l *Lesson) Validate() error {
	if l.DurationMinutes <= 0 {
		return shared.ErrInvalidDuration
	}
	if l.PriceRub < 0 {
		return shared.ErrNegativePrice
	}
	if !l.Status.IsValid() {
		return shared.ErrInvalidStatus
	}
	if l.CancelledBy != nil && !l.CancelledBy.IsValid() {
		return shared.ErrInvalidCancellation
	}
	if l.CancellationReason != nil && !l.CancellationReason.IsValid() {
		return shared.ErrInvalidCancellation
	}
	for _, s := range l.Students {
		if !s.Attendance.IsValid() {
			return shared.ErrInvalidAttendance
		}
		if !s.PaymentStatus.IsValid() {
			return shared.ErrInvalidPayment
		}
		if s.Rating != nil && (*s.Rating < 1 || *s.Rating > 5) {
			return shared.ErrInvalidRating
		}
		if s.PriceRub < 0 {
			return shared.ErrNegativePrice
		}
	}
	return nil
}

// SortByStart сортирует занятия по возрастанию StartAt (стабильно).
func SortByStart(lessons []Lesson) {
	sort.SliceStable(lessons, func(i, j int) bool {
		return lessons[i].StartAt.Before(lessons[j].StartAt)
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT PROJECTION
// ══════════════════════════════════════════════════════════════════════════════

// StudentLesson - занятие глазами одного ученика: поля занятия
// плюс его посещаемость, оплата и цена. Вход для всех расчётов статистики.
type StudentLesson struct {
	LessonID           string              `json:"lessonId"`
	StudentID          string              `json:"studentId"`
	TeacherID          string              `json:"teacherId"`
	TeacherName        string              `json:"teacherName,omitempty"`
	SubjectID          string              `json:"subjectId"`
	SubjectName        string              `json:"subjectName,omitempty"`
	StartAt            time.Time           `json:"startAt"`
	Status             Status              `json:"status"`
	CancelledBy        *CancelledBy        `json:"cancelledBy"`
	CancellationReason *CancellationReason `json:"cancellationReason"`
	PriceRub           int                 `json:"priceRub"`
	Attendance         Attendance          `json:"attendance"`
	PaymentStatus      PaymentStatus       `json:"paymentStatus"`
	Rating             *int                `json:"rating"`
}

// IsDone возвращает true для проведённого занятия.
func (s StudentLesson) IsDone() bool {
	return s.Status == StatusDone
}

// IsAttended возвращает true для проведённого занятия, которое ученик посетил.
func (s StudentLesson) IsAttended() bool {
	return s.Status == StatusDone && s.Attendance == AttendanceAttended
}

// IsUnpaidDone возвращает true для проведённого и неоплаченного занятия.
func (s StudentLesson) IsUnpaidDone() bool {
	return s.Status == StatusDone && s.PaymentStatus == PaymentUnpaid
}

// ForStudent строит проекцию занятий, на которые записан ученик.
// Порядок входных занятий сохраняется.
func ForStudent(lessons []Lesson, studentID string) []StudentLesson {
	out := make([]StudentLesson, 0, len(lessons))
	for i := range lessons {
		l := &lessons[i]
		ls, ok := l.FindStudent(studentID)
		if !ok {
			continue
		}
		out = append(out, StudentLesson{
			LessonID:           l.ID,
			StudentID:          studentID,
			TeacherID:          l.TeacherID,
			TeacherName:        l.TeacherName,
			SubjectID:          l.SubjectID,
			SubjectName:        l.SubjectName,
			StartAt:            l.StartAt,
			Status:             l.Status,
			CancelledBy:        l.CancelledBy,
			CancellationReason: l.CancellationReason,
			PriceRub:           ls.PriceRub,
			Attendance:         ls.Attendance,
			PaymentStatus:      ls.PaymentStatus,
			Rating:             ls.Rating,
		})
	}
	return out
}

// StudentFilter ограничивает выборку занятий ученика.
// Пустые поля не ограничивают выборку; To не включается.
type StudentFilter struct {
	TeacherID string     `json:"teacherId,omitempty"`
	SubjectID string     `json:"subjectId,omitempty"`
	From      *time.Time `json:"from,omitempty"`
	To        *time.Time `json:"to,omitempty"`
}

// Match проверяет занятие по фильтру.
func (f StudentFilter) Match(l StudentLesson) bool {
	if f.TeacherID != "" && l.TeacherID != f.TeacherID {
		return false
	}
	if f.SubjectID != "" && l.SubjectID != f.SubjectID {
		return false
	}
	if f.From != nil && l.StartAt.Before(*f.From) {
		return false
	}
	if f.To != nil && !l.StartAt.Before(*f.To) {
		return false
	}
	return true
}
