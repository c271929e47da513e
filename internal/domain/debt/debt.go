// Package debt считает задолженность ученика за проведённые и неоплаченные занятия.
//
// Функции расчёта ожидают уже отфильтрованный вход (status = done, payment = unpaid);
// для фильтрации есть FilterUnpaidDone.
package debt

import (
	"sort"
	"time"

	"github.com/tutorhub/tutorhub-core/internal/domain/lesson"
)

// DebtInfo - итог по задолженности.
type DebtInfo struct {
	HasDebt            bool `json:"hasDebt"`
	UnpaidLessonsCount int  `json:"unpaidLessonsCount"`
	UnpaidAmountRub    int  `json:"unpaidAmountRub"`
}

func (d *DebtInfo) add(priceRub int) {
	d.UnpaidLessonsCount++
	d.UnpaidAmountRub += priceRub
	d.HasDebt = true
}

// DebtLesson - строка детализации долга.
type DebtLesson struct {
	LessonID    string    `json:"lessonId"`
	StartAt     time.Time `json:"startAt"`
	PriceRub    int       `json:"priceRub"`
	SubjectName string    `json:"subjectName"`
}

// DetailedDebt - долг с перечнем занятий по возрастанию даты.
type DetailedDebt struct {
	DebtInfo
	Lessons []DebtLesson `json:"lessons"`
}

// TeacherDebt - долг перед одним преподавателем.
type TeacherDebt struct {
	TeacherID   string `json:"teacherId"`
	TeacherName string `json:"teacherName"`
	DebtInfo
	Lessons []DebtLesson `json:"lessons"`
}

// DebtByTeachers - долг в разрезе преподавателей и общий итог.
type DebtByTeachers struct {
	Teachers  []TeacherDebt `json:"teachers"`
	TotalDebt DebtInfo      `json:"totalDebt"`
}

// FilterUnpaidDone оставляет проведённые неоплаченные занятия.
// Пустой teacherID означает всех преподавателей.
func FilterUnpaidDone(lessons []lesson.StudentLesson, teacherID string) []lesson.StudentLesson {
	out := make([]lesson.StudentLesson, 0, len(lessons))
	for _, l := range lessons {
		if !l.IsUnpaidDone() {
			continue
		}
		if teacherID != "" && l.TeacherID != teacherID {
			continue
		}
		out = append(out, l)
	}
	return out
}

// CalculateDebtInfo суммирует цену переданных занятий.
func CalculateDebtInfo(unpaid []lesson.StudentLesson) DebtInfo {
	var info DebtInfo
	for _, l := range unpaid {
		info.add(l.PriceRub)
	}
	return info
}

// CalculateDetailedDebt возвращает итог и перечень занятий по возрастанию StartAt.
func CalculateDetailedDebt(unpaid []lesson.StudentLesson) DetailedDebt {
	lessons := make([]DebtLesson, 0, len(unpaid))
	for _, l := range unpaid {
		lessons = append(lessons, debtLesson(l))
	}
	sortAscending(lessons)

	return DetailedDebt{
		DebtInfo: CalculateDebtInfo(unpaid),
		Lessons:  lessons,
	}
}

// CalculateDebtByTeachers группирует долг по преподавателям в порядке первого появления.
// TotalDebt считается по всему входу.
func CalculateDebtByTeachers(unpaid []lesson.StudentLesson) DebtByTeachers {
	index := make(map[string]int)
	teachers := make([]TeacherDebt, 0)

	for _, l := range unpaid {
		i, ok := index[l.TeacherID]
		if !ok {
			i = len(teachers)
			index[l.TeacherID] = i
			teachers = append(teachers, TeacherDebt{
				TeacherID:   l.TeacherID,
				TeacherName: l.TeacherName,
				Lessons:     make([]DebtLesson, 0),
			})
		}
		teachers[i].add(l.PriceRub)
		teachers[i].Lessons = append(teachers[i].Lessons, debtLesson(l))
	}

	for i := range teachers {
		sortAscending(teachers[i].Lessons)
	}

	return DebtByTeachers{
		Teachers:  teachers,
		TotalDebt: CalculateDebtInfo(unpaid),
	}
}

func debtLesson(l lesson.StudentLesson) DebtLesson {
	return DebtLesson{
		LessonID:    l.LessonID,
		StartAt:     l.StartAt,
		PriceRub:    l.PriceRub,
		SubjectName: l.SubjectName,
	}
}

func sortAscending(lessons []DebtLesson) {
	sort.SliceStable(lessons, func(i, j int) bool {
		return lessons[i].StartAt.Before(lessons[j].StartAt)
	})
}
