package debt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorhub/tutorhub-core/internal/domain/lesson"
)

func unpaidLesson(id, teacherID string, day, price int) lesson.StudentLesson {
	return lesson.StudentLesson{
		LessonID:      id,
		StudentID:     "s1",
		TeacherID:     teacherID,
		TeacherName:   "teacher " + teacherID,
		SubjectName:   "Математика",
		StartAt:       time.Date(2025, 2, day, 10, 0, 0, 0, time.UTC),
		Status:        lesson.StatusDone,
		Attendance:    lesson.AttendanceAttended,
		PaymentStatus: lesson.PaymentUnpaid,
		PriceRub:      price,
	}
}

func TestCalculateDebtInfo(t *testing.T) {
	assert.Equal(t, DebtInfo{}, CalculateDebtInfo(nil))

	info := CalculateDebtInfo([]lesson.StudentLesson{
		unpaidLesson("a", "t1", 1, 1000),
		unpaidLesson("b", "t1", 2, 1500),
		unpaidLesson("c", "t1", 3, 2000),
	})
	assert.Equal(t, DebtInfo{HasDebt: true, UnpaidLessonsCount: 3, UnpaidAmountRub: 4500}, info)
}

func TestCalculateDetailedDebt_Ascending(t *testing.T) {
	detailed := CalculateDetailedDebt([]lesson.StudentLesson{
		unpaidLesson("late", "t1", 20, 1000),
		unpaidLesson("early", "t1", 3, 500),
	})

	assert.Equal(t, 1500, detailed.UnpaidAmountRub)
	require.Len(t, detailed.Lessons, 2)
	assert.Equal(t, "early", detailed.Lessons[0].LessonID)
	assert.Equal(t, "late", detailed.Lessons[1].LessonID)
}

func TestCalculateDebtByTeachers(t *testing.T) {
	result := CalculateDebtByTeachers([]lesson.StudentLesson{
		unpaidLesson("a", "t2", 10, 1000),
		unpaidLesson("b", "t1", 5, 700),
		unpaidLesson("c", "t2", 2, 1200),
	})

	require.Len(t, result.Teachers, 2)
	assert.Equal(t, "t2", result.Teachers[0].TeacherID)
	assert.Equal(t, 2, result.Teachers[0].UnpaidLessonsCount)
	assert.Equal(t, 2200, result.Teachers[0].UnpaidAmountRub)
	assert.Equal(t, "c", result.Teachers[0].Lessons[0].LessonID)
	assert.Equal(t, "t1", result.Teachers[1].TeacherID)

	assert.Equal(t, DebtInfo{HasDebt: true, UnpaidLessonsCount: 3, UnpaidAmountRub: 2900}, result.TotalDebt)
}

func TestFilterUnpaidDone(t *testing.T) {
	paid := unpaidLesson("paid", "t1", 1, 1000)
	paid.PaymentStatus = lesson.PaymentPaid
	planned := unpaidLesson("planned", "t1", 2, 1000)
	planned.Status = lesson.StatusPlanned

	lessons := []lesson.StudentLesson{
		paid,
		planned,
		unpaidLesson("own", "t1", 3, 1000),
		unpaidLesson("other", "t2", 4, 1000),
	}

	all := FilterUnpaidDone(lessons, "")
	require.Len(t, all, 2)

	own := FilterUnpaidDone(lessons, "t1")
	require.Len(t, own, 1)
	assert.Equal(t, "own", own[0].LessonID)
}
