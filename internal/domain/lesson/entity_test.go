package lesson

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorhub/tutorhub-core/internal/domain/shared"
)

func sampleLesson() Lesson {
	seriesID := "series-1"
	rating := 5
	return Lesson{
		ID:              "lesson-1",
		TeacherID:       "teacher-1",
		TeacherName:     "Анна",
		SubjectID:       "math",
		SubjectName:     "Математика",
		SeriesID:        &seriesID,
		StartAt:         time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC),
		DurationMinutes: 60,
		PriceRub:        1500,
		Status:          StatusDone,
		Students: []LessonStudent{
			{LessonID: "lesson-1", StudentID: "s1", PriceRub: 1500, Attendance: AttendanceAttended, PaymentStatus: PaymentPaid, Rating: &rating},
			{LessonID: "lesson-1", StudentID: "s2", PriceRub: 1000, Attendance: AttendanceMissed, PaymentStatus: PaymentUnpaid},
		},
	}
}

func TestFrequency(t *testing.T) {
	assert.True(t, FrequencyWeekly.IsValid())
	assert.True(t, FrequencyBiweekly.IsValid())
	assert.False(t, Frequency("monthly").IsValid())

	assert.Equal(t, 7, FrequencyWeekly.IntervalDays())
	assert.Equal(t, 14, FrequencyBiweekly.IntervalDays())
}

func TestLesson_Clone(t *testing.T) {
	original := sampleLesson()
	clone := original.Clone()

	*clone.SeriesID = "other"
	*clone.Students[0].Rating = 1
	clone.Students[1].Attendance = AttendanceAttended

	assert.Equal(t, "series-1", *original.SeriesID)
	assert.Equal(t, 5, *original.Students[0].Rating)
	assert.Equal(t, AttendanceMissed, original.Students[1].Attendance)
}

func TestLesson_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(l *Lesson)
		want   error
	}{
		{name: "valid", mutate: func(l *Lesson) {}},
		{name: "zero duration", mutate: func(l *Lesson) { l.DurationMinutes = 0 }, want: shared.ErrInvalidDuration},
		{name: "unknown status", mutate: func(l *Lesson) { l.Status = "archived" }, want: shared.ErrInvalidStatus},
		{name: "bad attendance", mutate: func(l *Lesson) { l.Students[0].Attendance = "late" }, want: shared.ErrInvalidAttendance},
		{name: "rating out of range", mutate: func(l *Lesson) { r := 6; l.Students[0].Rating = &r }, want: shared.ErrInvalidRating},
		{name: "negative price", mutate: func(l *Lesson) { l.PriceRub = -1 }, want: shared.ErrNegativePrice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := sampleLesson()
			tt.mutate(&l)
			err := l.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.want))
			assert.True(t, shared.IsValidation(err))
		})
	}
}

func TestForStudent(t *testing.T) {
	l1 := sampleLesson()
	l2 := sampleLesson()
	l2.ID = "lesson-2"
	l2.Students = l2.Students[1:]

	projection := ForStudent([]Lesson{l1, l2}, "s1")
	require.Len(t, projection, 1)
	assert.Equal(t, "lesson-1", projection[0].LessonID)
	assert.Equal(t, 1500, projection[0].PriceRub)
	assert.True(t, projection[0].IsAttended())

	projection = ForStudent([]Lesson{l1, l2}, "s2")
	require.Len(t, projection, 2)
	assert.Equal(t, 1000, projection[1].PriceRub)
	assert.True(t, projection[1].IsUnpaidDone())
	assert.False(t, projection[1].IsAttended())
}

func TestEffectivePrice(t *testing.T) {
	assert.Equal(t, 0, EffectivePrice(2000, true))
	assert.Equal(t, 2000, EffectivePrice(2000, false))
}
