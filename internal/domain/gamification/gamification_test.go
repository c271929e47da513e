package gamification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorhub/tutorhub-core/internal/domain/lesson"
)

// 2025-02-02 - воскресенье.
var weekStart = time.Date(2025, 2, 2, 10, 0, 0, 0, time.UTC)

func done(day int, attendance lesson.Attendance) lesson.StudentLesson {
	return lesson.StudentLesson{
		LessonID:   weekStart.AddDate(0, 0, day).Format("20060102"),
		StudentID:  "s1",
		StartAt:    weekStart.AddDate(0, 0, day),
		Status:     lesson.StatusDone,
		Attendance: attendance,
	}
}

func attendedSeries(n int) []lesson.StudentLesson {
	out := make([]lesson.StudentLesson, 0, n)
	for i := 0; i < n; i++ {
		// по одному занятию в неделю, чтобы не получить идеальную неделю
		out = append(out, done(i*7, lesson.AttendanceAttended))
	}
	return out
}

func TestCalculateStreak(t *testing.T) {
	tests := []struct {
		name    string
		lessons []lesson.StudentLesson
		want    Streak
	}{
		{"empty", nil, Streak{}},
		{
			name: "broken by miss",
			lessons: []lesson.StudentLesson{
				done(4, lesson.AttendanceAttended),
				done(3, lesson.AttendanceAttended),
				done(2, lesson.AttendanceMissed),
				done(1, lesson.AttendanceAttended),
			},
			want: Streak{Current: 2, Max: 2},
		},
		{
			name: "unknown breaks like missed",
			lessons: []lesson.StudentLesson{
				done(1, lesson.AttendanceAttended),
				done(2, lesson.AttendanceAttended),
				done(3, lesson.AttendanceAttended),
				done(4, lesson.AttendanceUnknown),
			},
			want: Streak{Current: 0, Max: 3},
		},
		{
			name: "ignores lessons that are not done",
			lessons: []lesson.StudentLesson{
				done(1, lesson.AttendanceAttended),
				{StartAt: weekStart.AddDate(0, 0, 2), Status: lesson.StatusCancelled, Attendance: lesson.AttendanceMissed},
				done(3, lesson.AttendanceAttended),
			},
			want: Streak{Current: 2, Max: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalculateStreak(tt.lessons))
		})
	}
}

func achievementByID(t *testing.T, list []Achievement, id AchievementID) Achievement {
	t.Helper()
	for _, a := range list {
		if a.ID == id {
			return a
		}
	}
	require.Failf(t, "achievement not found", "%s", id)
	return Achievement{}
}

func TestCalculateAchievements_Order(t *testing.T) {
	list := CalculateAchievements(nil, Streak{})
	require.Len(t, list, 4)
	assert.Equal(t, AchievementFirstLesson, list[0].ID)
	assert.Equal(t, AchievementTenLessons, list[1].ID)
	assert.Equal(t, AchievementPerfectWeek, list[2].ID)
	assert.Equal(t, AchievementStreak5, list[3].ID)
	for _, a := range list {
		assert.False(t, a.Earned)
		assert.Nil(t, a.EarnedAt)
	}
}

func TestCalculateAchievements_PerfectWeek(t *testing.T) {
	week := []lesson.StudentLesson{
		done(1, lesson.AttendanceAttended),
		done(3, lesson.AttendanceAttended),
		done(6, lesson.AttendanceAttended),
	}
	perfect := achievementByID(t, CalculateAchievements(week, CalculateStreak(week)), AchievementPerfectWeek)
	assert.True(t, perfect.Earned)
	assert.Equal(t, 1, perfect.Progress)
	require.NotNil(t, perfect.EarnedAt)
	assert.Equal(t, week[2].StartAt, *perfect.EarnedAt)

	week[1].Attendance = lesson.AttendanceMissed
	perfect = achievementByID(t, CalculateAchievements(week, CalculateStreak(week)), AchievementPerfectWeek)
	assert.False(t, perfect.Earned)
	assert.Zero(t, perfect.Progress)
}

func TestCalculateAchievements_WeekBoundaryIsSunday(t *testing.T) {
	// суббота и следующие воскресенье и понедельник - разные недели
	lessons := []lesson.StudentLesson{
		done(-1, lesson.AttendanceAttended),
		done(0, lesson.AttendanceAttended),
		done(1, lesson.AttendanceAttended),
	}
	perfect := achievementByID(t, CalculateAchievements(lessons, CalculateStreak(lessons)), AchievementPerfectWeek)
	assert.False(t, perfect.Earned)
}

func TestCalculateAchievements_Counts(t *testing.T) {
	lessons := attendedSeries(12)
	list := CalculateAchievements(lessons, CalculateStreak(lessons))

	first := achievementByID(t, list, AchievementFirstLesson)
	assert.True(t, first.Earned)
	assert.Equal(t, 1, first.Progress)
	assert.Equal(t, lessons[0].StartAt, *first.EarnedAt)

	ten := achievementByID(t, list, AchievementTenLessons)
	assert.True(t, ten.Earned)
	assert.Equal(t, 10, ten.Progress)
	assert.Equal(t, lessons[9].StartAt, *ten.EarnedAt)

	streak := achievementByID(t, list, AchievementStreak5)
	assert.True(t, streak.Earned)
	assert.Equal(t, 5, streak.Progress)
	assert.Equal(t, lessons[11].StartAt, *streak.EarnedAt)
}

func TestCalculateAchievements_StreakProgressUsesCurrent(t *testing.T) {
	lessons := attendedSeries(6)
	lessons = append(lessons,
		done(6*7, lesson.AttendanceMissed),
		done(7*7, lesson.AttendanceAttended),
		done(8*7, lesson.AttendanceAttended),
	)
	list := CalculateAchievements(lessons, CalculateStreak(lessons))

	streak := achievementByID(t, list, AchievementStreak5)
	assert.True(t, streak.Earned)
	assert.Equal(t, 2, streak.Progress)

	ten := achievementByID(t, list, AchievementTenLessons)
	assert.False(t, ten.Earned)
	assert.Equal(t, 8, ten.Progress)
	assert.Nil(t, ten.EarnedAt)
}

func TestRule_Evaluate(t *testing.T) {
	rule := Rule{ID: "custom", Kind: KindAttendedCount, Target: 3}
	ev := rule.Evaluate(attendedSeries(2), Streak{})
	assert.Equal(t, Evaluation{Earned: false, Progress: 2, Target: 3}, ev)
}

func TestProgress(t *testing.T) {
	lessons := attendedSeries(5)
	p := Progress(lessons)

	assert.Equal(t, Streak{Current: 5, Max: 5}, p.Streak)
	assert.Len(t, p.Achievements, 4)
	assert.Equal(t, 2, p.EarnedCount)
}
