// Package gamification считает серии посещений и достижения ученика.
// Достижения не хранятся: они заново вычисляются из истории занятий.
package gamification

import (
	"sort"

	"github.com/tutorhub/tutorhub-core/internal/domain/lesson"
)

// Streak - серия подряд посещённых проведённых занятий.
type Streak struct {
	// Current - серия, заканчивающаяся самым последним занятием.
	Current int `json:"current"`
	// Max - лучшая серия за всю историю.
	Max int `json:"max"`
}

// CalculateStreak обходит проведённые занятия от самого позднего к раннему.
// Любая посещаемость, кроме attended (в том числе unknown), обрывает серию.
func CalculateStreak(lessons []lesson.StudentLesson) Streak {
	done := make([]lesson.StudentLesson, 0, len(lessons))
	for _, l := range lessons {
		if l.IsDone() {
			done = append(done, l)
		}
	}
	sort.SliceStable(done, func(i, j int) bool {
		return done[i].StartAt.After(done[j].StartAt)
	})

	var (
		result      Streak
		streak      int
		foundMissed bool
	)
	for _, l := range done {
		if l.Attendance != lesson.AttendanceAttended {
			foundMissed = true
			streak = 0
			continue
		}
		streak++
		if !foundMissed {
			result.Current = streak
		}
		if streak > result.Max {
			result.Max = streak
		}
	}
	return result
}
