// Package stats считает статистику посещаемости ученика: общую и в разрезе
// предметов и преподавателей. Все функции чистые и работают с уже
// загруженной проекцией занятий.
package stats

import (
	"sort"
	"time"

	"github.com/tutorhub/tutorhub-core/internal/domain/lesson"
	"github.com/tutorhub/tutorhub-core/pkg/mathutil"
)

// RecentMissedLimit - сколько последних пропусков попадает в AttendanceStats.
const RecentMissedLimit = 5

// LessonRef - ссылка на занятие для детализации в интерфейсе.
type LessonRef struct {
	LessonID    string    `json:"lessonId"`
	StartAt     time.Time `json:"startAt"`
	SubjectName string    `json:"subjectName"`
}

func refOf(l lesson.StudentLesson) LessonRef {
	return LessonRef{LessonID: l.LessonID, StartAt: l.StartAt, SubjectName: l.SubjectName}
}

// AttendanceStats - сводная посещаемость по прошедшим занятиям.
// CancelledByStudent включает отмены по болезни; CancelledByStudentIllness - их часть.
type AttendanceStats struct {
	TotalLessonsPlanned       int         `json:"totalLessonsPlanned"`
	Attended                  int         `json:"attended"`
	Missed                    int         `json:"missed"`
	DoneCount                 int         `json:"doneCount"`
	CancelledByStudent        int         `json:"cancelledByStudent"`
	CancelledByStudentIllness int         `json:"cancelledByStudentIllness"`
	CancelledByTeacher        int         `json:"cancelledByTeacher"`
	PastPlanned               int         `json:"pastPlanned"`
	AttendanceRate            float64     `json:"attendanceRate"`
	RecentMissed              []LessonRef `json:"recentMissed"`
}

// CalculateAttendanceRate возвращает процент с одним знаком после запятой; 0 при total = 0.
func CalculateAttendanceRate(attended, total int) float64 {
	return mathutil.Percent(attended, total)
}

// tally - счётчики одной группы занятий.
type tally struct {
	done             int
	attended         int
	missed           int
	cancelledStudent int
	cancelledIllness int
	cancelledTeacher int
	pastPlanned      int
	missedLessons    []LessonRef
	cancelledLessons []LessonRef
}

// add учитывает прошедшее занятие. Перенесённые занятия не учитываются.
func (t *tally) add(l lesson.StudentLesson) {
	switch l.Status {
	case lesson.StatusDone:
		t.done++
		switch l.Attendance {
		case lesson.AttendanceAttended:
			t.attended++
		case lesson.AttendanceMissed:
			t.missed++
			t.missedLessons = append(t.missedLessons, refOf(l))
		}
	case lesson.StatusCancelled:
		if l.CancelledBy == nil {
			return
		}
		switch *l.CancelledBy {
		case lesson.CancelledByStudent:
			t.cancelledStudent++
			if l.CancellationReason != nil && *l.CancellationReason == lesson.CancellationIllness {
				t.cancelledIllness++
			}
		case lesson.CancelledByTeacher:
			t.cancelledTeacher++
		}
		t.cancelledLessons = append(t.cancelledLessons, refOf(l))
	case lesson.StatusPlanned:
		t.pastPlanned++
	}
}

func (t *tally) total() int {
	return t.done + t.cancelledStudent + t.cancelledTeacher + t.pastPlanned
}

// CalculateAttendanceStats считает посещаемость по занятиям со StartAt < asOf.
func CalculateAttendanceStats(lessons []lesson.StudentLesson, asOf time.Time) AttendanceStats {
	var t tally
	for _, l := range lessons {
		if l.StartAt.Before(asOf) {
			t.add(l)
		}
	}

	total := t.total()
	return AttendanceStats{
		TotalLessonsPlanned:       total,
		Attended:                  t.attended,
		Missed:                    t.missed,
		DoneCount:                 t.done,
		CancelledByStudent:        t.cancelledStudent,
		CancelledByStudentIllness: t.cancelledIllness,
		CancelledByTeacher:        t.cancelledTeacher,
		PastPlanned:               t.pastPlanned,
		AttendanceRate:            CalculateAttendanceRate(t.attended, total),
		RecentMissed:              recentMissed(t.missedLessons),
	}
}

func recentMissed(missed []LessonRef) []LessonRef {
	out := make([]LessonRef, len(missed))
	copy(out, missed)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartAt.After(out[j].StartAt)
	})
	if len(out) > RecentMissedLimit {
		out = out[:RecentMissedLimit]
	}
	return out
}

// ══════════════════════════════════════════════════════════════════════════════
// GROUPED STATS
// ══════════════════════════════════════════════════════════════════════════════

// GroupStats - посещаемость в одной группе (предмет или преподаватель).
// Списки пропусков и отмен не ограничены по длине.
type GroupStats struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	TotalPlanned     int         `json:"totalPlanned"`
	Attended         int         `json:"attended"`
	Missed           int         `json:"missed"`
	AttendanceRate   float64     `json:"attendanceRate"`
	MissedLessons    []LessonRef `json:"missedLessons"`
	CancelledLessons []LessonRef `json:"cancelledLessons"`
}

// orderedGroups хранит группы в порядке первого появления ключа.
type orderedGroups struct {
	index  map[string]int
	keys   []string
	names  []string
	groups []*tally
}

func newOrderedGroups() *orderedGroups {
	return &orderedGroups{index: make(map[string]int)}
}

func (g *orderedGroups) get(key, name string) *tally {
	if i, ok := g.index[key]; ok {
		return g.groups[i]
	}
	g.index[key] = len(g.groups)
	g.keys = append(g.keys, key)
	g.names = append(g.names, name)
	t := &tally{}
	g.groups = append(g.groups, t)
	return t
}

func (g *orderedGroups) result() []GroupStats {
	out := make([]GroupStats, 0, len(g.groups))
	for i, t := range g.groups {
		total := t.total()
		out = append(out, GroupStats{
			ID:               g.keys[i],
			Name:             g.names[i],
			TotalPlanned:     total,
			Attended:         t.attended,
			Missed:           t.missed,
			AttendanceRate:   CalculateAttendanceRate(t.attended, total),
			MissedLessons:    nonNil(t.missedLessons),
			CancelledLessons: nonNil(t.cancelledLessons),
		})
	}
	return out
}

func nonNil(refs []LessonRef) []LessonRef {
	if refs == nil {
		return []LessonRef{}
	}
	return refs
}

func groupBy(lessons []lesson.StudentLesson, asOf time.Time, key func(lesson.StudentLesson) (string, string)) []GroupStats {
	groups := newOrderedGroups()
	for _, l := range lessons {
		if !l.StartAt.Before(asOf) {
			continue
		}
		id, name := key(l)
		groups.get(id, name).add(l)
	}
	return groups.result()
}

// CalculateStatsBySubject группирует прошедшие занятия по предмету.
func CalculateStatsBySubject(lessons []lesson.StudentLesson, asOf time.Time) []GroupStats {
	return groupBy(lessons, asOf, func(l lesson.StudentLesson) (string, string) {
		return l.SubjectID, l.SubjectName
	})
}

// CalculateStatsByTeacher группирует прошедшие занятия по преподавателю.
func CalculateStatsByTeacher(lessons []lesson.StudentLesson, asOf time.Time) []GroupStats {
	return groupBy(lessons, asOf, func(l lesson.StudentLesson) (string, string) {
		return l.TeacherID, l.TeacherName
	})
}
