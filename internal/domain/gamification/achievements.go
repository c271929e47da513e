package gamification

import (
	"sort"
	"time"

	"github.com/tutorhub/tutorhub-core/internal/domain/lesson"
	"github.com/tutorhub/tutorhub-core/pkg/mathutil"
	"github.com/tutorhub/tutorhub-core/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENTS (Достижения)
// ══════════════════════════════════════════════════════════════════════════════

// AchievementID - идентификатор достижения.
type AchievementID string

const (
	// AchievementFirstLesson - первое посещённое занятие.
	AchievementFirstLesson AchievementID = "first_lesson"
	// AchievementTenLessons - десять посещённых занятий.
	AchievementTenLessons AchievementID = "ten_lessons"
	// AchievementPerfectWeek - неделя с тремя и более занятиями без пропусков.
	AchievementPerfectWeek AchievementID = "perfect_week"
	// AchievementStreak5 - пять посещённых занятий подряд.
	AchievementStreak5 AchievementID = "streak_5"
)

// Achievement - вычисленное состояние достижения.
type Achievement struct {
	ID          AchievementID `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Emoji       string        `json:"emoji"`
	Earned      bool          `json:"earned"`
	Progress    int           `json:"progress"`
	Target      int           `json:"target"`
	EarnedAt    *time.Time    `json:"earnedAt"`
}

// RuleKind - вид правила достижения.
type RuleKind int

const (
	// KindAttendedCount - количество посещённых проведённых занятий.
	KindAttendedCount RuleKind = iota + 1
	// KindPerfectWeek - количество идеальных недель.
	KindPerfectWeek
	// KindStreak - лучшая серия посещений.
	KindStreak
)

// PerfectWeekMinLessons - минимум проведённых занятий в идеальной неделе.
const PerfectWeekMinLessons = 3

// Rule описывает одно достижение каталога.
type Rule struct {
	ID          AchievementID
	Kind        RuleKind
	Target      int
	Title       string
	Description string
	Emoji       string
}

// Evaluation - результат проверки правила.
type Evaluation struct {
	Earned   bool
	Progress int
	Target   int
}

// Catalog возвращает упорядоченный каталог достижений.
func Catalog() []Rule {
	return []Rule{
		{AchievementFirstLesson, KindAttendedCount, 1, "Первый шаг", "Посещено первое занятие", "🎯"},
		{AchievementTenLessons, KindAttendedCount, 10, "Десятка", "Посещено 10 занятий", "🔟"},
		{AchievementPerfectWeek, KindPerfectWeek, 1, "Идеальная неделя", "3 и более занятий за неделю без пропусков", "⭐"},
		{AchievementStreak5, KindStreak, 5, "В ритме", "5 занятий подряд без пропусков", "🔥"},
	}
}

// history - предвычисленные факты, общие для всех правил.
type history struct {
	attended     []lesson.StudentLesson // по возрастанию StartAt
	perfectWeeks int
	streak       Streak
}

func newHistory(lessons []lesson.StudentLesson, streak Streak) history {
	attended := make([]lesson.StudentLesson, 0, len(lessons))
	for _, l := range lessons {
		if l.IsAttended() {
			attended = append(attended, l)
		}
	}
	sort.SliceStable(attended, func(i, j int) bool {
		return attended[i].StartAt.Before(attended[j].StartAt)
	})
	return history{
		attended:     attended,
		perfectWeeks: countPerfectWeeks(lessons),
		streak:       streak,
	}
}

// countPerfectWeeks группирует проведённые занятия по неделям с началом в воскресенье.
// Неделя идеальна, если в ней не меньше трёх занятий и нет ни одного пропуска.
func countPerfectWeeks(lessons []lesson.StudentLesson) int {
	type week struct {
		done   int
		missed bool
	}
	weeks := make(map[string]*week)
	for _, l := range lessons {
		if !l.IsDone() {
			continue
		}
		key := timeutil.StartOfWeekSunday(l.StartAt).Format(timeutil.FormatDate)
		w, ok := weeks[key]
		if !ok {
			w = &week{}
			weeks[key] = w
		}
		w.done++
		if l.Attendance == lesson.AttendanceMissed {
			w.missed = true
		}
	}

	count := 0
	for _, w := range weeks {
		if w.done >= PerfectWeekMinLessons && !w.missed {
			count++
		}
	}
	return count
}

// Evaluate проверяет правило по истории занятий.
func (r Rule) Evaluate(lessons []lesson.StudentLesson, streak Streak) Evaluation {
	return r.evaluate(newHistory(lessons, streak))
}

func (r Rule) evaluate(h history) Evaluation {
	switch r.Kind {
	case KindAttendedCount:
		count := len(h.attended)
		return Evaluation{Earned: count >= r.Target, Progress: mathutil.MinInt(count, r.Target), Target: r.Target}
	case KindPerfectWeek:
		return Evaluation{Earned: h.perfectWeeks >= r.Target, Progress: h.perfectWeeks, Target: r.Target}
	case KindStreak:
		return Evaluation{Earned: h.streak.Max >= r.Target, Progress: mathutil.MinInt(h.streak.Current, r.Target), Target: r.Target}
	default:
		return Evaluation{Target: r.Target}
	}
}

// earnedAt: для счётчиков посещений - время N-го посещённого занятия,
// для остальных - время последнего посещённого занятия (приближение).
func (r Rule) earnedAt(h history) *time.Time {
	if len(h.attended) == 0 {
		return nil
	}
	if r.Kind == KindAttendedCount && r.Target <= len(h.attended) {
		t := h.attended[r.Target-1].StartAt
		return &t
	}
	t := h.attended[len(h.attended)-1].StartAt
	return &t
}

// CalculateAchievements вычисляет все достижения каталога по порядку.
func CalculateAchievements(lessons []lesson.StudentLesson, streak Streak) []Achievement {
	h := newHistory(lessons, streak)
	rules := Catalog()
	out := make([]Achievement, 0, len(rules))
	for _, r := range rules {
		ev := r.evaluate(h)
		a := Achievement{
			ID:          r.ID,
			Title:       r.Title,
			Description: r.Description,
			Emoji:       r.Emoji,
			Earned:      ev.Earned,
			Progress:    ev.Progress,
			Target:      ev.Target,
		}
		if ev.Earned {
			a.EarnedAt = r.earnedAt(h)
		}
		out = append(out, a)
	}
	return out
}

// StudentProgress - серия посещений и достижения ученика.
type StudentProgress struct {
	Streak       Streak        `json:"streak"`
	Achievements []Achievement `json:"achievements"`
	EarnedCount  int           `json:"earnedCount"`
}

// Progress считает серию и достижения за один проход.
func Progress(lessons []lesson.StudentLesson) StudentProgress {
	streak := CalculateStreak(lessons)
	achievements := CalculateAchievements(lessons, streak)
	earned := 0
	for _, a := range achievements {
		if a.Earned {
			earned++
		}
	}
	return StudentProgress{
		Streak:       streak,
		Achievements: achievements,
		EarnedCount:  earned,
	}
}
