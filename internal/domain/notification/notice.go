// Package notification описывает уведомление "вас записали на занятие".
// Ядро только сообщает о факте добавления ученика; как и будет ли оно
// доставлено, решает реализация Sender.
package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tutorhub/tutorhub-core/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrRecipientNotFound - получатель неизвестен каналу доставки. Повтор не поможет.
	ErrRecipientNotFound = errors.New("notification recipient not found")

	// ErrChannelUnavailable - канал временно недоступен.
	ErrChannelUnavailable = errors.New("notification channel unavailable")
)

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT ADDED NOTICE
// ══════════════════════════════════════════════════════════════════════════════

// StudentAddedNotice - уведомление ученику о записи на занятие.
type StudentAddedNotice struct {
	StudentID   string    `json:"studentId"`
	LessonID    string    `json:"lessonId"`
	SubjectName string    `json:"subjectName"`
	TeacherName string    `json:"teacherName"`
	StartAt     time.Time `json:"startAt"`
}

// Validate проверяет обязательные поля.
func (n StudentAddedNotice) Validate() error {
	if n.StudentID == "" {
		return errors.New("notice: student id is required")
	}
	if n.LessonID == "" {
		return errors.New("notice: lesson id is required")
	}
	if n.StartAt.IsZero() {
		return errors.New("notice: start time is required")
	}
	return nil
}

// Message возвращает текст уведомления во временной зоне loc.
func (n StudentAddedNotice) Message(loc *time.Location) string {
	subject := n.SubjectName
	if subject == "" {
		subject = "занятие"
	}
	msg := fmt.Sprintf("Вас записали на %s: %s", subject, timeutil.FormatRussian(n.StartAt, loc))
	if n.TeacherName != "" {
		msg += fmt.Sprintf(", преподаватель %s", n.TeacherName)
	}
	return msg
}

// Sender доставляет уведомления. Реализации находятся в infrastructure.
type Sender interface {
	SendStudentAdded(ctx context.Context, notice StudentAddedNotice) error
}

// SenderFunc позволяет использовать функцию как Sender.
type SenderFunc func(ctx context.Context, notice StudentAddedNotice) error

// SendStudentAdded вызывает f.
func (f SenderFunc) SendStudentAdded(ctx context.Context, notice StudentAddedNotice) error {
	return f(ctx, notice)
}
