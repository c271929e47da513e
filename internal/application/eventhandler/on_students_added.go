// Package eventhandler содержит обработчики доменных событий.
package eventhandler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/tutorhub/tutorhub-core/internal/domain/notification"
	"github.com/tutorhub/tutorhub-core/internal/domain/shared"
	"github.com/tutorhub/tutorhub-core/pkg/logger"
	"github.com/tutorhub/tutorhub-core/pkg/retry"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON STUDENTS ADDED HANDLER
// Сообщает новым ученикам занятия, что их записали.
//
// Уведомление - побочный эффект уже зафиксированной правки: ошибки доставки
// повторяются с backoff и в итоге только логируются.
// ═══════════════════════════════════════════════════════════════════════════

// OnStudentsAddedHandler обрабатывает shared.StudentsAddedEvent.
type OnStudentsAddedHandler struct {
	sender notification.Sender
	logger *zap.Logger
	config StudentsAddedConfig
}

// StudentsAddedConfig содержит конфигурацию обработчика.
type StudentsAddedConfig struct {
	// MaxAttempts - попыток доставки одному ученику, включая первую.
	MaxAttempts int

	// SendTimeout - лимит на все попытки для одного ученика.
	SendTimeout time.Duration
}

// DefaultStudentsAddedConfig возвращает конфигурацию по умолчанию.
func DefaultStudentsAddedConfig() StudentsAddedConfig {
	return StudentsAddedConfig{
		MaxAttempts: 3,
		SendTimeout: 30 * time.Second,
	}
}

// NewOnStudentsAddedHandler создаёт обработчик.
func NewOnStudentsAddedHandler(sender notification.Sender, log *zap.Logger, config StudentsAddedConfig) *OnStudentsAddedHandler {
	if log == nil {
		log = zap.NewNop()
	}
	defaults := DefaultStudentsAddedConfig()
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = defaults.MaxAttempts
	}
	if config.SendTimeout <= 0 {
		config.SendTimeout = defaults.SendTimeout
	}
	return &OnStudentsAddedHandler{
		sender: sender,
		logger: log.Named("on_students_added"),
		config: config,
	}
}

// Handle реализует shared.EventHandler. Всегда возвращает nil.
func (h *OnStudentsAddedHandler) Handle(event shared.Event) error {
	added, ok := asStudentsAdded(event)
	if !ok {
		h.logger.Warn("received non-StudentsAddedEvent",
			zap.String("event_type", string(event.EventType())),
		)
		return nil
	}

	for _, studentID := range added.StudentIDs {
		notice := notification.StudentAddedNotice{
			StudentID:   studentID,
			LessonID:    added.LessonID,
			SubjectName: added.SubjectName,
			TeacherName: added.TeacherName,
			StartAt:     added.StartAt,
		}
		if err := h.deliver(notice); err != nil {
			h.logger.Warn("student added notice not delivered",
				logger.LessonID(notice.LessonID),
				logger.StudentID(notice.StudentID),
				zap.Error(err),
			)
		}
	}
	return nil
}

func (h *OnStudentsAddedHandler) deliver(notice notification.StudentAddedNotice) error {
	if err := notice.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.SendTimeout)
	defer cancel()

	retrier := retry.NotificationRetrier(h.config.MaxAttempts, func(attempt int, err error, delay time.Duration) {
		h.logger.Debug("retrying student added notice",
			logger.StudentID(notice.StudentID),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
	})

	return retrier.Do(ctx, func(ctx context.Context) error {
		err := h.sender.SendStudentAdded(ctx, notice)
		if errors.Is(err, notification.ErrRecipientNotFound) {
			return retry.Permanent(err)
		}
		return err
	})
}

// Register подписывает обработчик на шину.
func (h *OnStudentsAddedHandler) Register(bus shared.EventSubscriber) error {
	return bus.Subscribe(h.EventType(), h.Handle)
}

// EventType возвращает тип события, который обрабатывает этот handler.
func (h *OnStudentsAddedHandler) EventType() shared.EventType {
	return shared.EventStudentsAdded
}

func asStudentsAdded(event shared.Event) (shared.StudentsAddedEvent, bool) {
	switch e := event.(type) {
	case shared.StudentsAddedEvent:
		return e, true
	case *shared.StudentsAddedEvent:
		if e != nil {
			return *e, true
		}
	}
	return shared.StudentsAddedEvent{}, false
}
