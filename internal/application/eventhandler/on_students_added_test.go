package eventhandler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tutorhub/tutorhub-core/internal/domain/notification"
	"github.com/tutorhub/tutorhub-core/internal/domain/shared"
)

type scriptedSender struct {
	mu      sync.Mutex
	sent    []notification.StudentAddedNotice
	attempt map[string]int
	failFor map[string]error
	// failures before success per student
	flaky map[string]int
}

func newScriptedSender() *scriptedSender {
	return &scriptedSender{
		attempt: make(map[string]int),
		failFor: make(map[string]error),
		flaky:   make(map[string]int),
	}
}

func (s *scriptedSender) SendStudentAdded(ctx context.Context, notice notification.StudentAddedNotice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempt[notice.StudentID]++
	if err, ok := s.failFor[notice.StudentID]; ok {
		return err
	}
	if s.attempt[notice.StudentID] <= s.flaky[notice.StudentID] {
		return notification.ErrChannelUnavailable
	}
	s.sent = append(s.sent, notice)
	return nil
}

var startAt = time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

func newHandler(t *testing.T, sender notification.Sender) (*OnStudentsAddedHandler, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	return NewOnStudentsAddedHandler(sender, zap.New(core), StudentsAddedConfig{MaxAttempts: 3, SendTimeout: 5 * time.Second}), logs
}

func TestOnStudentsAdded_NotifiesEveryStudent(t *testing.T) {
	sender := newScriptedSender()
	handler, _ := newHandler(t, sender)

	event := shared.NewStudentsAddedEvent("lesson-1", []string{"s1", "s2"}, "Математика", "Анна", startAt)
	require.NoError(t, handler.Handle(event))

	require.Len(t, sender.sent, 2)
	assert.Equal(t, "s1", sender.sent[0].StudentID)
	assert.Equal(t, "lesson-1", sender.sent[0].LessonID)
	assert.Equal(t, "Математика", sender.sent[0].SubjectName)
	assert.Equal(t, startAt, sender.sent[1].StartAt)
}

func TestOnStudentsAdded_RetriesTransientFailures(t *testing.T) {
	sender := newScriptedSender()
	sender.flaky["s1"] = 1
	handler, logs := newHandler(t, sender)

	require.NoError(t, handler.Handle(&shared.StudentsAddedEvent{
		BaseEvent:  shared.NewBaseEvent(shared.EventStudentsAdded, "lesson-1"),
		LessonID:   "lesson-1",
		StudentIDs: []string{"s1"},
		StartAt:    startAt,
	}))

	assert.Equal(t, 2, sender.attempt["s1"])
	assert.Len(t, sender.sent, 1)
	assert.Equal(t, 1, logs.FilterMessage("retrying student added notice").Len())
}

func TestOnStudentsAdded_FailuresAreLogOnly(t *testing.T) {
	sender := newScriptedSender()
	sender.failFor["s1"] = notification.ErrRecipientNotFound
	sender.failFor["s2"] = errors.New("smtp down")
	handler, logs := newHandler(t, sender)

	event := shared.NewStudentsAddedEvent("lesson-1", []string{"s1", "s2", "s3"}, "", "", startAt)
	err := handler.Handle(event)

	assert.NoError(t, err)
	assert.Equal(t, 1, sender.attempt["s1"])
	assert.Equal(t, 3, sender.attempt["s2"])
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "s3", sender.sent[0].StudentID)
	assert.Equal(t, 2, logs.FilterMessage("student added notice not delivered").Len())
}

func TestOnStudentsAdded_IgnoresOtherEvents(t *testing.T) {
	sender := newScriptedSender()
	handler, logs := newHandler(t, sender)

	err := handler.Handle(shared.NewLessonsUpdatedEvent("lesson-1", "", "this", 1, nil, false))

	assert.NoError(t, err)
	assert.Empty(t, sender.sent)
	assert.Equal(t, 1, logs.FilterMessage("received non-StudentsAddedEvent").Len())
}

type recordingBus struct {
	subscribed []shared.EventType
}

func (b *recordingBus) Subscribe(eventType shared.EventType, handler shared.EventHandler) error {
	b.subscribed = append(b.subscribed, eventType)
	return nil
}

func (b *recordingBus) SubscribeAll(handler shared.EventHandler) error {
	return nil
}

func TestOnStudentsAdded_Register(t *testing.T) {
	handler, _ := newHandler(t, newScriptedSender())
	bus := &recordingBus{}

	require.NoError(t, handler.Register(bus))
	assert.Equal(t, []shared.EventType{shared.EventStudentsAdded}, bus.subscribed)
}
