package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Each event represents something significant that
// happened to a lesson or a series after the change was committed.
const (
	// Series events
	EventSeriesCreated   EventType = "series.created"
	EventSeriesConverted EventType = "series.converted"

	// Lesson events
	EventLessonsUpdated EventType = "lesson.updated"
	EventLessonsDeleted EventType = "lesson.deleted"

	// Roster events
	EventStudentsAdded EventType = "roster.students_added"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Series Events
// ═══════════════════════════════════════════════════════════════════════════

// SeriesCreatedEvent is emitted after a series and its lessons were stored.
type SeriesCreatedEvent struct {
	BaseEvent
	TeacherID   string   `json:"teacher_id"`
	LessonCount int      `json:"lesson_count"`
	StudentIDs  []string `json:"student_ids"`
	CapReached  bool     `json:"cap_reached"`
}

// Payload implements Event interface.
func (e SeriesCreatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"teacher_id":   e.TeacherID,
		"lesson_count": e.LessonCount,
		"student_ids":  e.StudentIDs,
		"cap_reached":  e.CapReached,
	}
}

// NewSeriesCreatedEvent creates a new SeriesCreatedEvent.
// Converted series reuse the payload with a different event type.
func NewSeriesCreatedEvent(seriesID, teacherID string, lessonCount int, studentIDs []string, capReached, converted bool) SeriesCreatedEvent {
	eventType := EventSeriesCreated
	if converted {
		eventType = EventSeriesConverted
	}
	return SeriesCreatedEvent{
		BaseEvent:   NewBaseEvent(eventType, seriesID),
		TeacherID:   teacherID,
		LessonCount: lessonCount,
		StudentIDs:  studentIDs,
		CapReached:  capReached,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Lesson Events
// ═══════════════════════════════════════════════════════════════════════════

// LessonsChangedEvent is emitted after a scoped update or delete was committed.
type LessonsChangedEvent struct {
	BaseEvent
	SeriesID   string   `json:"series_id,omitempty"`
	Scope      string   `json:"scope"`
	Affected   int      `json:"affected"`
	StudentIDs []string `json:"student_ids"`
	Degraded   bool     `json:"degraded"`
}

// Payload implements Event interface.
func (e LessonsChangedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"series_id":   e.SeriesID,
		"scope":       e.Scope,
		"affected":    e.Affected,
		"student_ids": e.StudentIDs,
		"degraded":    e.Degraded,
	}
}

// NewLessonsUpdatedEvent creates a LessonsChangedEvent for an update.
func NewLessonsUpdatedEvent(lessonID, seriesID, scope string, affected int, studentIDs []string, degraded bool) LessonsChangedEvent {
	return LessonsChangedEvent{
		BaseEvent:  NewBaseEvent(EventLessonsUpdated, lessonID),
		SeriesID:   seriesID,
		Scope:      scope,
		Affected:   affected,
		StudentIDs: studentIDs,
		Degraded:   degraded,
	}
}

// NewLessonsDeletedEvent creates a LessonsChangedEvent for a delete.
func NewLessonsDeletedEvent(lessonID, seriesID, scope string, affected int, studentIDs []string, degraded bool) LessonsChangedEvent {
	return LessonsChangedEvent{
		BaseEvent:  NewBaseEvent(EventLessonsDeleted, lessonID),
		SeriesID:   seriesID,
		Scope:      scope,
		Affected:   affected,
		StudentIDs: studentIDs,
		Degraded:   degraded,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Roster Events
// ═══════════════════════════════════════════════════════════════════════════

// StudentsAddedEvent is emitted when a roster change added new students
// to a lesson. It drives the "new student" notification.
type StudentsAddedEvent struct {
	BaseEvent
	LessonID    string    `json:"lesson_id"`
	StudentIDs  []string  `json:"student_ids"`
	SubjectName string    `json:"subject_name"`
	TeacherName string    `json:"teacher_name"`
	StartAt     time.Time `json:"start_at"`
}

// Payload implements Event interface.
func (e StudentsAddedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"lesson_id":    e.LessonID,
		"student_ids":  e.StudentIDs,
		"subject_name": e.SubjectName,
		"teacher_name": e.TeacherName,
		"start_at":     e.StartAt.Format(time.RFC3339),
	}
}

// NewStudentsAddedEvent creates a new StudentsAddedEvent.
func NewStudentsAddedEvent(lessonID string, studentIDs []string, subjectName, teacherName string, startAt time.Time) StudentsAddedEvent {
	return StudentsAddedEvent{
		BaseEvent:   NewBaseEvent(EventStudentsAdded, lessonID),
		LessonID:    lessonID,
		StudentIDs:  studentIDs,
		SubjectName: subjectName,
		TeacherName: teacherName,
		StartAt:     startAt,
	}
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
