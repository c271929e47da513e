package service

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"github.com/tutorhub/tutorhub-core/internal/domain/notification"
	"github.com/tutorhub/tutorhub-core/pkg/circuitbreaker"
	"github.com/tutorhub/tutorhub-core/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// LOG SENDER
// ══════════════════════════════════════════════════════════════════════════════

// LogSender writes notices to the log. It stands in for a delivery channel
// until one is configured.
type LogSender struct {
	log *zap.Logger
	loc *time.Location
}

// NewLogSender creates a LogSender rendering times in loc.
func NewLogSender(log *zap.Logger, loc *time.Location) *LogSender {
	if log == nil {
		log = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &LogSender{log: log.Named("notify"), loc: loc}
}

// SendStudentAdded implements notification.Sender.
func (s *LogSender) SendStudentAdded(ctx context.Context, notice notification.StudentAddedNotice) error {
	if err := notice.Validate(); err != nil {
		return err
	}
	s.log.Info("student added notice",
		logger.StudentID(notice.StudentID),
		logger.LessonID(notice.LessonID),
		zap.String("message", notice.Message(s.loc)),
	)
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DEDUPLICATION
// ══════════════════════════════════════════════════════════════════════════════

// DedupeStore claims keys atomically. The Redis cache satisfies it.
type DedupeStore interface {
	SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, keys ...string) error
}

// DedupSender delivers each (lesson, student) notice at most once per TTL.
// A failed delivery releases its key so that a retry can claim it again.
// When the store is unreachable the notice is sent anyway.
type DedupSender struct {
	next  notification.Sender
	store DedupeStore
	ttl   time.Duration
	key   func(digest string) string
	log   *zap.Logger
}

// NewDedupSender wraps next with deduplication. key maps a notice digest to
// the store key; nil uses the digest as is.
func NewDedupSender(next notification.Sender, store DedupeStore, ttl time.Duration, key func(digest string) string, log *zap.Logger) *DedupSender {
	if log == nil {
		log = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if key == nil {
		key = func(digest string) string { return digest }
	}
	return &DedupSender{
		next:  next,
		store: store,
		ttl:   ttl,
		key:   key,
		log:   log.Named("notify_dedupe"),
	}
}

// SendStudentAdded implements notification.Sender.
func (s *DedupSender) SendStudentAdded(ctx context.Context, notice notification.StudentAddedNotice) error {
	key := s.key(DedupeKey(notice))

	claimed, err := s.store.SetNX(ctx, key, notice.StartAt.Unix(), s.ttl)
	if err != nil {
		s.log.Warn("dedupe store unavailable, sending without dedupe",
			logger.LessonID(notice.LessonID),
			logger.StudentID(notice.StudentID),
			zap.Error(err),
		)
		return s.next.SendStudentAdded(ctx, notice)
	}
	if !claimed {
		s.log.Debug("duplicate notice skipped",
			logger.LessonID(notice.LessonID),
			logger.StudentID(notice.StudentID),
		)
		return nil
	}

	if err := s.next.SendStudentAdded(ctx, notice); err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			s.log.Warn("failed to release dedupe key", zap.String("key", key), zap.Error(delErr))
		}
		return err
	}
	return nil
}

// DedupeKey returns a stable digest of the lesson and student ids.
func DedupeKey(notice notification.StudentAddedNotice) string {
	sum := blake2b.Sum256([]byte(notice.LessonID + "\x00" + notice.StudentID))
	return hex.EncodeToString(sum[:16])
}

// ══════════════════════════════════════════════════════════════════════════════
// CIRCUIT BREAKER
// ══════════════════════════════════════════════════════════════════════════════

// BreakerSender stops calling a failing channel until its breaker cools down.
// Rejected calls surface as notification.ErrChannelUnavailable.
type BreakerSender struct {
	next    notification.Sender
	breaker *circuitbreaker.CircuitBreaker
}

// NewBreakerSender wraps next with breaker.
func NewBreakerSender(next notification.Sender, breaker *circuitbreaker.CircuitBreaker) *BreakerSender {
	return &BreakerSender{next: next, breaker: breaker}
}

// SendStudentAdded implements notification.Sender.
func (s *BreakerSender) SendStudentAdded(ctx context.Context, notice notification.StudentAddedNotice) error {
	err := s.breaker.Execute(ctx, func(ctx context.Context) error {
		return s.next.SendStudentAdded(ctx, notice)
	})
	if circuitbreaker.IsRejected(err) {
		return fmt.Errorf("%w: %w", notification.ErrChannelUnavailable, err)
	}
	return err
}

// NewChannelBreaker returns the breaker used for notification channels.
// Unknown recipients do not count against the channel.
func NewChannelBreaker(log *zap.Logger) *circuitbreaker.CircuitBreaker {
	if log == nil {
		log = zap.NewNop()
	}
	return circuitbreaker.NotificationBreaker(
		func(err error) bool { return !errors.Is(err, notification.ErrRecipientNotFound) },
		func(name string, from, to circuitbreaker.State) {
			log.Warn("notification breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	)
}
