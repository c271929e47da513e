package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tutorhub/tutorhub-core/pkg/logger"
)

// StatsCache stores computed statistics views per student.
// Every view key of a student is tracked in an index set so that a
// mutation can drop all of them at once.
type StatsCache struct {
	cache *Cache
	ttl   time.Duration
	log   *zap.Logger
}

// NewStatsCache creates a new StatsCache. A non-positive ttl falls back to TTLStats.
func NewStatsCache(cache *Cache, ttl time.Duration, log *zap.Logger) *StatsCache {
	if ttl <= 0 {
		ttl = TTLStats
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &StatsCache{
		cache: cache,
		ttl:   ttl,
		log:   log.Named("stats_cache"),
	}
}

// Get loads a cached view into dest. It reports false on a miss.
func (s *StatsCache) Get(ctx context.Context, studentID, view string, dest interface{}) (bool, error) {
	err := s.cache.Get(ctx, StatsKey(studentID, view), dest)
	if errors.Is(err, ErrCacheMiss) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Set stores a view and registers its key in the student's index.
func (s *StatsCache) Set(ctx context.Context, studentID, view string, value interface{}) error {
	key := StatsKey(studentID, view)
	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		return err
	}

	index := StatsIndexKey(studentID)
	pipe := s.cache.Client().TxPipeline()
	pipe.SAdd(ctx, index, key)
	pipe.Expire(ctx, index, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to index stats key: %w", err)
	}
	return nil
}

// InvalidateStudents drops every cached view of the given students.
func (s *StatsCache) InvalidateStudents(ctx context.Context, studentIDs ...string) error {
	for _, id := range studentIDs {
		index := StatsIndexKey(id)
		keys, err := s.cache.Client().SMembers(ctx, index).Result()
		if err != nil {
			return fmt.Errorf("failed to read stats index of %s: %w", id, err)
		}
		if err := s.cache.Delete(ctx, append(keys, index)...); err != nil {
			return fmt.Errorf("failed to invalidate stats of %s: %w", id, err)
		}
		s.log.Debug("stats invalidated", logger.StudentID(id), zap.Int("views", len(keys)))
	}
	return nil
}
