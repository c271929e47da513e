package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tutorhub/tutorhub-core/config"
	"github.com/tutorhub/tutorhub-core/internal/domain/shared"
	"github.com/tutorhub/tutorhub-core/internal/infrastructure/persistence/redis"
)

type memoryDedupe struct {
	mu   sync.Mutex
	keys map[string]bool
}

func newMemoryDedupe() *memoryDedupe {
	return &memoryDedupe{keys: make(map[string]bool)}
}

func (m *memoryDedupe) SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.keys[key] {
		return false, nil
	}
	m.keys[key] = true
	return true, nil
}

func (m *memoryDedupe) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.keys, k)
	}
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Location: time.UTC},
		Recurrence: config.RecurrenceConfig{
			DefaultOccurrences: 10,
			MaxOccurrences:     200,
		},
		Notify: config.NotifyConfig{
			Workers:     2,
			MaxAttempts: 1,
			DedupeTTL:   time.Hour,
		},
		Cache:    config.CacheConfig{StatsTTL: time.Minute},
		Features: config.LoadFeatureFlags(),
	}
}

func studentsAdded() shared.StudentsAddedEvent {
	start := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	return shared.NewStudentsAddedEvent("lesson-1", []string{"s1", "s2"}, "Физика", "Иван", start)
}

func TestNotifications_DeliveredOncePerStudent(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	log := zap.New(core)
	cfg := testConfig()
	require.NoError(t, cfg.Features.EnableFeature(config.FeatureNotifyStudentsAdded))
	require.NoError(t, cfg.Features.EnableFeature(config.FeatureNotifyDedupe))

	bus := newEventBus(cfg, log)
	dedupe := newMemoryDedupe()
	require.NoError(t, wireNotifications(bus, newSender(cfg, dedupe, log), cfg, log))

	require.NoError(t, bus.Publish(studentsAdded()))
	bus.Wait()
	require.NoError(t, bus.Publish(studentsAdded()))
	bus.Wait()

	assert.Equal(t, 2, logs.FilterMessage("student added notice").Len())
	assert.Len(t, dedupe.keys, 2)
	for key := range dedupe.keys {
		assert.Contains(t, key, redis.PrefixNotification)
	}
	require.NoError(t, bus.Close())
}

func TestNotifications_WithoutDedupeStore(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	log := zap.New(core)
	cfg := testConfig()
	require.NoError(t, cfg.Features.EnableFeature(config.FeatureNotifyStudentsAdded))

	bus := newEventBus(cfg, log)
	require.NoError(t, wireNotifications(bus, newSender(cfg, nil, log), cfg, log))

	require.NoError(t, bus.Publish(studentsAdded()))
	bus.Wait()
	require.NoError(t, bus.Publish(studentsAdded()))
	bus.Wait()

	assert.Equal(t, 4, logs.FilterMessage("student added notice").Len())
	require.NoError(t, bus.Close())
}

func TestNotifications_Disabled(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	log := zap.New(core)
	cfg := testConfig()
	require.NoError(t, cfg.Features.DisableFeature(config.FeatureNotifyStudentsAdded))

	bus := newEventBus(cfg, log)
	require.NoError(t, wireNotifications(bus, newSender(cfg, newMemoryDedupe(), log), cfg, log))

	require.NoError(t, bus.Publish(studentsAdded()))
	bus.Wait()

	assert.Zero(t, logs.FilterMessage("student added notice").Len())
	assert.Equal(t, 1, logs.FilterMessage("student added notifications disabled").Len())
	require.NoError(t, bus.Close())
}

func TestAssemble_WithoutStatsCache(t *testing.T) {
	cfg := testConfig()
	bus := newEventBus(cfg, zap.NewNop())
	defer bus.Close()

	commands, queries := assemble(cfg, zap.NewNop(), nil, nil, bus)

	assert.NotNil(t, commands.CreateSeries)
	assert.NotNil(t, commands.ConvertLesson)
	assert.NotNil(t, commands.UpdateLesson)
	assert.NotNil(t, commands.DeleteLesson)
	assert.NotNil(t, queries.Attendance)
	assert.NotNil(t, queries.Debt)
	assert.NotNil(t, queries.Progress)
	assert.NotNil(t, queries.Dashboard)
}
