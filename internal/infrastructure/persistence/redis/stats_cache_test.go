package redis

import (
	"context"
	"net"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Set TUTORHUB_TEST_REDIS_ADDR=localhost:6379 to run against a real server.
// Database 15 is used and only keys of random student ids are touched.
func integrationCache(t *testing.T) *Cache {
	t.Helper()

	addr := os.Getenv("TUTORHUB_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("skipping integration test: TUTORHUB_TEST_REDIS_ADDR is not set")
	}
	host, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Host = host
	cfg.Port = port
	cfg.DB = 15

	cache, err := NewCache(cfg)
	if err != nil {
		t.Skipf("skipping integration test: %v", err)
	}
	t.Cleanup(func() { _ = cache.Close() })
	return cache
}

type debtView struct {
	Total int `json:"total"`
}

func TestStatsCache_SetGetInvalidate(t *testing.T) {
	cache := integrationCache(t)
	stats := NewStatsCache(cache, time.Minute, nil)
	ctx := context.Background()

	student, other := uuid.NewString(), uuid.NewString()
	t.Cleanup(func() {
		_ = stats.InvalidateStudents(context.Background(), student, other)
	})

	var got debtView
	hit, err := stats.Get(ctx, student, "debt", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, stats.Set(ctx, student, "debt", debtView{Total: 3000}))
	require.NoError(t, stats.Set(ctx, student, "attendance", debtView{Total: 7}))
	require.NoError(t, stats.Set(ctx, other, "debt", debtView{Total: 500}))

	hit, err = stats.Get(ctx, student, "debt", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 3000, got.Total)

	ttl, err := cache.Client().TTL(ctx, StatsKey(student, "debt")).Result()
	require.NoError(t, err)
	assert.True(t, ttl > 0 && ttl <= time.Minute, "ttl %v", ttl)

	members, err := cache.Client().SMembers(ctx, StatsIndexKey(student)).Result()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{StatsKey(student, "debt"), StatsKey(student, "attendance")}, members)

	require.NoError(t, stats.InvalidateStudents(ctx, student))

	for _, view := range []string{"debt", "attendance"} {
		hit, err = stats.Get(ctx, student, view, &got)
		require.NoError(t, err)
		assert.False(t, hit, view)
	}
	exists, err := cache.Client().Exists(ctx, StatsIndexKey(student)).Result()
	require.NoError(t, err)
	assert.Zero(t, exists)

	hit, err = stats.Get(ctx, other, "debt", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 500, got.Total)
}

func TestNotificationDedupe_SetNX(t *testing.T) {
	cache := integrationCache(t)
	ctx := context.Background()
	key := NotificationKey(uuid.NewString())
	t.Cleanup(func() { _ = cache.Delete(context.Background(), key) })

	claimed, err := cache.SetNX(ctx, key, 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = cache.SetNX(ctx, key, 1, time.Minute)
	require.NoError(t, err)
	assert.False(t, claimed)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "stats:s1:debt", StatsKey("s1", "debt"))
	assert.Equal(t, "stats:s1:keys", StatsIndexKey("s1"))
	assert.Equal(t, "notification:abc", NotificationKey("abc"))
}
