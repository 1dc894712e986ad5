package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type claim struct {
	Fingerprint string `json:"fingerprint"`
}

func exerciseStore(t *testing.T, s Store, expire func(time.Duration)) {
	ctx := context.Background()

	ok, err := s.SetNX(ctx, "idem:1", claim{Fingerprint: "abc"}, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.SetNX(ctx, "idem:1", claim{Fingerprint: "other"}, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	var got claim
	found, err := s.Get(ctx, "idem:1", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "abc", got.Fingerprint)

	expire(2 * time.Minute)
	found, err = s.Get(ctx, "idem:1", &got)
	require.NoError(t, err)
	assert.False(t, found)

	ok, err = s.SetNX(ctx, "idem:1", claim{Fingerprint: "new"}, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.Delete(ctx, "idem:1"))
	found, err = s.Get(ctx, "idem:1", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCacheService_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewCacheService(client, time.Hour, "railpay")

	exerciseStore(t, s, mr.FastForward)
	assert.NoError(t, s.HealthCheck(context.Background()))

	require.NoError(t, s.SetWithTTL(context.Background(), "k", 1, 0))
	assert.True(t, mr.Exists("railpay:k"))
	assert.Equal(t, time.Hour, mr.TTL("railpay:k"))
}

func TestMemoryStore(t *testing.T) {
	now := time.Now()
	s := NewMemoryStore(time.Hour)
	s.now = func() time.Time { return now }

	exerciseStore(t, s, func(d time.Duration) { now = now.Add(d) })
}

func TestMemoryStore_Sweep(t *testing.T) {
	now := time.Now()
	s := NewMemoryStore(time.Hour)
	s.now = func() time.Time { return now }

	require.NoError(t, s.SetWithTTL(context.Background(), "a", 1, time.Second))
	require.NoError(t, s.SetWithTTL(context.Background(), "b", 1, time.Minute))

	now = now.Add(10 * time.Second)
	assert.Equal(t, 1, s.Sweep())
	assert.Len(t, s.entries, 1)
}
