package sectionstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/ladderpulse/pkg/nav"
	"github.com/vango-dev/ladderpulse/pkg/sectionstore"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

// runContract checks the behaviour every nav.SectionStore shares.
func runContract(t *testing.T, store nav.SectionStore) {
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "stats")
	require.NoError(t, err)
	assert.False(t, ok, "empty store")

	require.NoError(t, store.Put(ctx, "stats", "type=ladder&season=46"))
	got, ok, err := store.Get(ctx, "stats")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "type=ladder&season=46", got)

	require.NoError(t, store.Put(ctx, "stats", "type=ladder&season=47"))
	got, _, _ = store.Get(ctx, "stats")
	assert.Equal(t, "type=ladder&season=47", got, "last write wins")

	_, ok, _ = store.Get(ctx, "player-info")
	assert.False(t, ok, "sections are independent")
}

func TestStore_Contract(t *testing.T) {
	t.Run("redis", func(t *testing.T) {
		_, client := newRedis(t)
		runContract(t, sectionstore.NewFromClient(client))
	})
	t.Run("memory", func(t *testing.T) {
		runContract(t, nav.NewMemoryStore())
	})
}

func TestStore_PrefixAndScope(t *testing.T) {
	mr, client := newRedis(t)
	ctx := context.Background()

	store := sectionstore.NewFromClient(client, sectionstore.WithPrefix("test:"))
	a := store.Scoped("session-a")
	b := store.Scoped("session-b")

	require.NoError(t, a.Put(ctx, "stats", "type=online"))

	val, err := mr.Get("test:session-a:stats")
	require.NoError(t, err)
	assert.Equal(t, "type=online", val)

	_, ok, err := b.Get(ctx, "stats")
	require.NoError(t, err)
	assert.False(t, ok, "scopes must not share sections")

	require.NoError(t, a.Delete(ctx, "stats"))
	assert.False(t, mr.Exists("test:session-a:stats"))
}

func TestStore_TTL(t *testing.T) {
	mr, client := newRedis(t)
	ctx := context.Background()

	store := sectionstore.NewFromClient(client, sectionstore.WithTTL(time.Minute))
	require.NoError(t, store.Put(ctx, "stats", "type=online"))
	assert.Equal(t, time.Minute, mr.TTL(sectionstore.DefaultPrefix+"stats"))

	mr.FastForward(2 * time.Minute)
	_, ok, err := store.Get(ctx, "stats")
	require.NoError(t, err)
	assert.False(t, ok, "expired section")
}

func TestStore_Unavailable(t *testing.T) {
	mr, client := newRedis(t)
	store := sectionstore.NewFromClient(client)
	require.NoError(t, store.Ping(context.Background()))

	mr.Close()
	_, _, err := store.Get(context.Background(), "stats")
	assert.Error(t, err)
	assert.Error(t, store.Put(context.Background(), "stats", "x"))
}

func TestStore_BacksSectionCache(t *testing.T) {
	_, client := newRedis(t)
	cache := nav.NewSectionCache(sectionstore.NewFromClient(client), nil)
	ctx := context.Background()

	cache.Put(ctx, "stats", "type=ladder&season=46")
	got, ok := cache.Get(ctx, "stats")
	assert.True(t, ok)
	assert.Equal(t, "type=ladder&season=46", got)
}
