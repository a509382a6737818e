package cache_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/diillson/sw-characters-go/internal/domain/model"
	"github.com/diillson/sw-characters-go/internal/infra/metrics"
	"github.com/diillson/sw-characters-go/pkg/cache"
	"github.com/diillson/sw-characters-go/pkg/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestMemoryCache_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryCache(time.Minute, time.Minute, metrics.NewAPIMetrics(prometheus.NewRegistry()), zaptest.NewLogger(t))

	original := model.Character{ID: 1, Name: "Luke Skywalker", Faction: "Rebel Alliance", Homeworld: "Tatooine", Species: "Human"}
	require.NoError(t, c.Set(ctx, "character:1", original, 0))

	var got model.Character
	found, err := c.Get(ctx, "character:1", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, original, got)

	// Alterar a cópia não afeta o conteúdo armazenado
	got.Name = "changed"
	var again model.Character
	_, _ = c.Get(ctx, "character:1", &again)
	assert.Equal(t, "Luke Skywalker", again.Name)

	require.NoError(t, c.Delete(ctx, "character:1"))
	found, err = c.Get(ctx, "character:1", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryCache_Expiration(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryCache(time.Minute, time.Minute, nil, zaptest.NewLogger(t))

	require.NoError(t, c.Set(ctx, "k", "v", 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	var s string
	found, err := c.Get(ctx, "k", &s)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryCache_Clear(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryCache(time.Minute, time.Minute, nil, zaptest.NewLogger(t))

	require.NoError(t, c.Set(ctx, "a", 1, 0))
	require.NoError(t, c.Set(ctx, "b", 2, 0))
	assert.Equal(t, 2, c.Len())

	require.NoError(t, c.Clear(ctx))
	assert.Equal(t, 0, c.Len())
	assert.NoError(t, c.Ping(ctx))
}

func TestNoOpCache(t *testing.T) {
	ctx := context.Background()
	c := &cache.NoOpCache{}

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	var s string
	found, err := c.Get(ctx, "k", &s)
	require.NoError(t, err)
	assert.False(t, found)

	n, err := c.Incr(ctx, "k")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNew(t *testing.T) {
	logger := zaptest.NewLogger(t)

	c, err := cache.New(config.CacheConfig{Enabled: false}, logger)
	require.NoError(t, err)
	assert.IsType(t, &cache.NoOpCache{}, c)

	// Cache local não serve como cache de leitura entre instâncias
	_, err = cache.New(config.CacheConfig{Enabled: true, Type: "memory", TTL: time.Minute}, logger)
	assert.Error(t, err)

	_, err = cache.New(config.CacheConfig{Enabled: true, Type: "memcached"}, logger)
	assert.Error(t, err)
}

func TestMemoryCache_Counters(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryCache(10*time.Millisecond, time.Minute, nil, zaptest.NewLogger(t))

	n, err := c.Counter(ctx, "characters:generation")
	require.NoError(t, err)
	assert.Zero(t, n)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Incr(ctx, "characters:generation")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// Contadores não expiram junto com os valores
	time.Sleep(30 * time.Millisecond)
	n, err = c.Counter(ctx, "characters:generation")
	require.NoError(t, err)
	assert.Equal(t, int64(50), n)

	require.NoError(t, c.Set(ctx, "character:1", "Luke", 0))
	_, err = c.Counter(ctx, "character:1")
	assert.Error(t, err)
}
