package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/diillson/sw-characters-go/internal/infra/metrics"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// MemoryCache implementa a interface Cache usando armazenamento em memória.
// Os valores são guardados serializados para que o chamador nunca compartilhe
// ponteiros com o conteúdo do cache.
type MemoryCache struct {
	cache   *cache.Cache
	logger  *zap.Logger
	hits    atomic.Int64
	misses  atomic.Int64
	metrics *metrics.APIMetrics
}

// NewMemoryCache cria uma nova instância de MemoryCache
func NewMemoryCache(defaultExpiration, cleanupInterval time.Duration, metrics *metrics.APIMetrics, logger *zap.Logger) *MemoryCache {
	return &MemoryCache{
		cache:   cache.New(defaultExpiration, cleanupInterval),
		logger:  logger,
		metrics: metrics,
	}
}

// Set armazena um valor no cache
func (c *MemoryCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Error("falha ao serializar para cache", zap.String("key", key), zap.Error(err))
		return err
	}

	if expiration <= 0 {
		expiration = cache.DefaultExpiration
	}
	c.cache.Set(key, data, expiration)
	return nil
}

// Get recupera um valor do cache
func (c *MemoryCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	value, found := c.cache.Get(key)
	if !found {
		c.misses.Add(1)
		c.updateMetrics()
		return false, nil
	}

	c.hits.Add(1)
	c.updateMetrics()

	data, ok := value.([]byte)
	if !ok {
		c.cache.Delete(key)
		return false, nil
	}

	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.Error("falha ao deserializar para o destino", zap.String("key", key), zap.Error(err))
		return false, err
	}

	return true, nil
}

// Delete remove um valor do cache
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.cache.Delete(key)
	return nil
}

// Clear remove todos os valores do cache
func (c *MemoryCache) Clear(ctx context.Context) error {
	c.cache.Flush()
	return nil
}

// Incr incrementa um contador sem expiração
func (c *MemoryCache) Incr(ctx context.Context, key string) (int64, error) {
	_ = c.cache.Add(key, int64(0), cache.NoExpiration)
	return c.cache.IncrementInt64(key, 1)
}

// Counter lê um contador
func (c *MemoryCache) Counter(ctx context.Context, key string) (int64, error) {
	value, found := c.cache.Get(key)
	if !found {
		return 0, nil
	}

	n, ok := value.(int64)
	if !ok {
		return 0, fmt.Errorf("chave %s não contém um contador", key)
	}
	return n, nil
}

// Ping verifica se o cache está funcionando
func (c *MemoryCache) Ping(ctx context.Context) error {
	return nil // O cache em memória está sempre disponível
}

// Len retorna o número de itens armazenados
func (c *MemoryCache) Len() int {
	return c.cache.ItemCount()
}

func (c *MemoryCache) updateMetrics() {
	updateCacheMetrics(c.hits.Load(), c.misses.Load(), "memory", c.metrics)
}

// Função auxiliar para atualizar métricas de cache
func updateCacheMetrics(hits, misses int64, cacheType string, metrics *metrics.APIMetrics) {
	if metrics == nil {
		return
	}

	total := hits + misses
	if total > 0 {
		hitRatio := float64(hits) / float64(total)
		metrics.UpdateCacheHitRatio(cacheType, hitRatio)
	}
}
