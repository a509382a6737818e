package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/diillson/sw-characters-go/pkg/config"
	"go.uber.org/zap"
)

// KeyPrefix é o prefixo comum de todas as chaves gravadas pela aplicação
const KeyPrefix = "swcharacters:"

// Cache define a interface para operações de cache
type Cache interface {
	// Set armazena um valor no cache com tempo de expiração
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error

	// Get recupera um valor do cache
	Get(ctx context.Context, key string, dest interface{}) (bool, error)

	// Delete remove um valor do cache
	Delete(ctx context.Context, key string) error

	// Clear remove todos os valores do cache
	Clear(ctx context.Context) error

	// Incr incrementa atomicamente um contador e retorna o novo valor
	Incr(ctx context.Context, key string) (int64, error)

	// Counter lê um contador. Um contador inexistente vale zero.
	Counter(ctx context.Context, key string) (int64, error)

	// Ping verifica se o cache está acessível
	Ping(ctx context.Context) error
}

// New cria o cache de leitura configurado. Com o cache desabilitado retorna um NoOpCache.
// Só backends compartilhados entre instâncias são aceitos, para que a remoção
// feita por uma instância seja vista por todas.
func New(cfg config.CacheConfig, logger *zap.Logger) (Cache, error) {
	if !cfg.Enabled {
		logger.Info("Cache desabilitado")
		return &NoOpCache{}, nil
	}

	switch cfg.Type {
	case "redis":
		c, err := NewRedisCache(cfg.Redis, logger)
		if err != nil {
			return nil, fmt.Errorf("falha ao conectar ao Redis: %w", err)
		}
		logger.Info("Cache Redis inicializado", zap.String("addr", cfg.Redis.Address))
		return c, nil
	case "memory":
		return nil, fmt.Errorf("cache em memória não é compartilhado entre instâncias; use redis")
	default:
		return nil, fmt.Errorf("tipo de cache não suportado: %s", cfg.Type)
	}
}
