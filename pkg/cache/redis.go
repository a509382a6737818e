package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/diillson/sw-characters-go/pkg/config"
	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// RedisCache implementa a interface Cache usando Redis
type RedisCache struct {
	client *redis.Client
	logger *zap.Logger
	tracer trace.Tracer
}

// NewRedisCache cria uma nova instância de RedisCache e verifica a conexão
func NewRedisCache(opts config.RedisOptions, logger *zap.Logger) (*RedisCache, error) {
	tracer := otel.GetTracerProvider().Tracer("sw-characters.cache.redis")

	client := redis.NewClient(&redis.Options{
		Addr:         opts.Address,
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     opts.PoolSize,
		MinIdleConns: opts.MinIdleConns,
		MaxRetries:   opts.MaxRetries,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ctx, span := tracer.Start(
		ctx,
		"RedisCache.Init",
		trace.WithAttributes(
			attribute.String("redis.addr", opts.Address),
			attribute.Int("redis.db", opts.DB),
			attribute.Bool("redis.password_set", opts.Password != ""),
		),
	)
	defer span.End()

	if err := client.Ping(ctx).Err(); err != nil {
		span.SetStatus(codes.Error, "connection failure")
		span.RecordError(err)
		_ = client.Close()
		return nil, err
	}

	span.SetStatus(codes.Ok, "connection successful")
	logger.Info("Conexão com Redis estabelecida com sucesso",
		zap.String("addr", opts.Address),
		zap.Int("db", opts.DB))

	return NewRedisCacheWithClient(client, logger), nil
}

// NewRedisCacheWithClient cria um RedisCache a partir de um cliente existente
func NewRedisCacheWithClient(client *redis.Client, logger *zap.Logger) *RedisCache {
	return &RedisCache{
		client: client,
		logger: logger,
		tracer: otel.GetTracerProvider().Tracer("sw-characters.cache.redis"),
	}
}

// Set armazena um valor no cache
func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	ctx, span := c.tracer.Start(
		ctx,
		"RedisCache.Set",
		trace.WithAttributes(
			attribute.String("cache.key", key),
			attribute.String("cache.operation", "set"),
			attribute.Int64("cache.expiration_ms", expiration.Milliseconds()),
		),
	)
	defer span.End()

	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Error("falha ao serializar para cache", zap.Error(err))
		span.SetStatus(codes.Error, "serialization failure")
		span.RecordError(err)
		return err
	}

	span.SetAttributes(attribute.Int("cache.data_size_bytes", len(data)))

	if err := c.client.Set(ctx, KeyPrefix+key, data, expiration).Err(); err != nil {
		c.logger.Error("falha ao armazenar no Redis",
			zap.String("key", key),
			zap.Error(err))
		span.SetStatus(codes.Error, "redis error")
		span.RecordError(err)
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// Get recupera um valor do cache
func (c *RedisCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	ctx, span := c.tracer.Start(
		ctx,
		"RedisCache.Get",
		trace.WithAttributes(
			attribute.String("cache.key", key),
			attribute.String("cache.operation", "get"),
		),
	)
	defer span.End()

	data, err := c.client.Get(ctx, KeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// Cache miss não é erro
			span.SetStatus(codes.Ok, "cache miss")
			span.SetAttributes(attribute.Bool("cache.hit", false))
			return false, nil
		}
		c.logger.Error("falha ao recuperar do cache",
			zap.String("key", key),
			zap.Error(err))
		span.SetStatus(codes.Error, "redis error")
		span.RecordError(err)
		return false, err
	}

	span.SetAttributes(
		attribute.Bool("cache.hit", true),
		attribute.Int("cache.data_size_bytes", len(data)),
	)

	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.Error("falha ao deserializar do cache",
			zap.String("key", key),
			zap.Error(err))
		span.SetStatus(codes.Error, "deserialization failure")
		span.RecordError(err)
		return false, err
	}

	span.SetStatus(codes.Ok, "cache hit")
	return true, nil
}

// Delete remove um valor do cache
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	ctx, span := c.tracer.Start(
		ctx,
		"RedisCache.Delete",
		trace.WithAttributes(
			attribute.String("cache.key", key),
			attribute.String("cache.operation", "delete"),
		),
	)
	defer span.End()

	removed, err := c.client.Del(ctx, KeyPrefix+key).Result()
	if err != nil {
		c.logger.Error("falha ao remover do cache",
			zap.String("key", key),
			zap.Error(err))
		span.SetStatus(codes.Error, "redis error")
		span.RecordError(err)
		return err
	}

	span.SetAttributes(attribute.Int64("cache.keys_removed", removed))
	span.SetStatus(codes.Ok, "")
	return nil
}

// Clear remove todas as chaves da aplicação
func (c *RedisCache) Clear(ctx context.Context) error {
	return c.ClearPattern(ctx, KeyPrefix+"*")
}

// ClearPattern remove valores do cache por padrão usando SCAN
func (c *RedisCache) ClearPattern(ctx context.Context, pattern string) error {
	ctx, span := c.tracer.Start(
		ctx,
		"RedisCache.ClearPattern",
		trace.WithAttributes(
			attribute.String("cache.operation", "clear"),
			attribute.String("cache.pattern", pattern),
		),
	)
	defer span.End()

	var keys []string
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.Error("falha ao listar chaves do cache", zap.Error(err))
		span.SetStatus(codes.Error, "redis error")
		span.RecordError(err)
		return err
	}

	span.SetAttributes(attribute.Int("cache.keys_found", len(keys)))

	if len(keys) > 0 {
		removed, err := c.client.Del(ctx, keys...).Result()
		if err != nil {
			c.logger.Error("falha ao remover chaves do cache",
				zap.Int("count", len(keys)),
				zap.Error(err))
			span.SetStatus(codes.Error, "redis delete error")
			span.RecordError(err)
			return err
		}
		span.SetAttributes(attribute.Int64("cache.keys_removed", removed))
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// Incr incrementa um contador com INCR, criando-o quando não existe
func (c *RedisCache) Incr(ctx context.Context, key string) (int64, error) {
	ctx, span := c.tracer.Start(ctx, "RedisCache.Incr",
		trace.WithAttributes(
			attribute.String("cache.key", key),
			attribute.String("cache.operation", "incr"),
		))
	defer span.End()

	value, err := c.client.Incr(ctx, KeyPrefix+key).Result()
	if err != nil {
		c.logger.Error("falha ao incrementar contador", zap.String("key", key), zap.Error(err))
		span.SetStatus(codes.Error, "redis error")
		span.RecordError(err)
		return 0, err
	}

	span.SetStatus(codes.Ok, "")
	return value, nil
}

// Counter lê um contador
func (c *RedisCache) Counter(ctx context.Context, key string) (int64, error) {
	ctx, span := c.tracer.Start(ctx, "RedisCache.Counter",
		trace.WithAttributes(
			attribute.String("cache.key", key),
			attribute.String("cache.operation", "counter"),
		))
	defer span.End()

	value, err := c.client.Get(ctx, KeyPrefix+key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			span.SetStatus(codes.Ok, "")
			return 0, nil
		}
		c.logger.Error("falha ao ler contador", zap.String("key", key), zap.Error(err))
		span.SetStatus(codes.Error, "redis error")
		span.RecordError(err)
		return 0, err
	}

	span.SetStatus(codes.Ok, "")
	return value, nil
}

// Ping verifica se o Redis está acessível
func (c *RedisCache) Ping(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "RedisCache.Ping",
		trace.WithAttributes(attribute.String("cache.operation", "ping")))
	defer span.End()

	if err := c.client.Ping(ctx).Err(); err != nil {
		c.logger.Error("falha ao fazer ping no Redis", zap.Error(err))
		span.SetStatus(codes.Error, "redis ping failure")
		span.RecordError(err)
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// Close encerra o cliente Redis
func (c *RedisCache) Close() error {
	return c.client.Close()
}
