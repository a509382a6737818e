package resilience

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// RetryConfig contém a configuração da estratégia de novas tentativas
type RetryConfig struct {
	Name            string
	MaxRetries      uint64        // Tentativas adicionais após a primeira
	InitialInterval time.Duration // Espera antes da segunda tentativa
	MaxInterval     time.Duration // Teto do intervalo exponencial
}

// Permanent marca um erro que não deve ser repetido
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Retry executa op com backoff exponencial até obter sucesso, esgotar as
// tentativas, receber um erro permanente ou o contexto ser cancelado
func Retry(ctx context.Context, cfg RetryConfig, logger *zap.Logger, op func(ctx context.Context) error) error {
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = 500 * time.Millisecond
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = 10 * time.Second
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = cfg.InitialInterval
	exp.MaxInterval = cfg.MaxInterval
	exp.MaxElapsedTime = 0 // limitado pelo número de tentativas e pelo contexto

	policy := backoff.WithContext(backoff.WithMaxRetries(exp, cfg.MaxRetries), ctx)

	attempt := 0
	return backoff.RetryNotify(
		func() error {
			attempt++
			return op(ctx)
		},
		policy,
		func(err error, next time.Duration) {
			logger.Warn("Operação falhou, nova tentativa agendada",
				zap.String("operation", cfg.Name),
				zap.Int("attempt", attempt),
				zap.Duration("next", next),
				zap.Error(err))
		},
	)
}
