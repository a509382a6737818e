package startup

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync/atomic"
	"time"

	"github.com/diillson/sw-characters-go/internal/adapter/database"
	"github.com/diillson/sw-characters-go/internal/domain/model"
	"github.com/diillson/sw-characters-go/internal/infra/metrics"
	"github.com/diillson/sw-characters-go/pkg/config"
	"github.com/diillson/sw-characters-go/pkg/resilience"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Initializer prepara o banco antes de o serviço aceitar requisições:
// aplica migrações pendentes e insere os personagens padrão numa base vazia
type Initializer struct {
	db        *database.Database
	dbConfig  config.DatabaseConfig
	config    config.StartupConfig
	metrics   *metrics.APIMetrics
	logger    *zap.Logger
	tracer    trace.Tracer
	ready     atomic.Bool
	retryBase time.Duration
}

// NewInitializer cria o inicializador do banco
func NewInitializer(db *database.Database, dbConfig config.DatabaseConfig, cfg config.StartupConfig, m *metrics.APIMetrics, logger *zap.Logger) *Initializer {
	return &Initializer{
		db:        db,
		dbConfig:  dbConfig,
		config:    cfg,
		metrics:   m,
		logger:    logger,
		tracer:    otel.GetTracerProvider().Tracer("sw-characters.startup"),
		retryBase: 500 * time.Millisecond,
	}
}

// Ready indica se a inicialização terminou com sucesso
func (i *Initializer) Ready() bool {
	return i.ready.Load()
}

// Run executa migrações e seed segurando o bloqueio de migração numa
// conexão dedicada. O estado pronto só é sinalizado após sucesso.
func (i *Initializer) Run(ctx context.Context) error {
	ctx, span := i.tracer.Start(ctx, "Migrations", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	if i.config.MigrationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.config.MigrationTimeout)
		defer cancel()
	}

	start := time.Now()

	retry := resilience.RetryConfig{
		Name:            "database-initialization",
		MaxRetries:      uint64(i.config.MigrationRetries),
		InitialInterval: i.retryBase,
	}

	var applied, seeded int
	err := resilience.Retry(ctx, retry, i.logger, func(ctx context.Context) error {
		return i.db.WithMigrationLock(ctx, func(conn *gorm.DB) error {
			var err error
			if applied, err = i.migrate(ctx, conn); err != nil {
				return err
			}
			seeded, err = i.seed(ctx, conn)
			return err
		})
	})
	if err != nil {
		span.SetStatus(codes.Error, "initialization failed")
		span.RecordError(err)
		return fmt.Errorf("falha ao inicializar o banco de dados: %w", err)
	}

	elapsed := time.Since(start)
	span.SetAttributes(
		attribute.Int("migrations.applied", applied),
		attribute.Int("characters.seeded", seeded),
	)
	span.SetStatus(codes.Ok, "")

	if i.metrics != nil {
		for n := 0; n < applied; n++ {
			i.metrics.MigrationApplied()
		}
		i.metrics.Seeded(seeded)
		i.metrics.StartupCompleted(elapsed)
	}

	i.ready.Store(true)
	i.logger.Info("Inicialização do banco de dados concluída",
		zap.Int64("elapsedMs", elapsed.Milliseconds()),
		zap.Int("migrationsApplied", applied),
		zap.Int("seeded", seeded))

	return nil
}

func (i *Initializer) migrate(ctx context.Context, conn *gorm.DB) (int, error) {
	if i.config.SkipMigrations {
		i.logger.Info("Migrações foram puladas devido à configuração")
		return 0, nil
	}

	fsys, err := database.MigrationSource(i.dbConfig.Driver, i.dbConfig.MigrationDir)
	if err != nil {
		return 0, resilience.Permanent(err)
	}

	applied, err := database.NewMigrationManager(conn, i.logger, fsys).ApplyMigrations(ctx)
	if errors.Is(err, database.ErrNoMigrationFiles) || errors.Is(err, fs.ErrNotExist) {
		// Origem de migrações ausente ou vazia não se resolve com novas tentativas
		return applied, resilience.Permanent(err)
	}
	return applied, err
}

// seed insere os personagens padrão apenas quando a tabela está vazia
func (i *Initializer) seed(ctx context.Context, conn *gorm.DB) (int, error) {
	if i.config.SkipSeed {
		return 0, nil
	}

	i.logger.Info("Verificando dados iniciais")

	repo := database.NewCharacterRepository(conn, i.logger)
	count, err := repo.Count(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	characters := model.DefaultCharacters()
	if err := repo.CreateBatch(ctx, characters); err != nil {
		return 0, err
	}

	i.logger.Info("Personagens padrão inseridos", zap.Int("count", len(characters)))
	return len(characters), nil
}
