package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/diillson/sw-characters-go/pkg/config"
	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Chave usada pelos bloqueios consultivos durante a migração
const migrationLockKey = 71452024

// Database gerencia a conexão com o banco de dados
type Database struct {
	db     *gorm.DB
	driver string
	logger *zap.Logger
}

// NewDatabase abre a conexão com o banco configurado e valida com um ping.
// Migrações não são aplicadas aqui, ficam a cargo do inicializador.
func NewDatabase(ctx context.Context, cfg config.DatabaseConfig, zapLogger *zap.Logger) (*Database, error) {
	gormLogger := logger.New(
		GormLogAdapter{zapLogger},
		logger.Config{
			SlowThreshold:             cfg.SlowThreshold,
			LogLevel:                  ParseLogLevel(cfg.LogLevel),
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	gormConfig := &gorm.Config{
		Logger:                                   gormLogger,
		DisableForeignKeyConstraintWhenMigrating: true,
		SkipDefaultTransaction:                   true,
		TranslateError:                           true,
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("driver de banco de dados não suportado: %s", cfg.Driver)
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("falha ao conectar ao banco de dados: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("falha ao obter instância do banco de dados: %w", err)
	}

	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("falha ao testar conexão com banco de dados: %w", err)
	}

	zapLogger.Info("Conexão com banco de dados estabelecida", zap.String("driver", cfg.Driver))

	return &Database{
		db:     db,
		driver: cfg.Driver,
		logger: zapLogger,
	}, nil
}

// DB retorna a instância do GORM DB
func (d *Database) DB() *gorm.DB {
	return d.db
}

// Driver retorna o nome do driver em uso
func (d *Database) Driver() string {
	return d.driver
}

// Ping verifica a conexão com o banco de dados
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close fecha a conexão com o banco de dados
func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// WithMigrationLock executa fn numa conexão dedicada segurando um bloqueio
// exclusivo do banco, para que várias instâncias não migrem ao mesmo tempo.
// No SQLite a exclusão vem do próprio arquivo, então nenhum bloqueio extra é feito.
func (d *Database) WithMigrationLock(ctx context.Context, fn func(conn *gorm.DB) error) error {
	return d.db.WithContext(ctx).Connection(func(conn *gorm.DB) error {
		unlock, err := d.acquireLock(conn)
		if err != nil {
			return err
		}
		defer unlock()

		return fn(conn)
	})
}

func (d *Database) acquireLock(conn *gorm.DB) (func(), error) {
	switch d.driver {
	case "postgres":
		if err := conn.Exec("SELECT pg_advisory_lock(?)", migrationLockKey).Error; err != nil {
			return nil, fmt.Errorf("falha ao obter bloqueio de migração: %w", err)
		}
		return func() {
			if err := conn.Exec("SELECT pg_advisory_unlock(?)", migrationLockKey).Error; err != nil {
				d.logger.Warn("falha ao liberar bloqueio de migração", zap.Error(err))
			}
		}, nil
	case "mysql":
		var acquired int
		name := fmt.Sprintf("swcharacters_migration_%d", migrationLockKey)
		if err := conn.Raw("SELECT GET_LOCK(?, ?)", name, 300).Scan(&acquired).Error; err != nil {
			return nil, fmt.Errorf("falha ao obter bloqueio de migração: %w", err)
		}
		if acquired != 1 {
			return nil, fmt.Errorf("tempo esgotado aguardando bloqueio de migração")
		}
		return func() {
			if err := conn.Exec("SELECT RELEASE_LOCK(?)", name).Error; err != nil {
				d.logger.Warn("falha ao liberar bloqueio de migração", zap.Error(err))
			}
		}, nil
	default:
		return func() {}, nil
	}
}

// ParseLogLevel converte o nível textual da configuração para o nível do GORM
func ParseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// GormLogAdapter adapta o zap.Logger para uso com GORM
type GormLogAdapter struct {
	ZapLogger *zap.Logger
}

// Printf implementa a interface de Logger do GORM
func (l GormLogAdapter) Printf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.ZapLogger.Debug(msg)
}
