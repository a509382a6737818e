package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/diillson/sw-characters-go/internal/adapter/database"
	"github.com/diillson/sw-characters-go/internal/app/startup"
	"github.com/diillson/sw-characters-go/pkg/config"
	"github.com/diillson/sw-characters-go/pkg/logging"
	"go.uber.org/zap"
)

func main() {
	var (
		action     string
		name       string
		dir        string
		configPath string
	)

	flag.StringVar(&action, "action", "migrate", "Ação (migrate, seed, status, create)")
	flag.StringVar(&name, "name", "", "Nome da migração (apenas para action=create)")
	flag.StringVar(&dir, "dir", "", "Diretório de migrações (vazio usa as migrações embutidas)")
	flag.StringVar(&configPath, "config", "./config", "Diretório do arquivo config.yaml")
	flag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("Erro ao carregar configuração: %v\n", err)
		os.Exit(1)
	}
	if dir != "" {
		cfg.Database.MigrationDir = dir
	}

	logger, err := logging.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Printf("Erro ao inicializar logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if action == "create" {
		target := cfg.Database.MigrationDir
		if target == "" {
			target = filepath.Join("migrations", cfg.Database.Driver)
		}

		path, err := database.CreateMigration(target, name)
		if err != nil {
			logger.Fatal("Falha ao criar migração", zap.Error(err))
		}
		logger.Info("Migração criada", zap.String("path", path))
		return
	}

	ctx := context.Background()

	db, err := database.NewDatabase(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("Falha ao inicializar banco de dados", zap.Error(err))
	}
	defer db.Close()

	switch action {
	case "migrate", "seed":
		startupCfg := cfg.Startup
		startupCfg.SkipMigrations = action == "seed"
		startupCfg.SkipSeed = action == "migrate"

		if err := startup.NewInitializer(db, cfg.Database, startupCfg, nil, logger).Run(ctx); err != nil {
			logger.Fatal("Falha ao executar ação", zap.String("action", action), zap.Error(err))
		}

	case "status":
		fsys, err := database.MigrationSource(cfg.Database.Driver, cfg.Database.MigrationDir)
		if err != nil {
			logger.Fatal("Falha ao carregar migrações", zap.Error(err))
		}

		pending, err := database.NewMigrationManager(db.DB(), logger, fsys).Pending(ctx)
		if err != nil {
			logger.Fatal("Falha ao consultar migrações", zap.Error(err))
		}

		for _, file := range pending {
			fmt.Printf("pendente: %d_%s\n", file.Version, file.Name)
		}
		fmt.Printf("%d migração(ões) pendente(s)\n", len(pending))

	default:
		logger.Fatal("Ação desconhecida", zap.String("action", action))
	}
}
