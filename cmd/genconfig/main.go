package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/diillson/sw-characters-go/pkg/config"
	"gopkg.in/yaml.v3"
)

// configFile espelha config.Config com as chaves usadas pelo viper
type configFile struct {
	Server struct {
		Port            int      `yaml:"port"`
		Host            string   `yaml:"host"`
		ReadTimeout     string   `yaml:"readTimeout"`
		WriteTimeout    string   `yaml:"writeTimeout"`
		IdleTimeout     string   `yaml:"idleTimeout"`
		ShutdownTimeout string   `yaml:"shutdownTimeout"`
		MaxHeaderBytes  int      `yaml:"maxHeaderBytes"`
		TLS             bool     `yaml:"tls"`
		CertFile        string   `yaml:"certFile"`
		KeyFile         string   `yaml:"keyFile"`
		Domains         []string `yaml:"domains,omitempty"`
	} `yaml:"server"`
	Database struct {
		Driver          string `yaml:"driver"`
		DSN             string `yaml:"dsn"`
		MaxIdleConns    int    `yaml:"maxIdleConns"`
		MaxOpenConns    int    `yaml:"maxOpenConns"`
		ConnMaxLifetime string `yaml:"connMaxLifetime"`
		LogLevel        string `yaml:"logLevel"`
		SlowThreshold   string `yaml:"slowThreshold"`
		MigrationDir    string `yaml:"migrationDir"`
	} `yaml:"database"`
	Startup struct {
		SkipMigrations   bool   `yaml:"skipMigrations"`
		SkipSeed         bool   `yaml:"skipSeed"`
		MigrationRetries int    `yaml:"migrationRetries"`
		MigrationTimeout string `yaml:"migrationTimeout"`
	} `yaml:"startup"`
	Cache struct {
		Enabled bool   `yaml:"enabled"`
		Type    string `yaml:"type"`
		TTL     string `yaml:"ttl"`
		Redis   struct {
			Address  string `yaml:"address"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			PoolSize int    `yaml:"poolSize"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Health struct {
		ResultTTL string `yaml:"resultTTL"`
	} `yaml:"health"`
	Metrics config.MetricsConfig `yaml:"metrics"`
	Logging config.LoggingConfig `yaml:"logging"`
	Tracing config.TracingConfig `yaml:"tracing"`
}

func fromConfig(cfg *config.Config) configFile {
	var out configFile

	out.Server.Port = cfg.Server.Port
	out.Server.Host = cfg.Server.Host
	out.Server.ReadTimeout = cfg.Server.ReadTimeout.String()
	out.Server.WriteTimeout = cfg.Server.WriteTimeout.String()
	out.Server.IdleTimeout = cfg.Server.IdleTimeout.String()
	out.Server.ShutdownTimeout = cfg.Server.ShutdownTimeout.String()
	out.Server.MaxHeaderBytes = cfg.Server.MaxHeaderBytes
	out.Server.TLS = cfg.Server.TLS
	out.Server.CertFile = cfg.Server.CertFile
	out.Server.KeyFile = cfg.Server.KeyFile
	out.Server.Domains = cfg.Server.Domains

	out.Database.Driver = cfg.Database.Driver
	out.Database.DSN = cfg.Database.DSN
	out.Database.MaxIdleConns = cfg.Database.MaxIdleConns
	out.Database.MaxOpenConns = cfg.Database.MaxOpenConns
	out.Database.ConnMaxLifetime = cfg.Database.ConnMaxLifetime.String()
	out.Database.LogLevel = cfg.Database.LogLevel
	out.Database.SlowThreshold = cfg.Database.SlowThreshold.String()
	out.Database.MigrationDir = cfg.Database.MigrationDir

	out.Startup.SkipMigrations = cfg.Startup.SkipMigrations
	out.Startup.SkipSeed = cfg.Startup.SkipSeed
	out.Startup.MigrationRetries = cfg.Startup.MigrationRetries
	out.Startup.MigrationTimeout = cfg.Startup.MigrationTimeout.String()

	out.Cache.Enabled = cfg.Cache.Enabled
	out.Cache.Type = cfg.Cache.Type
	out.Cache.TTL = cfg.Cache.TTL.String()
	out.Cache.Redis.Address = cfg.Cache.Redis.Address
	out.Cache.Redis.Password = cfg.Cache.Redis.Password
	out.Cache.Redis.DB = cfg.Cache.Redis.DB
	out.Cache.Redis.PoolSize = cfg.Cache.Redis.PoolSize

	out.Health.ResultTTL = cfg.Health.ResultTTL.String()

	out.Metrics = cfg.Metrics
	out.Logging = cfg.Logging
	out.Tracing = cfg.Tracing

	return out
}

func main() {
	var (
		outputPath string
		force      bool
	)

	flag.StringVar(&outputPath, "output", "config.yaml", "Caminho para o arquivo de configuração de saída")
	flag.BoolVar(&force, "force", false, "Sobrescrever arquivo se existir")
	flag.Parse()

	if _, err := os.Stat(outputPath); err == nil && !force {
		fmt.Printf("Erro: arquivo %s já existe. Use --force para sobrescrever.\n", outputPath)
		os.Exit(1)
	}

	data, err := yaml.Marshal(fromConfig(config.Default()))
	if err != nil {
		fmt.Printf("Erro ao serializar configuração: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		fmt.Printf("Erro ao escrever arquivo: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Arquivo de configuração gerado em: %s\n", outputPath)
}
