package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config representa a configuração completa da aplicação
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Startup  StartupConfig
	Cache    CacheConfig
	Health   HealthConfig
	Metrics  MetricsConfig
	Logging  LoggingConfig
	Tracing  TracingConfig
}

// ServerConfig contém configurações do servidor HTTP
type ServerConfig struct {
	Port            int
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxHeaderBytes  int
	TLS             bool
	CertFile        string
	KeyFile         string
	Domains         []string
}

// DatabaseConfig contém configurações do banco de dados
type DatabaseConfig struct {
	Driver          string
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogLevel        string
	SlowThreshold   time.Duration
	MigrationDir    string // vazio usa as migrações embutidas no binário
}

// StartupConfig controla a rotina de inicialização do banco
type StartupConfig struct {
	SkipMigrations   bool
	SkipSeed         bool
	MigrationRetries int
	MigrationTimeout time.Duration
}

// RedisOptions contém configurações específicas para Redis
type RedisOptions struct {
	Address      string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// CacheConfig contém configurações do cache de leitura. Só Redis é aceito,
// pois o cache precisa ser o mesmo para todas as instâncias.
type CacheConfig struct {
	Enabled bool
	Type    string // redis
	TTL     time.Duration
	Redis   RedisOptions
}

// HealthConfig contém configurações dos health checks
type HealthConfig struct {
	ResultTTL time.Duration // reaproveita o resultado de banco e cache; zero desabilita
}

// MetricsConfig contém configurações de métricas
type MetricsConfig struct {
	Enabled        bool
	PrometheusPath string
}

// LoggingConfig contém configurações de logging
type LoggingConfig struct {
	Level      string
	Format     string // json, console
	OutputPath string
	ErrorPath  string
	Production bool
}

// TracingConfig contém configurações de rastreamento
type TracingConfig struct {
	Enabled       bool
	Endpoint      string
	ServiceName   string
	SamplingRatio float64
}

// LoadConfig carrega a configuração de diversas fontes (arquivos, env, defaults)
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/swcharacters")

	if err := v.ReadInConfig(); err != nil {
		// Ignorar se o arquivo não for encontrado
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("erro ao ler arquivo de configuração: %w", err)
		}
	}

	// Variáveis de ambiente com prefixo SW_ (ex: SW_DATABASE_DSN)
	v.SetEnvPrefix("SW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("erro ao mapear configuração: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Default retorna a configuração somente com os valores padrão
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var config Config
	// Os valores padrão sempre mapeiam para a estrutura
	_ = v.Unmarshal(&config)
	return &config
}

// setDefaults define valores padrão para a configuração
func setDefaults(v *viper.Viper) {
	// Servidor
	v.SetDefault("server.port", 7145)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.readTimeout", "5s")
	v.SetDefault("server.writeTimeout", "30s")
	v.SetDefault("server.idleTimeout", "60s")
	v.SetDefault("server.shutdownTimeout", "5s")
	v.SetDefault("server.maxHeaderBytes", 1<<20) // 1 MB
	v.SetDefault("server.tls", false)

	// Banco de dados
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "app.db?_pragma=busy_timeout(5000)")
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("database.maxOpenConns", 10)
	v.SetDefault("database.connMaxLifetime", "1h")
	v.SetDefault("database.logLevel", "warn")
	v.SetDefault("database.slowThreshold", "200ms")
	v.SetDefault("database.migrationDir", "")

	// Inicialização
	v.SetDefault("startup.skipMigrations", false)
	v.SetDefault("startup.skipSeed", false)
	v.SetDefault("startup.migrationRetries", 5)
	v.SetDefault("startup.migrationTimeout", "2m")

	// Cache
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.type", "redis")
	v.SetDefault("cache.ttl", "5m")
	v.SetDefault("cache.redis.address", "localhost:6379")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.poolSize", 10)
	v.SetDefault("cache.redis.minIdleConns", 2)
	v.SetDefault("cache.redis.maxRetries", 3)
	v.SetDefault("cache.redis.dialTimeout", "5s")
	v.SetDefault("cache.redis.readTimeout", "3s")
	v.SetDefault("cache.redis.writeTimeout", "3s")

	// Health checks
	v.SetDefault("health.resultTTL", "2s")

	// Métricas
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.prometheusPath", "/metrics")

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.outputPath", "stdout")
	v.SetDefault("logging.errorPath", "stderr")
	v.SetDefault("logging.production", true)

	// Tracing
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "localhost:4317")
	v.SetDefault("tracing.samplingRatio", 0.1) // 10% das requisições
	v.SetDefault("tracing.serviceName", "sw-characters")
}

// validateConfig valida a configuração
func validateConfig(config *Config) error {
	if config.Server.TLS && len(config.Server.Domains) == 0 {
		if config.Server.CertFile == "" || config.Server.KeyFile == "" {
			return fmt.Errorf("TLS habilitado, mas CertFile/KeyFile ou Domains não estão definidos")
		}
	}

	validDrivers := map[string]bool{"sqlite": true, "mysql": true, "postgres": true}
	if !validDrivers[config.Database.Driver] {
		return fmt.Errorf("driver de banco de dados inválido: %s", config.Database.Driver)
	}

	if config.Cache.Enabled {
		switch config.Cache.Type {
		case "redis":
			if config.Cache.Redis.Address == "" {
				return fmt.Errorf("tipo de cache redis requer um endereço")
			}
		case "memory":
			return fmt.Errorf("cache em memória não é compartilhado entre instâncias; use redis")
		default:
			return fmt.Errorf("tipo de cache inválido: %s", config.Cache.Type)
		}
	}

	if config.Health.ResultTTL < 0 {
		return fmt.Errorf("health.resultTTL não pode ser negativo")
	}

	if config.Startup.MigrationRetries < 0 {
		return fmt.Errorf("startup.migrationRetries não pode ser negativo")
	}

	return nil
}
