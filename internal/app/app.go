package app

import (
	"context"
	"fmt"

	"github.com/diillson/sw-characters-go/internal/adapter/database"
	"github.com/diillson/sw-characters-go/internal/adapter/http"
	"github.com/diillson/sw-characters-go/internal/app/character"
	"github.com/diillson/sw-characters-go/internal/app/startup"
	"github.com/diillson/sw-characters-go/internal/infra/metrics"
	"github.com/diillson/sw-characters-go/internal/infra/middleware"
	"github.com/diillson/sw-characters-go/pkg/cache"
	"github.com/diillson/sw-characters-go/pkg/config"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// App reúne as dependências da aplicação
type App struct {
	Logger           *zap.Logger
	Config           *config.Config
	DB               *database.Database
	Cache            cache.Cache
	Registry         *prometheus.Registry
	APIMetrics       *metrics.APIMetrics
	Middleware       *middleware.Middleware
	MetricsHandler   *middleware.MetricsHandler
	CharacterHandler *http.CharacterHandler
	HealthChecker    *http.HealthChecker
	Initializer      *startup.Initializer
}

// NewApp cria uma nova instância da aplicação com todas as dependências injetadas.
// O banco é aberto, mas migrações e seed só ocorrem em Initialize.
func NewApp(ctx context.Context, logger *zap.Logger, cfg *config.Config) (*App, error) {
	db, err := database.NewDatabase(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	var registry *prometheus.Registry
	var apiMetrics *metrics.APIMetrics
	if cfg.Metrics.Enabled {
		registry = metrics.NewRegistry()
		apiMetrics = metrics.NewAPIMetrics(registry)
	}

	readCache, err := cache.New(cfg.Cache, logger)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("erro ao inicializar cache: %w", err)
	}

	initializer := startup.NewInitializer(db, cfg.Database, cfg.Startup, apiMetrics, logger)

	repo := database.NewCharacterRepository(db.DB(), logger)
	service := character.NewService(repo, readCache, cfg.Cache.TTL, apiMetrics, logger)

	handler := http.NewCharacterHandler(service, logger)
	handler.SetMetrics(apiMetrics)

	a := &App{
		Logger:           logger,
		Config:           cfg,
		DB:               db,
		Cache:            readCache,
		Registry:         registry,
		APIMetrics:       apiMetrics,
		Middleware:       middleware.NewMiddleware(logger, apiMetrics, cfg.Tracing.ServiceName, initializer.Ready),
		CharacterHandler: handler,
		HealthChecker:    http.NewHealthChecker(db, readCache, initializer.Ready, logger),
		Initializer:      initializer,
	}
	if ttl := cfg.Health.ResultTTL; ttl > 0 {
		a.HealthChecker.UseResultCache(cache.NewMemoryCache(ttl, 2*ttl, apiMetrics, logger), ttl)
	}
	if registry != nil {
		a.MetricsHandler = middleware.NewMetricsHandler(registry, logger)
	}

	return a, nil
}

// Initialize aplica migrações e seed. Até terminar, as rotas de personagens respondem 503.
func (a *App) Initialize(ctx context.Context) error {
	return a.Initializer.Run(ctx)
}

// Ready indica se a aplicação já pode atender requisições de personagens
func (a *App) Ready() bool {
	return a.Initializer.Ready()
}

// RegisterRoutes registra todas as rotas no router
func (a *App) RegisterRoutes(router *gin.Engine) {
	router.Use(a.Middleware.Recovery())
	router.Use(a.Middleware.RequestID())
	router.Use(a.Middleware.Tracing())
	router.Use(a.Middleware.Logger())
	router.Use(a.Middleware.Metrics())
	router.Use(a.Middleware.SecurityHeaders())
	router.Use(a.Middleware.CORS())
	router.Use(a.Middleware.IgnoreFavicon())
	router.Use(a.Middleware.ReadyGate(http.BasePath))

	if a.MetricsHandler != nil {
		a.MetricsHandler.RegisterEndpoint(router, a.Config.Metrics.PrometheusPath)
	}

	a.HealthChecker.Register(router)
	a.CharacterHandler.Register(router)
}

// Close libera cache e conexões com o banco
func (a *App) Close() error {
	if closer, ok := a.Cache.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			a.Logger.Warn("Erro ao fechar o cache", zap.Error(err))
		}
	}
	return a.DB.Close()
}
