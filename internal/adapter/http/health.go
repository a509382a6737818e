package http

import (
	"context"
	"errors"
	"net/http"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/diillson/sw-characters-go/pkg/cache"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var errStarting = errors.New("inicialização do banco em andamento")

// HealthChecker implementa endpoints de health check
type HealthChecker struct {
	logger       *zap.Logger
	dependencies []Dependency
	results      cache.Cache
	resultTTL    time.Duration
}

// checkResult é o resultado de uma verificação guardado entre requisições
type checkResult struct {
	Error string `json:"error,omitempty"`
}

// DatabaseChecker define a interface para verificar o banco de dados
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker define a interface para verificar o cache
type CacheChecker interface {
	Ping(ctx context.Context) error
}

// Dependency representa um componente do qual o sistema depende
type Dependency struct {
	Name     string
	Check    func(context.Context) error
	Critical bool // Se true, falha deste componente faz o health check falhar
	Reusable bool // Se true, o resultado pode ser reaproveitado por resultTTL
}

// NewHealthChecker cria um novo health checker. ready informa se a
// inicialização do banco já terminou.
func NewHealthChecker(db DatabaseChecker, readCache CacheChecker, ready func() bool, logger *zap.Logger) *HealthChecker {
	return &HealthChecker{
		logger: logger,
		dependencies: []Dependency{
			{
				Name: "startup",
				Check: func(context.Context) error {
					if ready != nil && !ready() {
						return errStarting
					}
					return nil
				},
				Critical: true,
			},
			{
				Name:     "database",
				Check:    db.Ping,
				Critical: true,
				Reusable: true,
			},
			{
				Name:     "cache",
				Check:    readCache.Ping,
				Critical: false,
				Reusable: true,
			},
		},
	}
}

// UseResultCache reaproveita por ttl os resultados de banco e cache, poupando
// um ping a cada sonda. O estado da inicialização é sempre consultado.
func (h *HealthChecker) UseResultCache(results cache.Cache, ttl time.Duration) {
	h.results = results
	h.resultTTL = ttl
}

// check executa a verificação ou devolve um resultado recente
func (h *HealthChecker) check(ctx context.Context, d Dependency) error {
	if h.results == nil || !d.Reusable {
		return d.Check(ctx)
	}

	key := "health:" + d.Name
	var cached checkResult
	if found, err := h.results.Get(ctx, key, &cached); err == nil && found {
		if cached.Error == "" {
			return nil
		}
		return errors.New(cached.Error)
	}

	err := d.Check(ctx)
	var result checkResult
	if err != nil {
		result.Error = err.Error()
	}
	if setErr := h.results.Set(ctx, key, result, h.resultTTL); setErr != nil {
		h.logger.Warn("falha ao guardar resultado do health check", zap.String("dependency", d.Name), zap.Error(setErr))
	}
	return err
}

// Register registra as rotas de health check
func (h *HealthChecker) Register(r gin.IRoutes) {
	r.GET("/health", h.DetailedHealth)
	r.GET("/health/liveness", h.LivenessCheck)
	r.GET("/health/readiness", h.ReadinessCheck)
}

// LivenessCheck verifica se o aplicativo está vivo (execução básica)
func (h *HealthChecker) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "UP",
		"time":   time.Now(),
	})
}

// ReadinessCheck verifica se o aplicativo está pronto para receber tráfego
func (h *HealthChecker) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, checks := h.runChecks(ctx, false)

	result := gin.H{
		"status": "UP",
		"time":   time.Now(),
		"checks": checks,
	}
	if status != http.StatusOK {
		result["status"] = "DOWN"
	}

	c.JSON(status, result)
}

// DetailedHealth fornece informações detalhadas sobre o sistema
func (h *HealthChecker) DetailedHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	status, checks := h.runChecks(ctx, true)

	details := gin.H{
		"status":      "UP",
		"time":        time.Now(),
		"version":     getVersion(),
		"environment": getEnvironment(),
		"checks":      checks,
		"system":      getSystemInfo(),
	}
	if status != http.StatusOK {
		details["status"] = "DOWN"
	}

	c.JSON(status, details)
}

// runChecks verifica cada dependência em paralelo
func (h *HealthChecker) runChecks(ctx context.Context, withErrors bool) (int, map[string]interface{}) {
	status := http.StatusOK
	checks := make(map[string]interface{}, len(h.dependencies))

	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, dep := range h.dependencies {
		wg.Add(1)
		go func(d Dependency) {
			defer wg.Done()

			start := time.Now()
			err := h.check(ctx, d)
			duration := time.Since(start)

			result := gin.H{
				"status":   "UP",
				"time":     duration.String(),
				"critical": d.Critical,
			}
			if err != nil {
				result["status"] = "DOWN"
				if withErrors {
					result["error"] = err.Error()
				}
				if !errors.Is(err, errStarting) {
					h.logger.Error("health check falhou",
						zap.String("dependency", d.Name),
						zap.Error(err))
				}
			}

			mu.Lock()
			defer mu.Unlock()
			checks[d.Name] = result
			if err != nil && d.Critical {
				status = http.StatusServiceUnavailable
			}
		}(dep)
	}

	wg.Wait()
	return status, checks
}

// getVersion retorna a versão do aplicativo
func getVersion() string {
	return os.Getenv("APP_VERSION")
}

// getEnvironment retorna o ambiente atual
func getEnvironment() string {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		return "development"
	}
	return env
}

// getSystemInfo retorna informações sobre o sistema
func getSystemInfo() gin.H {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return gin.H{
		"go_version":    runtime.Version(),
		"go_os":         runtime.GOOS,
		"go_arch":       runtime.GOARCH,
		"num_cpu":       runtime.NumCPU(),
		"num_goroutine": runtime.NumGoroutine(),
		"memory": gin.H{
			"alloc_mb": float64(m.Alloc) / 1024 / 1024,
			"sys_mb":   float64(m.Sys) / 1024 / 1024,
			"num_gc":   m.NumGC,
		},
	}
}
