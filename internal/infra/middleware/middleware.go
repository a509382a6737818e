package middleware

import (
	"net/http"
	"time"

	"github.com/diillson/sw-characters-go/internal/infra/metrics"
	"github.com/diillson/sw-characters-go/pkg/logging"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Middleware contém todos os middlewares da aplicação
type Middleware struct {
	logger             *logging.ContextLogger
	recoveryMiddleware *RecoveryMiddleware
	securityMiddleware *SecurityMiddleware
	tracingMiddleware  *TracingMiddleware
	metricsMiddleware  *MetricsMiddleware
	readyGate          *ReadyGate
}

// NewMiddleware cria um novo conjunto de middlewares. Sem métricas o
// middleware correspondente não faz nada.
func NewMiddleware(logger *zap.Logger, apiMetrics *metrics.APIMetrics, serviceName string, ready func() bool) *Middleware {
	m := &Middleware{
		logger:             logging.NewContextLogger(logger),
		recoveryMiddleware: NewRecoveryMiddleware(logger),
		securityMiddleware: NewSecurityMiddleware(logger),
		tracingMiddleware:  NewTracingMiddleware(logger, serviceName),
		readyGate:          NewReadyGate(ready, logger),
	}
	if apiMetrics != nil {
		m.metricsMiddleware = NewMetricsMiddleware(apiMetrics, logger)
	}
	return m
}

// Metrics retorna o middleware de métricas
func (m *Middleware) Metrics() gin.HandlerFunc {
	if m.metricsMiddleware != nil {
		return m.metricsMiddleware.Middleware()
	}
	return func(c *gin.Context) {
		c.Next() // No-op se não configurado
	}
}

// Recovery middleware para recuperação de pânicos
func (m *Middleware) Recovery() gin.HandlerFunc {
	return m.recoveryMiddleware.Recovery()
}

// ReadyGate bloqueia as rotas informadas até o fim da inicialização
func (m *Middleware) ReadyGate(prefix string) gin.HandlerFunc {
	return m.readyGate.Middleware(prefix)
}

// IgnoreFavicon é um middleware que ignora requisições para /favicon.ico
func (m *Middleware) IgnoreFavicon() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/favicon.ico" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// Logger middleware para logging de requisições
func (m *Middleware) Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		fields := []zap.Field{
			zap.String("path", path),
			zap.String("method", c.Request.Method),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
			zap.String("request_id", c.GetString(RequestIDKey)),
		}

		switch {
		case status >= http.StatusInternalServerError:
			m.logger.ErrorCtx(c.Request.Context(), "request completed", fields...)
		case status >= http.StatusBadRequest:
			m.logger.WarnCtx(c.Request.Context(), "request completed", fields...)
		default:
			m.logger.InfoCtx(c.Request.Context(), "request completed", fields...)
		}
	}
}

// SecurityHeaders middleware para adicionar cabeçalhos de segurança
func (m *Middleware) SecurityHeaders() gin.HandlerFunc {
	return m.securityMiddleware.Headers()
}

// CORS middleware para configurar CORS
func (m *Middleware) CORS() gin.HandlerFunc {
	return m.securityMiddleware.CORS()
}

// Tracing retorna o middleware de tracing
func (m *Middleware) Tracing() gin.HandlerFunc {
	return m.tracingMiddleware.Middleware()
}

// RequestID retorna o middleware de identificação de requisições
func (m *Middleware) RequestID() gin.HandlerFunc {
	return RequestID()
}
