package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ReadyGate recusa requisições enquanto o banco ainda está sendo preparado
type ReadyGate struct {
	ready  func() bool
	logger *zap.Logger
}

// NewReadyGate cria o bloqueio. Um ready nil considera o serviço sempre pronto.
func NewReadyGate(ready func() bool, logger *zap.Logger) *ReadyGate {
	return &ReadyGate{ready: ready, logger: logger}
}

// Middleware responde 503 nas rotas com o prefixo até que ready retorne true
func (g *ReadyGate) Middleware(prefix string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if g.ready == nil || g.ready() || !strings.HasPrefix(c.Request.URL.Path, prefix) {
			c.Next()
			return
		}

		g.logger.Debug("requisição recusada durante a inicialização", zap.String("path", c.Request.URL.Path))
		c.Header("Retry-After", "1")
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, "Service is starting")
	}
}
