package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const serviceName = "shop-chat"

// Counter es cualquier repositorio capaz de contar sus filas.
type Counter interface {
	Count(ctx context.Context) (int64, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers mantiene dependencias para los endpoints operativos: health y estadisticas.
type Handlers struct {
	logger        *zap.Logger
	db            Pinger
	users         Counter
	products      Counter
	conversations Counter
	messages      Counter
}

// NewHandlers crea una instancia de Handlers con las dependencias necesarias. db puede ser nil.
func NewHandlers(
	logger *zap.Logger,
	db Pinger,
	users Counter,
	products Counter,
	conversations Counter,
	messages Counter,
) *Handlers {
	return &Handlers{
		logger:        logger,
		db:            db,
		users:         users,
		products:      products,
		conversations: conversations,
		messages:      messages,
	}
}

// Health maneja GET /health.
func (h *Handlers) Health(c *gin.Context) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			h.logger.Warn("health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "service": serviceName})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": serviceName})
}

// Stats maneja GET /api/stats.
func (h *Handlers) Stats(c *gin.Context) {
	ctx := c.Request.Context()
	out := gin.H{}
	for _, entry := range []struct {
		name    string
		counter Counter
	}{
		{"users", h.users},
		{"products", h.products},
		{"conversations", h.conversations},
		{"messages", h.messages},
	} {
		n, err := entry.counter.Count(ctx)
		if err != nil {
			h.logger.Error("stats count failed", zap.String("table", entry.name), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load stats"})
			return
		}
		out[entry.name] = n
	}
	c.JSON(http.StatusOK, out)
}
