package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"titulacion/pkg/response"
)

// Pinger reachability of the backing store
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler liveness and database reachability
type HealthHandler struct {
	pinger Pinger
}

// NewHealthHandler creates the HealthHandler; a nil pinger only reports liveness
func NewHealthHandler(pinger Pinger) *HealthHandler {
	return &HealthHandler{pinger: pinger}
}

// Check GET /health
func (h *HealthHandler) Check(c *gin.Context) {
	if h.pinger != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.pinger.Ping(ctx); err != nil {
			response.Error(c, http.StatusServiceUnavailable, 50002, "Base de datos no disponible")
			return
		}
	}
	response.OK(c, gin.H{"status": "ok"})
}
