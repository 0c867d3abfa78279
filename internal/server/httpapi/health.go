package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const healthTimeout = 2 * time.Second

// handleHealthz pings every dependency and reports each one by name.
func (s *Server) handleHealthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	status := http.StatusOK
	checks := gin.H{}
	for _, h := range s.Health {
		if err := h.Check(ctx); err != nil {
			s.Logger.Warn(ctx, "health check failed", "check", h.Name, "error", err)
			checks[h.Name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		checks[h.Name] = "ok"
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	c.JSON(status, gin.H{"status": state, "checks": checks})
}
