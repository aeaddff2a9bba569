package web

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// healthResponse is the JSON body of the /health endpoint.
type healthResponse struct {
	Status    string `json:"status"`
	Index     string `json:"index"`
	Timestamp string `json:"timestamp"`
}

// handleHealth checks vector store connectivity and reports 503 when
// the index backend is unreachable.
func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	resp := healthResponse{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	if err := s.store.Health(ctx); err != nil {
		resp.Status = "unhealthy"
		resp.Index = "disconnected"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}

	resp.Status = "healthy"
	resp.Index = "connected"
	c.JSON(http.StatusOK, resp)
}
