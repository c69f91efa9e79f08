package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/media-grab-go/internal/domain"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	repo domain.DownloadRecordRepository
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(repo domain.DownloadRecordRepository) *HealthHandler {
	return &HealthHandler{
		repo: repo,
	}
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: "1.0.0",
	})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if _, err := h.repo.Count(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "history database unreachable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
