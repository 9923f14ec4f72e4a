package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health godoc
// @Summary      Health check
// @Description  Returns service liveness and which optional features are wired
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"features": gin.H{
			"forecast":  h.forecaster != nil,
			"anomalies": h.detector != nil,
			"sentiment": h.sentiment != nil,
		},
	})
}
