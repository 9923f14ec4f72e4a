package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetAnomalies godoc
// @Summary      Get recent market anomalies
// @Description  Scores recent daily rows with an isolation forest and returns the ones above the anomaly threshold
// @Tags         anomalies
// @Produce      json
// @Success      200  {object}  anomaly.Report
// @Failure      503  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/anomalies [get]
func (h *Handler) GetAnomalies(c *gin.Context) {
	if h.detector == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "anomaly service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-anomalies")
	defer span.End()

	report, err := h.detector.Detect(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, report)
}
