package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetForecast godoc
// @Summary      Get the sell-window forecast
// @Description  Returns class probabilities for the number of days until the next sell signal
// @Tags         forecast
// @Produce      json
// @Success      200  {object}  forecast.Forecast
// @Failure      503  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/forecast [get]
func (h *Handler) GetForecast(c *gin.Context) {
	if h.forecaster == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "forecast service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-forecast")
	defer span.End()

	fc, err := h.forecaster.Predict(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, fc)
}
