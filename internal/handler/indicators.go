package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GetIndicators godoc
// @Summary      Get technical indicator rows
// @Description  Returns recent hourly candles enriched with SMA, EMA, MACD, RSI, Bollinger, stochastic, and ATR columns
// @Tags         indicators
// @Produce      json
// @Param        limit  query  int  false  "Number of rows (default 100, max 500)"  default(100)
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]string
// @Router       /api/indicators [get]
func (h *Handler) GetIndicators(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-indicators")
	defer span.End()

	limit := 100
	if l := c.Query("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	span.SetAttributes(attribute.Int("limit", limit))

	rows, err := h.indicators.Recent(ctx, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":      len(rows),
		"indicators": rows,
	})
}
