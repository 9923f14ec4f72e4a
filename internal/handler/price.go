package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GetLatestPrice godoc
// @Summary      Get the current BTC price
// @Description  Returns the latest cached price snapshot with 24h volume and 24h change
// @Tags         prices
// @Produce      json
// @Success      200  {object}  domain.PriceSnapshot
// @Failure      500  {object}  map[string]string
// @Router       /api/prices/latest [get]
func (h *Handler) GetLatestPrice(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-latest-price")
	defer span.End()

	snapshot, err := h.prices.CurrentPrice(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// GetCandles godoc
// @Summary      Get hourly OHLCV candles
// @Description  Returns recent hourly BTC candles ordered oldest first
// @Tags         prices
// @Produce      json
// @Param        limit  query  int  false  "Number of candles (default 100, max 500)"  default(100)
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]string
// @Router       /api/candles [get]
func (h *Handler) GetCandles(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-candles")
	defer span.End()

	limit := 100
	if l := c.Query("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	span.SetAttributes(attribute.Int("limit", limit))

	candles, err := h.prices.Candles(ctx, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":   len(candles),
		"candles": candles,
	})
}
