package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GetSentiment godoc
// @Summary      Get Fear & Greed index readings
// @Description  Returns recent Fear & Greed index readings, most recent first
// @Tags         sentiment
// @Produce      json
// @Param        limit  query  int  false  "Number of readings (default 30, max 365)"  default(30)
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/sentiment [get]
func (h *Handler) GetSentiment(c *gin.Context) {
	if h.sentiment == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "sentiment service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-sentiment")
	defer span.End()

	limit := 30
	if l := c.Query("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 365 {
			limit = n
		}
	}
	span.SetAttributes(attribute.Int("limit", limit))

	readings, err := h.sentiment.FetchHistory(ctx, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":    len(readings),
		"readings": readings,
	})
}
