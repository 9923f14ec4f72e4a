package handler

import (
	"net/http"

	"chainsight/internal/dataset"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GetHistory godoc
// @Summary      Get the full historical dataset
// @Description  Returns the normalized daily BTC history (price, volume, on-chain metrics) as a flat JSON array of records
// @Tags         history
// @Produce      json
// @Success      200  {array}   map[string]interface{}
// @Failure      500  {object}  map[string]string
// @Router       /api/history [get]
func (h *Handler) GetHistory(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-history")
	defer span.End()

	points, err := h.history.History(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	span.SetAttributes(attribute.Int("history.records", len(points)))

	if points == nil {
		points = []dataset.DataPoint{}
	}
	c.JSON(http.StatusOK, points)
}
