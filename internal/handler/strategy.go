package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GetStrategy godoc
// @Summary      Get the current strategy status
// @Description  Returns the most recent strategy run with z-scores, position state, and backtest returns
// @Tags         strategy
// @Produce      json
// @Success      200  {object}  domain.StrategyRun
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/strategy [get]
func (h *Handler) GetStrategy(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-strategy")
	defer span.End()

	run, err := h.runs.Latest(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no strategy run recorded yet"})
		return
	}

	c.JSON(http.StatusOK, run)
}

// GetSignals godoc
// @Summary      List recent strategy runs
// @Description  Returns stored daily strategy runs ordered oldest first
// @Tags         strategy
// @Produce      json
// @Param        limit  query  int  false  "Number of runs (default 30, max 365)"  default(30)
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]string
// @Router       /api/signals [get]
func (h *Handler) GetSignals(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-signals")
	defer span.End()

	limit := 30
	if l := c.Query("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 365 {
			limit = n
		}
	}
	span.SetAttributes(attribute.Int("limit", limit))

	runs, err := h.runs.History(ctx, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":   len(runs),
		"signals": runs,
	})
}
