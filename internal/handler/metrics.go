package handler

import (
	"net/http"
	"strconv"
	"strings"

	"chainsight/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GetMetrics godoc
// @Summary      Get the latest on-chain metric observations
// @Description  Returns the most recent stored value for every tracked on-chain metric
// @Tags         metrics
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]string
// @Router       /api/metrics [get]
func (h *Handler) GetMetrics(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-metrics")
	defer span.End()

	latest, err := h.metrics.Latest(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":   len(latest),
		"metrics": latest,
	})
}

// GetMetricSeries godoc
// @Summary      Get one on-chain metric series
// @Description  Returns the stored daily series for a single metric, oldest first
// @Tags         metrics
// @Produce      json
// @Param        metric  path   string  true   "Metric key (e.g., mvrv, nupl, realized_price)"
// @Param        limit   query  int     false  "Number of observations (default 90, max 1000)"  default(90)
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/metrics/{metric} [get]
func (h *Handler) GetMetricSeries(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-metric-series")
	defer span.End()

	key := strings.ToLower(c.Param("metric"))
	span.SetAttributes(attribute.String("metric", key))

	if _, ok := domain.MetricByKey[key]; !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "unknown metric: " + key,
			"supported_metrics": domain.MetricKeys,
		})
		return
	}

	limit := 90
	if l := c.Query("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}

	series, err := h.metrics.Series(ctx, key, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"metric": key,
		"count":  len(series),
		"series": series,
	})
}
