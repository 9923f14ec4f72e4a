package handler

import (
	"context"

	"chainsight/internal/anomaly"
	"chainsight/internal/dataset"
	"chainsight/internal/domain"
	"chainsight/internal/forecast"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

type HistoryQuerier interface {
	History(ctx context.Context) ([]dataset.DataPoint, error)
}

type PriceQuerier interface {
	CurrentPrice(ctx context.Context) (*domain.PriceSnapshot, error)
	Candles(ctx context.Context, limit int) ([]domain.HourlyCandle, error)
}

type IndicatorQuerier interface {
	Recent(ctx context.Context, limit int) ([]domain.IndicatorRow, error)
}

type MetricQuerier interface {
	Latest(ctx context.Context) ([]domain.MetricObservation, error)
	Series(ctx context.Context, key string, limit int) ([]domain.MetricObservation, error)
}

type RunQuerier interface {
	Latest(ctx context.Context) (*domain.StrategyRun, error)
	History(ctx context.Context, limit int) ([]domain.StrategyRun, error)
}

type Predictor interface {
	Predict(ctx context.Context) (*forecast.Forecast, error)
}

type AnomalyDetector interface {
	Detect(ctx context.Context) (*anomaly.Report, error)
}

type SentimentQuerier interface {
	FetchHistory(ctx context.Context, limit int) ([]domain.FearGreed, error)
}

type Handler struct {
	tracer     trace.Tracer
	history    HistoryQuerier
	prices     PriceQuerier
	indicators IndicatorQuerier
	metrics    MetricQuerier
	runs       RunQuerier
	forecaster Predictor
	detector   AnomalyDetector
	sentiment  SentimentQuerier
}

func New(tracer trace.Tracer, history HistoryQuerier, prices PriceQuerier, indicators IndicatorQuerier, metrics MetricQuerier, runs RunQuerier) *Handler {
	return &Handler{
		tracer:     tracer,
		history:    history,
		prices:     prices,
		indicators: indicators,
		metrics:    metrics,
		runs:       runs,
	}
}

// SetForecaster wires the optional sell-window forecaster.
func (h *Handler) SetForecaster(p Predictor) {
	h.forecaster = p
}

// SetAnomalyDetector wires the optional isolation-forest detector.
func (h *Handler) SetAnomalyDetector(d AnomalyDetector) {
	h.detector = d
}

// SetSentiment wires the optional Fear & Greed index provider.
func (h *Handler) SetSentiment(q SentimentQuerier) {
	h.sentiment = q
}

// RegisterRoutes attaches all HTTP routes. The /api group is guarded by
// APIKeyAuth; /health stays open for load balancer probes.
func (h *Handler) RegisterRoutes(r *gin.Engine, apiKey string) {
	r.GET("/health", h.Health)

	api := r.Group("/api", APIKeyAuth(apiKey))
	api.GET("/history", h.GetHistory)
	api.GET("/prices/latest", h.GetLatestPrice)
	api.GET("/candles", h.GetCandles)
	api.GET("/indicators", h.GetIndicators)
	api.GET("/metrics", h.GetMetrics)
	api.GET("/metrics/:metric", h.GetMetricSeries)
	api.GET("/strategy", h.GetStrategy)
	api.GET("/signals", h.GetSignals)
	api.GET("/forecast", h.GetForecast)
	api.GET("/anomalies", h.GetAnomalies)
	api.GET("/sentiment", h.GetSentiment)
}
