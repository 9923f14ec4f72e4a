package service

import (
	"context"
	"fmt"
	"log"
	"math"

	"chainsight/internal/domain"
	"chainsight/internal/ta"

	"go.opentelemetry.io/otel/trace"
)

// indicatorWindow is how many recent candles the refresh recomputes over.
// It must exceed the longest indicator lookback by enough warmup for the
// recursive indicators (EMA, RSI, ATR) to converge.
const indicatorWindow = 336

type IndicatorStore interface {
	UpsertRows(ctx context.Context, rows []domain.IndicatorRow) error
	RecentRows(ctx context.Context, limit int) ([]domain.IndicatorRow, error)
	LatestTimestamp(ctx context.Context) (int64, error)
}

// IndicatorService derives technical indicators from stored hourly candles.
type IndicatorService struct {
	tracer  trace.Tracer
	candles CandleStore
	repo    IndicatorStore
}

func NewIndicatorService(tracer trace.Tracer, candles CandleStore, repo IndicatorStore) *IndicatorService {
	return &IndicatorService{tracer: tracer, candles: candles, repo: repo}
}

// Refresh recomputes indicators over the recent candle window and upserts
// every complete row. Warmup rows containing NaN are never persisted.
func (s *IndicatorService) Refresh(ctx context.Context) error {
	_, span := s.tracer.Start(ctx, "indicator-service.refresh")
	defer span.End()

	candles, err := s.candles.RecentCandles(ctx, indicatorWindow)
	if err != nil {
		return fmt.Errorf("load candles: %w", err)
	}
	if len(candles) == 0 {
		return fmt.Errorf("no candles stored")
	}

	rows := ComputeIndicators(candles)
	if len(rows) == 0 {
		log.Printf("Indicator refresh: %d candles, none past warmup yet", len(candles))
		return nil
	}

	if err := s.repo.UpsertRows(ctx, rows); err != nil {
		return fmt.Errorf("upsert indicator rows: %w", err)
	}

	log.Printf("Refreshed indicators for %d candles", len(rows))
	return nil
}

// Recent returns up to limit stored indicator rows, oldest first.
func (s *IndicatorService) Recent(ctx context.Context, limit int) ([]domain.IndicatorRow, error) {
	return s.repo.RecentRows(ctx, limit)
}

// ComputeIndicators derives the hourly indicator set from candles, which
// must be ordered oldest first. Rows whose indicators are still warming up
// are dropped.
func ComputeIndicators(candles []domain.HourlyCandle) []domain.IndicatorRow {
	n := len(candles)
	if n == 0 {
		return nil
	}

	closes := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	volumes := make([]float64, n)
	for i, c := range candles {
		closes[i] = c.Close
		highs[i] = c.High
		lows[i] = c.Low
		volumes[i] = c.VolumeTo
	}

	sma20 := ta.SMASeries(closes, 20)
	ema12 := ta.EMASeries(closes, 12)
	ema26 := ta.EMASeries(closes, 26)
	macd, macdSignal := ta.MACDSeries(closes, 12, 26, 9)
	rsi := ta.RSISeries(closes, 14)
	_, bbHigh, bbLow := ta.BollingerSeries(closes, 20, 2)
	stochK, stochD := ta.StochasticSeries(highs, lows, closes, 14, 3)
	volSMA := ta.SMASeries(volumes, 20)
	atr := ta.ATRSeries(highs, lows, closes, 14)

	var rows []domain.IndicatorRow
	for i, c := range candles {
		row := domain.IndicatorRow{
			UnixTimestamp: c.UnixTimestamp,
			OpenTime:      c.OpenTime,
			Close:         c.Close,
			SMA20:         sma20[i],
			EMA12:         ema12[i],
			EMA26:         ema26[i],
			MACD:          macd[i],
			MACDSignal:    macdSignal[i],
			MACDDiff:      macd[i] - macdSignal[i],
			RSI:           rsi[i],
			BBHigh:        bbHigh[i],
			BBLow:         bbLow[i],
			BBWidth:       bbHigh[i] - bbLow[i],
			StochK:        stochK[i],
			StochD:        stochD[i],
			VolumeSMA:     volSMA[i],
			ATR:           atr[i],
		}
		if indicatorRowComplete(row) {
			rows = append(rows, row)
		}
	}
	return rows
}

func indicatorRowComplete(row domain.IndicatorRow) bool {
	for _, v := range []float64{
		row.SMA20, row.EMA12, row.EMA26,
		row.MACD, row.MACDSignal, row.MACDDiff,
		row.RSI, row.BBHigh, row.BBLow, row.BBWidth,
		row.StochK, row.StochD, row.VolumeSMA, row.ATR,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
