package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"chainsight/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

// mergeWindowDays is how far back the daily merge re-reads its inputs, so
// late metric revisions still correct recent rows.
const mergeWindowDays = 10

const dayLayout = "2006-01-02"

type MetricProvider interface {
	FetchMetric(ctx context.Context, m domain.Metric, since time.Time) ([]domain.MetricObservation, error)
}

type MetricStore interface {
	UpsertObservations(ctx context.Context, obs []domain.MetricObservation) error
	LatestDate(ctx context.Context, metric string) (time.Time, error)
	Series(ctx context.Context, metric string, limit int) ([]domain.MetricObservation, error)
	LatestValues(ctx context.Context) ([]domain.MetricObservation, error)
}

type CandleRangeStore interface {
	CandlesInRange(ctx context.Context, from, to time.Time) ([]domain.HourlyCandle, error)
}

// MetricsService crawls the on-chain metric catalog and folds the results
// into the daily strategy dataset.
type MetricsService struct {
	tracer   trace.Tracer
	provider MetricProvider
	repo     MetricStore
	strategy StrategyStore
	candles  CandleRangeStore
}

func NewMetricsService(
	tracer trace.Tracer,
	provider MetricProvider,
	repo MetricStore,
	strategy StrategyStore,
	candles CandleRangeStore,
) *MetricsService {
	return &MetricsService{
		tracer:   tracer,
		provider: provider,
		repo:     repo,
		strategy: strategy,
		candles:  candles,
	}
}

// RefreshBatch fetches every metric in one batch. One metric failing does
// not stop the others; the error reports only a fully failed batch.
func (s *MetricsService) RefreshBatch(ctx context.Context, batch int) error {
	_, span := s.tracer.Start(ctx, "metrics-service.refresh-batch")
	defer span.End()

	metrics := domain.MetricBatch(batch)
	if len(metrics) == 0 {
		return fmt.Errorf("unknown metric batch %d", batch)
	}

	failed := 0
	for _, m := range metrics {
		if err := s.refreshMetric(ctx, m); err != nil {
			log.Printf("metric %s refresh error: %v", m.Key, err)
			failed++
		}
	}
	if failed == len(metrics) {
		return fmt.Errorf("all %d metrics in batch %d failed", failed, batch)
	}
	return nil
}

func (s *MetricsService) refreshMetric(ctx context.Context, m domain.Metric) error {
	latest, err := s.repo.LatestDate(ctx, m.Key)
	if err != nil {
		return err
	}
	var since time.Time
	if !latest.IsZero() {
		since = latest.AddDate(0, 0, 1)
	}

	obs, err := s.provider.FetchMetric(ctx, m, since)
	if err != nil {
		return err
	}
	if len(obs) == 0 {
		return nil
	}

	if err := s.repo.UpsertObservations(ctx, obs); err != nil {
		return err
	}
	log.Printf("Stored %d observations for %s", len(obs), m.Key)
	return nil
}

// Latest returns the newest stored reading of every metric.
func (s *MetricsService) Latest(ctx context.Context) ([]domain.MetricObservation, error) {
	return s.repo.LatestValues(ctx)
}

// Series returns up to limit observations of one cataloged metric, oldest
// first.
func (s *MetricsService) Series(ctx context.Context, key string, limit int) ([]domain.MetricObservation, error) {
	if _, ok := domain.MetricByKey[key]; !ok {
		return nil, fmt.Errorf("unknown metric %q", key)
	}
	return s.repo.Series(ctx, key, limit)
}

// MergeDaily composes complete daily strategy rows for recently finished
// days: OHLCV aggregated from hourly candles (falling back to the daily
// market price when candles are missing) joined with the mvrv and nupl
// observations, then upserted into the strategy dataset.
func (s *MetricsService) MergeDaily(ctx context.Context) error {
	_, span := s.tracer.Start(ctx, "metrics-service.merge-daily")
	defer span.End()

	mvrv, err := s.repo.Series(ctx, "mvrv", mergeWindowDays)
	if err != nil {
		return fmt.Errorf("load mvrv series: %w", err)
	}
	nupl, err := s.repo.Series(ctx, "nupl", mergeWindowDays)
	if err != nil {
		return fmt.Errorf("load nupl series: %w", err)
	}
	if len(mvrv) == 0 || len(nupl) == 0 {
		log.Println("Daily merge skipped: mvrv/nupl not crawled yet")
		return nil
	}
	prices, err := s.repo.Series(ctx, "market_price", mergeWindowDays)
	if err != nil {
		return fmt.Errorf("load market price series: %w", err)
	}

	now := time.Now().UTC()
	candles, err := s.candles.CandlesInRange(ctx, now.AddDate(0, 0, -(mergeWindowDays+1)), now)
	if err != nil {
		return fmt.Errorf("load candles: %w", err)
	}

	nuplByDay := obsByDay(nupl)
	priceByDay := obsByDay(prices)
	daily := aggregateDaily(candles)
	today := now.Truncate(24 * time.Hour)

	var rows []domain.StrategyRow
	for _, mv := range mvrv {
		day := mv.Date.UTC().Truncate(24 * time.Hour)
		if !day.Before(today) {
			continue
		}
		key := day.Format(dayLayout)

		np, ok := nuplByDay[key]
		if !ok {
			continue
		}

		row := domain.StrategyRow{Date: day, MVRV: mv.Value, NUPL: np}
		if agg, ok := daily[key]; ok {
			row.Open = agg.open
			row.High = agg.high
			row.Low = agg.low
			row.Close = agg.close
			row.Volume = agg.volume
		} else if p, ok := priceByDay[key]; ok {
			row.Open, row.High, row.Low, row.Close = p, p, p, p
		} else {
			continue
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		log.Println("Daily merge: no complete days to write")
		return nil
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })

	if err := s.strategy.UpsertRows(ctx, rows); err != nil {
		return fmt.Errorf("upsert strategy rows: %w", err)
	}
	log.Printf("Merged %d daily strategy rows (%s..%s)",
		len(rows),
		rows[0].Date.Format(dayLayout),
		rows[len(rows)-1].Date.Format(dayLayout),
	)
	return nil
}

func obsByDay(obs []domain.MetricObservation) map[string]float64 {
	out := make(map[string]float64, len(obs))
	for _, o := range obs {
		out[o.Date.UTC().Format(dayLayout)] = o.Value
	}
	return out
}

type dailyCandle struct {
	open   float64
	high   float64
	low    float64
	close  float64
	volume float64
}

// aggregateDaily folds hourly candles (oldest first) into per-day OHLCV.
func aggregateDaily(candles []domain.HourlyCandle) map[string]dailyCandle {
	out := make(map[string]dailyCandle)
	for _, c := range candles {
		key := c.OpenTime.UTC().Format(dayLayout)
		agg, ok := out[key]
		if !ok {
			out[key] = dailyCandle{
				open:   c.Open,
				high:   c.High,
				low:    c.Low,
				close:  c.Close,
				volume: c.VolumeTo,
			}
			continue
		}
		if c.High > agg.high {
			agg.high = c.High
		}
		if c.Low < agg.low {
			agg.low = c.Low
		}
		agg.close = c.Close
		agg.volume += c.VolumeTo
		out[key] = agg
	}
	return out
}
