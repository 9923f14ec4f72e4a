package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"chainsight/internal/domain"
	"chainsight/internal/strategy"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

const (
	latestRunCacheKey = "strategy:latest-run"
	latestRunCacheTTL = 24 * time.Hour
)

var stateEmoji = map[string]string{
	domain.StateLong:     "\U0001F7E2",
	domain.StateShort:    "\U0001F534",
	domain.StateHoldBTC:  "\U0001F48E",
	domain.StateHoldFiat: "\U0001F4B5",
}

type RowSource interface {
	Rows(ctx context.Context) ([]domain.StrategyRow, error)
}

type RunStore interface {
	UpsertRun(ctx context.Context, run domain.StrategyRun) error
	LatestRun(ctx context.Context) (*domain.StrategyRun, error)
	RecentRuns(ctx context.Context, limit int) ([]domain.StrategyRun, error)
}

type SentimentProvider interface {
	FetchLatest(ctx context.Context) (*domain.FearGreed, error)
}

// StrategyService evaluates the z-score strategy over the daily dataset and
// keeps the run ledger.
type StrategyService struct {
	tracer    trace.Tracer
	source    RowSource
	runs      RunStore
	sentiment SentimentProvider
	redis     RedisClient
	params    strategy.Params
}

func NewStrategyService(
	tracer trace.Tracer,
	source RowSource,
	runs RunStore,
	sentiment SentimentProvider,
	redisClient RedisClient,
	params strategy.Params,
) *StrategyService {
	return &StrategyService{
		tracer:    tracer,
		source:    source,
		runs:      runs,
		sentiment: sentiment,
		redis:     redisClient,
		params:    params,
	}
}

// Params returns the configured strategy parameters.
func (s *StrategyService) Params() strategy.Params {
	return s.params
}

// Evaluate runs the strategy over the full dataset without persisting.
func (s *StrategyService) Evaluate(ctx context.Context) (*strategy.Result, error) {
	_, span := s.tracer.Start(ctx, "strategy-service.evaluate")
	defer span.End()

	rows, err := s.source.Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("load strategy rows: %w", err)
	}
	return strategy.Evaluate(rows, s.params)
}

// RunDaily evaluates the strategy, formats the report, persists the run,
// and caches it as the latest. Sentiment fetch failures degrade to a
// report without the Fear & Greed line.
func (s *StrategyService) RunDaily(ctx context.Context) (*strategy.Result, error) {
	_, span := s.tracer.Start(ctx, "strategy-service.run-daily")
	defer span.End()

	result, err := s.Evaluate(ctx)
	if err != nil {
		return nil, err
	}

	var fng *domain.FearGreed
	if s.sentiment != nil {
		fng, err = s.sentiment.FetchLatest(ctx)
		if err != nil {
			log.Printf("fear & greed fetch failed: %v", err)
			fng = nil
		}
	}

	run := result.Run
	run.Message = FormatRunReport(result, fng)
	result.Run = run

	if s.runs != nil {
		if err := s.runs.UpsertRun(ctx, run); err != nil {
			return nil, fmt.Errorf("store strategy run: %w", err)
		}
	}
	if s.redis != nil {
		if err := s.cacheLatestRun(ctx, run); err != nil {
			log.Printf("latest run cache write error: %v", err)
		}
	}

	log.Printf("Strategy run complete: state=%s z=%.3f return=%.1f%%",
		run.State, run.CombinedZScore, run.TotalReturn)
	return result, nil
}

// Latest returns the most recent stored run, nil when none exists.
func (s *StrategyService) Latest(ctx context.Context) (*domain.StrategyRun, error) {
	_, span := s.tracer.Start(ctx, "strategy-service.latest")
	defer span.End()

	if s.redis != nil {
		cached, err := s.getLatestRunCache(ctx)
		if err != nil {
			log.Printf("latest run cache read error: %v", err)
		}
		if cached != nil {
			return cached, nil
		}
	}

	if s.runs == nil {
		return nil, nil
	}
	run, err := s.runs.LatestRun(ctx)
	if err != nil || run == nil {
		return run, err
	}
	if s.redis != nil {
		_ = s.cacheLatestRun(ctx, *run)
	}
	return run, nil
}

// History returns up to limit stored runs, oldest first.
func (s *StrategyService) History(ctx context.Context, limit int) ([]domain.StrategyRun, error) {
	if s.runs == nil {
		return nil, nil
	}
	return s.runs.RecentRuns(ctx, limit)
}

func (s *StrategyService) cacheLatestRun(ctx context.Context, run domain.StrategyRun) error {
	data, err := json.Marshal(run)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, latestRunCacheKey, data, latestRunCacheTTL).Err()
}

func (s *StrategyService) getLatestRunCache(ctx context.Context) (*domain.StrategyRun, error) {
	data, err := s.redis.Get(ctx, latestRunCacheKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var run domain.StrategyRun
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// FormatRunReport renders the daily update message sent to Telegram.
func FormatRunReport(result *strategy.Result, fng *domain.FearGreed) string {
	run := result.Run
	sum := result.Summary

	emoji := stateEmoji[run.State]
	var sb strings.Builder
	sb.WriteString("\U0001F6A8 BTC On-Chain Strategy \U0001F6A8\n")
	sb.WriteString(fmt.Sprintf("\U0001F4C5 %s\n", run.ExecutedAt.UTC().Format(dayLayout)))
	sb.WriteString(fmt.Sprintf("\U0001F4B0 BTC Price: $%.2f\n\n", run.BTCPrice))

	sb.WriteString(fmt.Sprintf("Signal: %s %s\n", emoji, run.State))
	sb.WriteString(fmt.Sprintf("MVRV z-score: %.2f\n", run.MVRVZScore))
	sb.WriteString(fmt.Sprintf("NUPL z-score: %.2f\n", run.NUPLZScore))
	sb.WriteString(fmt.Sprintf("Combined z-score: %.2f\n\n", run.CombinedZScore))

	sb.WriteString(fmt.Sprintf("\U0001F4C8 Strategy return: %+.1f%%\n", sum.TotalReturn))
	sb.WriteString(fmt.Sprintf("\U0001F4CA Buy & hold: %+.1f%%\n", sum.BuyHoldReturn))
	sb.WriteString(fmt.Sprintf("\U0001F680 Outperformance: %+.1f%%\n", sum.Outperformance))
	sb.WriteString(fmt.Sprintf("\U0001F5D3 30d strategy: %+.1f%% | market: %+.1f%%\n",
		run.MonthReturn, run.MarketMonthReturn))

	if fng != nil {
		sb.WriteString(fmt.Sprintf("\n\U0001F628 Fear & Greed: %d (%s)\n", fng.Value, fng.Label))
	}
	return sb.String()
}
