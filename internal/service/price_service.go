package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"chainsight/internal/domain"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

const (
	priceCacheTTL = 90 * time.Second
	priceCacheKey = "price:BTC"
)

// PriceProvider fetches live BTC market data.
type PriceProvider interface {
	FetchPrice(ctx context.Context) (*domain.PriceSnapshot, error)
	FetchHourly(ctx context.Context, limit int) ([]domain.HourlyCandle, error)
}

type CandleStore interface {
	UpsertCandles(ctx context.Context, candles []domain.HourlyCandle) error
	RecentCandles(ctx context.Context, limit int) ([]domain.HourlyCandle, error)
	LatestTimestamp(ctx context.Context) (int64, error)
}

type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// PriceService orchestrates BTC price fetching, caching, and candle storage.
type PriceService struct {
	tracer   trace.Tracer
	provider PriceProvider
	repo     CandleStore
	redis    RedisClient
}

func NewPriceService(
	tracer trace.Tracer,
	provider PriceProvider,
	repo CandleStore,
	redisClient RedisClient,
) *PriceService {
	return &PriceService{
		tracer:   tracer,
		provider: provider,
		repo:     repo,
		redis:    redisClient,
	}
}

// CurrentPrice returns the latest cached BTC price.
// Falls back to a live API call if cache is empty/expired.
func (s *PriceService) CurrentPrice(ctx context.Context) (*domain.PriceSnapshot, error) {
	_, span := s.tracer.Start(ctx, "price-service.current-price")
	defer span.End()

	if s.redis != nil {
		cached, err := s.getPriceCache(ctx)
		if err != nil {
			log.Printf("redis cache read error: %v", err)
		}
		if cached != nil {
			return cached, nil
		}
	}

	snap, err := s.provider.FetchPrice(ctx)
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		if err := s.setPriceCache(ctx, snap); err != nil {
			log.Printf("redis cache write error: %v", err)
		}
	}
	return snap, nil
}

// RefreshCandles fetches the latest hourly candles and upserts them. The
// hours window overlaps previous fetches so late revisions get corrected.
func (s *PriceService) RefreshCandles(ctx context.Context, hours int) error {
	_, span := s.tracer.Start(ctx, "price-service.refresh-candles")
	defer span.End()

	candles, err := s.provider.FetchHourly(ctx, hours)
	if err != nil {
		return err
	}
	if len(candles) == 0 {
		return fmt.Errorf("no hourly candles returned")
	}

	if err := s.repo.UpsertCandles(ctx, candles); err != nil {
		return fmt.Errorf("upsert hourly candles: %w", err)
	}

	log.Printf("Refreshed %d hourly candles", len(candles))
	return nil
}

// Candles returns up to limit stored hourly candles, oldest first.
func (s *PriceService) Candles(ctx context.Context, limit int) ([]domain.HourlyCandle, error) {
	return s.repo.RecentCandles(ctx, limit)
}

func (s *PriceService) setPriceCache(ctx context.Context, snapshot *domain.PriceSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, priceCacheKey, data, priceCacheTTL).Err()
}

func (s *PriceService) getPriceCache(ctx context.Context) (*domain.PriceSnapshot, error) {
	data, err := s.redis.Get(ctx, priceCacheKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var snapshot domain.PriceSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}
