package job

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel/trace"
)

type CandleRefresher interface {
	RefreshCandles(ctx context.Context, hours int) error
}

type IndicatorRefresher interface {
	Refresh(ctx context.Context) error
}

// CandlePoller keeps the hourly candle and indicator tables current.
type CandlePoller struct {
	tracer       trace.Tracer
	prices       CandleRefresher
	indicators   IndicatorRefresher
	pollInterval time.Duration
	batchHours   int
}

func NewCandlePoller(tracer trace.Tracer, prices CandleRefresher, indicators IndicatorRefresher, pollIntervalSecs, batchHours int) *CandlePoller {
	if pollIntervalSecs <= 0 {
		pollIntervalSecs = 3600
	}
	if batchHours <= 0 {
		batchHours = 48
	}
	return &CandlePoller{
		tracer:       tracer,
		prices:       prices,
		indicators:   indicators,
		pollInterval: time.Duration(pollIntervalSecs) * time.Second,
		batchHours:   batchHours,
	}
}

// Start polls immediately and then on every tick. Blocks until ctx is
// cancelled.
func (p *CandlePoller) Start(ctx context.Context) {
	if p.prices == nil {
		log.Println("Candle poller disabled: no price service")
		<-ctx.Done()
		return
	}
	log.Println("Candle poller starting...")

	p.runOnce(ctx)
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Candle poller stopped")
			return
		case <-ticker.C:
			p.runOnce(ctx)
		}
	}
}

func (p *CandlePoller) runOnce(ctx context.Context) {
	_, span := p.tracer.Start(ctx, "candle-poller.run-once")
	defer span.End()

	if err := p.prices.RefreshCandles(ctx, p.batchHours); err != nil {
		log.Printf("candle refresh error: %v", err)
		return
	}
	if p.indicators == nil {
		return
	}
	if err := p.indicators.Refresh(ctx); err != nil {
		log.Printf("indicator refresh error: %v", err)
	}
}
