package job

import (
	"context"
	"log"
	"time"

	"chainsight/internal/forecast"

	"go.opentelemetry.io/otel/trace"
)

type ForecastTrainer interface {
	Train(ctx context.Context) (*forecast.TrainStats, error)
}

// ForecastJob retrains the sell-window model from the warehouse dataset.
// The first training runs at startup so predictions become available
// without waiting a full cycle.
type ForecastJob struct {
	tracer        trace.Tracer
	service       ForecastTrainer
	trainInterval time.Duration
}

func NewForecastJob(tracer trace.Tracer, service ForecastTrainer, trainInterval time.Duration) *ForecastJob {
	if trainInterval <= 0 {
		trainInterval = 24 * time.Hour
	}
	return &ForecastJob{tracer: tracer, service: service, trainInterval: trainInterval}
}

func (j *ForecastJob) Start(ctx context.Context) {
	if j.service == nil {
		log.Println("Forecast job disabled: no trainer")
		<-ctx.Done()
		return
	}

	j.runOnce(ctx)
	ticker := time.NewTicker(j.trainInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.runOnce(ctx)
		}
	}
}

func (j *ForecastJob) runOnce(ctx context.Context) {
	_, span := j.tracer.Start(ctx, "forecast-job.run-once")
	defer span.End()

	stats, err := j.service.Train(ctx)
	if err != nil {
		log.Printf("forecast training error: %v", err)
		return
	}
	log.Printf("Forecast training complete: samples=%d classes=%d", stats.Samples, len(stats.ClassCounts))
}
