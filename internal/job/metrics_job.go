package job

import (
	"context"
	"log"
	"time"

	"chainsight/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

type MetricsRefresher interface {
	RefreshBatch(ctx context.Context, batch int) error
	MergeDaily(ctx context.Context) error
}

// MetricsJob refreshes the on-chain metric catalog once a day. The batches
// are spaced out so the provider's hourly request quota is never exceeded,
// and the daily strategy dataset is merged after the last batch.
type MetricsJob struct {
	tracer   trace.Tracer
	service  MetricsRefresher
	hour     int
	batchGap time.Duration
}

func NewMetricsJob(tracer trace.Tracer, service MetricsRefresher, hourUTC int, batchGap time.Duration) *MetricsJob {
	if hourUTC < 0 || hourUTC > 23 {
		hourUTC = 4
	}
	if batchGap <= 0 {
		batchGap = 90 * time.Minute
	}
	return &MetricsJob{tracer: tracer, service: service, hour: hourUTC, batchGap: batchGap}
}

func (j *MetricsJob) Start(ctx context.Context) {
	if j.service == nil {
		log.Println("Metrics job disabled: no service")
		<-ctx.Done()
		return
	}
	for {
		next := nextRunUTC(time.Now().UTC(), j.hour, 0)
		wait := time.Until(next)
		if wait < time.Second {
			wait = time.Second
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			j.runOnce(ctx)
		}
	}
}

func (j *MetricsJob) runOnce(ctx context.Context) {
	_, span := j.tracer.Start(ctx, "metrics-job.run-once")
	defer span.End()

	for batch := 1; batch <= domain.MetricBatchCount; batch++ {
		if batch > 1 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(j.batchGap):
			}
		}
		if err := j.service.RefreshBatch(ctx, batch); err != nil {
			log.Printf("metrics batch %d error: %v", batch, err)
		}
	}
	if err := j.service.MergeDaily(ctx); err != nil {
		log.Printf("metrics merge error: %v", err)
	}
}
