package job

import (
	"context"
	"log"
	"time"

	"chainsight/internal/domain"
	"chainsight/internal/strategy"

	"go.opentelemetry.io/otel/trace"
)

type StrategyRunner interface {
	RunDaily(ctx context.Context) (*strategy.Result, error)
}

type RunNotifier interface {
	NotifyRun(run domain.StrategyRun) error
}

// StrategyJob evaluates the strategy once a day after the metric merge and
// pushes the resulting report to subscribers.
type StrategyJob struct {
	tracer   trace.Tracer
	runner   StrategyRunner
	notifier RunNotifier
	hour     int
	minute   int
}

func NewStrategyJob(tracer trace.Tracer, runner StrategyRunner, notifier RunNotifier, hourUTC, minuteUTC int) *StrategyJob {
	if hourUTC < 0 || hourUTC > 23 {
		hourUTC = 22
	}
	if minuteUTC < 0 || minuteUTC > 59 {
		minuteUTC = 5
	}
	return &StrategyJob{tracer: tracer, runner: runner, notifier: notifier, hour: hourUTC, minute: minuteUTC}
}

func (j *StrategyJob) Start(ctx context.Context) {
	if j.runner == nil {
		log.Println("Strategy job disabled: no runner")
		<-ctx.Done()
		return
	}
	for {
		next := nextRunUTC(time.Now().UTC(), j.hour, j.minute)
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

func (j *StrategyJob) runOnce(ctx context.Context) {
	_, span := j.tracer.Start(ctx, "strategy-job.run-once")
	defer span.End()

	result, err := j.runner.RunDaily(ctx)
	if err != nil {
		log.Printf("strategy run error: %v", err)
		return
	}
	if j.notifier == nil {
		return
	}
	if err := j.notifier.NotifyRun(result.Run); err != nil {
		log.Printf("strategy notification error: %v", err)
	}
}

func nextRunUTC(now time.Time, hour, minute int) time.Time {
	run := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, time.UTC)
	if !run.After(now) {
		run = run.Add(24 * time.Hour)
	}
	return run
}
