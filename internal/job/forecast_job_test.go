package job

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"chainsight/internal/forecast"
)

type stubForecastTrainer struct {
	calls int32
	err   error
}

func (s *stubForecastTrainer) Train(ctx context.Context) (*forecast.TrainStats, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.err != nil {
		return nil, s.err
	}
	return &forecast.TrainStats{Samples: 100, ClassCounts: map[int]int{0: 40, 1: 60}}, nil
}

func TestForecastJobTrainsAtStartup(t *testing.T) {
	t.Parallel()
	stub := &stubForecastTrainer{}
	job := NewForecastJob(testTracer, stub, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		job.Start(ctx)
		close(done)
	}()

	eventually(t, func() bool { return atomic.LoadInt32(&stub.calls) > 0 })
	cancel()
	<-done
}

func TestForecastJobSurvivesTrainingError(t *testing.T) {
	t.Parallel()
	stub := &stubForecastTrainer{err: errors.New("dataset too small")}
	job := NewForecastJob(testTracer, stub, time.Hour)

	job.runOnce(context.Background())

	if atomic.LoadInt32(&stub.calls) != 1 {
		t.Fatalf("expected one training attempt, got %d", stub.calls)
	}
}

func TestForecastJobDisabledWithoutTrainer(t *testing.T) {
	t.Parallel()
	job := NewForecastJob(testTracer, nil, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		job.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected disabled job to exit on cancel")
	}
}

func TestNewForecastJobDefaultInterval(t *testing.T) {
	job := NewForecastJob(testTracer, &stubForecastTrainer{}, 0)
	if job.trainInterval != 24*time.Hour {
		t.Fatalf("expected 24h default interval, got %v", job.trainInterval)
	}
}
