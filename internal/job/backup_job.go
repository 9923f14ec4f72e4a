package job

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel/trace"
)

type DatasetBackupper interface {
	Backup(ctx context.Context) error
}

// BackupJob mirrors the warehouse dataset back to the CSV file once a day.
type BackupJob struct {
	tracer  trace.Tracer
	service DatasetBackupper
	hour    int
}

func NewBackupJob(tracer trace.Tracer, service DatasetBackupper, hourUTC int) *BackupJob {
	if hourUTC < 0 || hourUTC > 23 {
		hourUTC = 23
	}
	return &BackupJob{tracer: tracer, service: service, hour: hourUTC}
}

func (j *BackupJob) Start(ctx context.Context) {
	if j.service == nil {
		log.Println("Backup job disabled: no service")
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

func (j *BackupJob) runOnce(ctx context.Context) {
	_, span := j.tracer.Start(ctx, "backup-job.run-once")
	defer span.End()

	if err := j.service.Backup(ctx); err != nil {
		log.Printf("dataset backup error: %v", err)
	}
}
