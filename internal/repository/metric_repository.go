package repository

import (
	"context"
	"time"

	"chainsight/internal/domain"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/trace"
)

const createMetricsTable = `
CREATE TABLE IF NOT EXISTS onchain_metrics (
    metric  TEXT    NOT NULL,
    date    DATE    NOT NULL,
    value   NUMERIC NOT NULL,
    PRIMARY KEY (metric, date)
);

CREATE INDEX IF NOT EXISTS idx_onchain_metrics_metric_date
    ON onchain_metrics (metric, date DESC);
`

// MetricRepository stores daily on-chain metric observations keyed by
// metric and date.
type MetricRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewMetricRepository(pool PgxPool, tracer trace.Tracer) *MetricRepository {
	return &MetricRepository{pool: pool, tracer: tracer}
}

func (r *MetricRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "metric-repo.run-migrations")
	defer span.End()

	_, err := r.pool.Exec(ctx, createMetricsTable)
	return err
}

func (r *MetricRepository) UpsertObservations(ctx context.Context, obs []domain.MetricObservation) error {
	if len(obs) == 0 {
		return nil
	}

	_, span := r.tracer.Start(ctx, "metric-repo.upsert-observations")
	defer span.End()

	batch := &pgx.Batch{}
	for _, o := range obs {
		batch.Queue(
			`INSERT INTO onchain_metrics (metric, date, value)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (metric, date) DO UPDATE SET value = EXCLUDED.value`,
			o.Metric, o.Date, o.Value,
		)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range obs {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// Series returns up to limit observations of one metric, oldest first.
func (r *MetricRepository) Series(ctx context.Context, metric string, limit int) ([]domain.MetricObservation, error) {
	_, span := r.tracer.Start(ctx, "metric-repo.series")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT metric, date, value
		 FROM onchain_metrics
		 WHERE metric = $1
		 ORDER BY date DESC
		 LIMIT $2`,
		metric, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.MetricObservation
	for rows.Next() {
		var o domain.MetricObservation
		if err := rows.Scan(&o.Metric, &o.Date, &o.Value); err != nil {
			return nil, err
		}
		o.Date = o.Date.UTC()
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// LatestValues returns the most recent observation of every stored metric.
func (r *MetricRepository) LatestValues(ctx context.Context) ([]domain.MetricObservation, error) {
	_, span := r.tracer.Start(ctx, "metric-repo.latest-values")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT ON (metric) metric, date, value
		 FROM onchain_metrics
		 ORDER BY metric, date DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.MetricObservation
	for rows.Next() {
		var o domain.MetricObservation
		if err := rows.Scan(&o.Metric, &o.Date, &o.Value); err != nil {
			return nil, err
		}
		o.Date = o.Date.UTC()
		out = append(out, o)
	}
	return out, rows.Err()
}

// LatestDate returns the newest stored date for a metric, zero when absent.
func (r *MetricRepository) LatestDate(ctx context.Context, metric string) (time.Time, error) {
	_, span := r.tracer.Start(ctx, "metric-repo.latest-date")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT date FROM onchain_metrics WHERE metric = $1 ORDER BY date DESC LIMIT 1`,
		metric,
	)
	if err != nil {
		return time.Time{}, err
	}
	defer rows.Close()

	var latest time.Time
	if rows.Next() {
		if err := rows.Scan(&latest); err != nil {
			return time.Time{}, err
		}
		latest = latest.UTC()
	}
	return latest, rows.Err()
}
