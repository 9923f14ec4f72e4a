package repository

import (
	"context"
	"time"

	"chainsight/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/trace"
)

const createCandlesTable = `
CREATE TABLE IF NOT EXISTS hourly_candles (
    unix_timestamp BIGINT      NOT NULL PRIMARY KEY,
    open_time      TIMESTAMPTZ NOT NULL,
    open           NUMERIC     NOT NULL,
    high           NUMERIC     NOT NULL,
    low            NUMERIC     NOT NULL,
    close          NUMERIC     NOT NULL,
    volume_from    NUMERIC     NOT NULL,
    volume_to      NUMERIC     NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_hourly_candles_open_time
    ON hourly_candles (open_time DESC);
`

type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// CandleRepository stores BTC/USD hourly candles keyed by unix timestamp.
type CandleRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewCandleRepository(pool PgxPool, tracer trace.Tracer) *CandleRepository {
	return &CandleRepository{pool: pool, tracer: tracer}
}

func (r *CandleRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "candle-repo.run-migrations")
	defer span.End()

	_, err := r.pool.Exec(ctx, createCandlesTable)
	return err
}

func (r *CandleRepository) UpsertCandles(ctx context.Context, candles []domain.HourlyCandle) error {
	if len(candles) == 0 {
		return nil
	}

	_, span := r.tracer.Start(ctx, "candle-repo.upsert-candles")
	defer span.End()

	batch := &pgx.Batch{}
	for _, c := range candles {
		batch.Queue(
			`INSERT INTO hourly_candles (unix_timestamp, open_time, open, high, low, close, volume_from, volume_to)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 ON CONFLICT (unix_timestamp) DO UPDATE SET
			     open_time = EXCLUDED.open_time,
			     open = EXCLUDED.open,
			     high = EXCLUDED.high,
			     low = EXCLUDED.low,
			     close = EXCLUDED.close,
			     volume_from = EXCLUDED.volume_from,
			     volume_to = EXCLUDED.volume_to`,
			c.UnixTimestamp, c.OpenTime, c.Open, c.High, c.Low, c.Close, c.VolumeFrom, c.VolumeTo,
		)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range candles {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// RecentCandles returns the newest limit candles, oldest first so indicator
// series can be computed directly over the result.
func (r *CandleRepository) RecentCandles(ctx context.Context, limit int) ([]domain.HourlyCandle, error) {
	_, span := r.tracer.Start(ctx, "candle-repo.recent-candles")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT unix_timestamp, open_time, open, high, low, close, volume_from, volume_to
		 FROM hourly_candles
		 ORDER BY unix_timestamp DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candles []domain.HourlyCandle
	for rows.Next() {
		var c domain.HourlyCandle
		if err := rows.Scan(&c.UnixTimestamp, &c.OpenTime, &c.Open, &c.High, &c.Low, &c.Close, &c.VolumeFrom, &c.VolumeTo); err != nil {
			return nil, err
		}
		c.OpenTime = c.OpenTime.UTC()
		candles = append(candles, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(candles)-1; i < j; i, j = i+1, j-1 {
		candles[i], candles[j] = candles[j], candles[i]
	}
	return candles, nil
}

// CandlesInRange returns candles between from and to inclusive, oldest first.
func (r *CandleRepository) CandlesInRange(ctx context.Context, from, to time.Time) ([]domain.HourlyCandle, error) {
	_, span := r.tracer.Start(ctx, "candle-repo.candles-in-range")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT unix_timestamp, open_time, open, high, low, close, volume_from, volume_to
		 FROM hourly_candles
		 WHERE open_time >= $1 AND open_time <= $2
		 ORDER BY unix_timestamp ASC`,
		from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candles []domain.HourlyCandle
	for rows.Next() {
		var c domain.HourlyCandle
		if err := rows.Scan(&c.UnixTimestamp, &c.OpenTime, &c.Open, &c.High, &c.Low, &c.Close, &c.VolumeFrom, &c.VolumeTo); err != nil {
			return nil, err
		}
		c.OpenTime = c.OpenTime.UTC()
		candles = append(candles, c)
	}
	return candles, rows.Err()
}

// LatestTimestamp returns the newest stored candle timestamp, zero when the
// table is empty.
func (r *CandleRepository) LatestTimestamp(ctx context.Context) (int64, error) {
	_, span := r.tracer.Start(ctx, "candle-repo.latest-timestamp")
	defer span.End()

	rows, err := r.pool.Query(ctx, `SELECT unix_timestamp FROM hourly_candles ORDER BY unix_timestamp DESC LIMIT 1`)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var ts int64
	if rows.Next() {
		if err := rows.Scan(&ts); err != nil {
			return 0, err
		}
	}
	return ts, rows.Err()
}
