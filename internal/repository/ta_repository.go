package repository

import (
	"context"

	"chainsight/internal/domain"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/trace"
)

const createIndicatorsTable = `
CREATE TABLE IF NOT EXISTS hourly_ta (
    unix_timestamp BIGINT      NOT NULL PRIMARY KEY,
    open_time      TIMESTAMPTZ NOT NULL,
    close          NUMERIC     NOT NULL,
    sma_20         NUMERIC     NOT NULL,
    ema_12         NUMERIC     NOT NULL,
    ema_26         NUMERIC     NOT NULL,
    macd           NUMERIC     NOT NULL,
    macd_signal    NUMERIC     NOT NULL,
    macd_diff      NUMERIC     NOT NULL,
    rsi            NUMERIC     NOT NULL,
    bb_high        NUMERIC     NOT NULL,
    bb_low         NUMERIC     NOT NULL,
    bb_width       NUMERIC     NOT NULL,
    stoch_k        NUMERIC     NOT NULL,
    stoch_d        NUMERIC     NOT NULL,
    volume_sma     NUMERIC     NOT NULL,
    atr            NUMERIC     NOT NULL
);
`

// IndicatorRepository stores computed hourly technical indicators.
type IndicatorRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewIndicatorRepository(pool PgxPool, tracer trace.Tracer) *IndicatorRepository {
	return &IndicatorRepository{pool: pool, tracer: tracer}
}

func (r *IndicatorRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "indicator-repo.run-migrations")
	defer span.End()

	_, err := r.pool.Exec(ctx, createIndicatorsTable)
	return err
}

func (r *IndicatorRepository) UpsertRows(ctx context.Context, rows []domain.IndicatorRow) error {
	if len(rows) == 0 {
		return nil
	}

	_, span := r.tracer.Start(ctx, "indicator-repo.upsert-rows")
	defer span.End()

	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(
			`INSERT INTO hourly_ta (
			     unix_timestamp, open_time, close, sma_20, ema_12, ema_26,
			     macd, macd_signal, macd_diff, rsi, bb_high, bb_low, bb_width,
			     stoch_k, stoch_d, volume_sma, atr)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
			 ON CONFLICT (unix_timestamp) DO UPDATE SET
			     open_time = EXCLUDED.open_time,
			     close = EXCLUDED.close,
			     sma_20 = EXCLUDED.sma_20,
			     ema_12 = EXCLUDED.ema_12,
			     ema_26 = EXCLUDED.ema_26,
			     macd = EXCLUDED.macd,
			     macd_signal = EXCLUDED.macd_signal,
			     macd_diff = EXCLUDED.macd_diff,
			     rsi = EXCLUDED.rsi,
			     bb_high = EXCLUDED.bb_high,
			     bb_low = EXCLUDED.bb_low,
			     bb_width = EXCLUDED.bb_width,
			     stoch_k = EXCLUDED.stoch_k,
			     stoch_d = EXCLUDED.stoch_d,
			     volume_sma = EXCLUDED.volume_sma,
			     atr = EXCLUDED.atr`,
			row.UnixTimestamp, row.OpenTime, row.Close, row.SMA20, row.EMA12, row.EMA26,
			row.MACD, row.MACDSignal, row.MACDDiff, row.RSI, row.BBHigh, row.BBLow, row.BBWidth,
			row.StochK, row.StochD, row.VolumeSMA, row.ATR,
		)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range rows {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// RecentRows returns the newest limit indicator rows, oldest first.
func (r *IndicatorRepository) RecentRows(ctx context.Context, limit int) ([]domain.IndicatorRow, error) {
	_, span := r.tracer.Start(ctx, "indicator-repo.recent-rows")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT unix_timestamp, open_time, close, sma_20, ema_12, ema_26,
		        macd, macd_signal, macd_diff, rsi, bb_high, bb_low, bb_width,
		        stoch_k, stoch_d, volume_sma, atr
		 FROM hourly_ta
		 ORDER BY unix_timestamp DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.IndicatorRow
	for rows.Next() {
		var row domain.IndicatorRow
		if err := rows.Scan(
			&row.UnixTimestamp, &row.OpenTime, &row.Close, &row.SMA20, &row.EMA12, &row.EMA26,
			&row.MACD, &row.MACDSignal, &row.MACDDiff, &row.RSI, &row.BBHigh, &row.BBLow, &row.BBWidth,
			&row.StochK, &row.StochD, &row.VolumeSMA, &row.ATR,
		); err != nil {
			return nil, err
		}
		row.OpenTime = row.OpenTime.UTC()
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// LatestTimestamp returns the newest indicator timestamp, zero when empty.
func (r *IndicatorRepository) LatestTimestamp(ctx context.Context) (int64, error) {
	_, span := r.tracer.Start(ctx, "indicator-repo.latest-timestamp")
	defer span.End()

	rows, err := r.pool.Query(ctx, `SELECT unix_timestamp FROM hourly_ta ORDER BY unix_timestamp DESC LIMIT 1`)
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
