package repository

import (
	"context"
	"time"

	"chainsight/internal/domain"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/trace"
)

const createStrategyTable = `
CREATE TABLE IF NOT EXISTS onchain_strategy (
    date    DATE    NOT NULL PRIMARY KEY,
    open    NUMERIC NOT NULL,
    high    NUMERIC NOT NULL,
    low     NUMERIC NOT NULL,
    close   NUMERIC NOT NULL,
    volume  NUMERIC NOT NULL,
    mvrv    NUMERIC NOT NULL,
    nupl    NUMERIC NOT NULL
);
`

// StrategyRepository stores the daily on-chain strategy dataset, one row
// per day keyed by date.
type StrategyRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewStrategyRepository(pool PgxPool, tracer trace.Tracer) *StrategyRepository {
	return &StrategyRepository{pool: pool, tracer: tracer}
}

func (r *StrategyRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "strategy-repo.run-migrations")
	defer span.End()

	_, err := r.pool.Exec(ctx, createStrategyTable)
	return err
}

func (r *StrategyRepository) UpsertRows(ctx context.Context, rows []domain.StrategyRow) error {
	if len(rows) == 0 {
		return nil
	}

	_, span := r.tracer.Start(ctx, "strategy-repo.upsert-rows")
	defer span.End()

	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(
			`INSERT INTO onchain_strategy (date, open, high, low, close, volume, mvrv, nupl)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 ON CONFLICT (date) DO UPDATE SET
			     open = EXCLUDED.open,
			     high = EXCLUDED.high,
			     low = EXCLUDED.low,
			     close = EXCLUDED.close,
			     volume = EXCLUDED.volume,
			     mvrv = EXCLUDED.mvrv,
			     nupl = EXCLUDED.nupl`,
			row.Date, row.Open, row.High, row.Low, row.Close, row.Volume, row.MVRV, row.NUPL,
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

// AllRows returns the full dataset in date order.
func (r *StrategyRepository) AllRows(ctx context.Context) ([]domain.StrategyRow, error) {
	_, span := r.tracer.Start(ctx, "strategy-repo.all-rows")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT date, open, high, low, close, volume, mvrv, nupl
		 FROM onchain_strategy
		 ORDER BY date ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.StrategyRow
	for rows.Next() {
		var row domain.StrategyRow
		if err := rows.Scan(&row.Date, &row.Open, &row.High, &row.Low, &row.Close, &row.Volume, &row.MVRV, &row.NUPL); err != nil {
			return nil, err
		}
		row.Date = row.Date.UTC()
		out = append(out, row)
	}
	return out, rows.Err()
}

// RecentRows returns the newest limit rows in date order.
func (r *StrategyRepository) RecentRows(ctx context.Context, limit int) ([]domain.StrategyRow, error) {
	_, span := r.tracer.Start(ctx, "strategy-repo.recent-rows")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT date, open, high, low, close, volume, mvrv, nupl
		 FROM onchain_strategy
		 ORDER BY date DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.StrategyRow
	for rows.Next() {
		var row domain.StrategyRow
		if err := rows.Scan(&row.Date, &row.Open, &row.High, &row.Low, &row.Close, &row.Volume, &row.MVRV, &row.NUPL); err != nil {
			return nil, err
		}
		row.Date = row.Date.UTC()
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

// LatestDate returns the newest dataset date, or the zero time when the
// table is empty.
func (r *StrategyRepository) LatestDate(ctx context.Context) (time.Time, error) {
	_, span := r.tracer.Start(ctx, "strategy-repo.latest-date")
	defer span.End()

	rows, err := r.pool.Query(ctx, `SELECT date FROM onchain_strategy ORDER BY date DESC LIMIT 1`)
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
