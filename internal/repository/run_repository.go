package repository

import (
	"context"
	"time"

	"chainsight/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const createRunsTable = `
CREATE TABLE IF NOT EXISTS strategy_runs (
    run_date            DATE PRIMARY KEY,
    executed_at         TIMESTAMPTZ NOT NULL,
    action              TEXT NOT NULL,
    state               TEXT NOT NULL,
    position            INT NOT NULL,
    btc_price           NUMERIC NOT NULL,
    mvrv_zscore         NUMERIC NOT NULL,
    nupl_zscore         NUMERIC NOT NULL,
    combined_zscore     NUMERIC NOT NULL,
    total_return        NUMERIC NOT NULL,
    buy_hold_return     NUMERIC NOT NULL,
    outperformance      NUMERIC NOT NULL,
    month_return        NUMERIC NOT NULL,
    market_month_return NUMERIC NOT NULL,
    message             TEXT NOT NULL DEFAULT ''
);
`

// RunRepository stores one strategy evaluation per day, newest run wins.
type RunRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewRunRepository(pool PgxPool, tracer trace.Tracer) *RunRepository {
	return &RunRepository{pool: pool, tracer: tracer}
}

func (r *RunRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "run-repo.run-migrations")
	defer span.End()

	_, err := r.pool.Exec(ctx, createRunsTable)
	return err
}

// UpsertRun inserts a run keyed by its execution date. A rerun on the same
// day replaces the earlier record.
func (r *RunRepository) UpsertRun(ctx context.Context, run domain.StrategyRun) error {
	_, span := r.tracer.Start(ctx, "run-repo.upsert-run")
	defer span.End()

	_, err := r.pool.Exec(ctx,
		`INSERT INTO strategy_runs (
		     run_date, executed_at, action, state, position, btc_price,
		     mvrv_zscore, nupl_zscore, combined_zscore,
		     total_return, buy_hold_return, outperformance,
		     month_return, market_month_return, message
		 ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		 ON CONFLICT (run_date) DO UPDATE SET
		     executed_at = EXCLUDED.executed_at,
		     action = EXCLUDED.action,
		     state = EXCLUDED.state,
		     position = EXCLUDED.position,
		     btc_price = EXCLUDED.btc_price,
		     mvrv_zscore = EXCLUDED.mvrv_zscore,
		     nupl_zscore = EXCLUDED.nupl_zscore,
		     combined_zscore = EXCLUDED.combined_zscore,
		     total_return = EXCLUDED.total_return,
		     buy_hold_return = EXCLUDED.buy_hold_return,
		     outperformance = EXCLUDED.outperformance,
		     month_return = EXCLUDED.month_return,
		     market_month_return = EXCLUDED.market_month_return,
		     message = EXCLUDED.message`,
		run.ExecutedAt.UTC().Truncate(24*time.Hour),
		run.ExecutedAt.UTC(),
		string(run.Action), run.State, run.Position, run.BTCPrice,
		run.MVRVZScore, run.NUPLZScore, run.CombinedZScore,
		run.TotalReturn, run.BuyHoldReturn, run.Outperformance,
		run.MonthReturn, run.MarketMonthReturn, run.Message,
	)
	return err
}

// LatestRun returns the most recent run, or nil when none is stored.
func (r *RunRepository) LatestRun(ctx context.Context) (*domain.StrategyRun, error) {
	_, span := r.tracer.Start(ctx, "run-repo.latest-run")
	defer span.End()

	runs, err := r.queryRuns(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[len(runs)-1], nil
}

// RecentRuns returns up to limit runs, oldest first.
func (r *RunRepository) RecentRuns(ctx context.Context, limit int) ([]domain.StrategyRun, error) {
	_, span := r.tracer.Start(ctx, "run-repo.recent-runs")
	defer span.End()

	return r.queryRuns(ctx, limit)
}

func (r *RunRepository) queryRuns(ctx context.Context, limit int) ([]domain.StrategyRun, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT executed_at, action, state, position, btc_price,
		        mvrv_zscore, nupl_zscore, combined_zscore,
		        total_return, buy_hold_return, outperformance,
		        month_return, market_month_return, message
		 FROM strategy_runs
		 ORDER BY run_date DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.StrategyRun
	for rows.Next() {
		var run domain.StrategyRun
		var action string
		if err := rows.Scan(
			&run.ExecutedAt, &action, &run.State, &run.Position, &run.BTCPrice,
			&run.MVRVZScore, &run.NUPLZScore, &run.CombinedZScore,
			&run.TotalReturn, &run.BuyHoldReturn, &run.Outperformance,
			&run.MonthReturn, &run.MarketMonthReturn, &run.Message,
		); err != nil {
			return nil, err
		}
		run.Action = domain.SignalAction(action)
		run.ExecutedAt = run.ExecutedAt.UTC()
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
