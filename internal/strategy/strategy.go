// Package strategy implements the MVRV/NUPL z-score trading strategy: each
// valuation metric is scored against its moving average in rolling standard
// deviations, the two scores are blended, and threshold crossings of the
// blended score drive long/short signals that are backtested against buy
// and hold.
package strategy

import (
	"fmt"
	"math"

	"chainsight/internal/domain"
	"chainsight/internal/ta"
)

// Params configures one strategy evaluation.
type Params struct {
	MAType         string  `json:"ma_type"`
	MALength       int     `json:"ma_length"`
	ZScoreLookback int     `json:"zscore_lookback"`
	LongThreshold  float64 `json:"long_threshold"`
	ShortThreshold float64 `json:"short_threshold"`
	CombineMethod  string  `json:"combine_method"`
	MVRVWeight     float64 `json:"mvrv_weight"`
	NUPLWeight     float64 `json:"nupl_weight"`
	InitialCapital float64 `json:"initial_capital"`
}

// DefaultParams returns the tuned production parameters.
func DefaultParams() Params {
	return Params{
		MAType:         "EMA",
		MALength:       160,
		ZScoreLookback: 120,
		LongThreshold:  0.56,
		ShortThreshold: -0.45,
		CombineMethod:  "weighted",
		MVRVWeight:     0.63,
		NUPLWeight:     0.37,
		InitialCapital: 10000,
	}
}

// Summary aggregates backtest performance.
type Summary struct {
	InitialValue    float64 `json:"initial_value"`
	FinalValue      float64 `json:"final_value"`
	BuyHoldFinal    float64 `json:"buy_hold_final"`
	TotalReturn     float64 `json:"total_return"`
	BuyHoldReturn   float64 `json:"buy_hold_return"`
	Outperformance  float64 `json:"outperformance"`
	SharpeRatio     float64 `json:"sharpe_ratio"`
	MaxDrawdown     float64 `json:"max_drawdown"`
	Trades          int     `json:"trades"`
	BuyTrades       int     `json:"buy_trades"`
	SellTrades      int     `json:"sell_trades"`
	CompletedTrades int     `json:"completed_trades"`
	WinRate         float64 `json:"win_rate"`
	ProfitFactor    float64 `json:"profit_factor"`
}

// Result carries the full evaluation: per-row series, the backtest curves,
// the performance summary, and a snapshot of the latest state ready for
// persistence and notification.
type Result struct {
	Params    Params
	Rows      []domain.StrategyRow
	MVRVZ     []float64
	NUPLZ     []float64
	Combined  []float64
	Signals   []int
	Positions []int
	Portfolio []float64
	BuyHold   []float64
	Summary   Summary
	Run       domain.StrategyRun
}

// MovingAverage dispatches on the configured average type. Unknown types
// fall back to the weighted moving average.
func MovingAverage(values []float64, maType string, length int) []float64 {
	switch maType {
	case "EMA":
		return ta.EMASeries(values, length)
	case "DEMA":
		return ta.DEMASeries(values, length)
	case "SMA":
		return ta.SMASeries(values, length)
	default:
		return ta.WMASeries(values, length)
	}
}

// ZScores computes the rolling z-score of a metric series.
func ZScores(values []float64, maType string, maLength, lookback int) []float64 {
	ma := MovingAverage(values, maType, maLength)
	std := ta.RollingStd(values, lookback)
	return ta.ZScoreSeries(values, ma, std)
}

// Combine blends the MVRV and NUPL z-scores. "average" takes the mean,
// "weighted" applies normalized weights, and "consensus" only passes the
// mean through when both scores agree on direction, zero otherwise.
// Unknown methods fall back to "average".
func Combine(mvrvZ, nuplZ []float64, p Params) []float64 {
	out := make([]float64, len(mvrvZ))
	switch p.CombineMethod {
	case "weighted":
		total := p.MVRVWeight + p.NUPLWeight
		mw, nw := 0.5, 0.5
		if total > 0 {
			mw = p.MVRVWeight / total
			nw = p.NUPLWeight / total
		}
		for i := range out {
			out[i] = mvrvZ[i]*mw + nuplZ[i]*nw
		}
	case "consensus":
		for i := range out {
			agree := (mvrvZ[i] > 0 && nuplZ[i] > 0) || (mvrvZ[i] < 0 && nuplZ[i] < 0)
			if agree {
				out[i] = (mvrvZ[i] + nuplZ[i]) / 2
			}
		}
	default:
		for i := range out {
			out[i] = (mvrvZ[i] + nuplZ[i]) / 2
		}
	}
	return out
}

// GenerateSignals walks the combined score and emits 1 on an upward cross
// of the long threshold while flat, -1 on a downward cross of the short
// threshold while positioned. The second slice is the resulting position
// per row. NaN entries never cross a threshold.
func GenerateSignals(combined []float64, longThreshold, shortThreshold float64) ([]int, []int) {
	signals := make([]int, len(combined))
	position := 0
	for i := 1; i < len(combined); i++ {
		if combined[i-1] <= longThreshold && combined[i] > longThreshold && position == 0 {
			signals[i] = 1
			position = 1
		} else if combined[i-1] >= shortThreshold && combined[i] < shortThreshold && position == 1 {
			signals[i] = -1
			position = 0
		}
	}
	positions := make([]int, len(combined))
	position = 0
	for i := range combined {
		if signals[i] == 1 {
			position = 1
		} else if signals[i] == -1 {
			position = 0
		}
		positions[i] = position
	}
	return signals, positions
}

// Backtest replays the signals over the close prices. The portfolio is
// valued before the day's signal executes, so a fill only affects the
// following day onward. Buy and hold buys everything at the first price.
func Backtest(prices []float64, signals []int, initialCapital float64) ([]float64, []float64) {
	n := len(prices)
	portfolio := make([]float64, n)
	buyHold := make([]float64, n)
	if n == 0 {
		return portfolio, buyHold
	}
	initialBTC := initialCapital / prices[0]
	for i := range prices {
		portfolio[i] = initialCapital
		buyHold[i] = initialBTC * prices[i]
	}

	position := 0
	btcHeld := 0.0
	cash := initialCapital
	for i := 1; i < n; i++ {
		if position == 1 {
			portfolio[i] = btcHeld * prices[i]
		} else {
			portfolio[i] = cash
		}
		if signals[i] == 1 && position == 0 {
			position = 1
			btcHeld = cash / prices[i]
			cash = 0
		} else if signals[i] == -1 && position == 1 {
			position = 0
			cash = btcHeld * prices[i]
			btcHeld = 0
		}
	}
	return portfolio, buyHold
}

// Summarize computes performance metrics from the backtest curves. The
// Sharpe ratio is annualized over 252 trading days, drawdown is measured
// peak to trough, and win rate pairs each buy with the following sell.
func Summarize(prices []float64, signals []int, portfolio, buyHold []float64) Summary {
	var s Summary
	n := len(portfolio)
	if n == 0 {
		return s
	}
	s.InitialValue = portfolio[0]
	s.FinalValue = portfolio[n-1]
	s.BuyHoldFinal = buyHold[n-1]
	s.TotalReturn = (s.FinalValue/s.InitialValue - 1) * 100
	s.BuyHoldReturn = (s.BuyHoldFinal/s.InitialValue - 1) * 100
	s.Outperformance = s.TotalReturn - s.BuyHoldReturn

	for _, sig := range signals {
		if sig != 0 {
			s.Trades++
		}
		if sig == 1 {
			s.BuyTrades++
		} else if sig == -1 {
			s.SellTrades++
		}
	}

	returns := make([]float64, n)
	for i := 1; i < n; i++ {
		if portfolio[i-1] != 0 {
			returns[i] = portfolio[i]/portfolio[i-1] - 1
		}
	}
	mean, std := sampleMeanStd(returns)
	if std > 0 {
		s.SharpeRatio = math.Sqrt(252) * mean / std
	}

	peak := portfolio[0]
	for _, v := range portfolio {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			dd := (peak - v) / peak * 100
			if dd > s.MaxDrawdown {
				s.MaxDrawdown = dd
			}
		}
	}

	var profitTrades, lossTrades int
	var totalProfit, totalLoss float64
	buyPrice := math.NaN()
	for i, sig := range signals {
		if sig == 1 {
			buyPrice = prices[i]
		} else if sig == -1 && !math.IsNaN(buyPrice) {
			pnl := (prices[i]/buyPrice - 1) * 100
			if pnl > 0 {
				profitTrades++
				totalProfit += pnl
			} else {
				lossTrades++
				totalLoss += pnl
			}
			buyPrice = math.NaN()
		}
	}
	s.CompletedTrades = profitTrades + lossTrades
	if s.CompletedTrades > 0 {
		s.WinRate = float64(profitTrades) / float64(s.CompletedTrades) * 100
	}
	if math.Abs(totalLoss) > 0 {
		s.ProfitFactor = math.Abs(totalProfit) / math.Abs(totalLoss)
	} else if totalProfit > 0 {
		s.ProfitFactor = math.Inf(1)
	}
	return s
}

// Evaluate runs the full strategy over the dataset and snapshots the
// latest state into Result.Run. The run's Message is left empty for the
// caller to fill.
func Evaluate(rows []domain.StrategyRow, p Params) (*Result, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("strategy: empty dataset")
	}
	n := len(rows)
	mvrv := make([]float64, n)
	nupl := make([]float64, n)
	closes := make([]float64, n)
	for i, r := range rows {
		mvrv[i] = r.MVRV
		nupl[i] = r.NUPL
		closes[i] = r.Close
	}

	res := &Result{Params: p, Rows: rows}
	res.MVRVZ = ZScores(mvrv, p.MAType, p.MALength, p.ZScoreLookback)
	res.NUPLZ = ZScores(nupl, p.MAType, p.MALength, p.ZScoreLookback)
	res.Combined = Combine(res.MVRVZ, res.NUPLZ, p)
	res.Signals, res.Positions = GenerateSignals(res.Combined, p.LongThreshold, p.ShortThreshold)
	res.Portfolio, res.BuyHold = Backtest(closes, res.Signals, p.InitialCapital)
	res.Summary = Summarize(closes, res.Signals, res.Portfolio, res.BuyHold)

	last := n - 1
	run := domain.StrategyRun{
		ExecutedAt:     rows[last].Date,
		Position:       res.Positions[last],
		BTCPrice:       closes[last],
		MVRVZScore:     finite(res.MVRVZ[last]),
		NUPLZScore:     finite(res.NUPLZ[last]),
		CombinedZScore: finite(res.Combined[last]),
		TotalReturn:    finite(res.Summary.TotalReturn),
		BuyHoldReturn:  finite(res.Summary.BuyHoldReturn),
		Outperformance: finite(res.Summary.Outperformance),
	}
	switch {
	case res.Signals[last] == 1:
		run.Action = domain.ActionLong
		run.State = domain.StateLong
	case res.Signals[last] == -1:
		run.Action = domain.ActionShort
		run.State = domain.StateShort
	case res.Positions[last] == 1:
		run.Action = domain.ActionHold
		run.State = domain.StateHoldBTC
	default:
		run.Action = domain.ActionHold
		run.State = domain.StateHoldFiat
	}
	if n > 30 {
		run.MonthReturn = finite((res.Portfolio[last]/res.Portfolio[n-30] - 1) * 100)
		run.MarketMonthReturn = finite((res.BuyHold[last]/res.BuyHold[n-30] - 1) * 100)
	}
	res.Run = run
	return res, nil
}

// finite zeroes warm-up NaNs and division blowups so runs stay storable
// and serializable.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func sampleMeanStd(values []float64) (float64, float64) {
	if len(values) < 2 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	return mean, math.Sqrt(variance / float64(len(values)-1))
}
