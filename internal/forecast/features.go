package forecast

import (
	"math"

	"chainsight/internal/strategy"
	"chainsight/internal/ta"
)

// featureNames is the fixed order of the engineered feature vector. Training
// and inference must agree on it, so it is defined once here.
var featureNames = []string{
	"sma7_ratio",
	"sma21_ratio",
	"ema12_ratio",
	"ema26_ratio",
	"macd_norm",
	"macd_signal_norm",
	"macd_diff_norm",
	"bb_width",
	"bb_position",
	"rsi",
	"price_change_1d",
	"price_change_7d",
	"price_change_30d",
	"volatility_7d",
	"volatility_30d",
	"volume_ratio",
	"mvrv_zscore",
	"nupl_zscore",
	"combined_zscore",
	"mvrv_momentum_7d",
	"nupl_momentum_7d",
	"combined_momentum_7d",
	"dist_to_long",
	"dist_to_short",
	"hl_ratio",
	"oc_ratio",
}

// FeatureNames returns the feature vector layout.
func FeatureNames() []string {
	out := make([]string, len(featureNames))
	copy(out, featureNames)
	return out
}

// featureMatrix holds one engineered vector per dataset row; rows below
// warmup stay nil.
type featureMatrix struct {
	vectors [][]float64
}

// buildFeatureMatrix engineers the per-day feature vectors from an evaluated
// strategy result. Index i of the returned matrix corresponds to result row
// i; entries with incomplete inputs are nil.
func buildFeatureMatrix(result *strategy.Result) featureMatrix {
	rows := result.Rows
	n := len(rows)
	vectors := make([][]float64, n)
	if n == 0 {
		return featureMatrix{vectors: vectors}
	}

	closes := make([]float64, n)
	volumes := make([]float64, n)
	for i, r := range rows {
		closes[i] = r.Close
		volumes[i] = r.Volume
	}

	sma7 := ta.SMASeries(closes, 7)
	sma21 := ta.SMASeries(closes, 21)
	ema12 := ta.EMASeries(closes, 12)
	ema26 := ta.EMASeries(closes, 26)
	macd, macdSig := ta.MACDSeries(closes, 12, 26, 9)
	bbMid, bbUp, bbLow := ta.BollingerSeries(closes, 20, 2)
	rsi := ta.RSISeries(closes, 14)
	volSMA := ta.SMASeries(volumes, 20)

	rets := make([]float64, n)
	rets[0] = math.NaN()
	for i := 1; i < n; i++ {
		if closes[i-1] == 0 {
			rets[i] = math.NaN()
			continue
		}
		rets[i] = closes[i]/closes[i-1] - 1
	}
	vol7 := ta.RollingStd(rets, 7)
	vol30 := ta.RollingStd(rets, 30)

	for i := 30; i < n; i++ {
		c := closes[i]
		if c == 0 {
			continue
		}

		v := []float64{
			ratio(c, sma7[i]),
			ratio(c, sma21[i]),
			ratio(c, ema12[i]),
			ratio(c, ema26[i]),
			macd[i] / c,
			macdSig[i] / c,
			(macd[i] - macdSig[i]) / c,
			bbWidth(bbMid[i], bbUp[i], bbLow[i]),
			bbPosition(c, bbUp[i], bbLow[i]),
			rsi[i] / 100,
			change(closes, i, 1),
			change(closes, i, 7),
			change(closes, i, 30),
			vol7[i],
			vol30[i],
			volumeRatio(volumes[i], volSMA[i]),
			result.MVRVZ[i],
			result.NUPLZ[i],
			result.Combined[i],
			momentum(result.MVRVZ, i, 7),
			momentum(result.NUPLZ, i, 7),
			momentum(result.Combined, i, 7),
			result.Params.LongThreshold - result.Combined[i],
			result.Combined[i] - result.Params.ShortThreshold,
			(rows[i].High - rows[i].Low) / c,
			ocRatio(rows[i].Open, c),
		}
		if anyNaN(v) {
			continue
		}
		vectors[i] = v
	}
	return featureMatrix{vectors: vectors}
}

func ratio(value, ma float64) float64 {
	if ma == 0 {
		return math.NaN()
	}
	return value/ma - 1
}

func bbWidth(mid, up, low float64) float64 {
	if mid == 0 {
		return math.NaN()
	}
	return (up - low) / mid
}

func bbPosition(value, up, low float64) float64 {
	if up == low {
		return 0.5
	}
	return (value - low) / (up - low)
}

func change(values []float64, i, lag int) float64 {
	if i < lag || values[i-lag] == 0 {
		return math.NaN()
	}
	return values[i]/values[i-lag] - 1
}

func momentum(values []float64, i, lag int) float64 {
	if i < lag {
		return math.NaN()
	}
	return values[i] - values[i-lag]
}

func volumeRatio(volume, sma float64) float64 {
	if sma == 0 {
		return 1
	}
	return volume / sma
}

func ocRatio(open, close float64) float64 {
	if open == 0 {
		return 0
	}
	return (close - open) / open
}

func anyNaN(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}
	return false
}
