package ta

import "math"

func SMASeries(values []float64, period int) []float64 {
	out := nanSeries(len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// WMASeries weights each window linearly, newest value heaviest.
func WMASeries(values []float64, period int) []float64 {
	out := nanSeries(len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	denom := float64(period*(period+1)) / 2
	for i := period - 1; i < len(values); i++ {
		var sum float64
		for j := 0; j < period; j++ {
			sum += float64(j+1) * values[i-period+1+j]
		}
		out[i] = sum / denom
	}
	return out
}

func DEMASeries(values []float64, period int) []float64 {
	if len(values) == 0 {
		return nil
	}
	ema1 := EMASeries(values, period)
	ema2 := EMASeries(ema1, period)
	out := make([]float64, len(values))
	for i := range values {
		out[i] = 2*ema1[i] - ema2[i]
	}
	return out
}

// RollingStd is the sample standard deviation over a trailing window.
func RollingStd(values []float64, window int) []float64 {
	out := nanSeries(len(values))
	if window <= 1 || len(values) < window {
		return out
	}
	for i := window - 1; i < len(values); i++ {
		slice := values[i-window+1 : i+1]
		var sum float64
		for _, v := range slice {
			sum += v
		}
		mean := sum / float64(window)
		var variance float64
		for _, v := range slice {
			d := v - mean
			variance += d * d
		}
		out[i] = math.Sqrt(variance / float64(window-1))
	}
	return out
}

// ZScoreSeries measures each value's distance from its moving average in
// units of rolling standard deviation. Entries where either input is NaN,
// or the deviation is zero, stay NaN.
func ZScoreSeries(values, ma, std []float64) []float64 {
	out := nanSeries(len(values))
	for i := range values {
		if math.IsNaN(ma[i]) || math.IsNaN(std[i]) || std[i] == 0 {
			continue
		}
		out[i] = (values[i] - ma[i]) / std[i]
	}
	return out
}

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
