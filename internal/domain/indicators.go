package domain

import "time"

// IndicatorRow is one hour of computed technical indicators over the BTC
// hourly candles. Rows are only materialized once every indicator in the
// set has enough history to be defined.
type IndicatorRow struct {
	UnixTimestamp int64     `json:"unix_timestamp"`
	OpenTime      time.Time `json:"open_time"`
	Close         float64   `json:"close"`
	SMA20         float64   `json:"sma_20"`
	EMA12         float64   `json:"ema_12"`
	EMA26         float64   `json:"ema_26"`
	MACD          float64   `json:"macd"`
	MACDSignal    float64   `json:"macd_signal"`
	MACDDiff      float64   `json:"macd_diff"`
	RSI           float64   `json:"rsi"`
	BBHigh        float64   `json:"bb_high"`
	BBLow         float64   `json:"bb_low"`
	BBWidth       float64   `json:"bb_width"`
	StochK        float64   `json:"stoch_k"`
	StochD        float64   `json:"stoch_d"`
	VolumeSMA     float64   `json:"volume_sma"`
	ATR           float64   `json:"atr"`
}
