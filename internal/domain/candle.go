package domain

import "time"

// HourlyCandle represents a single hourly OHLCV candle for BTC/USD.
type HourlyCandle struct {
	UnixTimestamp int64     `json:"unix_timestamp"`
	OpenTime      time.Time `json:"open_time"`
	Open          float64   `json:"open"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	Close         float64   `json:"close"`
	VolumeFrom    float64   `json:"volume_from"`
	VolumeTo      float64   `json:"volume_to"`
}

// PriceSnapshot represents the latest BTC price data.
type PriceSnapshot struct {
	PriceUSD        float64 `json:"price_usd"`
	Volume24h       float64 `json:"volume_24h"`
	Change24hPct    float64 `json:"change_24h_pct"`
	LastUpdatedUnix int64   `json:"last_updated_unix"`
}
