package domain

import "time"

// StrategyRow is one daily row of the on-chain strategy dataset: BTC OHLCV
// plus the MVRV and NUPL valuation metrics used by the z-score strategy.
type StrategyRow struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
	MVRV   float64   `json:"mvrv"`
	NUPL   float64   `json:"nupl"`
}

type SignalAction string

const (
	ActionLong  SignalAction = "long"
	ActionShort SignalAction = "short"
	ActionHold  SignalAction = "hold"
)

// Position states reported by the strategy. HOLD states carry what is
// currently held rather than an action to take.
const (
	StateLong     = "LONG"
	StateShort    = "SHORT"
	StateHoldBTC  = "HOLD BTC"
	StateHoldFiat = "HOLD FIAT"
)

// StrategyRun records the outcome of one daily strategy evaluation,
// upserted by execution date.
type StrategyRun struct {
	ExecutedAt        time.Time    `json:"executed_at"`
	Action            SignalAction `json:"action"`
	State             string       `json:"state"`
	Position          int          `json:"position"`
	BTCPrice          float64      `json:"btc_price"`
	MVRVZScore        float64      `json:"mvrv_zscore"`
	NUPLZScore        float64      `json:"nupl_zscore"`
	CombinedZScore    float64      `json:"combined_zscore"`
	TotalReturn       float64      `json:"total_return"`
	BuyHoldReturn     float64      `json:"buy_hold_return"`
	Outperformance    float64      `json:"outperformance"`
	MonthReturn       float64      `json:"month_return"`
	MarketMonthReturn float64      `json:"market_month_return"`
	Message           string       `json:"message"`
}

type ConversationMessage struct {
	Role      string
	Content   string
	CreatedAt time.Time
}

// FearGreed is one reading of the alternative.me Fear & Greed index.
type FearGreed struct {
	Value     int       `json:"value"`
	Label     string    `json:"label"`
	Timestamp time.Time `json:"timestamp"`
}

// ClassifyFearGreed maps an index value onto its sentiment band.
func ClassifyFearGreed(value int) string {
	switch {
	case value >= 75:
		return "Extreme Greed"
	case value >= 51:
		return "Greed"
	case value == 50:
		return "Neutral"
	case value >= 25:
		return "Fear"
	default:
		return "Extreme Fear"
	}
}
