package domain

import "time"

// Metric describes one bitcoin-data.com daily on-chain series: the API path
// it is fetched from, the JSON field names of its payload, and the refresh
// batch it belongs to. The free tier allows ten requests per hour, so the
// catalog is split into three batches refreshed an hour apart.
type Metric struct {
	Key        string
	Path       string
	DateField  string
	ValueField string
	Batch      int
}

// MetricObservation is one (metric, day, value) reading.
type MetricObservation struct {
	Metric string    `json:"metric"`
	Date   time.Time `json:"date"`
	Value  float64   `json:"value"`
}

// Metrics is the full catalog of tracked on-chain series.
var Metrics = []Metric{
	{Key: "realized_price", Path: "/v1/realized-price", DateField: "theDay", ValueField: "realizedPrice", Batch: 1},
	{Key: "market_price", Path: "/v1/btc-price", DateField: "d", ValueField: "btcPrice", Batch: 1},
	{Key: "mvrv", Path: "/v1/mvrv", DateField: "d", ValueField: "mvrv", Batch: 1},
	{Key: "nupl", Path: "/v1/nupl", DateField: "d", ValueField: "nupl", Batch: 1},
	{Key: "supply_current", Path: "/v1/supply-current", DateField: "theDay", ValueField: "supplyCurrent", Batch: 1},
	{Key: "cdd_90dma", Path: "/v1/cdd-90dma", DateField: "d", ValueField: "cdd90dma", Batch: 1},
	{Key: "etf_flow", Path: "/v1/etf-flow-btc", DateField: "d", ValueField: "etfFlow", Batch: 2},
	{Key: "miner_out_flows", Path: "/v1/out-flows", DateField: "d", ValueField: "outFlows", Batch: 2},
	{Key: "miner_reserves", Path: "/v1/miner-reserves", DateField: "d", ValueField: "reserves", Batch: 2},
	{Key: "nvt_ratio", Path: "/v1/nvt-ratio", DateField: "d", ValueField: "nvtRatio", Batch: 2},
	{Key: "puell_multiple", Path: "/v1/puell-multiple", DateField: "d", ValueField: "puellMultiple", Batch: 2},
	{Key: "reserve_risk", Path: "/v1/reserve-risk", DateField: "d", ValueField: "reserveRisk", Batch: 3},
	{Key: "hashrate", Path: "/v1/hashrate", DateField: "d", ValueField: "hashrate", Batch: 3},
	{Key: "thermo_cap", Path: "/v1/thermo-cap", DateField: "d", ValueField: "thermoCap", Batch: 3},
	{Key: "true_market_mean", Path: "/v1/true-market-mean", DateField: "d", ValueField: "trueMarketMean", Batch: 3},
	{Key: "vocdd", Path: "/v1/vocdd", DateField: "d", ValueField: "vocdd", Batch: 3},
}

// MetricBatchCount is the number of refresh batches the catalog spans.
const MetricBatchCount = 3

// MetricByKey indexes the catalog by metric key.
var MetricByKey map[string]Metric

// MetricKeys lists all catalog keys in catalog order.
var MetricKeys []string

func init() {
	MetricByKey = make(map[string]Metric, len(Metrics))
	MetricKeys = make([]string, 0, len(Metrics))
	for _, m := range Metrics {
		MetricByKey[m.Key] = m
		MetricKeys = append(MetricKeys, m.Key)
	}
}

// MetricBatch returns the catalog entries belonging to the given batch.
func MetricBatch(batch int) []Metric {
	var out []Metric
	for _, m := range Metrics {
		if m.Batch == batch {
			out = append(out, m)
		}
	}
	return out
}
