// Package anomaly flags unusual market days with an isolation forest fit
// over day-over-day dataset features.
package anomaly

import (
	"context"
	"fmt"
	"sort"
	"time"

	"chainsight/internal/domain"

	iforest "github.com/narumiruna/go-iforest"
	"go.opentelemetry.io/otel/trace"
)

const (
	// scoreThreshold is the usual isolation forest cutoff: scores near 1
	// mean a point isolates in very few splits, average points sit near 0.5.
	scoreThreshold = 0.6
	minRows        = 30
)

type RowSource interface {
	Rows(ctx context.Context) ([]domain.StrategyRow, error)
}

// Point is one flagged day together with the features that isolated it.
type Point struct {
	Date        time.Time `json:"date"`
	Score       float64   `json:"score"`
	DailyReturn float64   `json:"daily_return"`
	Range       float64   `json:"range"`
	VolumeRatio float64   `json:"volume_ratio"`
	MVRVDelta   float64   `json:"mvrv_delta"`
	NUPLDelta   float64   `json:"nupl_delta"`
}

// Report lists the anomalous days inside the inspected window, newest
// first.
type Report struct {
	GeneratedAt time.Time `json:"generated_at"`
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
	Inspected   int       `json:"inspected"`
	Threshold   float64   `json:"threshold"`
	Anomalies   []Point   `json:"anomalies"`
}

type Detector struct {
	tracer   trace.Tracer
	source   RowSource
	lookback int
}

func NewDetector(tracer trace.Tracer, source RowSource, lookbackDays int) *Detector {
	if lookbackDays <= 0 {
		lookbackDays = 180
	}
	return &Detector{tracer: tracer, source: source, lookback: lookbackDays}
}

// Detect fits a fresh forest on the trailing window and reports the days
// whose anomaly score clears the threshold.
func (d *Detector) Detect(ctx context.Context) (*Report, error) {
	_, span := d.tracer.Start(ctx, "anomaly-detector.detect")
	defer span.End()

	rows, err := d.source.Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	if len(rows) < minRows+1 {
		return nil, fmt.Errorf("dataset too small for anomaly detection: %d rows, need %d", len(rows), minRows+1)
	}
	if len(rows) > d.lookback+1 {
		rows = rows[len(rows)-d.lookback-1:]
	}

	features := make([][]float64, 0, len(rows)-1)
	dates := make([]time.Time, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		features = append(features, featureVector(rows[i-1], rows[i]))
		dates = append(dates, rows[i].Date)
	}

	forest := iforest.New()
	forest.Fit(features)
	scores := forest.Score(features)

	report := &Report{
		GeneratedAt: time.Now().UTC(),
		WindowStart: dates[0],
		WindowEnd:   dates[len(dates)-1],
		Inspected:   len(features),
		Threshold:   scoreThreshold,
	}
	for i, score := range scores {
		if score < scoreThreshold {
			continue
		}
		v := features[i]
		report.Anomalies = append(report.Anomalies, Point{
			Date:        dates[i],
			Score:       score,
			DailyReturn: v[0],
			Range:       v[1],
			VolumeRatio: v[2],
			MVRVDelta:   v[3],
			NUPLDelta:   v[4],
		})
	}
	sort.Slice(report.Anomalies, func(i, j int) bool {
		return report.Anomalies[i].Date.After(report.Anomalies[j].Date)
	})
	return report, nil
}

// featureVector captures how a day deviates from the one before it: price
// return, candle range, volume spike, and valuation metric jumps.
func featureVector(prev, cur domain.StrategyRow) []float64 {
	ret := 0.0
	if prev.Close != 0 {
		ret = cur.Close/prev.Close - 1
	}
	rng := 0.0
	if cur.Close != 0 {
		rng = (cur.High - cur.Low) / cur.Close
	}
	volRatio := 1.0
	if prev.Volume != 0 {
		volRatio = cur.Volume / prev.Volume
	}
	return []float64{ret, rng, volRatio, cur.MVRV - prev.MVRV, cur.NUPL - prev.NUPL}
}
