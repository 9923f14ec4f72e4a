package anomaly

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"chainsight/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

type stubRowSource struct {
	rows []domain.StrategyRow
	err  error
}

func (s *stubRowSource) Rows(ctx context.Context) ([]domain.StrategyRow, error) {
	return s.rows, s.err
}

// calmRows generates low-volatility days with drifting metrics. outlierAt
// injects one violent day: a huge return, range, and volume spike.
func calmRows(n, outlierAt int) []domain.StrategyRow {
	rows := make([]domain.StrategyRow, n)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	price := 50000.0
	for i := 0; i < n; i++ {
		drift := 1 + 0.001*math.Sin(float64(i)/3)
		price *= drift
		volume := 1000 + 5*math.Sin(float64(i)/5)
		mvrv := 2.0 + 0.002*float64(i%7)
		nupl := 0.5 + 0.001*float64(i%5)
		if i == outlierAt {
			price *= 1.5
			volume *= 10
			mvrv += 1.0
			nupl += 0.4
		}
		rows[i] = domain.StrategyRow{
			Date:   start.AddDate(0, 0, i),
			Open:   price * 0.999,
			High:   price * 1.002,
			Low:    price * 0.998,
			Close:  price,
			Volume: volume,
			MVRV:   mvrv,
			NUPL:   nupl,
		}
		if i == outlierAt {
			rows[i].High = price * 1.4
			rows[i].Low = price * 0.7
		}
	}
	return rows
}

func TestDetectFlagsInjectedOutlier(t *testing.T) {
	t.Parallel()
	rows := calmRows(120, 60)
	detector := NewDetector(testTracer, &stubRowSource{rows: rows}, 180)

	report, err := detector.Detect(context.Background())
	if err != nil {
		t.Fatalf("detect failed: %v", err)
	}
	if report.Inspected != 119 {
		t.Fatalf("expected 119 inspected days, got %d", report.Inspected)
	}
	if !report.WindowStart.Equal(rows[1].Date) || !report.WindowEnd.Equal(rows[119].Date) {
		t.Fatalf("unexpected window %v..%v", report.WindowStart, report.WindowEnd)
	}

	outlierDate := rows[60].Date
	found := false
	for _, p := range report.Anomalies {
		if p.Date.Equal(outlierDate) {
			found = true
			if p.Score < scoreThreshold {
				t.Fatalf("outlier score below threshold: %.3f", p.Score)
			}
			if p.DailyReturn < 0.3 {
				t.Fatalf("expected outlier daily return above 30%%, got %.3f", p.DailyReturn)
			}
		}
	}
	if !found {
		t.Fatalf("expected outlier day %v in anomalies, got %v", outlierDate, report.Anomalies)
	}
	for i := 1; i < len(report.Anomalies); i++ {
		if report.Anomalies[i].Date.After(report.Anomalies[i-1].Date) {
			t.Fatal("expected anomalies sorted newest first")
		}
	}
}

func TestDetectTrimsToLookback(t *testing.T) {
	t.Parallel()
	rows := calmRows(200, 190)
	detector := NewDetector(testTracer, &stubRowSource{rows: rows}, 90)

	report, err := detector.Detect(context.Background())
	if err != nil {
		t.Fatalf("detect failed: %v", err)
	}
	if report.Inspected != 90 {
		t.Fatalf("expected 90 inspected days, got %d", report.Inspected)
	}
	if !report.WindowStart.Equal(rows[110].Date) {
		t.Fatalf("expected window to start at row 110, got %v", report.WindowStart)
	}
}

func TestDetectSmallDataset(t *testing.T) {
	t.Parallel()
	detector := NewDetector(testTracer, &stubRowSource{rows: calmRows(10, -1)}, 90)
	if _, err := detector.Detect(context.Background()); err == nil {
		t.Fatal("expected error for undersized dataset")
	}
}

func TestDetectSourceError(t *testing.T) {
	t.Parallel()
	detector := NewDetector(testTracer, &stubRowSource{err: errors.New("db down")}, 90)
	if _, err := detector.Detect(context.Background()); err == nil {
		t.Fatal("expected source error to propagate")
	}
}

func TestFeatureVectorGuards(t *testing.T) {
	t.Parallel()
	prev := domain.StrategyRow{Close: 0, Volume: 0, MVRV: 2, NUPL: 0.5}
	cur := domain.StrategyRow{Close: 100, High: 105, Low: 95, Volume: 500, MVRV: 2.5, NUPL: 0.6}

	v := featureVector(prev, cur)
	if v[0] != 0 {
		t.Fatalf("expected zero return for zero previous close, got %v", v[0])
	}
	if v[2] != 1 {
		t.Fatalf("expected neutral volume ratio for zero previous volume, got %v", v[2])
	}
	if math.Abs(v[1]-0.1) > 1e-9 {
		t.Fatalf("expected range 0.1, got %v", v[1])
	}
	if math.Abs(v[3]-0.5) > 1e-9 || math.Abs(v[4]-0.1) > 1e-9 {
		t.Fatalf("unexpected metric deltas: %v", v)
	}
}
