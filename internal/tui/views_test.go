package tui

import (
	"testing"
	"time"

	"chainsight/internal/domain"
)

func TestUpdateSignalRowsNewestFirst(t *testing.T) {
	base := time.Date(2024, 6, 1, 22, 5, 0, 0, time.UTC)
	runs := []domain.StrategyRun{
		{ExecutedAt: base, State: domain.StateHoldFiat, Action: domain.ActionShort, CombinedZScore: -0.5},
		{ExecutedAt: base.AddDate(0, 0, 1), State: domain.StateLong, Action: domain.ActionLong, CombinedZScore: 0.6},
	}

	tbl := updateSignalRows(newSignalsTable(), runs)
	rows := tbl.Rows()
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "2024-06-02" || rows[1][0] != "2024-06-01" {
		t.Fatalf("expected newest first, got %v then %v", rows[0][0], rows[1][0])
	}
	if rows[0][3] != "+0.600" {
		t.Fatalf("unexpected z-score cell: %v", rows[0][3])
	}
}

func TestUpdateMetricRows(t *testing.T) {
	obs := []domain.MetricObservation{
		{Metric: "mvrv", Value: 2.4, Date: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
		{Metric: "hashrate", Value: 6.15e8, Date: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
	}

	tbl := updateMetricRows(newMetricsTable(), obs)
	rows := tbl.Rows()
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "mvrv" || rows[0][1] != "2.4" {
		t.Fatalf("unexpected metric row: %v", rows[0])
	}
	if rows[1][1] != "6.15e+08" {
		t.Fatalf("unexpected value formatting: %v", rows[1][1])
	}
}

func TestFormatChange(t *testing.T) {
	if got := formatChange(1.82); got != "+1.82% ▲" {
		t.Fatalf("unexpected up format: %q", got)
	}
	if got := formatChange(-0.5); got != "-0.50% ▼" {
		t.Fatalf("unexpected down format: %q", got)
	}
	if got := formatChange(0); got != "+0.00%" {
		t.Fatalf("unexpected flat format: %q", got)
	}
}
