package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"chainsight/internal/domain"
)

const historyCSV = `date,open,high,low,close,volume,mvrv,nupl
2024-01-01,42000,42500,41800,42200,1000,2.1,0.55
2024-01-02,42200,43000,42100,42900,1100,2.2,0.57
`

func writeHistoryCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "btc_data.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func TestHistoryServiceHistoryFromCSV(t *testing.T) {
	t.Parallel()

	path := writeHistoryCSV(t, historyCSV)
	svc := NewHistoryService(testTracer, nil, path, false)

	points, err := svc.History(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("expected 2 records, got %d", len(points))
	}
	if points[0].Date() != "2024-01-01" {
		t.Fatalf("expected ascending order, got first date %s", points[0].Date())
	}
	if points[1].Value("close") != 42900 {
		t.Fatalf("unexpected close: %v", points[1].Value("close"))
	}
}

func TestHistoryServiceHistoryFallsBackToWarehouse(t *testing.T) {
	t.Parallel()

	repo := &mockStrategyStore{
		rows: []domain.StrategyRow{
			{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Close: 42200, MVRV: 2.1, NUPL: 0.55},
		},
	}
	missing := filepath.Join(t.TempDir(), "nope.csv")
	svc := NewHistoryService(testTracer, repo, missing, false)

	points, err := svc.History(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 1 {
		t.Fatalf("expected 1 record, got %d", len(points))
	}
	if points[0].Date() != "2024-01-01" || points[0].Value("mvrv") != 2.1 {
		t.Fatalf("unexpected record: %+v", points[0])
	}
}

func TestHistoryServiceHistoryNoSources(t *testing.T) {
	t.Parallel()

	svc := NewHistoryService(testTracer, nil, filepath.Join(t.TempDir(), "nope.csv"), false)
	if _, err := svc.History(context.Background()); err == nil {
		t.Fatal("expected error when csv missing and no warehouse")
	}
}

func TestHistoryServiceRowsPrefersWarehouse(t *testing.T) {
	t.Parallel()

	repo := &mockStrategyStore{
		rows: []domain.StrategyRow{
			{Date: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), Close: 50000},
		},
	}
	path := writeHistoryCSV(t, historyCSV)
	svc := NewHistoryService(testTracer, repo, path, false)

	rows, err := svc.Rows(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].Close != 50000 {
		t.Fatalf("expected warehouse rows, got %+v", rows)
	}
}

func TestHistoryServiceRowsCSVFallback(t *testing.T) {
	t.Parallel()

	repo := &mockStrategyStore{allErr: errors.New("db down")}
	path := writeHistoryCSV(t, historyCSV)
	svc := NewHistoryService(testTracer, repo, path, false)

	rows, err := svc.Rows(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 csv rows, got %d", len(rows))
	}
	if rows[0].Open != 42000 || rows[1].NUPL != 0.57 {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestHistoryServiceBootstrapSeedsEmptyWarehouse(t *testing.T) {
	t.Parallel()

	repo := &mockStrategyStore{}
	path := writeHistoryCSV(t, historyCSV)
	svc := NewHistoryService(testTracer, repo, path, false)

	if err := svc.Bootstrap(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.upsertCalls != 1 || len(repo.upserted) != 2 {
		t.Fatalf("expected seed upsert of 2 rows, got %d calls %d rows", repo.upsertCalls, len(repo.upserted))
	}
}

func TestHistoryServiceBootstrapSkipsPopulatedWarehouse(t *testing.T) {
	t.Parallel()

	repo := &mockStrategyStore{
		latest: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	}
	path := writeHistoryCSV(t, historyCSV)
	svc := NewHistoryService(testTracer, repo, path, false)

	if err := svc.Bootstrap(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.upsertCalls != 0 {
		t.Fatalf("expected no seed, got %d upserts", repo.upsertCalls)
	}
}

func TestHistoryServiceBootstrapMissingCSV(t *testing.T) {
	t.Parallel()

	repo := &mockStrategyStore{}
	svc := NewHistoryService(testTracer, repo, filepath.Join(t.TempDir(), "nope.csv"), false)

	if err := svc.Bootstrap(context.Background()); err != nil {
		t.Fatalf("missing seed csv should not be an error: %v", err)
	}
	if repo.upsertCalls != 0 {
		t.Fatalf("expected no seed, got %d upserts", repo.upsertCalls)
	}
}

func TestHistoryServiceBackupWritesCSV(t *testing.T) {
	t.Parallel()

	repo := &mockStrategyStore{
		rows: []domain.StrategyRow{
			{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10, MVRV: 2, NUPL: 0.5},
		},
	}
	path := filepath.Join(t.TempDir(), "backup.csv")
	svc := NewHistoryService(testTracer, repo, path, true)

	if err := svc.Backup(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("backup file not written: %v", err)
	}
	want := "date,open,high,low,close,volume,mvrv,nupl\n2024-01-01,1,2,0.5,1.5,10,2,0.5\n"
	if string(raw) != want {
		t.Fatalf("unexpected backup content:\n%s", raw)
	}
}

func TestHistoryServiceBackupDisabled(t *testing.T) {
	t.Parallel()

	repo := &mockStrategyStore{
		rows: []domain.StrategyRow{{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}},
	}
	path := filepath.Join(t.TempDir(), "backup.csv")
	svc := NewHistoryService(testTracer, repo, path, false)

	if err := svc.Backup(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("backup should not run when disabled")
	}
}

func TestPointsToRowsRoundTrip(t *testing.T) {
	t.Parallel()

	rows := []domain.StrategyRow{
		{Date: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 3, MVRV: 2.5, NUPL: 0.6},
	}
	back := PointsToRows(RowsToPoints(rows))
	if len(back) != 1 {
		t.Fatalf("expected 1 row, got %d", len(back))
	}
	if !back[0].Date.Equal(rows[0].Date) || back[0].MVRV != 2.5 || back[0].Close != 1.5 {
		t.Fatalf("round trip mismatch: %+v", back[0])
	}
}

type mockStrategyStore struct {
	rows   []domain.StrategyRow
	allErr error
	latest time.Time

	upserted    []domain.StrategyRow
	upsertCalls int
	upsertErr   error
}

func (m *mockStrategyStore) UpsertRows(ctx context.Context, rows []domain.StrategyRow) error {
	m.upsertCalls++
	m.upserted = rows
	return m.upsertErr
}

func (m *mockStrategyStore) AllRows(ctx context.Context) ([]domain.StrategyRow, error) {
	if m.allErr != nil {
		return nil, m.allErr
	}
	return m.rows, nil
}

func (m *mockStrategyStore) RecentRows(ctx context.Context, limit int) ([]domain.StrategyRow, error) {
	if m.allErr != nil {
		return nil, m.allErr
	}
	if limit < len(m.rows) {
		return m.rows[len(m.rows)-limit:], nil
	}
	return m.rows, nil
}

func (m *mockStrategyStore) LatestDate(ctx context.Context) (time.Time, error) {
	return m.latest, nil
}
