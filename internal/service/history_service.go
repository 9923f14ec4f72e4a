package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"chainsight/internal/dataset"
	"chainsight/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

// historyColumns is the canonical column order of the exported CSV.
var historyColumns = []string{"date", "open", "high", "low", "close", "volume", "mvrv", "nupl"}

type StrategyStore interface {
	UpsertRows(ctx context.Context, rows []domain.StrategyRow) error
	AllRows(ctx context.Context) ([]domain.StrategyRow, error)
	RecentRows(ctx context.Context, limit int) ([]domain.StrategyRow, error)
	LatestDate(ctx context.Context) (time.Time, error)
}

// HistoryService serves the daily strategy dataset. The local CSV file is
// the fast read path and seed source; Postgres is the durable store that
// the crawler keeps current. Backup snapshots the store back to the CSV.
type HistoryService struct {
	tracer  trace.Tracer
	repo    StrategyStore
	csvPath string
	saveCSV bool
}

func NewHistoryService(tracer trace.Tracer, repo StrategyStore, csvPath string, saveCSV bool) *HistoryService {
	return &HistoryService{
		tracer:  tracer,
		repo:    repo,
		csvPath: csvPath,
		saveCSV: saveCSV,
	}
}

// History returns the dataset as parsed records for the API. It reads the
// CSV file when present and falls back to the warehouse.
func (s *HistoryService) History(ctx context.Context) ([]dataset.DataPoint, error) {
	_, span := s.tracer.Start(ctx, "history-service.history")
	defer span.End()

	if s.csvPath != "" {
		points, err := dataset.Load(s.csvPath)
		if err == nil {
			return points, nil
		}
		if s.repo == nil {
			return nil, err
		}
		log.Printf("history csv unavailable, using warehouse: %v", err)
	}
	if s.repo == nil {
		return nil, fmt.Errorf("no history source configured")
	}

	rows, err := s.repo.AllRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("load history rows: %w", err)
	}
	return RowsToPoints(rows), nil
}

// Rows returns the typed dataset for the strategy. The warehouse is
// authoritative once populated; the CSV covers cold starts.
func (s *HistoryService) Rows(ctx context.Context) ([]domain.StrategyRow, error) {
	_, span := s.tracer.Start(ctx, "history-service.rows")
	defer span.End()

	if s.repo != nil {
		rows, err := s.repo.AllRows(ctx)
		if err != nil {
			log.Printf("history warehouse read failed: %v", err)
		} else if len(rows) > 0 {
			return rows, nil
		}
	}

	if s.csvPath == "" {
		return nil, fmt.Errorf("no history source configured")
	}
	points, err := dataset.Load(s.csvPath)
	if err != nil {
		return nil, err
	}
	return PointsToRows(points), nil
}

// Bootstrap seeds an empty warehouse from the CSV file. A populated
// warehouse or a missing file are both no-ops.
func (s *HistoryService) Bootstrap(ctx context.Context) error {
	_, span := s.tracer.Start(ctx, "history-service.bootstrap")
	defer span.End()

	if s.repo == nil || s.csvPath == "" {
		return nil
	}

	latest, err := s.repo.LatestDate(ctx)
	if err != nil {
		return fmt.Errorf("check warehouse state: %w", err)
	}
	if !latest.IsZero() {
		return nil
	}

	if _, err := os.Stat(s.csvPath); err != nil {
		log.Printf("no seed csv at %s, starting empty", s.csvPath)
		return nil
	}

	points, err := dataset.Load(s.csvPath)
	if err != nil {
		return err
	}
	rows := PointsToRows(points)
	if len(rows) == 0 {
		return nil
	}

	if err := s.repo.UpsertRows(ctx, rows); err != nil {
		return fmt.Errorf("seed strategy rows: %w", err)
	}
	log.Printf("Seeded %d strategy rows from %s", len(rows), s.csvPath)
	return nil
}

// Backup snapshots the warehouse dataset to the CSV file.
func (s *HistoryService) Backup(ctx context.Context) error {
	_, span := s.tracer.Start(ctx, "history-service.backup")
	defer span.End()

	if s.repo == nil || s.csvPath == "" || !s.saveCSV {
		return nil
	}

	rows, err := s.repo.AllRows(ctx)
	if err != nil {
		return fmt.Errorf("load rows for backup: %w", err)
	}
	if len(rows) == 0 {
		return nil
	}

	if err := dataset.Save(s.csvPath, historyColumns, RowsToPoints(rows)); err != nil {
		return err
	}
	log.Printf("Backed up %d strategy rows to %s", len(rows), s.csvPath)
	return nil
}

// RowsToPoints converts typed rows to the flat record form the API serves.
func RowsToPoints(rows []domain.StrategyRow) []dataset.DataPoint {
	points := make([]dataset.DataPoint, len(rows))
	for i, r := range rows {
		points[i] = dataset.DataPoint{
			dataset.DateKey: r.Date.UTC().Format("2006-01-02"),
			"open":          r.Open,
			"high":          r.High,
			"low":           r.Low,
			"close":         r.Close,
			"volume":        r.Volume,
			"mvrv":          r.MVRV,
			"nupl":          r.NUPL,
		}
	}
	return points
}

// PointsToRows converts parsed records to typed rows. Records whose date
// cannot be parsed are skipped.
func PointsToRows(points []dataset.DataPoint) []domain.StrategyRow {
	rows := make([]domain.StrategyRow, 0, len(points))
	for _, p := range points {
		ts, err := dataset.ParseDate(p.Date())
		if err != nil {
			continue
		}
		rows = append(rows, domain.StrategyRow{
			Date:   ts.UTC(),
			Open:   p.Value("open"),
			High:   p.Value("high"),
			Low:    p.Value("low"),
			Close:  p.Value("close"),
			Volume: p.Value("volume"),
			MVRV:   p.Value("mvrv"),
			NUPL:   p.Value("nupl"),
		})
	}
	return rows
}
