// Package forecast trains a gradient-boosted classifier that estimates how
// soon the z-score strategy will flip to its next sell signal, bucketed
// into sell-window classes derived from the configured horizon.
package forecast

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"chainsight/internal/domain"
	"chainsight/internal/strategy"

	"go.opentelemetry.io/otel/trace"
)

type RowSource interface {
	Rows(ctx context.Context) ([]domain.StrategyRow, error)
}

// Forecast is one sell-window prediction for the newest dataset row.
type Forecast struct {
	AsOf          time.Time          `json:"as_of"`
	GeneratedAt   time.Time          `json:"generated_at"`
	Class         int                `json:"class"`
	Label         string             `json:"label"`
	Probabilities map[string]float64 `json:"probabilities"`
	TrainedAt     time.Time          `json:"trained_at"`
}

// TrainStats summarizes one training pass.
type TrainStats struct {
	Samples      int         `json:"samples"`
	ClassCounts  map[int]int `json:"class_counts"`
	TrainedAt    time.Time   `json:"trained_at"`
	DatasetRows  int         `json:"dataset_rows"`
	FeatureCount int         `json:"feature_count"`
}

// Forecaster owns the trained model and retrains it from the daily dataset.
type Forecaster struct {
	tracer  trace.Tracer
	source  RowSource
	params  strategy.Params
	horizon int
	minRows int

	mu        sync.RWMutex
	model     *Model
	trainedAt time.Time
}

func NewForecaster(tracer trace.Tracer, source RowSource, params strategy.Params, horizonDays, minRows int) *Forecaster {
	if horizonDays <= 0 {
		horizonDays = 30
	}
	if minRows <= 0 {
		minRows = 200
	}
	return &Forecaster{
		tracer:  tracer,
		source:  source,
		params:  params,
		horizon: horizonDays,
		minRows: minRows,
	}
}

// bucketEdges derives the sell-window class boundaries from the horizon:
// class 0 up to horizon/4 days, class 1 up to horizon, class 2 up to three
// horizons, class 3 beyond.
func (f *Forecaster) bucketEdges() (int, int, int) {
	b0 := f.horizon / 4
	if b0 < 1 {
		b0 = 1
	}
	return b0, f.horizon, 3 * f.horizon
}

func (f *Forecaster) classLabel(class int) string {
	b0, b1, b2 := f.bucketEdges()
	switch class {
	case 0:
		return fmt.Sprintf("sell within %d days", b0)
	case 1:
		return fmt.Sprintf("sell within %d days", b1)
	case 2:
		return fmt.Sprintf("sell within %d days", b2)
	default:
		return fmt.Sprintf("no sell within %d days", b2)
	}
}

// Train rebuilds the model from the full dataset.
func (f *Forecaster) Train(ctx context.Context) (*TrainStats, error) {
	_, span := f.tracer.Start(ctx, "forecaster.train")
	defer span.End()

	rows, err := f.source.Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	if len(rows) < f.minRows {
		return nil, fmt.Errorf("dataset too small: %d rows, need %d", len(rows), f.minRows)
	}

	result, err := strategy.Evaluate(rows, f.params)
	if err != nil {
		return nil, err
	}

	samples, labels := f.buildTrainingSet(result)
	if len(samples) == 0 {
		return nil, fmt.Errorf("no trainable samples past feature warmup")
	}

	model, err := TrainModel(samples, labels, FeatureNames(), DefaultTrainOptions())
	if err != nil {
		return nil, err
	}

	counts := make(map[int]int)
	for _, l := range labels {
		counts[l]++
	}
	trainedAt := time.Now().UTC()

	f.mu.Lock()
	f.model = model
	f.trainedAt = trainedAt
	f.mu.Unlock()

	log.Printf("Forecast model trained on %d samples across %d classes", len(samples), len(counts))
	return &TrainStats{
		Samples:      len(samples),
		ClassCounts:  counts,
		TrainedAt:    trainedAt,
		DatasetRows:  len(rows),
		FeatureCount: len(featureNames),
	}, nil
}

// Predict classifies the newest dataset row. Train must have succeeded
// first.
func (f *Forecaster) Predict(ctx context.Context) (*Forecast, error) {
	_, span := f.tracer.Start(ctx, "forecaster.predict")
	defer span.End()

	f.mu.RLock()
	model := f.model
	trainedAt := f.trainedAt
	f.mu.RUnlock()
	if model == nil {
		return nil, fmt.Errorf("forecast model not trained yet")
	}

	rows, err := f.source.Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	result, err := strategy.Evaluate(rows, f.params)
	if err != nil {
		return nil, err
	}

	matrix := buildFeatureMatrix(result)
	var sample []float64
	var asOf time.Time
	for i := len(matrix.vectors) - 1; i >= 0; i-- {
		if matrix.vectors[i] != nil {
			sample = matrix.vectors[i]
			asOf = result.Rows[i].Date
			break
		}
	}
	if sample == nil {
		return nil, fmt.Errorf("no complete feature vector in dataset")
	}

	class, dist := model.PredictClass(sample)
	probs := make(map[string]float64, len(dist))
	for label, p := range dist {
		probs[f.classLabel(label)] = p
	}

	return &Forecast{
		AsOf:          asOf,
		GeneratedAt:   time.Now().UTC(),
		Class:         class,
		Label:         f.classLabel(class),
		Probabilities: probs,
		TrainedAt:     trainedAt,
	}, nil
}

// Trained reports whether a model is available.
func (f *Forecaster) Trained() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.model != nil
}

// buildTrainingSet pairs feature vectors with sell-window labels. The label
// of row i is the bucket of the distance to the next sell signal after i.
// Rows whose observation window ends before the last bucket edge without a
// sell are censored and skipped.
func (f *Forecaster) buildTrainingSet(result *strategy.Result) ([][]float64, []int) {
	matrix := buildFeatureMatrix(result)
	b0, b1, b2 := f.bucketEdges()
	n := len(result.Rows)

	var samples [][]float64
	var labels []int
	for i, vec := range matrix.vectors {
		if vec == nil {
			continue
		}
		daysToSell := -1
		for j := i + 1; j < n; j++ {
			if result.Signals[j] == -1 {
				daysToSell = j - i
				break
			}
		}

		var label int
		switch {
		case daysToSell < 0:
			if n-1-i < b2 {
				continue
			}
			label = 3
		case daysToSell <= b0:
			label = 0
		case daysToSell <= b1:
			label = 1
		case daysToSell <= b2:
			label = 2
		default:
			label = 3
		}
		samples = append(samples, vec)
		labels = append(labels, label)
	}
	return samples, labels
}
