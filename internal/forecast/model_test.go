package forecast

import (
	"testing"
)

func TestTrainPredictAndRoundTrip(t *testing.T) {
	samples, labels := dataset()
	model, err := TrainModel(samples, labels, []string{"x1", "x2"}, DefaultTrainOptions())
	if err != nil {
		t.Fatalf("train failed: %v", err)
	}

	checks := []struct {
		sample []float64
		want   int
	}{
		{[]float64{-2.5, -2.5}, 0},
		{[]float64{0.5, 0.5}, 1},
		{[]float64{2.5, 2.5}, 2},
	}
	for _, c := range checks {
		class, dist := model.PredictClass(c.sample)
		if class != c.want {
			t.Fatalf("expected class %d for %v, got %d (dist %v)", c.want, c.sample, class, dist)
		}
		for label, p := range dist {
			if p < 0 || p > 1 {
				t.Fatalf("probability for class %d out of range: %.4f", label, p)
			}
		}
	}

	blob, err := model.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	restored, err := UnmarshalBinary(blob)
	if err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	class, _ := restored.PredictClass([]float64{2.5, 2.5})
	if class != 2 {
		t.Fatalf("expected roundtrip prediction 2, got %d", class)
	}
}

func TestTrainRejectsSingleClass(t *testing.T) {
	samples := [][]float64{{1, 2}, {3, 4}, {5, 6}}
	labels := []int{1, 1, 1}
	if _, err := TrainModel(samples, labels, []string{"x1", "x2"}, DefaultTrainOptions()); err == nil {
		t.Fatal("expected error for single-class dataset")
	}
}

func TestTrainRejectsEmptyDataset(t *testing.T) {
	if _, err := TrainModel(nil, nil, nil, DefaultTrainOptions()); err == nil {
		t.Fatal("expected error for empty dataset")
	}
	if _, err := TrainModel([][]float64{{1}}, []int{0, 1}, nil, DefaultTrainOptions()); err == nil {
		t.Fatal("expected error for mismatched samples and labels")
	}
}

func dataset() ([][]float64, []int) {
	samples := make([][]float64, 0, 180)
	labels := make([]int, 0, 180)
	for i := 0; i < 60; i++ {
		samples = append(samples, []float64{-3.0 + float64(i)/90.0, -3.0 + float64(i)/120.0})
		labels = append(labels, 0)
	}
	for i := 0; i < 60; i++ {
		samples = append(samples, []float64{0.0 + float64(i)/90.0, 0.0 + float64(i)/110.0})
		labels = append(labels, 1)
	}
	for i := 0; i < 60; i++ {
		samples = append(samples, []float64{2.0 + float64(i)/90.0, 2.0 + float64(i)/110.0})
		labels = append(labels, 2)
	}
	return samples, labels
}
