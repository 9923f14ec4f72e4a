package forecast

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"math"

	"github.com/rmera/boo"
	"github.com/rmera/boo/utils"
)

type TrainOptions struct {
	Rounds       int
	LearningRate float64
	MaxDepth     int
}

type artifact struct {
	FeatureNames []string `json:"feature_names"`
	ModelText    string   `json:"model_text"`
}

func DefaultTrainOptions() TrainOptions {
	return TrainOptions{
		Rounds:       50,
		LearningRate: 0.1,
		MaxDepth:     4,
	}
}

// Model is a gradient-boosted multi-class classifier over sell-window
// buckets.
type Model struct {
	featureNames []string
	boost        *boo.MultiClass
}

// TrainModel fits the booster on the labeled samples. At least two distinct
// classes must be present.
func TrainModel(samples [][]float64, labels []int, names []string, opts TrainOptions) (*Model, error) {
	if len(samples) == 0 || len(samples) != len(labels) {
		return nil, errors.New("invalid training dataset")
	}
	if len(samples[0]) == 0 {
		return nil, errors.New("empty feature vectors")
	}
	classSet := make(map[int]struct{})
	for _, l := range labels {
		classSet[l] = struct{}{}
	}
	if len(classSet) < 2 {
		return nil, errors.New("training requires at least two classes")
	}
	if len(names) != len(samples[0]) {
		names = make([]string, len(samples[0]))
		for i := range names {
			names[i] = "f"
		}
	}
	if opts.Rounds <= 0 {
		opts.Rounds = DefaultTrainOptions().Rounds
	}
	if opts.LearningRate <= 0 {
		opts.LearningRate = DefaultTrainOptions().LearningRate
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultTrainOptions().MaxDepth
	}

	o := boo.DefaultXOptions()
	o.Rounds = opts.Rounds
	o.LearningRate = opts.LearningRate
	o.MaxDepth = opts.MaxDepth
	o.Verbose = false
	o.EarlyStop = 0

	data := &utils.DataBunch{
		Data:   samples,
		Labels: labels,
		Keys:   names,
	}
	model := boo.NewMultiClass(data, o)
	if model == nil {
		return nil, errors.New("failed to train model")
	}
	return &Model{featureNames: append([]string(nil), names...), boost: model}, nil
}

// PredictClass returns the most likely class and the probability per
// observed class label.
func (m *Model) PredictClass(sample []float64) (int, map[int]float64) {
	if m == nil || m.boost == nil {
		return 0, nil
	}
	probs := m.boost.PredictSingle(sample)
	labels := m.boost.ClassLabels()

	dist := make(map[int]float64, len(labels))
	best := 0
	bestProb := math.Inf(-1)
	for i, label := range labels {
		if i >= len(probs) {
			break
		}
		p := probs[i]
		if math.IsNaN(p) {
			p = 0
		}
		dist[label] = p
		if p > bestProb {
			bestProb = p
			best = label
		}
	}
	return best, dist
}

func (m *Model) MarshalBinary() ([]byte, error) {
	if m == nil || m.boost == nil {
		return nil, errors.New("nil model")
	}
	var buf bytes.Buffer
	if err := boo.JSONMultiClass(m.boost, "softmax", &buf); err != nil {
		return nil, err
	}
	return json.Marshal(artifact{
		FeatureNames: m.featureNames,
		ModelText:    buf.String(),
	})
}

func UnmarshalBinary(blob []byte) (*Model, error) {
	if len(blob) == 0 {
		return nil, errors.New("empty artifact")
	}
	var a artifact
	if err := json.Unmarshal(blob, &a); err != nil {
		return nil, err
	}
	reader := bufio.NewReader(bytes.NewReader([]byte(a.ModelText)))
	model, err := boo.UnJSONMultiClass(reader)
	if err != nil {
		return nil, err
	}
	return &Model{featureNames: append([]string(nil), a.FeatureNames...), boost: model}, nil
}

func (m *Model) FeatureNames() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.featureNames))
	copy(out, m.featureNames)
	return out
}
