// Package model applies the trained baseline models to feature vectors.
// Models are plain coefficient files produced offline by the training job,
// so prediction here is just a dot product, no fitting at serve time.
package model

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/reaganking/cbb-preds/internal/models"
)

const (
	// MarginModelFile and WinModelFile are the expected filenames inside
	// the models directory.
	MarginModelFile = "baseline_margin.json"
	WinModelFile    = "baseline_win.json"
)

// MarginModel predicts the home scoring margin for each feature vector.
type MarginModel interface {
	PredictMargin(vectors []models.FeatureVector) []float64
}

// WinModel predicts the home win probability for each feature vector.
type WinModel interface {
	PredictProb(vectors []models.FeatureVector) []float64
}

// coefficientFile is the on-disk format shared by both baselines.
type coefficientFile struct {
	Features  []string  `json:"features"`
	Intercept float64   `json:"intercept"`
	Coef      []float64 `json:"coef"`
}

// LinearModel is a least-squares margin baseline.
type LinearModel struct {
	intercept float64
	coef      []float64
}

// PredictMargin returns intercept + coef . x per vector.
func (m *LinearModel) PredictMargin(vectors []models.FeatureVector) []float64 {
	out := make([]float64, len(vectors))
	for i, v := range vectors {
		out[i] = m.intercept + dot(m.coef, v.Values())
	}
	return out
}

// LogisticModel is a logistic-regression win baseline.
type LogisticModel struct {
	intercept float64
	coef      []float64
}

// PredictProb returns sigmoid(intercept + coef . x) per vector.
func (m *LogisticModel) PredictProb(vectors []models.FeatureVector) []float64 {
	out := make([]float64, len(vectors))
	for i, v := range vectors {
		out[i] = sigmoid(m.intercept + dot(m.coef, v.Values()))
	}
	return out
}

// LoadMargin reads the margin baseline from the models directory.
func LoadMargin(modelsDir string) (*LinearModel, error) {
	cf, err := loadCoefficients(filepath.Join(modelsDir, MarginModelFile))
	if err != nil {
		return nil, err
	}
	return &LinearModel{intercept: cf.Intercept, coef: cf.Coef}, nil
}

// LoadWin reads the win-probability baseline from the models directory.
func LoadWin(modelsDir string) (*LogisticModel, error) {
	cf, err := loadCoefficients(filepath.Join(modelsDir, WinModelFile))
	if err != nil {
		return nil, err
	}
	return &LogisticModel{intercept: cf.Intercept, coef: cf.Coef}, nil
}

// loadCoefficients parses a coefficient file and checks it against the
// feature contract. A model trained on a different feature set must fail
// loudly here rather than produce silently shifted predictions.
func loadCoefficients(path string) (*coefficientFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file %s: %w", path, err)
	}
	var cf coefficientFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse model file %s: %w", path, err)
	}

	want := models.FeatureNames
	if len(cf.Coef) != len(want) {
		return nil, fmt.Errorf("model %s has %d coefficients, want %d", path, len(cf.Coef), len(want))
	}
	if len(cf.Features) > 0 {
		if len(cf.Features) != len(want) {
			return nil, fmt.Errorf("model %s lists %d features, want %d", path, len(cf.Features), len(want))
		}
		for i, name := range cf.Features {
			if name != want[i] {
				return nil, fmt.Errorf("model %s feature %d is %q, want %q", path, i, name, want[i])
			}
		}
	}
	for i, c := range cf.Coef {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, fmt.Errorf("model %s coefficient %d is not finite", path, i)
		}
	}
	return &cf, nil
}

// ConstantBaseline predicts a zero margin and an even win probability for
// every game. It stands in when no trained model files exist yet.
type ConstantBaseline struct{}

func (ConstantBaseline) PredictMargin(vectors []models.FeatureVector) []float64 {
	return make([]float64, len(vectors))
}

func (ConstantBaseline) PredictProb(vectors []models.FeatureVector) []float64 {
	out := make([]float64, len(vectors))
	for i := range out {
		out[i] = 0.5
	}
	return out
}

func sigmoid(z float64) float64 {
	if z > 20 {
		return 1.0
	}
	if z < -20 {
		return 0.0
	}
	return 1.0 / (1.0 + math.Exp(-z))
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
