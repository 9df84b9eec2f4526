package sentimiento

import (
	"errors"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/diff/fd"
)

func TestLogisticRegressionFit(t *testing.T) {
	lr := NewLogisticRegression(DefaultLogisticConfig())
	vec, corpus := fitSynthetic(t, lr)

	if lr.NumFeatures() != vec.NumFeatures() {
		t.Fatalf("NumFeatures = %d, want %d", lr.NumFeatures(), vec.NumFeatures())
	}

	X, _ := vec.Transform(corpus.Texts())
	pred, err := Predict(lr, X)
	if err != nil {
		t.Fatal(err)
	}
	if acc := accuracy(corpus.Labels(), pred); acc < 0.95 {
		t.Errorf("training accuracy %v, want at least 0.95", acc)
	}

	for _, x := range X[:10] {
		d, err := lr.PredictProba(x)
		if err != nil {
			t.Fatal(err)
		}
		checkSimplex(t, d)
	}

	w, err := lr.FeatureWeights(Negativo)
	if err != nil {
		t.Fatal(err)
	}
	if w[vec.Vocabulary["pesimo"]] <= 0 {
		t.Errorf("weight(pesimo) for negativo = %v, want positive", w[vec.Vocabulary["pesimo"]])
	}
}

func TestLogisticRegressionUnfitted(t *testing.T) {
	lr := NewLogisticRegression(DefaultLogisticConfig())
	if _, err := lr.PredictProba(SparseVector{}); !errors.Is(err, ErrUnfitted) {
		t.Errorf("PredictProba error = %v, want ErrUnfitted", err)
	}
}

func TestLogisticConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*LogisticConfig)
		ok   bool
	}{
		{"defaults", func(*LogisticConfig) {}, true},
		{"zero C", func(c *LogisticConfig) { c.C = 0 }, false},
		{"no iterations", func(c *LogisticConfig) { c.MaxIterations = 0 }, false},
		{"negative threshold", func(c *LogisticConfig) { c.GradientThreshold = -1 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultLogisticConfig()
			tt.mod(&cfg)
			err := cfg.Validate()
			if tt.ok && err != nil {
				t.Errorf("Validate: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestSampleWeights(t *testing.T) {
	y := []Label{Negativo, Negativo, Negativo, Positivo}

	balanced := sampleWeights(y, true)
	want := []float64{4.0 / 6, 4.0 / 6, 4.0 / 6, 2}
	for i := range want {
		if !approxEqual(balanced[i], want[i], 1e-12) {
			t.Errorf("balanced weight %d = %v, want %v", i, balanced[i], want[i])
		}
	}

	for i, w := range sampleWeights(y, false) {
		if w != 1 {
			t.Errorf("unbalanced weight %d = %v, want 1", i, w)
		}
	}
}

func TestLogisticObjectiveGradient(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	const dim = 5

	var X []SparseVector
	var y []Label
	for i := 0; i < 12; i++ {
		X = append(X, SparseVector{
			Indices: []int{i % dim, (i + 2) % dim},
			Values:  []float64{rnd.Float64(), rnd.Float64()},
		})
		y = append(y, Labels[i%NumLabels])
	}
	// Put indices in ascending order.
	for i := range X {
		if X[i].Indices[0] > X[i].Indices[1] {
			X[i].Indices[0], X[i].Indices[1] = X[i].Indices[1], X[i].Indices[0]
			X[i].Values[0], X[i].Values[1] = X[i].Values[1], X[i].Values[0]
		}
	}

	weights := sampleWeights(y, true)
	obj := &logisticObjective{X: X, y: y, weights: weights, dim: dim, c: 0.5}
	for _, w := range weights {
		obj.total += w
	}

	params := make([]float64, NumLabels*(dim+1))
	for i := range params {
		params[i] = rnd.NormFloat64()
	}

	analytic := make([]float64, len(params))
	obj.eval(params, analytic)
	numeric := fd.Gradient(nil, func(p []float64) float64 { return obj.eval(p, nil) }, params, &fd.Settings{Formula: fd.Central})

	for i := range analytic {
		if !approxEqual(analytic[i], numeric[i], 1e-6) {
			t.Errorf("gradient[%d] = %v, numeric %v", i, analytic[i], numeric[i])
		}
	}
}
