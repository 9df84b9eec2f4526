package sentimiento

import (
	"errors"
	"testing"
)

type fixedClassifier struct {
	d   Distribution
	n   int
	err error
}

func (f fixedClassifier) Fit([]SparseVector, []Label, int) error { return f.err }
func (f fixedClassifier) PredictProba(SparseVector) (Distribution, error) {
	return f.d, f.err
}
func (f fixedClassifier) NumFeatures() int { return f.n }
func (f fixedClassifier) FeatureWeights(Label) ([]float64, error) {
	return make([]float64, f.n), f.err
}
func (f fixedClassifier) Name() string { return "fixed" }

func TestSoftVotingAverages(t *testing.T) {
	sv := NewSoftVoting(
		fixedClassifier{d: Distribution{0.6, 0.3, 0.1}, n: 4},
		fixedClassifier{d: Distribution{0.2, 0.3, 0.5}, n: 4},
	)
	d, err := sv.PredictProba(SparseVector{})
	if err != nil {
		t.Fatal(err)
	}
	want := Distribution{0.4, 0.3, 0.3}
	for k := range want {
		if !approxEqual(d[k], want[k], 1e-12) {
			t.Fatalf("PredictProba = %v, want %v", d, want)
		}
	}
	if sv.NumFeatures() != 4 {
		t.Errorf("NumFeatures = %d, want 4", sv.NumFeatures())
	}
}

func TestSoftVotingMembers(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name    string
		sv      *SoftVoting
		wantErr error
		nfeat   int
	}{
		{"no members", NewSoftVoting(), ErrUnfitted, 0},
		{"failing member", NewSoftVoting(fixedClassifier{n: 2}, fixedClassifier{n: 2, err: boom}), boom, 2},
		{"disagreeing members", NewSoftVoting(fixedClassifier{n: 2}, fixedClassifier{n: 3}), nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sv.NumFeatures(); got != tt.nfeat {
				t.Errorf("NumFeatures = %d, want %d", got, tt.nfeat)
			}
			_, err := tt.sv.PredictProba(SparseVector{})
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("PredictProba error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSoftVotingFit(t *testing.T) {
	sv := NewSoftVoting(NewComplementNB(0.1), NewLogisticRegression(DefaultLogisticConfig()))
	vec, corpus := fitSynthetic(t, sv)
	if sv.NumFeatures() != vec.NumFeatures() {
		t.Fatalf("NumFeatures = %d, want %d", sv.NumFeatures(), vec.NumFeatures())
	}

	X, _ := vec.Transform(corpus.Texts())
	pred, err := Predict(sv, X)
	if err != nil {
		t.Fatal(err)
	}
	if acc := accuracy(corpus.Labels(), pred); acc < 0.95 {
		t.Errorf("training accuracy %v, want at least 0.95", acc)
	}

	w, err := sv.FeatureWeights(Positivo)
	if err != nil {
		t.Fatal(err)
	}
	if len(w) != vec.NumFeatures() {
		t.Errorf("FeatureWeights has %d entries, want %d", len(w), vec.NumFeatures())
	}

	if err := NewSoftVoting().Fit(X, corpus.Labels(), vec.NumFeatures()); err == nil {
		t.Error("empty ensemble fitted without error")
	}
}
