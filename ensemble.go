package sentimiento

import (
	"errors"
	"fmt"
)

// SoftVoting averages the probability outputs of its members.
type SoftVoting struct {
	Members []Classifier
}

// NewSoftVoting returns an ensemble over members. Members are fitted by the
// ensemble's own Fit.
func NewSoftVoting(members ...Classifier) *SoftVoting {
	return &SoftVoting{Members: members}
}

// Name identifies the algorithm in reports and metadata.
func (sv *SoftVoting) Name() string { return "soft_voting" }

// NumFeatures is the members' shared input dimension, zero when they
// disagree or there are none.
func (sv *SoftVoting) NumFeatures() int {
	if len(sv.Members) == 0 {
		return 0
	}
	n := sv.Members[0].NumFeatures()
	for _, m := range sv.Members[1:] {
		if m.NumFeatures() != n {
			return 0
		}
	}
	return n
}

func (sv *SoftVoting) Fit(X []SparseVector, y []Label, numFeatures int) error {
	if len(sv.Members) == 0 {
		return errors.New("sentimiento: soft voting ensemble has no members")
	}
	for _, m := range sv.Members {
		if err := m.Fit(X, y, numFeatures); err != nil {
			return fmt.Errorf("fit %s: %w", m.Name(), err)
		}
	}
	return nil
}

func (sv *SoftVoting) PredictProba(x SparseVector) (Distribution, error) {
	if len(sv.Members) == 0 {
		return Distribution{}, ErrUnfitted
	}
	var avg Distribution
	for _, m := range sv.Members {
		d, err := m.PredictProba(x)
		if err != nil {
			return Distribution{}, err
		}
		for k := range avg {
			avg[k] += d[k]
		}
	}
	n := float64(len(sv.Members))
	for k := range avg {
		avg[k] /= n
	}
	return avg, nil
}

// FeatureWeights averages the members' weights. The members use different
// scales, so treat the result as a ranking only.
func (sv *SoftVoting) FeatureWeights(l Label) ([]float64, error) {
	if len(sv.Members) == 0 {
		return nil, ErrUnfitted
	}
	var avg []float64
	for _, m := range sv.Members {
		w, err := m.FeatureWeights(l)
		if err != nil {
			return nil, err
		}
		if avg == nil {
			avg = make([]float64, len(w))
		}
		if len(w) != len(avg) {
			return nil, fmt.Errorf("sentimiento: ensemble members disagree on feature count")
		}
		for j, v := range w {
			avg[j] += v / float64(len(sv.Members))
		}
	}
	return avg, nil
}
