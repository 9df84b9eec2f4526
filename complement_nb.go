package sentimiento

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ComplementNB is complement naive Bayes: each class is scored against the
// term statistics of the other classes, which holds up better than plain
// multinomial naive Bayes when one class dominates the corpus.
type ComplementNB struct {
	Alpha float64

	// FeatureLogProb holds -log P(term | complement of class), one row per
	// label in canonical order.
	FeatureLogProb *mat.Dense
	ClassCount     [NumLabels]float64
	Features       int
}

// NewComplementNB returns an unfitted classifier with smoothing alpha.
func NewComplementNB(alpha float64) *ComplementNB {
	return &ComplementNB{Alpha: alpha}
}

// Name identifies the algorithm in reports and metadata.
func (nb *ComplementNB) Name() string { return "complement_nb" }

// NumFeatures is the input dimension seen by Fit, zero before it.
func (nb *ComplementNB) NumFeatures() int {
	if nb.FeatureLogProb == nil {
		return 0
	}
	return nb.Features
}

// Fit accumulates per-class feature mass and derives complement weights.
func (nb *ComplementNB) Fit(X []SparseVector, y []Label, numFeatures int) error {
	if err := checkTrainingSet(X, y, numFeatures); err != nil {
		return err
	}
	if nb.Alpha <= 0 || math.IsNaN(nb.Alpha) {
		return fmt.Errorf("%w: complement naive Bayes alpha %v must be positive", ErrInvalidConfig, nb.Alpha)
	}

	counts := mat.NewDense(NumLabels, numFeatures, nil)
	for i, x := range X {
		row := counts.RawRowView(y[i].Index())
		for k, j := range x.Indices {
			row[j] += x.Values[k]
		}
	}

	all := make([]float64, numFeatures)
	for c := 0; c < NumLabels; c++ {
		floats.Add(all, counts.RawRowView(c))
	}

	flp := mat.NewDense(NumLabels, numFeatures, nil)
	comp := make([]float64, numFeatures)
	for c := 0; c < NumLabels; c++ {
		copy(comp, all)
		floats.Sub(comp, counts.RawRowView(c))
		floats.AddConst(nb.Alpha, comp)
		total := floats.Sum(comp)

		row := flp.RawRowView(c)
		for j, v := range comp {
			row[j] = -math.Log(v / total)
		}
	}

	nb.FeatureLogProb = flp
	nb.ClassCount = classCounts(y)
	nb.Features = numFeatures
	return nil
}

// PredictProba scores x against every class. With several classes the
// complement model uses no class prior.
func (nb *ComplementNB) PredictProba(x SparseVector) (Distribution, error) {
	if nb.FeatureLogProb == nil {
		return Distribution{}, ErrUnfitted
	}
	if err := checkInput(x, nb.Features); err != nil {
		return Distribution{}, err
	}
	var jll [NumLabels]float64
	for c := 0; c < NumLabels; c++ {
		jll[c] = x.Dot(nb.FeatureLogProb.RawRowView(c))
	}
	return softmax(jll), nil
}

// FeatureWeights returns the per-feature weights for l. Higher weights push
// a document towards l.
func (nb *ComplementNB) FeatureWeights(l Label) ([]float64, error) {
	if nb.FeatureLogProb == nil {
		return nil, ErrUnfitted
	}
	if !l.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidLabel, l)
	}
	return mat.Row(nil, l.Index(), nb.FeatureLogProb), nil
}
