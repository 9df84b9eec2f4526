package sentimiento

import (
	"encoding/gob"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Classifier is a probabilistic three-way sentiment classifier over TF-IDF
// vectors. Implementations are immutable after Fit and safe for concurrent
// PredictProba calls.
type Classifier interface {
	// Fit trains on X (vectors over numFeatures dimensions) and labels y.
	Fit(X []SparseVector, y []Label, numFeatures int) error

	// PredictProba returns one probability per label in canonical order.
	PredictProba(x SparseVector) (Distribution, error)

	// NumFeatures returns the input dimensionality seen by Fit, or 0.
	NumFeatures() int

	// FeatureWeights returns one weight per feature; larger values point
	// towards label l.
	FeatureWeights(l Label) ([]float64, error)

	// Name identifies the algorithm in reports.
	Name() string
}

func init() {
	gob.Register(&ComplementNB{})
	gob.Register(&LogisticRegression{})
	gob.Register(&SoftVoting{})
}

// Predict returns the most probable label for every row of X.
func Predict(c Classifier, X []SparseVector) ([]Label, error) {
	labels := make([]Label, len(X))
	for i, x := range X {
		d, err := c.PredictProba(x)
		if err != nil {
			return nil, err
		}
		labels[i], _ = d.Argmax()
	}
	return labels, nil
}

// checkTrainingSet validates the arguments of a Fit call.
func checkTrainingSet(X []SparseVector, y []Label, numFeatures int) error {
	if len(X) == 0 {
		return ErrEmptyCorpus
	}
	if len(X) != len(y) {
		return fmt.Errorf("sentimiento: %d vectors but %d labels", len(X), len(y))
	}
	if numFeatures <= 0 {
		return fmt.Errorf("sentimiento: feature space has %d dimensions", numFeatures)
	}
	for i, l := range y {
		if !l.Valid() {
			return fmt.Errorf("%w: %q at row %d", ErrInvalidLabel, l, i)
		}
		for _, j := range X[i].Indices {
			if j < 0 || j >= numFeatures {
				return fmt.Errorf("sentimiento: row %d has feature %d outside [0, %d)", i, j, numFeatures)
			}
		}
	}
	return nil
}

// checkInput validates a vector passed to PredictProba.
func checkInput(x SparseVector, numFeatures int) error {
	if len(x.Indices) != len(x.Values) {
		return fmt.Errorf("sentimiento: sparse vector has %d indices and %d values", len(x.Indices), len(x.Values))
	}
	for _, j := range x.Indices {
		if j < 0 || j >= numFeatures {
			return fmt.Errorf("sentimiento: feature %d outside [0, %d)", j, numFeatures)
		}
	}
	return nil
}

// softmax turns joint log-likelihoods into a probability distribution.
func softmax(jll [NumLabels]float64) Distribution {
	lse := floats.LogSumExp(jll[:])
	var d Distribution
	for k := range jll {
		d[k] = math.Exp(jll[k] - lse)
	}
	return d
}

// classCounts returns the number of samples per label.
func classCounts(y []Label) [NumLabels]float64 {
	var counts [NumLabels]float64
	for _, l := range y {
		counts[l.Index()]++
	}
	return counts
}
