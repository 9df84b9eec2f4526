package sentimiento

import "fmt"

// Analyzer serves predictions from a trained Model. It holds no mutable
// state and is safe for concurrent use.
type Analyzer struct {
	model *Model
}

// NewAnalyzer creates an analyzer over model. A nil or untrained model
// yields an analyzer whose calls fail with ErrUnfitted.
func NewAnalyzer(model *Model) *Analyzer {
	return &Analyzer{model: model}
}

// Analyzer creates an analyzer from this model
func (m *Model) Analyzer() *Analyzer {
	return NewAnalyzer(m)
}

// Model returns the underlying model.
func (a *Analyzer) Model() *Model {
	return a.model
}

// PredictProba returns the class distribution for text.
func (a *Analyzer) PredictProba(text string) (Distribution, error) {
	if a == nil || !a.model.Trained() {
		return Distribution{}, ErrUnfitted
	}
	return a.model.predictProba(NormalizeForInference(text))
}

// PredictSingle classifies one comment. The text is only lowercased before
// vectorization; blank text is a valid input and yields a low-information
// prediction rather than an error.
func (a *Analyzer) PredictSingle(text string) (Prediction, error) {
	if a == nil || !a.model.Trained() {
		return Prediction{}, ErrUnfitted
	}
	processed := NormalizeForInference(text)
	d, err := a.model.predictProba(processed)
	if err != nil {
		return Prediction{}, err
	}
	label, conf := d.Argmax()
	return Prediction{
		Text:          text,
		Label:         label,
		Confidence:    conf,
		Probabilities: d.Map(),
		ProcessedText: processed,
	}, nil
}

// PredictBatch classifies texts in order. The first failure aborts the
// whole batch and no partial results are returned.
func (a *Analyzer) PredictBatch(texts []string) ([]Prediction, error) {
	out := make([]Prediction, len(texts))
	for i, t := range texts {
		p, err := a.PredictSingle(t)
		if err != nil {
			return nil, fmt.Errorf("batch item %d: %w", i, err)
		}
		out[i] = p
	}
	return out, nil
}

// Analyze classifies text and interprets the prediction's confidence.
func (a *Analyzer) Analyze(text string) (Analysis, error) {
	p, err := a.PredictSingle(text)
	if err != nil {
		return Analysis{}, err
	}
	in, err := InterpretConfidence(p.Label, p.Confidence)
	if err != nil {
		return Analysis{}, err
	}
	return Analysis{Prediction: p, Interpretation: in}, nil
}
