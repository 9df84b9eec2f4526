package sentimiento

import (
	"fmt"
	"strings"
)

// A Token represents an individual token of text such as a word or punctuation
// symbol.
type Token struct {
	Text  string // The token's actual content.
	Start int    // Start position in original text
	End   int    // End position in original text
}

// A Sentence represents a segmented portion of text.
type Sentence struct {
	Text  string // The sentence's text.
	Start int    // Start position in original text
	End   int    // End position in original text
}

// String returns the text content of the sentence
func (s Sentence) String() string {
	return s.Text
}

// Label is a sentiment category.
type Label string

const (
	Negativo Label = "negativo"
	Neutro   Label = "neutro"
	Positivo Label = "positivo"
)

// NumLabels is the number of sentiment categories.
const NumLabels = 3

// Labels lists every label in canonical order. Classifier outputs, probability
// vectors and reports all use this order.
var Labels = [NumLabels]Label{Negativo, Neutro, Positivo}

// Index returns the canonical position of l, or -1 if l is not a known label.
func (l Label) Index() int {
	switch l {
	case Negativo:
		return 0
	case Neutro:
		return 1
	case Positivo:
		return 2
	}
	return -1
}

// Valid reports whether l is one of the three canonical labels.
func (l Label) Valid() bool {
	return l.Index() >= 0
}

// ParseLabel converts raw corpus text to a Label. Case and surrounding
// whitespace are ignored; anything else fails with ErrInvalidLabel.
func ParseLabel(s string) (Label, error) {
	l := Label(strings.ToLower(strings.TrimSpace(s)))
	if !l.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidLabel, s)
	}
	return l, nil
}

// LabelFromRating maps a 1-5 star rating to a label: 1-2 negativo, 3 neutro,
// 4-5 positivo.
func LabelFromRating(rating int) (Label, error) {
	switch {
	case rating >= 1 && rating <= 2:
		return Negativo, nil
	case rating == 3:
		return Neutro, nil
	case rating >= 4 && rating <= 5:
		return Positivo, nil
	}
	return "", fmt.Errorf("%w: rating %d out of range 1-5", ErrInvalidLabel, rating)
}

// Distribution holds one probability per label in canonical order.
type Distribution [NumLabels]float64

// Map returns the distribution keyed by label.
func (d Distribution) Map() map[Label]float64 {
	m := make(map[Label]float64, NumLabels)
	for i, l := range Labels {
		m[l] = d[i]
	}
	return m
}

// Argmax returns the most probable label and its probability. Ties resolve
// to the earlier label in canonical order.
func (d Distribution) Argmax() (Label, float64) {
	best := 0
	for i := 1; i < NumLabels; i++ {
		if d[i] > d[best] {
			best = i
		}
	}
	return Labels[best], d[best]
}

// Prediction is the result of classifying a single comment.
type Prediction struct {
	Text          string            `json:"text_original"`
	Label         Label             `json:"sentiment"`
	Confidence    float64           `json:"confidence"`
	Probabilities map[Label]float64 `json:"probabilities"`
	ProcessedText string            `json:"text_processed"`
}

// Analysis pairs a prediction with its reliability interpretation.
type Analysis struct {
	Prediction
	Interpretation Interpretation `json:"interpretation"`
}
