package sentimiento

import (
	"strings"
	"unicode"

	"github.com/kljensen/snowball/spanish"
)

// maxStemPasses bounds the stem-until-stable loop. Snowball settles in one
// or two passes on real words.
const maxStemPasses = 4

// Stemmer reduces a lowercase word to its stem.
type Stemmer func(string) string

// SpanishStemmer is the Snowball Spanish stemmer.
func SpanishStemmer(word string) string {
	return spanish.Stem(word, false)
}

// Normalizer implements the diagnostic preprocessing path: lowercase,
// tokenize, drop non-alphabetic tokens and stopwords, stem.
//
// Production inference does not go through it. Stemming collapses domain
// words that the classifier needs to tell apart, so the inference path
// (NormalizeForInference) only lowercases and leaves tokenization to the
// vectorizer. Keep the two paths separate.
type Normalizer struct {
	tokenizer Tokenizer
	stopwords StopwordSet
	stem      Stemmer
}

// NormalizerOptFunc configures a Normalizer.
type NormalizerOptFunc func(*Normalizer)

// UsingTokenizer replaces the punkt-based Spanish tokenizer.
func UsingTokenizer(t Tokenizer) NormalizerOptFunc {
	return func(n *Normalizer) {
		n.tokenizer = t
	}
}

// UsingStopwords replaces the default stopword set.
func UsingStopwords(s StopwordSet) NormalizerOptFunc {
	return func(n *Normalizer) {
		n.stopwords = s
	}
}

// UsingStemmer replaces the Snowball stemmer.
func UsingStemmer(s Stemmer) NormalizerOptFunc {
	return func(n *Normalizer) {
		n.stem = s
	}
}

// NewNormalizer returns a Normalizer with the Spanish defaults.
func NewNormalizer(opts ...NormalizerOptFunc) (*Normalizer, error) {
	n := &Normalizer{stem: SpanishStemmer}
	for _, applyOpt := range opts {
		applyOpt(n)
	}
	if n.tokenizer == nil {
		tok, err := NewSpanishTokenizer()
		if err != nil {
			return nil, err
		}
		n.tokenizer = tok
	}
	if n.stopwords == nil {
		n.stopwords = SpanishStopwords()
	}
	return n, nil
}

// NormalizeForDiagnostics returns the stemmed, stopword-free form of text.
// Blank input yields "". The result is stable under re-application.
func (n *Normalizer) NormalizeForDiagnostics(text string) string {
	text = strings.ToLower(text)
	if strings.TrimSpace(text) == "" {
		return ""
	}

	var out []string
	for _, tok := range n.tokenizer.Tokenize(text) {
		w := tok.Text
		if !isAlpha(w) || n.stopwords.Contains(w) {
			continue
		}
		w = n.stemStable(w)
		// A stem can coincide with a stopword; dropping it keeps a second
		// pass a no-op.
		if w == "" || !isAlpha(w) || n.stopwords.Contains(w) {
			continue
		}
		out = append(out, w)
	}
	return strings.Join(out, " ")
}

func (n *Normalizer) stemStable(w string) string {
	for i := 0; i < maxStemPasses; i++ {
		s := strings.ToLower(n.stem(w))
		if s == w {
			break
		}
		w = s
	}
	return w
}

// NormalizeForInference is the production preprocessing: lowercase only.
// The vectorizer tokenizes and folds accents on its own.
func NormalizeForInference(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	return strings.ToLower(text)
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
