package sentimiento

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	godiacritics "gopkg.in/Regis24GmbH/go-diacritics.v2"
)

// wordRE matches runs of two or more word characters. Single letters ("y",
// "a", "o") carry no sentiment and are skipped.
var wordRE = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// VectorizerConfig holds the TF-IDF hyperparameters.
type VectorizerConfig struct {
	MaxFeatures  int     `mapstructure:"max_features" yaml:"max_features"`
	NGramMin     int     `mapstructure:"ngram_min" yaml:"ngram_min"`
	NGramMax     int     `mapstructure:"ngram_max" yaml:"ngram_max"`
	MinDF        int     `mapstructure:"min_df" yaml:"min_df"`
	MaxDF        float64 `mapstructure:"max_df" yaml:"max_df"`
	SublinearTF  bool    `mapstructure:"sublinear_tf" yaml:"sublinear_tf"`
	SmoothIDF    bool    `mapstructure:"smooth_idf" yaml:"smooth_idf"`
	StripAccents bool    `mapstructure:"strip_accents" yaml:"strip_accents"`
	Lowercase    bool    `mapstructure:"lowercase" yaml:"lowercase"`
}

// DefaultVectorizerConfig returns the shipped settings: uni- and bigrams,
// at most 15000 terms, present in at least 3 documents and at most 90% of them.
func DefaultVectorizerConfig() VectorizerConfig {
	return VectorizerConfig{
		MaxFeatures:  15000,
		NGramMin:     1,
		NGramMax:     2,
		MinDF:        3,
		MaxDF:        0.90,
		SublinearTF:  true,
		SmoothIDF:    true,
		StripAccents: true,
		Lowercase:    true,
	}
}

// Validate checks that the configuration is usable.
func (c VectorizerConfig) Validate() error {
	switch {
	case c.NGramMin < 1 || c.NGramMax < c.NGramMin:
		return fmt.Errorf("%w: ngram range (%d, %d)", ErrInvalidConfig, c.NGramMin, c.NGramMax)
	case c.MinDF < 1:
		return fmt.Errorf("%w: min_df %d must be at least 1", ErrInvalidConfig, c.MinDF)
	case c.MaxDF <= 0 || c.MaxDF > 1:
		return fmt.Errorf("%w: max_df %v must be within (0, 1]", ErrInvalidConfig, c.MaxDF)
	case c.MaxFeatures < 0:
		return fmt.Errorf("%w: max_features %d is negative", ErrInvalidConfig, c.MaxFeatures)
	}
	return nil
}

// SparseVector is a feature vector stored as parallel index/value slices with
// ascending indices.
type SparseVector struct {
	Indices []int
	Values  []float64
}

// Dot returns the inner product of v with a dense weight row.
func (v SparseVector) Dot(w []float64) float64 {
	var sum float64
	for k, i := range v.Indices {
		sum += v.Values[k] * w[i]
	}
	return sum
}

// Len returns the number of non-zero entries.
func (v SparseVector) Len() int {
	return len(v.Indices)
}

// Vectorizer turns comments into L2-normalized TF-IDF vectors over a fitted
// vocabulary of word n-grams. It is immutable after Fit.
type Vectorizer struct {
	Config     VectorizerConfig
	Vocabulary map[string]int
	IDF        []float64
}

// NewVectorizer returns an unfitted vectorizer.
func NewVectorizer(config VectorizerConfig) *Vectorizer {
	return &Vectorizer{Config: config}
}

// Fitted reports whether Fit has completed.
func (v *Vectorizer) Fitted() bool {
	return v != nil && len(v.Vocabulary) > 0 && len(v.IDF) == len(v.Vocabulary)
}

// NumFeatures returns the vocabulary size.
func (v *Vectorizer) NumFeatures() int {
	if v == nil {
		return 0
	}
	return len(v.Vocabulary)
}

// Terms returns the vocabulary ordered by feature index.
func (v *Vectorizer) Terms() []string {
	terms := make([]string, len(v.Vocabulary))
	for t, i := range v.Vocabulary {
		terms[i] = t
	}
	return terms
}

// Analyze returns the n-grams of text in order of appearance.
func (v *Vectorizer) Analyze(text string) []string {
	if v.Config.Lowercase {
		text = strings.ToLower(text)
	}
	if v.Config.StripAccents {
		text = godiacritics.Normalize(text)
	}
	words := wordRE.FindAllString(text, -1)

	var grams []string
	for n := v.Config.NGramMin; n <= v.Config.NGramMax; n++ {
		for i := 0; i+n <= len(words); i++ {
			grams = append(grams, strings.Join(words[i:i+n], " "))
		}
	}
	return grams
}

// Fit learns the vocabulary and inverse document frequencies from corpus.
func (v *Vectorizer) Fit(corpus []string) error {
	if err := v.Config.Validate(); err != nil {
		return err
	}
	if len(corpus) == 0 {
		return ErrEmptyCorpus
	}

	nDocs := len(corpus)
	df := make(map[string]int)
	total := make(map[string]int)
	for _, doc := range corpus {
		seen := make(map[string]struct{})
		for _, g := range v.Analyze(doc) {
			total[g]++
			if _, ok := seen[g]; !ok {
				seen[g] = struct{}{}
				df[g]++
			}
		}
	}

	maxDocs := v.Config.MaxDF * float64(nDocs)
	if maxDocs < float64(v.Config.MinDF) {
		return fmt.Errorf("%w: max_df corresponds to fewer documents than min_df", ErrInvalidConfig)
	}

	var terms []string
	for g, d := range df {
		if d < v.Config.MinDF || float64(d) > maxDocs {
			continue
		}
		terms = append(terms, g)
	}
	if len(terms) == 0 {
		return ErrNoTermsRemain
	}

	if v.Config.MaxFeatures > 0 && len(terms) > v.Config.MaxFeatures {
		sort.Slice(terms, func(i, j int) bool {
			ci, cj := total[terms[i]], total[terms[j]]
			if ci != cj {
				return ci > cj
			}
			return terms[i] < terms[j]
		})
		terms = terms[:v.Config.MaxFeatures]
	}
	sort.Strings(terms)

	vocab := make(map[string]int, len(terms))
	idf := make([]float64, len(terms))
	n := float64(nDocs)
	for i, t := range terms {
		vocab[t] = i
		d := float64(df[t])
		if v.Config.SmoothIDF {
			idf[i] = math.Log((1+n)/(1+d)) + 1
		} else {
			idf[i] = math.Log(n/d) + 1
		}
	}

	v.Vocabulary = vocab
	v.IDF = idf
	return nil
}

// Transform maps texts onto the fitted feature space.
func (v *Vectorizer) Transform(texts []string) ([]SparseVector, error) {
	if !v.Fitted() {
		return nil, ErrUnfitted
	}
	out := make([]SparseVector, len(texts))
	for i, t := range texts {
		out[i] = v.transformOne(t)
	}
	return out, nil
}

// FitTransform is Fit followed by Transform on the same corpus.
func (v *Vectorizer) FitTransform(corpus []string) ([]SparseVector, error) {
	if err := v.Fit(corpus); err != nil {
		return nil, err
	}
	return v.Transform(corpus)
}

func (v *Vectorizer) transformOne(text string) SparseVector {
	counts := make(map[int]int)
	for _, g := range v.Analyze(text) {
		if i, ok := v.Vocabulary[g]; ok {
			counts[i]++
		}
	}

	vec := SparseVector{
		Indices: make([]int, 0, len(counts)),
		Values:  make([]float64, 0, len(counts)),
	}
	for i := range counts {
		vec.Indices = append(vec.Indices, i)
	}
	sort.Ints(vec.Indices)

	var norm float64
	for _, i := range vec.Indices {
		tf := float64(counts[i])
		if v.Config.SublinearTF {
			tf = 1 + math.Log(tf)
		}
		w := tf * v.IDF[i]
		vec.Values = append(vec.Values, w)
		norm += w * w
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for k := range vec.Values {
			vec.Values[k] /= norm
		}
	}
	return vec
}
