package sentimiento

import (
	"fmt"
	"strings"
	"testing"
)

var (
	testSubjects = []string{"la comida", "el servicio", "la atención", "el ambiente", "el ceviche", "el lomo saltado"}
	testWords    = map[Label][]string{
		Positivo: {"deliciosa", "excelente", "rica", "espectacular", "increíble", "amable", "recomendable", "exquisita"},
		Negativo: {"pésimo", "horrible", "fría", "lento", "sucio", "terrible", "grosero", "desabrido"},
		Neutro:   {"normal", "regular", "promedio", "aceptable", "estándar", "correcto", "básico", "común"},
	}
)

// syntheticCorpus returns a corpus where each label has its own sentiment
// vocabulary and every label shares the same subjects and connectors.
func syntheticCorpus() *Corpus {
	c := &Corpus{Sources: []string{"synthetic"}}
	for _, l := range Labels {
		words := testWords[l]
		for _, subj := range testSubjects {
			for i, w := range words {
				for _, step := range []int{1, 3} {
					w2 := words[(i+step)%len(words)]
					c.Samples = append(c.Samples, Sample{
						Text:  fmt.Sprintf("%s estuvo %s y %s", strings.ToUpper(subj[:1])+subj[1:], w, w2),
						Label: l,
					})
				}
			}
		}
	}
	return c
}

// testVectorizerConfig keeps every term of a small corpus.
func testVectorizerConfig() VectorizerConfig {
	cfg := DefaultVectorizerConfig()
	cfg.MinDF = 1
	cfg.MaxDF = 1.0
	return cfg
}

// testHardExamples is a small hard-example set for pipeline tests.
func testHardExamples() *HardExampleSet {
	return &HardExampleSet{
		Version: "test-1",
		Groups: []ExampleGroup{{
			Name:   "informacion",
			Label:  Neutro,
			Repeat: 3,
			Texts:  []string{"se atienden todos los domingos", "aceptan tarjetas de crédito", "hay estacionamiento gratuito"},
		}},
	}
}

// testSanityChecks are checks the synthetic corpus is expected to pass.
func testSanityChecks() *SanityCheckSet {
	return &SanityCheckSet{
		Version: "test-1",
		Checks: []SanityCheck{
			{Text: "La comida estuvo deliciosa y excelente", Expected: Positivo},
			{Text: "El servicio estuvo pésimo y lento", Expected: Negativo},
			{Text: "El ambiente estuvo normal y regular", Expected: Neutro},
		},
		Probes: []string{"se atienden todos los domingos"},
	}
}

// fitTestModel trains a complement naive Bayes model on the synthetic corpus.
func fitTestModel(t testing.TB) *Model {
	t.Helper()
	c := syntheticCorpus()
	vec := NewVectorizer(testVectorizerConfig())
	X, err := vec.FitTransform(c.Texts())
	if err != nil {
		t.Fatalf("FitTransform: %v", err)
	}
	nb := NewComplementNB(0.1)
	if err := nb.Fit(X, c.Labels(), vec.NumFeatures()); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	m, err := NewModel("test", vec, nb, Metadata{
		ModelID:         "test-model",
		Algorithm:       nb.Name(),
		VocabularySize:  vec.NumFeatures(),
		TrainingSamples: c.Len(),
		ClassCounts:     c.Counts(),
	})
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	return m
}

func approxEqual(a, b, tol float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= tol
}
