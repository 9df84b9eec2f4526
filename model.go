package sentimiento

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FormatVersion identifies the artifact layout written by Save.
const FormatVersion = 1

// Metadata describes a trained model. It is filled in by the training
// pipeline and read-only afterwards.
type Metadata struct {
	ModelID         string        `json:"model_id" yaml:"model_id"`
	ConfigVersion   string        `json:"config_version" yaml:"config_version"`
	Algorithm       string        `json:"algorithm" yaml:"algorithm"`
	VocabularySize  int           `json:"vocabulary_size" yaml:"vocabulary_size"`
	NGramRange      [2]int        `json:"ngram_range" yaml:"ngram_range"`
	MaxFeatures     int           `json:"max_features" yaml:"max_features"`
	TrainingSamples int           `json:"training_samples" yaml:"training_samples"`
	ClassCounts     map[Label]int `json:"class_counts" yaml:"class_counts"`
	TrainedAt       time.Time     `json:"trained_at" yaml:"trained_at"`

	HardExamplesVersion string `json:"hard_examples_version,omitempty" yaml:"hard_examples_version,omitempty"`
	HardExamples        int    `json:"hard_examples" yaml:"hard_examples"`

	// CandidateAccuracy holds the held-out accuracy of every algorithm
	// compared during selection.
	CandidateAccuracy map[string]float64 `json:"candidate_accuracy,omitempty" yaml:"candidate_accuracy,omitempty"`

	// Metrics is set once the selected model has been evaluated.
	Metrics *Metrics `json:"metrics,omitempty" yaml:"metrics,omitempty"`
}

func (md Metadata) clone() Metadata {
	out := md
	if md.ClassCounts != nil {
		out.ClassCounts = make(map[Label]int, len(md.ClassCounts))
		for k, v := range md.ClassCounts {
			out.ClassCounts[k] = v
		}
	}
	if md.CandidateAccuracy != nil {
		out.CandidateAccuracy = make(map[string]float64, len(md.CandidateAccuracy))
		for k, v := range md.CandidateAccuracy {
			out.CandidateAccuracy[k] = v
		}
	}
	if md.Metrics != nil {
		m := *md.Metrics
		m.PerClass = make(map[Label]ClassMetrics, len(md.Metrics.PerClass))
		for k, v := range md.Metrics.PerClass {
			m.PerClass[k] = v
		}
		out.Metrics = &m
	}
	return out
}

// A Model is a trained artifact: the fitted vectorizer, the classifier
// trained on its feature space, and their metadata. The three always travel
// together. A Model is immutable once built or loaded and is safe for
// concurrent use.
type Model struct {
	Name string

	vectorizer *Vectorizer
	classifier Classifier
	metadata   Metadata
	trained    bool
}

// artifact is the on-disk form of a Model.
type artifact struct {
	Format     int
	Vectorizer *Vectorizer
	Classifier Classifier
	Metadata   Metadata
	Trained    bool
}

// NewModel assembles a trained model and checks that its parts agree.
func NewModel(name string, v *Vectorizer, c Classifier, md Metadata) (*Model, error) {
	m := &Model{
		Name:       name,
		vectorizer: v,
		classifier: c,
		metadata:   md.clone(),
		trained:    true,
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Model) validate() error {
	switch {
	case m.vectorizer == nil || !m.vectorizer.Fitted():
		return fmt.Errorf("%w: vectorizer is missing or unfitted", ErrCorruptModel)
	case m.classifier == nil || m.classifier.NumFeatures() == 0:
		return fmt.Errorf("%w: classifier is missing or unfitted", ErrCorruptModel)
	case len(m.vectorizer.IDF) != m.vectorizer.NumFeatures():
		return fmt.Errorf("%w: %d idf weights for %d terms", ErrCorruptModel, len(m.vectorizer.IDF), m.vectorizer.NumFeatures())
	case m.classifier.NumFeatures() != m.vectorizer.NumFeatures():
		return fmt.Errorf("%w: classifier expects %d features, vectorizer produces %d",
			ErrCorruptModel, m.classifier.NumFeatures(), m.vectorizer.NumFeatures())
	}
	return nil
}

// Trained reports whether the model can serve predictions.
func (m *Model) Trained() bool {
	return m != nil && m.trained
}

// Metadata returns a copy of the model's metadata.
func (m *Model) Metadata() Metadata {
	if m == nil {
		return Metadata{}
	}
	return m.metadata.clone()
}

// Vectorizer returns the fitted feature extractor.
func (m *Model) Vectorizer() *Vectorizer { return m.vectorizer }

// Classifier returns the fitted classifier.
func (m *Model) Classifier() Classifier { return m.classifier }

// predictProba vectorizes text and returns the class distribution.
func (m *Model) predictProba(text string) (Distribution, error) {
	if !m.Trained() {
		return Distribution{}, ErrUnfitted
	}
	vecs, err := m.vectorizer.Transform([]string{text})
	if err != nil {
		return Distribution{}, err
	}
	return m.classifier.PredictProba(vecs[0])
}

// FeatureWeight pairs a vocabulary term with its weight for a label.
type FeatureWeight struct {
	Term   string  `json:"term"`
	Weight float64 `json:"weight"`
}

// TopFeatures returns the n terms that point most strongly towards label.
func (m *Model) TopFeatures(label Label, n int) ([]FeatureWeight, error) {
	if !m.Trained() {
		return nil, ErrUnfitted
	}
	w, err := m.classifier.FeatureWeights(label)
	if err != nil {
		return nil, err
	}
	terms := m.vectorizer.Terms()
	out := make([]FeatureWeight, len(w))
	for i := range w {
		out[i] = FeatureWeight{Term: terms[i], Weight: w[i]}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].Term < out[j].Term
	})
	if n >= 0 && n < len(out) {
		out = out[:n]
	}
	return out, nil
}

// Write encodes the model as a single gob stream.
func (m *Model) Write(w io.Writer) error {
	if m == nil || m.vectorizer == nil || m.classifier == nil {
		return ErrUnfitted
	}
	return gob.NewEncoder(w).Encode(artifact{
		Format:     FormatVersion,
		Vectorizer: m.vectorizer,
		Classifier: m.classifier,
		Metadata:   m.metadata,
		Trained:    m.trained,
	})
}

// ReadModel decodes a model written by Write. Either every part loads and
// agrees, or an error wrapping ErrCorruptModel or ErrModelUnavailable is
// returned.
func ReadModel(name string, r io.Reader) (*Model, error) {
	var a artifact
	if err := gob.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptModel, err)
	}
	if a.Format != FormatVersion {
		return nil, fmt.Errorf("%w: unsupported format %d", ErrCorruptModel, a.Format)
	}
	if !a.Trained {
		return nil, ErrModelUnavailable
	}
	m := &Model{
		Name:       name,
		vectorizer: a.Vectorizer,
		classifier: a.Classifier,
		metadata:   a.Metadata,
		trained:    true,
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// ModelFromDisk loads a model file.
func ModelFromDisk(path string) (*Model, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("open model %q: %w", path, err)
	}
	defer f.Close()

	m, err := ReadModel(modelName(path), f)
	if err != nil {
		return nil, fmt.Errorf("load model %q: %w", path, err)
	}
	return m, nil
}

// ModelFromFS loads the model file called name from anywhere inside filesys.
func ModelFromFS(name string, filesys fs.FS) (*Model, error) {
	var found string
	err := fs.WalkDir(filesys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Model located. Exit tree traversal
		if !d.IsDir() && d.Name() == name {
			found = path
			return io.EOF
		}

		return nil
	})
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("search for model %q: %w", name, err)
	}
	if found == "" {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, name)
	}

	f, err := filesys.Open(found)
	if err != nil {
		return nil, fmt.Errorf("open model %q: %w", found, err)
	}
	defer f.Close()

	m, err := ReadModel(modelName(name), f)
	if err != nil {
		return nil, fmt.Errorf("load model %q: %w", found, err)
	}
	return m, nil
}

// Save writes the model to path atomically: the artifact goes to a temporary
// file in the same directory and is renamed into place. With backup set, an
// existing file at path is first copied aside; its new location is returned.
func (m *Model) Save(path string, backup bool) (backupPath string, err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create model directory %q: %w", dir, err)
	}

	if backup {
		backupPath, err = backupFile(path, time.Now())
		if err != nil {
			return "", err
		}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temporary model file in %q: %w", dir, err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = m.Write(tmp); err != nil {
		return "", fmt.Errorf("write model %q: %w", path, err)
	}
	if err = tmp.Sync(); err != nil {
		return "", fmt.Errorf("sync model %q: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return "", fmt.Errorf("close model %q: %w", path, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("replace model %q: %w", path, err)
	}
	return backupPath, nil
}

// backupFile copies path to <name>_backup_<timestamp><ext> next to it. It
// returns "" when path does not exist.
func backupFile(path string, now time.Time) (string, error) {
	src, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("open model for backup %q: %w", path, err)
	}
	defer src.Close()

	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	dst := fmt.Sprintf("%s_backup_%s%s", base, now.Format("20060102_150405"), ext)
	if _, err := os.Stat(dst); err == nil {
		dst = fmt.Sprintf("%s_backup_%s_%s%s", base, now.Format("20060102_150405"), uuid.NewString()[:8], ext)
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create backup %q: %w", dst, err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return "", fmt.Errorf("copy backup %q: %w", dst, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("close backup %q: %w", dst, err)
	}
	return dst, nil
}

func modelName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
