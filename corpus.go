package sentimiento

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/sirupsen/logrus"
)

// Sample is one labelled comment.
type Sample struct {
	Text  string `yaml:"text"`
	Label Label  `yaml:"label"`
}

// Corpus is a labelled training corpus.
type Corpus struct {
	Samples []Sample

	// Skipped counts rows dropped because their comment was blank.
	Skipped int
	Sources []string
}

// CorpusConfig names the CSV columns to read.
type CorpusConfig struct {
	TextColumn   string `mapstructure:"text_column" yaml:"text_column"`
	LabelColumn  string `mapstructure:"label_column" yaml:"label_column"`
	RatingColumn string `mapstructure:"rating_column" yaml:"rating_column"`
}

// DefaultCorpusConfig reads comment/sentimiento, falling back to rating.
func DefaultCorpusConfig() CorpusConfig {
	return CorpusConfig{
		TextColumn:   "comment",
		LabelColumn:  "sentimiento",
		RatingColumn: "rating",
	}
}

// CorpusOpt configures corpus loading.
type CorpusOpt func(*corpusOpts)

type corpusOpts struct {
	log logrus.FieldLogger
}

// WithCorpusLogger sets the logger used while reading corpora.
func WithCorpusLogger(log logrus.FieldLogger) CorpusOpt {
	return func(o *corpusOpts) {
		o.log = log
	}
}

func newCorpusOpts(opts []CorpusOpt) corpusOpts {
	o := corpusOpts{log: logrus.StandardLogger()}
	for _, applyOpt := range opts {
		applyOpt(&o)
	}
	return o
}

// Len returns the number of samples.
func (c *Corpus) Len() int { return len(c.Samples) }

// Texts returns the comments in corpus order.
func (c *Corpus) Texts() []string {
	out := make([]string, len(c.Samples))
	for i, s := range c.Samples {
		out[i] = s.Text
	}
	return out
}

// Labels returns the labels in corpus order.
func (c *Corpus) Labels() []Label {
	out := make([]Label, len(c.Samples))
	for i, s := range c.Samples {
		out[i] = s.Label
	}
	return out
}

// Counts returns the number of samples per label. Every label is present in
// the map, possibly with a zero count.
func (c *Corpus) Counts() map[Label]int {
	m := make(map[Label]int, NumLabels)
	for _, l := range Labels {
		m[l] = 0
	}
	for _, s := range c.Samples {
		m[s.Label]++
	}
	return m
}

// CheckClasses fails when the corpus is empty, misses a label, or has a
// label with fewer than two samples (too few to appear in both halves of a
// stratified split).
func (c *Corpus) CheckClasses() error {
	if c.Len() == 0 {
		return ErrEmptyCorpus
	}
	counts := c.Counts()
	var missing, scarce []string
	for _, l := range Labels {
		switch counts[l] {
		case 0:
			missing = append(missing, string(l))
		case 1:
			scarce = append(scarce, string(l))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: no samples for %s", ErrMissingClass, strings.Join(missing, ", "))
	}
	if len(scarce) > 0 {
		return fmt.Errorf("%w: a single sample for %s", ErrMissingClass, strings.Join(scarce, ", "))
	}
	return nil
}

// ReadCorpus parses a CSV corpus with a header row.
func ReadCorpus(r io.Reader, config CorpusConfig, opts ...CorpusOpt) (*Corpus, error) {
	o := newCorpusOpts(opts)

	cr := csv.NewReader(r)
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyCorpus
	}
	if err != nil {
		return nil, fmt.Errorf("read corpus header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	textCol, ok := cols[strings.ToLower(config.TextColumn)]
	if !ok {
		return nil, fmt.Errorf("corpus has no %q column", config.TextColumn)
	}
	labelCol, hasLabel := cols[strings.ToLower(config.LabelColumn)]
	ratingCol, hasRating := cols[strings.ToLower(config.RatingColumn)]
	if !hasLabel && !hasRating {
		return nil, fmt.Errorf("corpus has neither a %q nor a %q column", config.LabelColumn, config.RatingColumn)
	}

	corpus := &Corpus{}
	for row := 2; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read corpus row %d: %w", row, err)
		}

		text := field(rec, textCol)
		if strings.TrimSpace(text) == "" {
			corpus.Skipped++
			continue
		}

		var label Label
		if hasLabel {
			label, err = ParseLabel(field(rec, labelCol))
		} else {
			label, err = labelFromRatingField(field(rec, ratingCol))
		}
		if err != nil {
			return nil, fmt.Errorf("corpus row %d: %w", row, err)
		}
		corpus.Samples = append(corpus.Samples, Sample{Text: text, Label: label})
	}

	if corpus.Skipped > 0 {
		o.log.WithField("skipped", corpus.Skipped).Info("skipped rows with blank comments")
	}
	return corpus, nil
}

func field(rec []string, i int) string {
	if i >= len(rec) {
		return ""
	}
	return rec[i]
}

func labelFromRatingField(s string) (Label, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f != math.Trunc(f) {
		return "", fmt.Errorf("%w: rating %q", ErrInvalidLabel, s)
	}
	return LabelFromRating(int(f))
}

// LoadCorpusCSV reads a corpus from a CSV file.
func LoadCorpusCSV(path string, config CorpusConfig, opts ...CorpusOpt) (*Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus %q: %w", path, err)
	}
	defer f.Close()

	c, err := ReadCorpus(f, config, opts...)
	if err != nil {
		return nil, fmt.Errorf("corpus %q: %w", path, err)
	}
	c.Sources = []string{path}

	newCorpusOpts(opts).log.WithFields(logrus.Fields{
		"path":    path,
		"samples": c.Len(),
	}).Debug("corpus loaded")
	return c, nil
}

// LoadCorpusGlob reads and concatenates every CSV file matching pattern
// (doublestar syntax, e.g. "data/**/*.csv") in lexical order.
func LoadCorpusGlob(pattern string, config CorpusConfig, opts ...CorpusOpt) (*Corpus, error) {
	paths, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("corpus pattern %q: %w", pattern, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("corpus pattern %q: %w", pattern, os.ErrNotExist)
	}
	sort.Strings(paths)

	merged := &Corpus{}
	for _, p := range paths {
		c, err := LoadCorpusCSV(p, config, opts...)
		if err != nil {
			return nil, err
		}
		merged.Samples = append(merged.Samples, c.Samples...)
		merged.Skipped += c.Skipped
		merged.Sources = append(merged.Sources, p)
	}
	return merged, nil
}

// StratifiedSplit shuffles the corpus with seed and holds out testFraction of
// every label. Each label keeps at least one sample on either side.
func StratifiedSplit(c *Corpus, testFraction float64, seed int64) (train, test *Corpus, err error) {
	if testFraction <= 0 || testFraction >= 1 {
		return nil, nil, fmt.Errorf("%w: test fraction %v must be within (0, 1)", ErrInvalidConfig, testFraction)
	}
	if err := c.CheckClasses(); err != nil {
		return nil, nil, err
	}

	rng := rand.New(rand.NewSource(seed))
	byLabel := make(map[Label][]Sample, NumLabels)
	for _, s := range c.Samples {
		byLabel[s.Label] = append(byLabel[s.Label], s)
	}

	train, test = &Corpus{Sources: c.Sources}, &Corpus{Sources: c.Sources}
	for _, l := range Labels {
		group := byLabel[l]
		rng.Shuffle(len(group), func(i, j int) { group[i], group[j] = group[j], group[i] })

		nTest := int(math.Round(testFraction * float64(len(group))))
		if nTest < 1 {
			nTest = 1
		}
		if nTest > len(group)-1 {
			nTest = len(group) - 1
		}
		test.Samples = append(test.Samples, group[:nTest]...)
		train.Samples = append(train.Samples, group[nTest:]...)
	}

	rng.Shuffle(len(train.Samples), func(i, j int) {
		train.Samples[i], train.Samples[j] = train.Samples[j], train.Samples[i]
	})
	rng.Shuffle(len(test.Samples), func(i, j int) {
		test.Samples[i], test.Samples[j] = test.Samples[j], test.Samples[i]
	})
	return train, test, nil
}
