package sentimiento

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ComplementNBConfig holds the complement naive Bayes settings.
type ComplementNBConfig struct {
	Alpha float64 `mapstructure:"alpha" yaml:"alpha"`
}

// GateConfig is the minimum quality a model needs before it replaces the
// stored one. The defaults were tuned on the Lima restaurant corpus and
// should be re-validated for any other corpus.
type GateConfig struct {
	MinAccuracy       float64 `mapstructure:"min_accuracy" yaml:"min_accuracy"`
	MinSanityPassRate float64 `mapstructure:"min_sanity_pass_rate" yaml:"min_sanity_pass_rate"`
}

// TrainingConfig contains configuration for model training
type TrainingConfig struct {
	// Version names this set of hyperparameters; it is stored in the
	// metadata of every model trained with it.
	Version string `mapstructure:"version" yaml:"version"`

	Vectorizer   VectorizerConfig   `mapstructure:"vectorizer" yaml:"vectorizer"`
	ComplementNB ComplementNBConfig `mapstructure:"complement_nb" yaml:"complement_nb"`
	Logistic     LogisticConfig     `mapstructure:"logistic" yaml:"logistic"`
	Gate         GateConfig         `mapstructure:"gate" yaml:"gate"`

	TestFraction float64 `mapstructure:"test_fraction" yaml:"test_fraction"`
	Seed         int64   `mapstructure:"seed" yaml:"seed"`

	// Backup copies an existing model aside before it is replaced.
	Backup bool `mapstructure:"backup" yaml:"backup"`

	// AllowNoHardExamples lets a run proceed with an empty hard-example set.
	AllowNoHardExamples bool `mapstructure:"allow_no_hard_examples" yaml:"allow_no_hard_examples"`

	ProgressCallback func(stage Stage) `mapstructure:"-" yaml:"-"`
}

// DefaultTrainingConfig returns a default training configuration
func DefaultTrainingConfig() TrainingConfig {
	return TrainingConfig{
		Version:      "gastronomico-v3",
		Vectorizer:   DefaultVectorizerConfig(),
		ComplementNB: ComplementNBConfig{Alpha: 0.1},
		Logistic:     DefaultLogisticConfig(),
		Gate: GateConfig{
			MinAccuracy:       0.80,
			MinSanityPassRate: 0.67,
		},
		TestFraction: 0.2,
		Seed:         42,
		Backup:       true,
	}
}

// Validate reports the first unusable field.
func (c TrainingConfig) Validate() error {
	if err := c.Vectorizer.Validate(); err != nil {
		return err
	}
	if err := c.Logistic.Validate(); err != nil {
		return err
	}
	switch {
	case c.ComplementNB.Alpha <= 0 || math.IsNaN(c.ComplementNB.Alpha):
		return fmt.Errorf("%w: complement_nb.alpha %v must be positive", ErrInvalidConfig, c.ComplementNB.Alpha)
	case c.TestFraction <= 0 || c.TestFraction >= 1:
		return fmt.Errorf("%w: test_fraction %v must be within (0, 1)", ErrInvalidConfig, c.TestFraction)
	case c.Gate.MinAccuracy < 0 || c.Gate.MinAccuracy > 1:
		return fmt.Errorf("%w: gate.min_accuracy %v must be within [0, 1]", ErrInvalidConfig, c.Gate.MinAccuracy)
	case c.Gate.MinSanityPassRate < 0 || c.Gate.MinSanityPassRate > 1:
		return fmt.Errorf("%w: gate.min_sanity_pass_rate %v must be within [0, 1]", ErrInvalidConfig, c.Gate.MinSanityPassRate)
	}
	return nil
}

// Stage is a step of the training pipeline.
type Stage string

const (
	StageLoadedData        Stage = "loaded_data"
	StageFeaturesExtracted Stage = "features_extracted"
	StageCandidatesTrained Stage = "candidates_trained"
	StageModelSelected     Stage = "model_selected"
	StageEvaluated         Stage = "evaluated"
	StagePersisted         Stage = "persisted"
	StageRejected          Stage = "rejected"
)

// CandidateResult is the held-out accuracy of one candidate classifier.
type CandidateResult struct {
	Name     string  `json:"name" yaml:"name"`
	Accuracy float64 `json:"accuracy" yaml:"accuracy"`
}

// SanityResult records how the model did on one sanity check.
type SanityResult struct {
	Text       string  `json:"text" yaml:"text"`
	Expected   Label   `json:"expected" yaml:"expected"`
	Predicted  Label   `json:"predicted" yaml:"predicted"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
	Tier       Tier    `json:"tier" yaml:"tier"`
	Pass       bool    `json:"pass" yaml:"pass"`
}

// ProbeResult is the prediction for an informational probe. Probes have no
// expected label; they are kept as a baseline across runs.
type ProbeResult struct {
	Text       string  `json:"text" yaml:"text"`
	Predicted  Label   `json:"predicted" yaml:"predicted"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
	Tier       Tier    `json:"tier" yaml:"tier"`
}

// GateFailure names a metric that fell short of the quality gate.
type GateFailure struct {
	Metric    string  `json:"metric" yaml:"metric"`
	Value     float64 `json:"value" yaml:"value"`
	Threshold float64 `json:"threshold" yaml:"threshold"`
}

func (f GateFailure) String() string {
	return fmt.Sprintf("%s %.4f < %.4f", f.Metric, f.Value, f.Threshold)
}

// Report is the outcome of a training run.
type Report struct {
	Stage          Stage             `json:"stage" yaml:"stage"`
	Stages         []Stage           `json:"stages" yaml:"stages"`
	TrainSamples   int               `json:"train_samples" yaml:"train_samples"`
	TestSamples    int               `json:"test_samples" yaml:"test_samples"`
	Candidates     []CandidateResult `json:"candidates" yaml:"candidates"`
	Selected       string            `json:"selected" yaml:"selected"`
	Metrics        Metrics           `json:"metrics" yaml:"metrics"`
	Sanity         []SanityResult    `json:"sanity_checks" yaml:"sanity_checks"`
	SanityPassRate float64           `json:"sanity_pass_rate" yaml:"sanity_pass_rate"`
	Probes         []ProbeResult     `json:"probes" yaml:"probes"`
	Failures       []GateFailure     `json:"gate_failures,omitempty" yaml:"gate_failures,omitempty"`
	ModelPath      string            `json:"model_path,omitempty" yaml:"model_path,omitempty"`
	BackupPath     string            `json:"backup_path,omitempty" yaml:"backup_path,omitempty"`
	Metadata       Metadata          `json:"metadata" yaml:"metadata"`
	Duration       time.Duration     `json:"duration" yaml:"duration"`

	// Model is the selected model, persisted or not.
	Model *Model `json:"-" yaml:"-"`
}

// Accepted reports whether the model passed the quality gate and was saved.
func (r *Report) Accepted() bool {
	return r.Stage == StagePersisted
}

// Summary renders the report for humans.
func (r *Report) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "stage: %s\n", r.Stage)
	fmt.Fprintf(&b, "train/test: %d/%d\n", r.TrainSamples, r.TestSamples)
	for _, c := range r.Candidates {
		mark := " "
		if c.Name == r.Selected {
			mark = "*"
		}
		fmt.Fprintf(&b, "%s %-20s %.4f\n", mark, c.Name, c.Accuracy)
	}
	b.WriteString("\n")
	b.WriteString(r.Metrics.String())
	fmt.Fprintf(&b, "\nsanity checks: %.0f%% passed\n", r.SanityPassRate*100)
	for _, s := range r.Sanity {
		mark := "ok  "
		if !s.Pass {
			mark = "FAIL"
		}
		fmt.Fprintf(&b, "  %s %-9s %-9s %.3f %q\n", mark, s.Expected, s.Predicted, s.Confidence, s.Text)
	}
	if len(r.Probes) > 0 {
		b.WriteString("probes:\n")
		for _, p := range r.Probes {
			fmt.Fprintf(&b, "  %-9s %.3f %-15s %q\n", p.Predicted, p.Confidence, p.Tier, p.Text)
		}
	}
	for _, f := range r.Failures {
		fmt.Fprintf(&b, "gate failed: %s\n", f)
	}
	if r.ModelPath != "" {
		fmt.Fprintf(&b, "model: %s\n", r.ModelPath)
	}
	if r.BackupPath != "" {
		fmt.Fprintf(&b, "backup: %s\n", r.BackupPath)
	}
	return b.String()
}

// Pipeline trains, selects, evaluates and persists sentiment models.
type Pipeline struct {
	config TrainingConfig
	hard   *HardExampleSet
	sanity *SanityCheckSet
	log    logrus.FieldLogger
}

// PipelineOpt configures a Pipeline.
type PipelineOpt func(*Pipeline)

// WithLogger sets the pipeline's logger.
func WithLogger(log logrus.FieldLogger) PipelineOpt {
	return func(p *Pipeline) {
		p.log = log
	}
}

// WithHardExamples replaces the embedded hard-example set.
func WithHardExamples(set *HardExampleSet) PipelineOpt {
	return func(p *Pipeline) {
		p.hard = set
	}
}

// WithSanityChecks replaces the embedded sanity checks.
func WithSanityChecks(set *SanityCheckSet) PipelineOpt {
	return func(p *Pipeline) {
		p.sanity = set
	}
}

// NewPipeline creates a pipeline with the given configuration. The embedded
// hard examples and sanity checks are used unless replaced by options.
func NewPipeline(config TrainingConfig, opts ...PipelineOpt) (*Pipeline, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	p := &Pipeline{config: config, log: logrus.StandardLogger()}
	for _, applyOpt := range opts {
		applyOpt(p)
	}

	var err error
	if p.hard == nil {
		if p.hard, err = DefaultHardExamples(); err != nil {
			return nil, err
		}
	}
	if p.sanity == nil {
		if p.sanity, err = DefaultSanityChecks(); err != nil {
			return nil, err
		}
	}
	if p.hard.Len() == 0 && !config.AllowNoHardExamples {
		return nil, fmt.Errorf("%w: the hard-example set is empty", ErrInvalidConfig)
	}
	return p, nil
}

// Config returns the pipeline's configuration.
func (p *Pipeline) Config() TrainingConfig {
	return p.config
}

func (p *Pipeline) enter(r *Report, s Stage) {
	r.Stage = s
	r.Stages = append(r.Stages, s)
	p.log.WithField("stage", s).Info("training stage")
	if p.config.ProgressCallback != nil {
		p.config.ProgressCallback(s)
	}
}

// Run trains on corpus and, if the result passes the quality gate, saves it
// to modelPath. A gate failure is not an error: the report ends in
// StageRejected, lists the failed metrics, and modelPath is left untouched.
func (p *Pipeline) Run(ctx context.Context, corpus *Corpus, modelPath string) (*Report, error) {
	r, err := p.Train(ctx, corpus)
	if err != nil {
		return nil, err
	}

	r.Failures = p.gate(r)
	if len(r.Failures) > 0 {
		for _, f := range r.Failures {
			p.log.WithFields(logrus.Fields{
				"metric":    f.Metric,
				"value":     f.Value,
				"threshold": f.Threshold,
			}).Warn("quality gate failed")
		}
		p.enter(r, StageRejected)
		return r, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	backup, err := r.Model.Save(modelPath, p.config.Backup)
	if err != nil {
		return nil, err
	}
	r.ModelPath = modelPath
	r.BackupPath = backup
	r.Duration += time.Since(start)
	if backup != "" {
		p.log.WithField("path", backup).Info("previous model backed up")
	}
	p.enter(r, StagePersisted)
	return r, nil
}

// Train runs every stage up to evaluation without touching storage.
func (p *Pipeline) Train(ctx context.Context, corpus *Corpus) (*Report, error) {
	start := time.Now()
	r := &Report{}

	// loaded_data
	if corpus == nil {
		return nil, ErrEmptyCorpus
	}
	train, test, err := StratifiedSplit(corpus, p.config.TestFraction, p.config.Seed)
	if err != nil {
		return nil, err
	}
	train.Samples = append(train.Samples, p.hard.Samples()...)
	r.TrainSamples, r.TestSamples = train.Len(), test.Len()
	p.enter(r, StageLoadedData)
	p.log.WithFields(logrus.Fields{
		"train":         r.TrainSamples,
		"test":          r.TestSamples,
		"hard_examples": p.hard.Len(),
	}).Info("corpus split")

	// features_extracted
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vec := NewVectorizer(p.config.Vectorizer)
	xTrain, err := vec.FitTransform(train.Texts())
	if err != nil {
		return nil, fmt.Errorf("fit vectorizer: %w", err)
	}
	xTest, err := vec.Transform(test.Texts())
	if err != nil {
		return nil, err
	}
	p.enter(r, StageFeaturesExtracted)
	p.log.WithField("vocabulary", vec.NumFeatures()).Info("vocabulary fitted")

	// candidates_trained
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	yTrain := train.Labels()
	cnb := NewComplementNB(p.config.ComplementNB.Alpha)
	if err := cnb.Fit(xTrain, yTrain, vec.NumFeatures()); err != nil {
		return nil, fmt.Errorf("fit %s: %w", cnb.Name(), err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lr := NewLogisticRegression(p.config.Logistic).WithLogger(p.log)
	if err := lr.Fit(xTrain, yTrain, vec.NumFeatures()); err != nil {
		return nil, fmt.Errorf("fit %s: %w", lr.Name(), err)
	}
	// Both members are already fitted; the ensemble only averages them.
	candidates := []Classifier{cnb, lr, NewSoftVoting(cnb, lr)}
	p.enter(r, StageCandidatesTrained)

	// model_selected
	yTest := test.Labels()
	var best Classifier
	var bestPred []Label
	bestAcc := -1.0
	for _, c := range candidates {
		pred, err := Predict(c, xTest)
		if err != nil {
			return nil, fmt.Errorf("score %s: %w", c.Name(), err)
		}
		acc := accuracy(yTest, pred)
		r.Candidates = append(r.Candidates, CandidateResult{Name: c.Name(), Accuracy: acc})
		p.log.WithFields(logrus.Fields{"candidate": c.Name(), "accuracy": acc}).Info("candidate scored")
		if acc > bestAcc {
			best, bestPred, bestAcc = c, pred, acc
		}
	}
	r.Selected = best.Name()
	p.enter(r, StageModelSelected)

	// evaluated
	metrics, err := Evaluate(yTest, bestPred)
	if err != nil {
		return nil, err
	}
	md := Metadata{
		ModelID:             uuid.NewString(),
		ConfigVersion:       p.config.Version,
		Algorithm:           best.Name(),
		VocabularySize:      vec.NumFeatures(),
		NGramRange:          [2]int{p.config.Vectorizer.NGramMin, p.config.Vectorizer.NGramMax},
		MaxFeatures:         p.config.Vectorizer.MaxFeatures,
		TrainingSamples:     train.Len(),
		ClassCounts:         train.Counts(),
		TrainedAt:           time.Now().UTC(),
		HardExamplesVersion: p.hard.Version,
		HardExamples:        p.hard.Len(),
		CandidateAccuracy:   make(map[string]float64, len(r.Candidates)),
		Metrics:             &metrics,
	}
	for _, c := range r.Candidates {
		md.CandidateAccuracy[c.Name] = c.Accuracy
	}
	model, err := NewModel("sentiment_model", vec, best, md)
	if err != nil {
		return nil, err
	}
	r.Model = model
	r.Metrics = metrics
	r.Metadata = model.Metadata()

	if err := p.runChecks(r, model.Analyzer()); err != nil {
		return nil, err
	}
	r.Duration = time.Since(start)
	p.enter(r, StageEvaluated)
	return r, nil
}

func (p *Pipeline) runChecks(r *Report, a *Analyzer) error {
	passed := 0
	for _, c := range p.sanity.Checks {
		an, err := a.Analyze(c.Text)
		if err != nil {
			return fmt.Errorf("sanity check %q: %w", c.Text, err)
		}
		ok := an.Label == c.Expected
		if ok {
			passed++
		}
		r.Sanity = append(r.Sanity, SanityResult{
			Text:       c.Text,
			Expected:   c.Expected,
			Predicted:  an.Label,
			Confidence: an.Confidence,
			Tier:       an.Interpretation.Tier,
			Pass:       ok,
		})
	}
	r.SanityPassRate = 1
	if n := len(p.sanity.Checks); n > 0 {
		r.SanityPassRate = float64(passed) / float64(n)
	}

	for _, text := range p.sanity.Probes {
		an, err := a.Analyze(text)
		if err != nil {
			return fmt.Errorf("probe %q: %w", text, err)
		}
		r.Probes = append(r.Probes, ProbeResult{
			Text:       text,
			Predicted:  an.Label,
			Confidence: an.Confidence,
			Tier:       an.Interpretation.Tier,
		})
	}
	return nil
}

func (p *Pipeline) gate(r *Report) []GateFailure {
	var failures []GateFailure
	if r.Metrics.Accuracy < p.config.Gate.MinAccuracy {
		failures = append(failures, GateFailure{"accuracy", r.Metrics.Accuracy, p.config.Gate.MinAccuracy})
	}
	if r.SanityPassRate < p.config.Gate.MinSanityPassRate {
		failures = append(failures, GateFailure{"sanity_pass_rate", r.SanityPassRate, p.config.Gate.MinSanityPassRate})
	}
	return failures
}

func accuracy(truth, pred []Label) float64 {
	if len(truth) == 0 {
		return 0
	}
	correct := 0
	for i := range truth {
		if truth[i] == pred[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(truth))
}
