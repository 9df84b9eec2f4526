package sentimiento

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// LogisticConfig holds the multinomial logistic regression settings.
type LogisticConfig struct {
	C                   float64 `mapstructure:"c" yaml:"c"`
	BalancedClassWeight bool    `mapstructure:"balanced_class_weight" yaml:"balanced_class_weight"`
	MaxIterations       int     `mapstructure:"max_iterations" yaml:"max_iterations"`
	GradientThreshold   float64 `mapstructure:"gradient_threshold" yaml:"gradient_threshold"`
}

// DefaultLogisticConfig returns C=1 with balanced class weights.
func DefaultLogisticConfig() LogisticConfig {
	return LogisticConfig{
		C:                   1.0,
		BalancedClassWeight: true,
		MaxIterations:       1000,
		GradientThreshold:   1e-5,
	}
}

// Validate checks that the configuration is usable.
func (c LogisticConfig) Validate() error {
	switch {
	case c.C <= 0 || math.IsNaN(c.C):
		return fmt.Errorf("%w: logistic C %v must be positive", ErrInvalidConfig, c.C)
	case c.MaxIterations <= 0:
		return fmt.Errorf("%w: logistic max_iterations %d must be positive", ErrInvalidConfig, c.MaxIterations)
	case c.GradientThreshold < 0:
		return fmt.Errorf("%w: logistic gradient_threshold %v is negative", ErrInvalidConfig, c.GradientThreshold)
	}
	return nil
}

// LogisticRegression is L2-regularized multinomial logistic regression
// fitted with L-BFGS. The intercept is not penalized.
type LogisticRegression struct {
	Config    LogisticConfig
	Coef      *mat.Dense // NumLabels x features
	Intercept [NumLabels]float64
	Features  int

	log logrus.FieldLogger
}

// NewLogisticRegression returns an unfitted classifier.
func NewLogisticRegression(config LogisticConfig) *LogisticRegression {
	return &LogisticRegression{Config: config}
}

// WithLogger sets where optimizer warnings go.
func (lr *LogisticRegression) WithLogger(log logrus.FieldLogger) *LogisticRegression {
	lr.log = log
	return lr
}

// Name identifies the algorithm in reports and metadata.
func (lr *LogisticRegression) Name() string { return "logistic_regression" }

// NumFeatures is the input dimension seen by Fit, zero before it.
func (lr *LogisticRegression) NumFeatures() int {
	if lr.Coef == nil {
		return 0
	}
	return lr.Features
}

// Fit minimizes the weighted cross-entropy plus ||W||²/(2C).
func (lr *LogisticRegression) Fit(X []SparseVector, y []Label, numFeatures int) error {
	if err := checkTrainingSet(X, y, numFeatures); err != nil {
		return err
	}
	if err := lr.Config.Validate(); err != nil {
		return err
	}

	weights := sampleWeights(y, lr.Config.BalancedClassWeight)
	obj := &logisticObjective{
		X:       X,
		y:       y,
		weights: weights,
		dim:     numFeatures,
		total:   floats.Sum(weights),
		c:       lr.Config.C,
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 { return obj.eval(x, nil) },
		Grad: func(grad, x []float64) { obj.eval(x, grad) },
	}
	settings := &optimize.Settings{
		MajorIterations:   lr.Config.MaxIterations,
		GradientThreshold: lr.Config.GradientThreshold,
	}
	x0 := make([]float64, NumLabels*(numFeatures+1))

	result, err := optimize.Minimize(problem, x0, settings, &optimize.LBFGS{})
	if result == nil {
		return fmt.Errorf("logistic regression: %w", err)
	}
	if err != nil {
		// Hitting the iteration cap still leaves a usable optimum.
		lr.logger().WithError(err).WithField("status", result.Status.String()).
			Warn("logistic regression did not fully converge")
	}

	params := result.X
	lr.Coef = mat.NewDense(NumLabels, numFeatures, append([]float64(nil), params[:NumLabels*numFeatures]...))
	for k := 0; k < NumLabels; k++ {
		lr.Intercept[k] = params[NumLabels*numFeatures+k]
	}
	lr.Features = numFeatures
	return nil
}

func (lr *LogisticRegression) logger() logrus.FieldLogger {
	if lr.log == nil {
		return logrus.StandardLogger()
	}
	return lr.log
}

func (lr *LogisticRegression) PredictProba(x SparseVector) (Distribution, error) {
	if lr.Coef == nil {
		return Distribution{}, ErrUnfitted
	}
	if err := checkInput(x, lr.Features); err != nil {
		return Distribution{}, err
	}
	var z [NumLabels]float64
	for k := 0; k < NumLabels; k++ {
		z[k] = x.Dot(lr.Coef.RawRowView(k)) + lr.Intercept[k]
	}
	return softmax(z), nil
}

// FeatureWeights returns the coefficients of l's linear score.
func (lr *LogisticRegression) FeatureWeights(l Label) ([]float64, error) {
	if lr.Coef == nil {
		return nil, ErrUnfitted
	}
	if !l.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidLabel, l)
	}
	return mat.Row(nil, l.Index(), lr.Coef), nil
}

// sampleWeights returns n/(k*n_c) per sample when balanced, else 1.
func sampleWeights(y []Label, balanced bool) []float64 {
	w := make([]float64, len(y))
	if !balanced {
		for i := range w {
			w[i] = 1
		}
		return w
	}
	counts := classCounts(y)
	present := 0
	for _, c := range counts {
		if c > 0 {
			present++
		}
	}
	n := float64(len(y))
	for i, l := range y {
		w[i] = n / (float64(present) * counts[l.Index()])
	}
	return w
}

// logisticObjective evaluates the mean weighted loss. Parameters are laid out
// as the row-major coefficient matrix followed by the intercepts.
type logisticObjective struct {
	X       []SparseVector
	y       []Label
	weights []float64
	dim     int
	total   float64
	c       float64
}

func (o *logisticObjective) eval(params, grad []float64) float64 {
	nW := NumLabels * o.dim
	coef := params[:nW]
	bias := params[nW:]

	if grad != nil {
		for i := range grad {
			grad[i] = 0
		}
	}

	var loss float64
	var z [NumLabels]float64
	for i, x := range o.X {
		for k := 0; k < NumLabels; k++ {
			z[k] = x.Dot(coef[k*o.dim:(k+1)*o.dim]) + bias[k]
		}
		lse := floats.LogSumExp(z[:])
		yi := o.y[i].Index()
		sw := o.weights[i]
		loss += sw * (lse - z[yi])

		if grad == nil {
			continue
		}
		for k := 0; k < NumLabels; k++ {
			g := math.Exp(z[k] - lse)
			if k == yi {
				g--
			}
			g *= sw
			row := grad[k*o.dim : (k+1)*o.dim]
			for m, j := range x.Indices {
				row[j] += g * x.Values[m]
			}
			grad[nW+k] += g
		}
	}

	reg := 1 / (o.c * o.total)
	loss /= o.total
	loss += 0.5 * reg * floats.Dot(coef, coef)

	if grad != nil {
		for j := 0; j < nW; j++ {
			grad[j] = grad[j]/o.total + reg*coef[j]
		}
		for k := 0; k < NumLabels; k++ {
			grad[nW+k] /= o.total
		}
	}
	return loss
}
