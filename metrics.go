package sentimiento

import (
	"fmt"
	"strings"
	"time"

	"github.com/bsm/mlmetrics"
	"gonum.org/v1/gonum/floats"
)

// ClassMetrics holds precision, recall and F1 for one label. A nil value is
// undefined: nothing was predicted as the label (precision) or the label
// never occurred (recall). F1 counts an undefined side as zero, so it is nil
// only when the label appears in neither the truth nor the predictions.
type ClassMetrics struct {
	Precision *float64 `json:"precision" yaml:"precision"`
	Recall    *float64 `json:"recall" yaml:"recall"`
	F1        *float64 `json:"f1" yaml:"f1"`
	Support   int      `json:"support" yaml:"support"`
}

// Metrics is the evaluation record attached to a model's metadata.
type Metrics struct {
	Samples           int                    `json:"samples" yaml:"samples"`
	Accuracy          float64                `json:"accuracy" yaml:"accuracy"`
	MacroPrecision    float64                `json:"macro_precision" yaml:"macro_precision"`
	MacroRecall       float64                `json:"macro_recall" yaml:"macro_recall"`
	MacroF1           float64                `json:"macro_f1" yaml:"macro_f1"`
	WeightedPrecision float64                `json:"weighted_precision" yaml:"weighted_precision"`
	WeightedRecall    float64                `json:"weighted_recall" yaml:"weighted_recall"`
	WeightedF1        float64                `json:"weighted_f1" yaml:"weighted_f1"`
	Kappa             *float64               `json:"cohen_kappa" yaml:"cohen_kappa"`
	MCC               *float64               `json:"matthews_corrcoef" yaml:"matthews_corrcoef"`
	PerClass          map[Label]ClassMetrics `json:"per_class" yaml:"per_class"`

	// Confusion[i][j] counts samples of label i predicted as label j.
	Confusion   [NumLabels][NumLabels]int `json:"confusion_matrix" yaml:"confusion_matrix"`
	EvaluatedAt time.Time                 `json:"evaluated_at" yaml:"evaluated_at"`
}

// Evaluate compares predictions against the truth. Averages treat undefined
// per-class values as zero and cover only labels seen in either slice.
func Evaluate(truth, predicted []Label) (Metrics, error) {
	if len(truth) == 0 {
		return Metrics{}, ErrEmptyCorpus
	}
	if len(truth) != len(predicted) {
		return Metrics{}, fmt.Errorf("sentimiento: %d true labels but %d predictions", len(truth), len(predicted))
	}

	cm := mlmetrics.NewConfusionMatrix()
	m := Metrics{
		Samples:     len(truth),
		PerClass:    make(map[Label]ClassMetrics, NumLabels),
		EvaluatedAt: time.Now().UTC(),
	}
	for i := range truth {
		a, p := truth[i].Index(), predicted[i].Index()
		if a < 0 {
			return Metrics{}, fmt.Errorf("%w: %q at row %d", ErrInvalidLabel, truth[i], i)
		}
		if p < 0 {
			return Metrics{}, fmt.Errorf("%w: predicted %q at row %d", ErrInvalidLabel, predicted[i], i)
		}
		cm.Observe(a, p)
	}
	m.Accuracy = cm.Accuracy()

	var rowSum, colSum [NumLabels]float64
	for i := 0; i < cm.Order() && i < NumLabels; i++ {
		row := cm.Row(i)
		rowSum[i] = floats.Sum(row)
		for j := 0; j < len(row) && j < NumLabels; j++ {
			m.Confusion[i][j] = int(row[j])
			colSum[j] += row[j]
		}
	}

	var present int
	n := float64(len(truth))
	for c, l := range Labels {
		cls := ClassMetrics{Support: int(rowSum[c])}
		var p, r float64
		if colSum[c] > 0 {
			p = cm.Precision(c)
			cls.Precision = ptr(p)
		}
		if rowSum[c] > 0 {
			r = cm.Sensitivity(c)
			cls.Recall = ptr(r)
		}
		var f1 float64
		if cls.Precision != nil || cls.Recall != nil {
			if p+r > 0 {
				f1 = cm.F1(c)
			}
			cls.F1 = ptr(f1)
		}
		m.PerClass[l] = cls

		if cls.F1 == nil {
			continue
		}
		present++
		m.MacroPrecision += p
		m.MacroRecall += r
		m.MacroF1 += f1
		w := rowSum[c] / n
		m.WeightedPrecision += w * p
		m.WeightedRecall += w * r
		m.WeightedF1 += w * f1
	}
	m.MacroPrecision /= float64(present)
	m.MacroRecall /= float64(present)
	m.MacroF1 /= float64(present)

	// Kappa needs chance agreement below one; MCC needs neither marginal
	// concentrated on a single label.
	rowsOne, colsOne, sameOne := false, false, false
	for k := 0; k < NumLabels; k++ {
		rowsOne = rowsOne || rowSum[k] == n
		colsOne = colsOne || colSum[k] == n
		sameOne = sameOne || (rowSum[k] == n && colSum[k] == n)
	}
	if !sameOne {
		m.Kappa = ptr(cm.Kappa())
	}
	if !rowsOne && !colsOne {
		m.MCC = ptr(cm.Matthews())
	}
	return m, nil
}

func ptr(v float64) *float64 { return &v }

// String renders a classification report.
func (m Metrics) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-10s %9s %9s %9s %9s\n", "", "precision", "recall", "f1-score", "support")
	for _, l := range Labels {
		c := m.PerClass[l]
		fmt.Fprintf(&b, "%-10s %9s %9s %9s %9d\n", l, fmtOpt(c.Precision), fmtOpt(c.Recall), fmtOpt(c.F1), c.Support)
	}
	fmt.Fprintf(&b, "\n%-10s %9s %9s %9.4f %9d\n", "accuracy", "", "", m.Accuracy, m.Samples)
	fmt.Fprintf(&b, "%-10s %9.4f %9.4f %9.4f %9d\n", "macro avg", m.MacroPrecision, m.MacroRecall, m.MacroF1, m.Samples)
	fmt.Fprintf(&b, "%-10s %9.4f %9.4f %9.4f %9d\n", "weighted", m.WeightedPrecision, m.WeightedRecall, m.WeightedF1, m.Samples)
	fmt.Fprintf(&b, "\ncohen kappa: %s\nmatthews:    %s\n", fmtOpt(m.Kappa), fmtOpt(m.MCC))
	return b.String()
}

func fmtOpt(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", *v)
}
