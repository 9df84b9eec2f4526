package sentimiento

import (
	"fmt"
	"math"
)

// Tier is a reliability band for a prediction's confidence.
type Tier string

const (
	TierVeryReliable  Tier = "very_reliable"
	TierReliable      Tier = "reliable"
	TierModerate      Tier = "moderate"
	TierLowConfidence Tier = "low_confidence"
	TierIndeterminate Tier = "indeterminate"
)

// Action is what a user interface should do with a prediction.
type Action string

const (
	ActionShow           Action = "show"
	ActionShowWithReview Action = "show_with_review"
	ActionSuggestReview  Action = "suggest_review"
	ActionRequireReview  Action = "require_review"
)

// ReviewLabel replaces the sentiment label on screen for indeterminate
// predictions.
const ReviewLabel = "REQUIERE REVISIÓN"

// Interpretation describes how far a prediction can be trusted.
type Interpretation struct {
	Tier   Tier   `json:"tier"`
	Action Action `json:"recommended_action"`
	Status string `json:"status"`
	Color  string `json:"color"`
	Show   bool   `json:"show"`

	// Display is the label to show: the predicted label, or ReviewLabel
	// when the prediction must not be shown.
	Display string `json:"display_label"`
}

type tierRule struct {
	min    float64
	tier   Tier
	action Action
	status string
	color  string
	show   bool
}

// tierTable is evaluated top-down; the first rule whose minimum is reached
// wins. The last rule covers everything below 0.60.
var tierTable = []tierRule{
	{0.90, TierVeryReliable, ActionShow, "MUY CONFIABLE", "green", true},
	{0.80, TierReliable, ActionShow, "CONFIABLE", "lightgreen", true},
	{0.70, TierModerate, ActionShowWithReview, "MODERADO", "yellow", true},
	{0.60, TierLowConfidence, ActionSuggestReview, "BAJA CONFIANZA", "orange", true},
	{math.Inf(-1), TierIndeterminate, ActionRequireReview, "INDETERMINADO", "red", false},
}

// InterpretConfidence maps a prediction's confidence to a reliability tier.
// Confidence must be a number within [0, 1].
func InterpretConfidence(label Label, confidence float64) (Interpretation, error) {
	if math.IsNaN(confidence) || confidence < 0 || confidence > 1 {
		return Interpretation{}, fmt.Errorf("%w: got %v", ErrInvalidConfidence, confidence)
	}
	for _, r := range tierTable {
		if confidence >= r.min {
			in := Interpretation{
				Tier:    r.tier,
				Action:  r.action,
				Status:  r.status,
				Color:   r.color,
				Show:    r.show,
				Display: string(label),
			}
			if !r.show {
				in.Display = ReviewLabel
			}
			return in, nil
		}
	}
	panic("unreachable: tier table has no catch-all rule")
}
