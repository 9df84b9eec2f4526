package sentimiento

import "errors"

var (
	// ErrUnfitted is returned by inference calls made before Fit or Load.
	ErrUnfitted = errors.New("sentimiento: model is not fitted")

	// ErrModelNotFound is returned when an artifact source does not exist.
	ErrModelNotFound = errors.New("sentimiento: model not found")

	// ErrCorruptModel is returned when an artifact cannot be decoded or its
	// parts disagree with each other.
	ErrCorruptModel = errors.New("sentimiento: corrupt model artifact")

	// ErrModelUnavailable is returned when a loaded artifact is flagged as
	// untrained.
	ErrModelUnavailable = errors.New("sentimiento: model unavailable")

	// ErrInvalidLabel is returned for a label or rating outside the three
	// sentiment classes.
	ErrInvalidLabel = errors.New("sentimiento: invalid label")

	// ErrEmptyCorpus is returned when there is nothing to train or evaluate on.
	ErrEmptyCorpus = errors.New("sentimiento: empty corpus")

	// ErrMissingClass is returned when a corpus lacks a label, or has too few
	// samples of one to split.
	ErrMissingClass = errors.New("sentimiento: corpus is missing a sentiment class")

	// ErrInvalidConfidence is returned for a confidence outside [0, 1].
	ErrInvalidConfidence = errors.New("sentimiento: confidence must be within [0, 1]")

	// ErrNoTermsRemain is returned by Fit when document frequency pruning
	// leaves an empty vocabulary.
	ErrNoTermsRemain = errors.New("sentimiento: after pruning, no terms remain")

	// ErrInvalidConfig wraps every configuration validation failure.
	ErrInvalidConfig = errors.New("sentimiento: invalid configuration")
)
