package sentimiento

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed data/hard_examples.yaml
var hardExamplesYAML []byte

//go:embed data/sanity_checks.yaml
var sanityChecksYAML []byte

// ExampleGroup is a named batch of hand-labelled examples. Texts take the
// group's label; Examples carry their own. Every example is added Repeat
// times to give it more weight.
type ExampleGroup struct {
	Name     string   `yaml:"name"`
	Label    Label    `yaml:"label,omitempty"`
	Repeat   int      `yaml:"repeat"`
	Texts    []string `yaml:"texts,omitempty"`
	Examples []Sample `yaml:"examples,omitempty"`
}

// HardExampleSet is the versioned set of confusing inputs injected into
// every training run.
type HardExampleSet struct {
	Version string         `yaml:"version"`
	Groups  []ExampleGroup `yaml:"groups"`
}

// SanityCheck is an input with a known expected label.
type SanityCheck struct {
	Text     string `yaml:"text"`
	Expected Label  `yaml:"expected"`
}

// SanityCheckSet holds the gate's hand-picked checks and the regression
// probes recorded in reports.
type SanityCheckSet struct {
	Version string        `yaml:"version"`
	Checks  []SanityCheck `yaml:"checks"`
	Probes  []string      `yaml:"probes"`
}

// DefaultHardExamples returns the embedded hard-example set.
func DefaultHardExamples() (*HardExampleSet, error) {
	return ParseHardExamples(hardExamplesYAML)
}

// DefaultSanityChecks returns the embedded sanity checks.
func DefaultSanityChecks() (*SanityCheckSet, error) {
	return ParseSanityChecks(sanityChecksYAML)
}

// LoadHardExamples reads a hard-example set from a YAML file.
func LoadHardExamples(path string) (*HardExampleSet, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read hard examples %q: %w", path, err)
	}
	set, err := ParseHardExamples(b)
	if err != nil {
		return nil, fmt.Errorf("hard examples %q: %w", path, err)
	}
	return set, nil
}

// LoadSanityChecks reads a sanity-check set from a YAML file.
func LoadSanityChecks(path string) (*SanityCheckSet, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sanity checks %q: %w", path, err)
	}
	set, err := ParseSanityChecks(b)
	if err != nil {
		return nil, fmt.Errorf("sanity checks %q: %w", path, err)
	}
	return set, nil
}

// ParseHardExamples decodes and validates a hard-example set.
func ParseHardExamples(b []byte) (*HardExampleSet, error) {
	var set HardExampleSet
	if err := yaml.Unmarshal(b, &set); err != nil {
		return nil, fmt.Errorf("parse hard examples: %w", err)
	}
	for _, g := range set.Groups {
		if len(g.Texts) > 0 && !g.Label.Valid() {
			return nil, fmt.Errorf("%w: group %q has texts but label %q", ErrInvalidLabel, g.Name, g.Label)
		}
		for _, ex := range g.Examples {
			if !ex.Label.Valid() && !g.Label.Valid() {
				return nil, fmt.Errorf("%w: group %q example %q has label %q", ErrInvalidLabel, g.Name, ex.Text, ex.Label)
			}
		}
	}
	return &set, nil
}

// ParseSanityChecks decodes and validates a sanity-check set.
func ParseSanityChecks(b []byte) (*SanityCheckSet, error) {
	var set SanityCheckSet
	if err := yaml.Unmarshal(b, &set); err != nil {
		return nil, fmt.Errorf("parse sanity checks: %w", err)
	}
	for _, c := range set.Checks {
		if !c.Expected.Valid() {
			return nil, fmt.Errorf("%w: sanity check %q expects %q", ErrInvalidLabel, c.Text, c.Expected)
		}
	}
	return &set, nil
}

// Samples expands the set into weighted training samples.
func (s *HardExampleSet) Samples() []Sample {
	if s == nil {
		return nil
	}
	var out []Sample
	for _, g := range s.Groups {
		repeat := g.Repeat
		if repeat < 1 {
			repeat = 1
		}
		for r := 0; r < repeat; r++ {
			for _, t := range g.Texts {
				out = append(out, Sample{Text: t, Label: g.Label})
			}
			for _, ex := range g.Examples {
				l := ex.Label
				if !l.Valid() {
					l = g.Label
				}
				out = append(out, Sample{Text: ex.Text, Label: l})
			}
		}
	}
	return out
}

// Len returns the number of distinct examples, ignoring repeats.
func (s *HardExampleSet) Len() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, g := range s.Groups {
		n += len(g.Texts) + len(g.Examples)
	}
	return n
}
