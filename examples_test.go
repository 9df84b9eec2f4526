package sentimiento

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultHardExamples(t *testing.T) {
	set, err := DefaultHardExamples()
	if err != nil {
		t.Fatal(err)
	}
	if set.Version == "" {
		t.Error("embedded hard examples have no version")
	}
	if set.Len() == 0 {
		t.Fatal("embedded hard examples are empty")
	}
	for _, s := range set.Samples() {
		if !s.Label.Valid() || s.Text == "" {
			t.Fatalf("invalid sample %+v", s)
		}
	}
	if len(set.Samples()) <= set.Len() {
		t.Error("repeats not applied")
	}
}

func TestDefaultSanityChecks(t *testing.T) {
	set, err := DefaultSanityChecks()
	if err != nil {
		t.Fatal(err)
	}
	if len(set.Checks) != 6 {
		t.Errorf("got %d checks, want 6", len(set.Checks))
	}
	if len(set.Probes) == 0 {
		t.Error("no probes")
	}
}

func TestHardExampleSamples(t *testing.T) {
	set, err := ParseHardExamples([]byte(`
version: "t"
groups:
  - name: info
    label: neutro
    repeat: 2
    texts: [abierto los domingos]
  - name: mixed
    examples:
      - {text: rico, label: positivo}
      - {text: frío, label: negativo}
`))
	if err != nil {
		t.Fatal(err)
	}
	samples := set.Samples()
	want := []Sample{
		{"abierto los domingos", Neutro},
		{"abierto los domingos", Neutro},
		{"rico", Positivo},
		{"frío", Negativo},
	}
	if len(samples) != len(want) {
		t.Fatalf("Samples() = %+v, want %+v", samples, want)
	}
	for i := range want {
		if samples[i] != want[i] {
			t.Errorf("sample %d = %+v, want %+v", i, samples[i], want[i])
		}
	}
	if set.Len() != 3 {
		t.Errorf("Len() = %d, want 3", set.Len())
	}

	var nilSet *HardExampleSet
	if nilSet.Len() != 0 || nilSet.Samples() != nil {
		t.Error("nil set is not empty")
	}
}

func TestParseExamplesInvalid(t *testing.T) {
	tests := []struct {
		name  string
		parse func([]byte) error
		doc   string
	}{
		{"group without label", func(b []byte) error { _, err := ParseHardExamples(b); return err },
			"groups: [{name: g, texts: [hola]}]"},
		{"example with bad label", func(b []byte) error { _, err := ParseHardExamples(b); return err },
			"groups: [{name: g, examples: [{text: hola, label: mixto}]}]"},
		{"sanity check with bad label", func(b []byte) error { _, err := ParseSanityChecks(b); return err },
			"checks: [{text: hola, expected: bueno}]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.parse([]byte(tt.doc)); !errors.Is(err, ErrInvalidLabel) {
				t.Errorf("error = %v, want ErrInvalidLabel", err)
			}
		})
	}
}

func TestLoadSanityChecksFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "checks.yaml")
	if err := os.WriteFile(p, []byte("version: x\nchecks:\n  - {text: rico, expected: positivo}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	set, err := LoadSanityChecks(p)
	if err != nil {
		t.Fatal(err)
	}
	if len(set.Checks) != 1 || set.Checks[0].Expected != Positivo {
		t.Errorf("unexpected set %+v", set)
	}
	if _, err := LoadHardExamples(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v, want os.ErrNotExist", err)
	}
}
