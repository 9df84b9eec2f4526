package cli

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/gastrolima/sentimiento"
)

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := NewRootCommand()
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

// writeCorpus writes a small labelled CSV where every label has its own
// vocabulary.
func writeCorpus(t *testing.T, path string) {
	t.Helper()
	subjects := []string{"La comida", "El servicio", "La atención", "El ambiente", "El ceviche", "El postre"}
	words := map[string][]string{
		"positivo": {"deliciosa", "excelente", "rica", "espectacular", "amable", "exquisita"},
		"negativo": {"pésimo", "horrible", "fría", "lento", "sucio", "terrible"},
		"neutro":   {"normal", "regular", "promedio", "aceptable", "estándar", "básico"},
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	_ = w.Write([]string{"comment", "sentimiento"})
	for label, ws := range words {
		for _, s := range subjects {
			for i, word := range ws {
				for _, step := range []int{1, 2, 3} {
					_ = w.Write([]string{fmt.Sprintf("%s estuvo %s y %s", s, word, ws[(i+step)%len(ws)]), label})
				}
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		t.Fatal(err)
	}
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "", "version")
	if err != nil {
		t.Fatal(err)
	}
	if out != "sentimiento dev\n" {
		t.Errorf("version output %q", out)
	}
}

func TestConfigShow(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		file  string
		check func(t *testing.T, cfg Config)
	}{
		{
			name: "defaults",
			check: func(t *testing.T, cfg Config) {
				if cfg.ModelPath != "data/models/sentiment_model.gob" || cfg.Training.Gate.MinAccuracy != 0.80 {
					t.Errorf("unexpected defaults: %+v", cfg)
				}
				if cfg.Training.Vectorizer.MaxFeatures != 15000 || cfg.Columns.TextColumn != "comment" {
					t.Errorf("unexpected defaults: %+v", cfg)
				}
			},
		},
		{
			name: "environment",
			env: map[string]string{
				"SENTIMIENTO_MODEL_PATH":                    "/tmp/m.gob",
				"SENTIMIENTO_TRAINING_GATE_MIN_ACCURACY":    "0.5",
				"SENTIMIENTO_TRAINING_VECTORIZER_NGRAM_MAX": "3",
			},
			check: func(t *testing.T, cfg Config) {
				if cfg.ModelPath != "/tmp/m.gob" || cfg.Training.Gate.MinAccuracy != 0.5 || cfg.Training.Vectorizer.NGramMax != 3 {
					t.Errorf("environment not applied: %+v", cfg)
				}
			},
		},
		{
			name: "config file",
			file: "log_level: warn\ntraining:\n  seed: 7\n  logistic:\n    c: 2.5\n",
			check: func(t *testing.T, cfg Config) {
				if cfg.LogLevel != "warn" || cfg.Training.Seed != 7 || cfg.Training.Logistic.C != 2.5 {
					t.Errorf("config file not applied: %+v", cfg)
				}
				if cfg.Training.TestFraction != 0.2 {
					t.Errorf("unset key lost its default: %v", cfg.Training.TestFraction)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			args := []string{"config", "show"}
			if tt.file != "" {
				p := filepath.Join(t.TempDir(), "sentimiento.yaml")
				if err := os.WriteFile(p, []byte(tt.file), 0o644); err != nil {
					t.Fatal(err)
				}
				args = append(args, "--config", p)
			}

			out, _, err := execute(t, "", args...)
			if err != nil {
				t.Fatal(err)
			}
			var cfg Config
			if err := yaml.Unmarshal([]byte(out), &cfg); err != nil {
				t.Fatalf("decode %q: %v", out, err)
			}
			tt.check(t, cfg)
		})
	}
}

func TestConfigInvalid(t *testing.T) {
	t.Setenv("SENTIMIENTO_TRAINING_TEST_FRACTION", "1.5")
	if _, _, err := execute(t, "", "config", "show"); !errors.Is(err, sentimiento.ErrInvalidConfig) {
		t.Errorf("error = %v, want ErrInvalidConfig", err)
	}

	missing := filepath.Join(t.TempDir(), "missing.yaml")
	if _, _, err := execute(t, "", "config", "show", "--config", missing); err == nil {
		t.Error("missing --config file accepted")
	}
}

func TestTrainPredictInfo(t *testing.T) {
	dir := t.TempDir()
	corpus := filepath.Join(dir, "reviews.csv")
	model := filepath.Join(dir, "models", "sentiment_model.gob")
	writeCorpus(t, corpus)

	// The embedded sanity checks use vocabulary this corpus lacks.
	t.Setenv("SENTIMIENTO_TRAINING_GATE_MIN_SANITY_PASS_RATE", "0")

	out, stderr, err := execute(t, "", "train", "--corpus", corpus, "--model", model, "--min-accuracy", "0")
	if err != nil {
		t.Fatalf("train: %v\n%s", err, stderr)
	}
	if !strings.Contains(out, "stage: persisted") {
		t.Fatalf("train output:\n%s", out)
	}
	if !strings.Contains(stderr, "training stage") {
		t.Errorf("stage progress not logged:\n%s", stderr)
	}
	if _, err := os.Stat(model); err != nil {
		t.Fatalf("model not written: %v", err)
	}

	out, _, err = execute(t, "", "predict", "--model", model, "--json", "La comida estuvo deliciosa y excelente")
	if err != nil {
		t.Fatal(err)
	}
	var an struct {
		Sentiment      sentimiento.Label `json:"sentiment"`
		Confidence     float64           `json:"confidence"`
		Interpretation struct {
			Tier string `json:"tier"`
		} `json:"interpretation"`
	}
	if err := json.Unmarshal([]byte(out), &an); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if an.Sentiment != sentimiento.Positivo || an.Interpretation.Tier == "" {
		t.Errorf("prediction %+v", an)
	}

	out, _, err = execute(t, "el servicio estuvo horrible y lento\n\nla atención estuvo normal\n", "predict", "--model", model, "-f", "-")
	if err != nil {
		t.Fatal(err)
	}
	if lines := strings.Split(strings.TrimSpace(out), "\n"); len(lines) != 2 {
		t.Errorf("got %d result lines:\n%s", len(lines), out)
	}

	out, _, err = execute(t, "", "info", "--model", model, "--top", "3")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"model_id:", "config_version: gastronomico-v3", "top features for positivo", "precision"} {
		if !strings.Contains(out, want) {
			t.Errorf("info output lacks %q:\n%s", want, out)
		}
	}
}

func TestTrainRejected(t *testing.T) {
	dir := t.TempDir()
	corpus := filepath.Join(dir, "reviews.csv")
	model := filepath.Join(dir, "sentiment_model.gob")
	checks := filepath.Join(dir, "checks.yaml")
	writeCorpus(t, corpus)
	wrong := `version: wrong
checks:
  - {text: "La comida estuvo deliciosa y excelente", expected: negativo}
  - {text: "El servicio estuvo pésimo y horrible", expected: positivo}
`
	if err := os.WriteFile(checks, []byte(wrong), 0o644); err != nil {
		t.Fatal(err)
	}

	out, _, err := execute(t, "", "train", "--corpus", corpus, "--model", model, "--sanity-checks", checks, "--json")
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("train error = %v, want ErrRejected", err)
	}
	var report struct {
		Stage    sentimiento.Stage `json:"stage"`
		Failures []struct {
			Metric string `json:"metric"`
		} `json:"gate_failures"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.Stage != sentimiento.StageRejected || len(report.Failures) == 0 {
		t.Errorf("report %+v", report)
	}
	if _, err := os.Stat(model); !errors.Is(err, os.ErrNotExist) {
		t.Error("rejected model was written")
	}
}

func TestPredictErrors(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "none.gob")
	if _, _, err := execute(t, "", "predict", "--model", missing, "hola"); !errors.Is(err, sentimiento.ErrModelNotFound) {
		t.Errorf("error = %v, want ErrModelNotFound", err)
	}
	if _, _, err := execute(t, "", "predict", "--model", missing); err == nil {
		t.Error("predict without input succeeded")
	}
}

func TestNormalizeCommand(t *testing.T) {
	out, _, err := execute(t, "", "normalize", "No me gustó", "")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "no ") || lines[1] != "" {
		t.Errorf("normalize output %q", out)
	}
}
