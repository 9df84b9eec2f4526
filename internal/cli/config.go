package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/gastrolima/sentimiento"
)

// Config is the command-line configuration. Every field can be set in the
// config file or through a SENTIMIENTO_* environment variable, with nested
// keys joined by underscores (SENTIMIENTO_TRAINING_GATE_MIN_ACCURACY).
type Config struct {
	ModelPath    string                   `mapstructure:"model_path" yaml:"model_path"`
	Corpus       string                   `mapstructure:"corpus" yaml:"corpus"`
	Columns      sentimiento.CorpusConfig `mapstructure:"columns" yaml:"columns"`
	HardExamples string                   `mapstructure:"hard_examples" yaml:"hard_examples"`
	SanityChecks string                   `mapstructure:"sanity_checks" yaml:"sanity_checks"`
	LogLevel     string                   `mapstructure:"log_level" yaml:"log_level"`
	LogFormat    string                   `mapstructure:"log_format" yaml:"log_format"`

	Training sentimiento.TrainingConfig `mapstructure:"training" yaml:"training"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		ModelPath: "data/models/sentiment_model.gob",
		Corpus:    "data/processed/*.csv",
		Columns:   sentimiento.DefaultCorpusConfig(),
		LogLevel:  "info",
		LogFormat: "text",
		Training:  sentimiento.DefaultTrainingConfig(),
	}
}

// loadConfig registers the defaults with v and decodes the merged result.
func loadConfig(v *viper.Viper) (Config, error) {
	def := DefaultConfig()
	b, err := yaml.Marshal(def)
	if err != nil {
		return Config{}, fmt.Errorf("encode default config: %w", err)
	}
	var tree map[string]interface{}
	if err := yaml.Unmarshal(b, &tree); err != nil {
		return Config{}, fmt.Errorf("decode default config: %w", err)
	}
	for key, val := range flatten("", tree) {
		v.SetDefault(key, val)
	}

	cfg := def
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Training.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// flatten turns nested maps into dotted viper keys.
func flatten(prefix string, m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{})
	for k, val := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := val.(map[string]interface{}); ok {
			for sk, sv := range flatten(key, sub) {
				out[sk] = sv
			}
			continue
		}
		out[key] = val
	}
	return out
}

func newConfigCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect sentimiento configuration",
		Long: `Inspect the effective configuration.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (SENTIMIENTO_*)
3. Config file (./sentimiento.yaml or ~/.sentimiento/sentimiento.yaml)
4. Defaults`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			if used := a.v.ConfigFileUsed(); used != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Configuration file: %s\n\n", used)
			} else {
				fmt.Fprintf(cmd.ErrOrStderr(), "No configuration file found (using defaults)\n\n")
			}
			out, err := yaml.Marshal(a.cfg)
			if err != nil {
				return fmt.Errorf("error marshaling config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	})
	return cmd
}
