package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gastrolima/sentimiento"
)

func newTrainCommand(a *app) *cobra.Command {
	var (
		asJSON   bool
		noBackup bool
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train, evaluate and store a sentiment model",
		Long: `Train splits the labelled corpus into train and test sets, fits the TF-IDF
vectorizer on the training half (plus the hard-example set), trains complement
naive Bayes, logistic regression and their soft-voting ensemble, keeps the most
accurate one and evaluates it.

The model is saved only if it passes the quality gate. Otherwise the stored
model is left untouched and the command exits with status 2.

Example:
  sentimiento train --corpus 'data/processed/**/*.csv'
  sentimiento train --corpus reviews.csv --model models/sentiment.gob --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			tc := cfg.Training
			if noBackup {
				tc.Backup = false
			}

			corpus, err := sentimiento.LoadCorpusGlob(cfg.Corpus, cfg.Columns, sentimiento.WithCorpusLogger(a.log))
			if err != nil {
				return err
			}
			a.log.WithField("samples", corpus.Len()).WithField("files", len(corpus.Sources)).Info("corpus loaded")

			opts := []sentimiento.PipelineOpt{sentimiento.WithLogger(a.log)}
			if cfg.HardExamples != "" {
				set, err := sentimiento.LoadHardExamples(cfg.HardExamples)
				if err != nil {
					return err
				}
				opts = append(opts, sentimiento.WithHardExamples(set))
			}
			if cfg.SanityChecks != "" {
				set, err := sentimiento.LoadSanityChecks(cfg.SanityChecks)
				if err != nil {
					return err
				}
				opts = append(opts, sentimiento.WithSanityChecks(set))
			}

			p, err := sentimiento.NewPipeline(tc, opts...)
			if err != nil {
				return err
			}
			report, err := p.Run(cmd.Context(), corpus, cfg.ModelPath)
			if err != nil {
				return err
			}
			if report.Accepted() {
				a.models.Invalidate(cfg.ModelPath)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else {
				fmt.Fprint(cmd.OutOrStdout(), report.Summary())
			}

			if !report.Accepted() {
				return ErrRejected
			}
			return nil
		},
	}

	cmd.Flags().String("corpus", "", "corpus CSV file or glob (supports **)")
	cmd.Flags().String("hard-examples", "", "hard-example YAML (default: embedded set)")
	cmd.Flags().String("sanity-checks", "", "sanity-check YAML (default: embedded set)")
	cmd.Flags().Float64("min-accuracy", 0, "minimum held-out accuracy (default from config)")
	cmd.Flags().BoolVar(&noBackup, "no-backup", false, "do not back up the existing model")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")

	_ = a.v.BindPFlag("corpus", cmd.Flags().Lookup("corpus"))
	_ = a.v.BindPFlag("hard_examples", cmd.Flags().Lookup("hard-examples"))
	_ = a.v.BindPFlag("sanity_checks", cmd.Flags().Lookup("sanity-checks"))
	_ = a.v.BindPFlag("training.gate.min_accuracy", cmd.Flags().Lookup("min-accuracy"))
	return cmd
}
