package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gastrolima/sentimiento"
)

func newNormalizeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "normalize <text...>",
		Short: "Show the diagnostic (stemmed, stopword-free) form of comments",
		Long: `Normalize prints what the diagnostic preprocessing makes of each argument:
lowercased, tokenized, stopwords removed (negations and intensifiers are
kept) and stemmed. Predictions do not use this form; they only lowercase.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := sentimiento.NewNormalizer()
			if err != nil {
				return err
			}
			for _, t := range args {
				fmt.Fprintln(cmd.OutOrStdout(), n.NormalizeForDiagnostics(t))
			}
			a.log.WithField("count", len(args)).Debug("normalized")
			return nil
		},
	}
}
