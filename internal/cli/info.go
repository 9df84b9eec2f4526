package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gastrolima/sentimiento"
)

func newInfoCommand(a *app) *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show the stored model's metadata and metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.models.Get(a.cfg.ModelPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			md := m.Metadata()
			metrics := md.Metrics
			md.Metrics = nil
			b, err := yaml.Marshal(md)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s\n", b)
			if metrics != nil {
				fmt.Fprintln(out, metrics.String())
			}

			if top <= 0 {
				return nil
			}
			for _, l := range sentimiento.Labels {
				feats, err := m.TopFeatures(l, top)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "top features for %s:\n", l)
				for _, f := range feats {
					fmt.Fprintf(out, "  %-30s %.4f\n", f.Term, f.Weight)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&top, "top", 0, "also list the N most indicative terms per label")
	return cmd
}
